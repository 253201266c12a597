package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	GenderMale   = "male"
	GenderFemale = "female"
)

// Genders is the closed set accepted for Profile.Gender.
var Genders = []string{GenderMale, GenderFemale}

// Profile belongs to exactly one User. Names and gender are nullable.
type Profile struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	UserID    uuid.UUID `gorm:"type:varchar(36);not null;index" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	FirstName *string   `gorm:"size:255" json:"first_name"`
	LastName  *string   `gorm:"size:255" json:"last_name"`
	Gender    *string   `gorm:"size:16" json:"gender"`
	BirthYear int       `gorm:"not null;default:0;index" json:"birth_year"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Profile) TableName() string {
	return "profiles"
}

// Validate returns ValidationErrors when any profile rule fails, nil otherwise.
func (p *Profile) Validate() error {
	if errs := ValidateProfile(p); len(errs) > 0 {
		return errs
	}
	return nil
}

// BeforeSave blocks every create and update of an invalid profile.
func (p *Profile) BeforeSave(tx *gorm.DB) error {
	return p.Validate()
}
