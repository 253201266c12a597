package testhelpers

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pageza/profiles/backend/internal/models"
)

// StrPtr returns a pointer to s.
func StrPtr(s string) *string { return &s }

// IntPtr returns a pointer to i.
func IntPtr(i int) *int { return &i }

// CreateUser inserts a user with a unique email.
func CreateUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	user := &models.User{
		Name:         "Test User",
		Email:        uuid.NewString() + "@example.com",
		PasswordHash: "hashed_password",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateProfile inserts a valid profile for user with the given birth year.
func CreateProfile(t *testing.T, db *gorm.DB, user *models.User, birthYear int) *models.Profile {
	t.Helper()
	profile := &models.Profile{
		UserID:    user.ID,
		FirstName: StrPtr("Alex"),
		LastName:  StrPtr("Doe"),
		Gender:    StrPtr(models.GenderFemale),
		BirthYear: birthYear,
	}
	require.NoError(t, db.Create(profile).Error)
	return profile
}
