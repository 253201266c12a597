package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/pageza/profiles/backend/internal/models"
	"github.com/pageza/profiles/backend/internal/types"
)

// IAuthService defines the interface for authentication operations
type IAuthService interface {
	Register(ctx context.Context, name, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.User, error)
	GenerateToken(user *models.User) (string, time.Time, error)
	ValidateToken(token string) (*types.TokenClaims, error)
}

// IProfileService defines the interface for profile operations
type IProfileService interface {
	Create(ctx context.Context, userID uuid.UUID, req *types.CreateProfileRequest) (*models.Profile, error)
	Get(ctx context.Context, id uint) (*models.Profile, error)
	Update(ctx context.Context, userID uuid.UUID, id uint, req *types.UpdateProfileRequest) (*models.Profile, error)
	Delete(ctx context.Context, userID uuid.UUID, id uint) error
	ListByBirthYearRange(ctx context.Context, r BirthYearRange) ([]models.Profile, error)
}
