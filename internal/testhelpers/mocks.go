package testhelpers

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/pageza/profiles/backend/internal/models"
	"github.com/pageza/profiles/backend/internal/service"
	"github.com/pageza/profiles/backend/internal/types"
)

var (
	_ service.IAuthService    = (*MockAuthService)(nil)
	_ service.IProfileService = (*MockProfileService)(nil)
)

// MockAuthService is a mock implementation of service.IAuthService
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	args := m.Called(ctx, name, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*models.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAuthService) GenerateToken(user *models.User) (string, time.Time, error) {
	args := m.Called(user)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockAuthService) ValidateToken(token string) (*types.TokenClaims, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.TokenClaims), args.Error(1)
}

// MockProfileService is a mock implementation of service.IProfileService
type MockProfileService struct {
	mock.Mock
}

func (m *MockProfileService) Create(ctx context.Context, userID uuid.UUID, req *types.CreateProfileRequest) (*models.Profile, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *MockProfileService) Get(ctx context.Context, id uint) (*models.Profile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *MockProfileService) Update(ctx context.Context, userID uuid.UUID, id uint, req *types.UpdateProfileRequest) (*models.Profile, error) {
	args := m.Called(ctx, userID, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *MockProfileService) Delete(ctx context.Context, userID uuid.UUID, id uint) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

func (m *MockProfileService) ListByBirthYearRange(ctx context.Context, r service.BirthYearRange) ([]models.Profile, error) {
	args := m.Called(ctx, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Profile), args.Error(1)
}
