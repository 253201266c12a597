package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/profiles/backend/internal/models"
	"github.com/pageza/profiles/backend/internal/service"
	"github.com/pageza/profiles/backend/internal/testhelpers"
	"github.com/pageza/profiles/backend/internal/types"
)

const testSecret = "test-secret"

func setupAuthService(t *testing.T) *service.AuthService {
	t.Helper()
	db := testhelpers.SetupTestDB(t)
	return service.NewAuthService(db, testSecret, "profiles-test", time.Hour)
}

func TestRegisterAndLogin(t *testing.T) {
	svc := setupAuthService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "Ann", " Ann@Example.com ", "password123")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.Equal(t, "ann@example.com", user.Email)
	assert.NotEqual(t, "password123", user.PasswordHash)

	loggedIn, err := svc.Login(ctx, "ann@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := setupAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Ann", "ann@example.com", "password123")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "Other Ann", "ann@example.com", "password456")
	assert.ErrorIs(t, err, service.ErrAlreadyExists)
}

func TestLoginInvalidCredentials(t *testing.T) {
	svc := setupAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Ann", "ann@example.com", "password123")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "ann@example.com", "wrong")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody@example.com", "password123")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
}

func TestGenerateAndValidateToken(t *testing.T) {
	svc := service.NewAuthService(nil, testSecret, "profiles-test", time.Hour)
	user := &models.User{ID: uuid.New(), Email: "ann@example.com"}

	token, expiresAt, err := svc.GenerateToken(user)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "ann@example.com", claims.Email)
}

func TestValidateTokenRejects(t *testing.T) {
	svc := service.NewAuthService(nil, testSecret, "profiles-test", time.Hour)
	user := &models.User{ID: uuid.New()}

	otherIssuer := service.NewAuthService(nil, testSecret, "someone-else", time.Hour)
	foreign, _, err := otherIssuer.GenerateToken(user)
	require.NoError(t, err)

	otherSecret := service.NewAuthService(nil, "another-secret", "profiles-test", time.Hour)
	forged, _, err := otherSecret.GenerateToken(user)
	require.NoError(t, err)

	expiredSvc := service.NewAuthService(nil, testSecret, "profiles-test", -time.Minute)
	expired, _, err := expiredSvc.GenerateToken(user)
	require.NoError(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, &types.TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "profiles-test",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		UserID: user.ID,
	})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"garbage":      "invalid.token",
		"wrong issuer": foreign,
		"wrong secret": forged,
		"expired":      expired,
		"alg none":     unsigned,
	} {
		t.Run(name, func(t *testing.T) {
			claims, err := svc.ValidateToken(token)
			assert.ErrorIs(t, err, service.ErrInvalidToken)
			assert.Nil(t, claims)
		})
	}
}
