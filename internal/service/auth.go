package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/pageza/profiles/backend/internal/logctx"
	"github.com/pageza/profiles/backend/internal/models"
	"github.com/pageza/profiles/backend/internal/types"
)

// AuthService registers users and issues session tokens.
type AuthService struct {
	db        *gorm.DB
	jwtSecret []byte
	issuer    string
	tokenTTL  time.Duration
	now       func() time.Time
}

// Ensure AuthService implements IAuthService
var _ IAuthService = (*AuthService)(nil)

func NewAuthService(db *gorm.DB, jwtSecret, issuer string, tokenTTL time.Duration) *AuthService {
	return &AuthService{
		db:        db,
		jwtSecret: []byte(jwtSecret),
		issuer:    issuer,
		tokenTTL:  tokenTTL,
		now:       time.Now,
	}
}

// Register creates a user with a bcrypt password hash.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	const op = "service.AuthService.Register"

	// Check if user already exists
	var existing int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", normalizeEmail(email)).Count(&existing).Error; err != nil {
		return nil, storageError(op, err)
	}
	if existing > 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrAlreadyExists)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user := &models.User{
		Name:         name,
		Email:        normalizeEmail(email),
		PasswordHash: string(hashedPassword),
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, storageError(op, err)
	}

	logctx.From(ctx).Info("user registered", slog.String("op", op), slog.String("user_id", user.ID.String()))
	return user, nil
}

// Login checks credentials. Unknown emails and wrong passwords are
// indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, error) {
	const op = "service.AuthService.Login"

	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}
		return nil, storageError(op, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}
	return &user, nil
}

// GenerateToken signs an HS256 token for user and returns it with its expiry.
func (s *AuthService) GenerateToken(user *models.User) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.tokenTTL)

	claims := &types.TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
		UserID: user.ID,
		Email:  user.Email,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("service.AuthService.GenerateToken: %w", err)
	}
	return signed, expiresAt, nil
}

// ValidateToken parses and verifies a token produced by GenerateToken.
func (s *AuthService) ValidateToken(tokenString string) (*types.TokenClaims, error) {
	const op = "service.AuthService.ValidateToken"

	claims := &types.TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (interface{}, error) { return s.jwtSecret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}
	if claims.UserID == uuid.Nil {
		return nil, fmt.Errorf("%s: %w: missing user_id", op, ErrInvalidToken)
	}
	return claims, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
