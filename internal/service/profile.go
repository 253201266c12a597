package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pageza/profiles/backend/internal/logctx"
	"github.com/pageza/profiles/backend/internal/metrics"
	"github.com/pageza/profiles/backend/internal/models"
	"github.com/pageza/profiles/backend/internal/types"
)

// BirthYearRange is the filter for ListByBirthYearRange. Both bounds are inclusive.
type BirthYearRange struct {
	Min int
	Max int
}

// ParseBirthYearRange converts raw query parameters into a BirthYearRange.
// Both bounds are required integers.
func ParseBirthYearRange(minRaw, maxRaw string) (BirthYearRange, error) {
	const op = "service.ParseBirthYearRange"

	lo, err := parseYear("min_birth_year", minRaw)
	if err != nil {
		return BirthYearRange{}, fmt.Errorf("%s: %w", op, err)
	}
	hi, err := parseYear("max_birth_year", maxRaw)
	if err != nil {
		return BirthYearRange{}, fmt.Errorf("%s: %w", op, err)
	}
	return BirthYearRange{Min: lo, Max: hi}, nil
}

func parseYear(name, raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("%w: %s is required", ErrInvalidArgument, name)
	}
	v, err := strconv.ParseInt(raw, 10, 32)
	if errors.Is(err, strconv.ErrRange) {
		return 0, fmt.Errorf("%w: %s is out of range", ErrInvalidArgument, name)
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", ErrInvalidArgument, name)
	}
	return int(v), nil
}

// checkBirthYear rejects years the 32-bit birth_year column cannot hold.
func checkBirthYear(year int) error {
	if year < math.MinInt32 || year > math.MaxInt32 {
		return fmt.Errorf("%w: birth_year is out of range", ErrInvalidArgument)
	}
	return nil
}

// Empty reports whether no birth year can satisfy the range.
func (r BirthYearRange) Empty() bool {
	return r.Min > r.Max
}

// Scope applies the inclusive filter and the ascending order. Equal birth
// years are ordered by primary key.
func (r BirthYearRange) Scope(db *gorm.DB) *gorm.DB {
	return db.
		Where("birth_year BETWEEN ? AND ?", r.Min, r.Max).
		Order("birth_year ASC").
		Order("id ASC")
}

// ProfileService handles profile persistence and the birth year lookup.
type ProfileService struct {
	db      *gorm.DB
	metrics *metrics.Metrics
}

// Ensure ProfileService implements IProfileService
var _ IProfileService = (*ProfileService)(nil)

// NewProfileService creates a new ProfileService. m may be nil.
func NewProfileService(db *gorm.DB, m *metrics.Metrics) *ProfileService {
	return &ProfileService{db: db, metrics: m}
}

// Create stores a new profile owned by userID.
func (s *ProfileService) Create(ctx context.Context, userID uuid.UUID, req *types.CreateProfileRequest) (*models.Profile, error) {
	const op = "service.ProfileService.Create"
	log := logctx.From(ctx).With(slog.String("op", op))

	if err := checkBirthYear(req.BirthYear); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	profile := &models.Profile{
		UserID:    userID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Gender:    req.Gender,
		BirthYear: req.BirthYear,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.validate(tx, profile); err != nil {
			return err
		}
		return tx.Create(profile).Error
	})
	if err != nil {
		err = storageError(op, err)
		s.logFailure(log, err)
		return nil, err
	}

	log.Info("profile created", slog.Uint64("profile_id", uint64(profile.ID)))
	return profile, nil
}

// Get returns the profile with the given id.
func (s *ProfileService) Get(ctx context.Context, id uint) (*models.Profile, error) {
	const op = "service.ProfileService.Get"

	var profile models.Profile
	if err := s.db.WithContext(ctx).First(&profile, id).Error; err != nil {
		return nil, storageError(op, err)
	}
	return &profile, nil
}

// Update applies req to the profile id owned by userID. Fields absent from req
// keep their stored values.
func (s *ProfileService) Update(ctx context.Context, userID uuid.UUID, id uint, req *types.UpdateProfileRequest) (*models.Profile, error) {
	const op = "service.ProfileService.Update"
	log := logctx.From(ctx).With(slog.String("op", op), slog.Uint64("profile_id", uint64(id)))

	if req.BirthYear != nil {
		if err := checkBirthYear(*req.BirthYear); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	var profile models.Profile
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&profile, id).Error; err != nil {
			return err
		}
		if profile.UserID != userID {
			return ErrForbidden
		}

		req.FirstName.Apply(&profile.FirstName)
		req.LastName.Apply(&profile.LastName)
		req.Gender.Apply(&profile.Gender)
		if req.BirthYear != nil {
			profile.BirthYear = *req.BirthYear
		}

		if err := s.validate(tx, &profile); err != nil {
			return err
		}
		return tx.Save(&profile).Error
	})
	if errors.Is(err, ErrForbidden) {
		return nil, fmt.Errorf("%s: %w", op, ErrForbidden)
	}
	if err != nil {
		err = storageError(op, err)
		s.logFailure(log, err)
		return nil, err
	}

	log.Info("profile updated")
	return &profile, nil
}

// Delete removes the profile id owned by userID.
func (s *ProfileService) Delete(ctx context.Context, userID uuid.UUID, id uint) error {
	const op = "service.ProfileService.Delete"

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var profile models.Profile
		if err := tx.Select("id", "user_id").First(&profile, id).Error; err != nil {
			return err
		}
		if profile.UserID != userID {
			return ErrForbidden
		}
		return tx.Delete(&profile).Error
	})
	if errors.Is(err, ErrForbidden) {
		return fmt.Errorf("%s: %w", op, ErrForbidden)
	}
	if err != nil {
		return storageError(op, err)
	}

	logctx.From(ctx).Info("profile deleted", slog.String("op", op), slog.Uint64("profile_id", uint64(id)))
	return nil
}

// ListByBirthYearRange returns every profile whose birth year lies in r,
// ascending by birth year. A reversed range yields an empty list.
func (s *ProfileService) ListByBirthYearRange(ctx context.Context, r BirthYearRange) ([]models.Profile, error) {
	const op = "service.ProfileService.ListByBirthYearRange"

	profiles := []models.Profile{}
	if r.Empty() {
		return profiles, nil
	}

	if err := s.db.WithContext(ctx).Scopes(r.Scope).Find(&profiles).Error; err != nil {
		err = storageError(op, err)
		logctx.From(ctx).Error("range query failed", slog.String("op", op), slog.Any("error", err))
		return nil, err
	}

	s.metrics.ObserveRangeQuery()
	return profiles, nil
}

// validate runs the owner check and the profile rules together so the caller
// sees every problem at once.
func (s *ProfileService) validate(tx *gorm.DB, p *models.Profile) error {
	var errs models.ValidationErrors

	var owners int64
	if err := tx.Model(&models.User{}).Where("id = ?", p.UserID).Count(&owners).Error; err != nil {
		return err
	}
	if owners == 0 {
		errs = append(errs, userMustExist)
	}

	errs = append(errs, models.ValidateProfile(p)...)
	if len(errs) > 0 {
		s.metrics.ObserveValidation(errs)
		return errs
	}
	return nil
}

func (s *ProfileService) logFailure(log *slog.Logger, err error) {
	var verrs models.ValidationErrors
	if errors.As(err, &verrs) {
		log.Debug("profile rejected", slog.Any("errors", []models.FieldError(verrs)))
		return
	}
	log.Error("profile write failed", slog.Any("error", err))
}
