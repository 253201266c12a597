package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/pageza/profiles/backend/internal/models"
)

var (
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrNotFound           = errors.New("not found")
	ErrAlreadyExists      = errors.New("already exists")
	ErrForbidden          = errors.New("forbidden")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

// userMustExist is reported when a profile references a user that is gone.
var userMustExist = models.FieldError{Field: "user", Message: "must exist", Rule: "user_exists"}

// storageError classifies an error returned by gorm into one of the package
// sentinels and prefixes it with op. Validation errors raised by model hooks
// pass through unchanged so callers can still errors.As them.
func storageError(op string, err error) error {
	if err == nil {
		return nil
	}

	var verrs models.ValidationErrors
	if errors.As(err, &verrs) {
		return fmt.Errorf("%s: %w", op, verrs)
	}

	var pgErr *pgconn.PgError
	isPg := errors.As(err, &pgErr)

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey),
		isPg && pgErr.Code == pgerrcode.UniqueViolation:
		return fmt.Errorf("%s: %w", op, ErrAlreadyExists)
	case errors.Is(err, gorm.ErrForeignKeyViolated),
		isPg && pgErr.Code == pgerrcode.ForeignKeyViolation:
		return fmt.Errorf("%s: %w", op, models.ValidationErrors{userMustExist})
	case isPg && pgerrcode.IsDataException(pgErr.Code):
		return fmt.Errorf("%s: %w: %s", op, ErrInvalidArgument, pgErr.Message)
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("%s: %w", op, err)
	}

	// Anything else means the store could not serve the request: connection
	// loss, closed pool, deadline, or an exception class we do not expect from
	// well-formed statements.
	return fmt.Errorf("%s: %w: %w", op, ErrStorageUnavailable, err)
}
