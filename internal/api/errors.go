package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/profiles/backend/internal/logctx"
	"github.com/pageza/profiles/backend/internal/middleware"
	"github.com/pageza/profiles/backend/internal/models"
	"github.com/pageza/profiles/backend/internal/service"
)

// ValidationErrorResponse is the 422 body.
type ValidationErrorResponse struct {
	Error  string              `json:"error"`
	Errors []models.FieldError `json:"errors"`
}

// respondError maps service errors onto HTTP responses.
func respondError(c *gin.Context, err error) {
	var verrs models.ValidationErrors
	if errors.As(err, &verrs) {
		c.JSON(http.StatusUnprocessableEntity, ValidationErrorResponse{
			Error:  "validation failed",
			Errors: verrs,
		})
		return
	}

	status, msg := http.StatusInternalServerError, "internal server error"
	switch {
	case errors.Is(err, service.ErrInvalidArgument):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrNotFound):
		status, msg = http.StatusNotFound, "not found"
	case errors.Is(err, service.ErrForbidden):
		status, msg = http.StatusForbidden, "forbidden"
	case errors.Is(err, service.ErrAlreadyExists):
		status, msg = http.StatusConflict, "already exists"
	case errors.Is(err, service.ErrInvalidCredentials):
		status, msg = http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, service.ErrStorageUnavailable):
		status, msg = http.StatusServiceUnavailable, "storage unavailable"
	}

	if status >= http.StatusInternalServerError {
		logctx.From(c.Request.Context()).Error("request failed", slog.Any("error", err))
	}
	c.JSON(status, middleware.ErrorResponse{Error: msg})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, middleware.ErrorResponse{Error: msg})
}
