package config

import (
	"fmt"
	"strconv"
	"strings"
)

// minProductionSecretLen is the shortest JWT secret accepted in production.
const minProductionSecretLen = 32

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is every problem found in a Config.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	lines := make([]string, 0, len(v))
	for _, e := range v {
		lines = append(lines, e.Error())
	}
	return strings.Join(lines, "\n")
}

// ValidateConfig checks the whole configuration and reports all problems at once.
func ValidateConfig(cfg *Config) error {
	var errs ValidationErrors
	add := func(field, msg string) {
		errs = append(errs, ValidationError{Field: field, Message: msg})
	}

	if !cfg.Env.Known() {
		add("env", fmt.Sprintf("unknown environment %q", cfg.Env))
	}

	if port, err := strconv.Atoi(cfg.Server.Port); err != nil || port <= 0 || port > 65535 {
		add("server.port", fmt.Sprintf("invalid port %q", cfg.Server.Port))
	}
	if cfg.Server.ShutdownTimeout <= 0 {
		add("server.shutdown_timeout", "must be positive")
	}

	switch cfg.DB.Driver {
	case "postgres", "sqlite":
	default:
		add("db.driver", fmt.Sprintf("unsupported driver %q", cfg.DB.Driver))
	}
	if cfg.DB.URL == "" {
		add("db.url", "DATABASE_URL or database_url secret is required")
	}

	switch {
	case cfg.Auth.JWTSecret == "":
		add("auth.jwt_secret", "JWT_SECRET or jwt_secret secret is required")
	case cfg.Env == Production && len(cfg.Auth.JWTSecret) < minProductionSecretLen:
		add("auth.jwt_secret", fmt.Sprintf("must be at least %d characters in production", minProductionSecretLen))
	}
	if cfg.Auth.TokenTTL <= 0 {
		add("auth.token_ttl", "must be positive")
	}

	if cfg.Redis.URL != "" {
		if cfg.LoginRateLimit.Limit <= 0 {
			add("login_rate_limit.limit", "must be positive")
		}
		if cfg.LoginRateLimit.Window <= 0 {
			add("login_rate_limit.window", "must be positive")
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
