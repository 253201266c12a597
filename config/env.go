package config

import (
	"log/slog"
	"os"
)

// Environment represents the current runtime environment
type Environment string

const (
	Development Environment = "development"
	Test        Environment = "test"
	CI          Environment = "ci"
	Production  Environment = "production"
)

// GetEnvironment determines the current environment
func GetEnvironment() Environment {
	// CI environment is automatically detected
	if os.Getenv("CI") == "true" {
		return CI
	}
	return ParseEnvironment(os.Getenv("ENV"))
}

// ParseEnvironment maps a raw ENV value to an Environment, defaulting to Development.
func ParseEnvironment(raw string) Environment {
	switch Environment(raw) {
	case Production, Test, CI, Development:
		return Environment(raw)
	default:
		return Development
	}
}

// Known reports whether e is one of the supported environments.
func (e Environment) Known() bool {
	switch e {
	case Development, Test, CI, Production:
		return true
	}
	return false
}

// LogLevel returns the minimum slog level used in this environment.
func (e Environment) LogLevel() slog.Level {
	if e == Production || e == CI {
		return slog.LevelInfo
	}
	return slog.LevelDebug
}

// JSONLogs reports whether logs should be emitted as JSON.
func (e Environment) JSONLogs() bool {
	return e == Production || e == CI
}

// IsDevelopment returns true if the current environment is development
func IsDevelopment() bool {
	return GetEnvironment() == Development
}

// IsProduction returns true if the current environment is production
func IsProduction() bool {
	return GetEnvironment() == Production
}
