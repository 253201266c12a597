package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for the application.
//
// Values are read from an optional YAML file first and then overlaid with
// environment variables. Secrets that are still empty afterwards are looked up
// in the Docker secrets directory (SECRETS_DIR, default /run/secrets).
type Config struct {
	Env            Environment     `yaml:"env" env:"ENV" env-default:"development"`
	Server         ServerConfig    `yaml:"server"`
	DB             DBConfig        `yaml:"db"`
	Redis          RedisConfig     `yaml:"redis"`
	Auth           AuthConfig      `yaml:"auth"`
	CORS           CORSConfig      `yaml:"cors"`
	LoginRateLimit RateLimitConfig `yaml:"login_rate_limit"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host              string        `yaml:"host" env:"SERVER_HOST" env-default:"0.0.0.0"`
	Port              string        `yaml:"port" env:"SERVER_PORT" env-default:"8080"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout" env:"SERVER_READ_HEADER_TIMEOUT" env-default:"5s"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// Addr returns the listen address in host:port form.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, s.Port)
}

// DBConfig holds database connection settings
type DBConfig struct {
	// Driver is either "postgres" or "sqlite".
	Driver          string        `yaml:"driver" env:"DB_DRIVER" env-default:"postgres"`
	URL             string        `yaml:"url" env:"DATABASE_URL"`
	MaxOpenConns    int           `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS" env-default:"25"`
	MaxIdleConns    int           `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS" env-default:"25"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME" env-default:"5m"`
	AutoMigrate     bool          `yaml:"auto_migrate" env:"DB_AUTO_MIGRATE" env-default:"false"`
	MigrationsDir   string        `yaml:"migrations_dir" env:"DB_MIGRATIONS_DIR" env-default:"migrations"`
}

// RedisConfig holds redis settings. An empty URL disables redis-backed features.
type RedisConfig struct {
	URL string `yaml:"url" env:"REDIS_URL"`
}

// AuthConfig holds session token settings
type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret" env:"JWT_SECRET"`
	TokenTTL  time.Duration `yaml:"token_ttl" env:"TOKEN_TTL" env-default:"24h"`
	Issuer    string        `yaml:"issuer" env:"TOKEN_ISSUER" env-default:"profiles-api"`
}

// CORSConfig holds cross-origin settings
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" env:"CORS_ORIGINS" env-separator:"," env-default:"http://localhost:5173"`
}

// RateLimitConfig defines a fixed-window limit
type RateLimitConfig struct {
	Window time.Duration `yaml:"window" env:"LOGIN_RATE_LIMIT_WINDOW" env-default:"15m"`
	Limit  int           `yaml:"limit" env:"LOGIN_RATE_LIMIT" env-default:"10"`
}

// LoadConfig reads configuration from path (or CONFIG_PATH when path is empty)
// and the environment, then validates it.
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %q: %w", path, err)
		}
		// ReadConfig overlays the environment on top of the file.
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if os.Getenv("CI") == "true" {
		cfg.Env = CI
	}

	loadSecrets(&cfg)

	if err := ValidateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// MustLoad is LoadConfig that panics on error.
func MustLoad(path string) *Config {
	cfg, err := LoadConfig(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

// loadSecrets fills sensitive values that were not provided via file or env
func loadSecrets(cfg *Config) {
	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = readSecret("jwt_secret")
	}
	if cfg.DB.URL == "" {
		cfg.DB.URL = readSecret("database_url")
	}
	if cfg.Redis.URL == "" {
		cfg.Redis.URL = readSecret("redis_url")
	}
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	if data, err := os.ReadFile(filepath.Join(secretsDir, name)); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}
