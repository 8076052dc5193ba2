// Package config handles application configuration loading from environment
// variables. It provides a centralized Config struct used across the application.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Development defaults that must not reach production.
const (
	defaultDBPassword    = "changeme"
	defaultJWTSecret     = "dev-only-jwt-secret-change-me"
	defaultAdminPassword = "admin12345"
)

// Config holds all application configuration values loaded from the environment.
type Config struct {
	// Server settings
	Host     string `env:"APP_HOST, default=0.0.0.0"`
	Port     string `env:"APP_PORT, default=8080"`
	Env      string `env:"APP_ENV, default=development"` // "development", "production", "testing"
	LogLevel string `env:"LOG_LEVEL, default=info"`
	// TrustProxy makes the server take the client address from
	// X-Forwarded-For / X-Real-IP. Enable only behind a reverse proxy.
	TrustProxy bool `env:"TRUST_PROXY, default=false"`
	// MaxUploadMB caps featured image uploads.
	MaxUploadMB int64 `env:"MAX_UPLOAD_MB, default=5"`

	DB     DBConfig
	Valkey ValkeyConfig
	Auth   AuthConfig
	S3     S3Config
	Admin  AdminConfig
}

// DBConfig is the PostgreSQL connection.
type DBConfig struct {
	Host     string `env:"POSTGRES_HOST, default=localhost"`
	Port     string `env:"POSTGRES_PORT, default=5432"`
	User     string `env:"POSTGRES_USER, default=inkwell"`
	Password string `env:"POSTGRES_PASSWORD, default=changeme"`
	Name     string `env:"POSTGRES_DB, default=inkwell"`
	SSLMode  string `env:"POSTGRES_SSLMODE, default=disable"`
}

// ValkeyConfig is the Redis-compatible session store.
type ValkeyConfig struct {
	Host     string `env:"VALKEY_HOST, default=localhost"`
	Port     string `env:"VALKEY_PORT, default=6379"`
	Password string `env:"VALKEY_PASSWORD"`
}

// AuthConfig controls sessions, API tokens and login throttling.
type AuthConfig struct {
	JWTSecret       string        `env:"JWT_SECRET, default=dev-only-jwt-secret-change-me"`
	TokenTTL        time.Duration `env:"JWT_TTL, default=24h"`
	SessionTTL      time.Duration `env:"SESSION_TTL, default=24h"`
	TOTPIssuer      string        `env:"TOTP_ISSUER, default=Inkwell"`
	LoginRateLimit  int           `env:"LOGIN_RATE_LIMIT, default=10"`
	LoginRateWindow time.Duration `env:"LOGIN_RATE_WINDOW, default=15m"`
}

// S3Config is the optional object storage for featured images.
type S3Config struct {
	Endpoint  string `env:"S3_ENDPOINT"`
	Region    string `env:"S3_REGION, default=fsn1"`
	AccessKey string `env:"S3_ACCESS_KEY"`
	SecretKey string `env:"S3_SECRET_KEY"`
	Bucket    string `env:"S3_BUCKET, default=inkwell-media"`
	PublicURL string `env:"S3_PUBLIC_URL"`
}

// Enabled reports whether enough settings are present to connect.
func (c S3Config) Enabled() bool {
	return c.Endpoint != "" && c.AccessKey != "" && c.SecretKey != ""
}

// AdminConfig is the account seeded into an empty database.
type AdminConfig struct {
	Username string `env:"ADMIN_USERNAME, default=admin"`
	Email    string `env:"ADMIN_EMAIL, default=admin@inkwell.local"`
	Password string `env:"ADMIN_PASSWORD, default=admin12345"`
}

// Load reads configuration from the process environment.
func Load(ctx context.Context) (*Config, error) {
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith reads configuration through l, applying defaults for
// development. It returns an error if development secrets are left in
// place in production mode.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: l,
	}); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}

	if _, err := cfg.SlogLevel(); err != nil {
		return nil, err
	}

	if cfg.Env == "production" {
		var errs []error
		if cfg.DB.Password == defaultDBPassword {
			errs = append(errs, errors.New("POSTGRES_PASSWORD must be set in production"))
		}
		if cfg.Auth.JWTSecret == defaultJWTSecret || len(cfg.Auth.JWTSecret) < 32 {
			errs = append(errs, errors.New("JWT_SECRET must be set to at least 32 characters in production"))
		}
		if cfg.Admin.Password == defaultAdminPassword {
			errs = append(errs, errors.New("ADMIN_PASSWORD must be set in production"))
		}
		if err := errors.Join(errs...); err != nil {
			return nil, err
		}
	}

	return &cfg, nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name, c.DB.SSLMode,
	)
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// SlogLevel parses LOG_LEVEL.
func (c *Config) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL %q: %w", c.LogLevel, err)
	}
	return lvl, nil
}
