package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	ServerPort  string `envconfig:"SERVER_PORT" default:"8080"`
	DBDriver    string `envconfig:"DB_DRIVER" default:"mysql"`
	DatabaseDSN string `envconfig:"DATABASE_DSN" default:"user:password@tcp(localhost:3306)/bizcards?charset=utf8mb4&parseTime=True&loc=Local"`
	ResetDB     bool   `envconfig:"RESET_DB" default:"false"`

	RedisAddr string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPass string        `envconfig:"REDIS_PASSWORD"`
	RedisDB   int           `envconfig:"REDIS_DB" default:"0"`
	CacheTTL  time.Duration `envconfig:"CACHE_TTL" default:"5m"`

	JWTSecret        string        `envconfig:"JWT_SECRET" required:"true"`
	TokenTTL         time.Duration `envconfig:"TOKEN_TTL" default:"0"`
	AllowAdminSignup bool          `envconfig:"ALLOW_ADMIN_SIGNUP" default:"false"`

	SentryDSN         string `envconfig:"SENTRY_DSN"`
	SentryEnvironment string `envconfig:"SENTRY_ENVIRONMENT" default:"development"`

	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	SwaggerHost string `envconfig:"SWAGGER_HOST"`
}

// Admin is the account created by the seed command.
type Admin struct {
	Email    string `envconfig:"ADMIN_EMAIL" required:"true"`
	Password string `envconfig:"ADMIN_PASSWORD" required:"true"`
	Name     string `envconfig:"ADMIN_NAME" default:"Administrator"`
}

// Load builds Config from the environment, reading an optional .env file first.
func Load() (*Config, error) {
	// a missing .env is fine, real environments export variables directly
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("load config: JWT_SECRET must not be empty")
	}
	if cfg.DBDriver != "mysql" && cfg.DBDriver != "postgres" {
		return nil, fmt.Errorf("load config: unsupported DB_DRIVER %q", cfg.DBDriver)
	}
	return &cfg, nil
}

// LoadAdmin reads the seed command's administrator settings.
func LoadAdmin() (*Admin, error) {
	_ = godotenv.Load()

	var admin Admin
	if err := envconfig.Process("", &admin); err != nil {
		return nil, fmt.Errorf("load admin config: %w", err)
	}
	return &admin, nil
}
