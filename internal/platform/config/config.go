package config

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

// Email backend selectors accepted in EMAIL_BACKEND.
const (
	EmailBackendConsole = "console"
	EmailBackendSMTP    = "smtp"
)

type Config struct {
	AppEnv      string `env:"APP_ENV" default:"development"`
	Port        string `env:"PORT" default:"8080"`
	DatabaseURL string `env:"DATABASE_URL"`
	SecretKey   string `env:"SECRET_KEY"`
	BaseURL     string `env:"BASE_URL" default:"http://localhost:8080"`
	LogLevel    string `env:"LOG_LEVEL" default:"info"`
	LogFormat   string `env:"LOG_FORMAT" default:"text"`

	// Email delivery. Defaults mirror a plain local MTA so that a bare
	// EMAIL_BACKEND=smtp works against localhost:25 without TLS.
	EmailBackend      string `env:"EMAIL_BACKEND" default:"console"`
	EmailUseTLS       bool   `env:"EMAIL_USE_TLS" default:"false"`
	EmailHost         string `env:"EMAIL_HOST" default:"localhost"`
	EmailHostUser     string `env:"EMAIL_HOST_USER"`
	EmailHostPassword string `env:"EMAIL_HOST_PASSWORD"`
	EmailPort         int    `env:"EMAIL_PORT" default:"25"`
	EmailFrom         string `env:"EMAIL_FROM" default:"gennotes@localhost"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	required := map[string]string{
		"SECRET_KEY":   cfg.SecretKey,
		"DATABASE_URL": cfg.DatabaseURL,
	}
	for name, value := range required {
		if value == "" {
			return fmt.Errorf("%s is required", name)
		}
	}

	if len(cfg.SecretKey) < 32 {
		return errors.New("SECRET_KEY must be at least 32 characters")
	}

	switch cfg.EmailBackend {
	case EmailBackendConsole, EmailBackendSMTP:
	default:
		return fmt.Errorf("EMAIL_BACKEND must be %q or %q, got %q",
			EmailBackendConsole, EmailBackendSMTP, cfg.EmailBackend)
	}

	if cfg.EmailPort < 1 || cfg.EmailPort > 65535 {
		return fmt.Errorf("EMAIL_PORT must be between 1 and 65535, got %d", cfg.EmailPort)
	}

	if cfg.EmailBackend == EmailBackendSMTP && cfg.EmailHost == "" {
		return errors.New("EMAIL_HOST is required when EMAIL_BACKEND is smtp")
	}

	return nil
}

// IsProduction reports whether the service runs with production hardening
// (Secure session cookies, JSON logs recommended).
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}
