package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application.
type AppConfig struct {
	Port                string
	DatabasePath        string
	LogLevel            string
	Environment         string
	CronSpecQuoteExpiry string
}

// Load reads configuration from environment variables and a .env file (if
// present). godotenv never overrides variables already set in the
// environment.
func Load() (*AppConfig, error) {
	_ = godotenv.Load()

	cfg := &AppConfig{
		Port:                envOrDefault("PORT", "8080"),
		DatabasePath:        envOrDefault("DATABASE_PATH", "lessonbook.db"),
		LogLevel:            strings.ToLower(envOrDefault("LOG_LEVEL", "info")),
		Environment:         strings.ToLower(envOrDefault("ENVIRONMENT", "development")),
		CronSpecQuoteExpiry: envOrDefault("CRON_SPEC_QUOTE_EXPIRY", "*/5 * * * *"),
	}

	if cfg.DatabasePath == "" {
		return nil, fmt.Errorf("DATABASE_PATH must not be empty")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
