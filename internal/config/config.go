package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Supported storage backends.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// CleanupDisabled turns off the scheduled attachment sweep when used as CLEANUP_SCHEDULE.
const CleanupDisabled = "off"

// Config holds the application configuration.
type Config struct {
	AppEnv          string
	Debug           bool
	Version         string
	BotToken        string
	SentryDSN       string
	DefaultLanguage string

	DBDriver        string
	DatabaseDSN     string
	MongoDBURI      string
	MongoDBDatabase string

	TempDir          string
	CleanupSchedule  string
	AttachmentMaxAge time.Duration
	RateLimit        int
	LogFile          string
}

// LoadConfig loads configuration from environment variables.
// It attempts to load a .env file if present but prioritizes
// actual environment variables set in the system (e.g., by Docker).
func LoadConfig() (*Config, error) {
	// Load .env file if it exists (useful for development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}
	return FromEnv()
}

// FromEnv builds the configuration from the current environment only.
func FromEnv() (*Config, error) {
	debug, err := strconv.ParseBool(getEnv("DEBUG", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid DEBUG: %w", err)
	}

	rateLimit, err := strconv.Atoi(getEnv("RATE_LIMIT", "20"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT: %w", err)
	}
	if rateLimit <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT must be positive, got %d", rateLimit)
	}

	maxAge, err := time.ParseDuration(getEnv("ATTACHMENT_MAX_AGE", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid ATTACHMENT_MAX_AGE: %w", err)
	}

	cfg := &Config{
		AppEnv:          getEnv("APP_ENV", "development"),
		Debug:           debug,
		Version:         getEnv("VERSION", "dev"),
		BotToken:        getEnv("TELEGRAM_BOT_TOKEN", ""),
		SentryDSN:       getEnv("SENTRY_DSN", ""),
		DefaultLanguage: getEnv("DEFAULT_LANGUAGE", "ru"),

		DBDriver:        strings.ToLower(getEnv("DB_DRIVER", DriverSQLite)),
		DatabaseDSN:     getEnv("DATABASE_DSN", ""),
		MongoDBURI:      getEnv("MONGODB_URI", ""),
		MongoDBDatabase: getEnv("MONGODB_DATABASE", ""),

		TempDir:          getEnv("TEMP_DIR", "temp"),
		CleanupSchedule:  getEnv("CLEANUP_SCHEDULE", "@hourly"),
		AttachmentMaxAge: maxAge,
		RateLimit:        rateLimit,
		LogFile:          getEnv("LOG_FILE", ""),
	}

	// Basic validation for essential variables
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}
	if cfg.TempDir == "" {
		return nil, fmt.Errorf("TEMP_DIR cannot be empty")
	}

	switch cfg.DBDriver {
	case DriverSQLite:
		if cfg.DatabaseDSN == "" {
			cfg.DatabaseDSN = "database.db?_busy_timeout=5000"
		}
	case DriverPostgres:
		if cfg.DatabaseDSN == "" {
			return nil, fmt.Errorf("DATABASE_DSN is required for the postgres driver")
		}
	case DriverMongo:
		if cfg.MongoDBURI == "" {
			return nil, fmt.Errorf("MONGODB_URI is required")
		}
		if cfg.MongoDBDatabase == "" {
			return nil, fmt.Errorf("MONGODB_DATABASE is required")
		}
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}

	if cfg.SentryDSN == "" {
		log.Println("Warning: SENTRY_DSN is not set. Error tracking disabled.")
	}

	return cfg, nil
}

// CleanupEnabled reports whether the attachment sweep should be scheduled.
func (c *Config) CleanupEnabled() bool {
	return c.CleanupSchedule != "" && !strings.EqualFold(c.CleanupSchedule, CleanupDisabled)
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
