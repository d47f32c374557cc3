package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is the server configuration, read from the environment
type Config struct {
	Port        string
	Environment string

	// Database
	DBDriver    string // postgres or sqlite
	DatabaseURL string

	// Redis is optional; without it views are never deduplicated server-side
	RedisHost     string
	RedisPort     string
	RedisPassword string

	LogLevel string
	LogFile  string

	// OpenTelemetry
	OTelEnabled     bool
	OTelEndpoint    string
	OTelSampleRatio float64

	// ViewDedupeWindow is how long a (lead, session) pair is counted once. Zero disables.
	ViewDedupeWindow time.Duration

	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// Load reads .env (if present) and the environment into a Config
func Load() (*Config, error) {
	// .env is optional; the process environment always wins
	_ = godotenv.Load()

	cfg := &Config{
		Port:          getEnvOrDefault("PORT", "8787"),
		Environment:   getEnvOrDefault("ENVIRONMENT", "development"),
		DBDriver:      getEnvOrDefault("DB_DRIVER", "postgres"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisHost:     os.Getenv("REDIS_HOST"),
		RedisPort:     getEnvOrDefault("REDIS_PORT", "6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		LogLevel:      getEnvOrDefault("LOG_LEVEL", "info"),
		LogFile:       getEnvOrDefault("LOG_FILE", "server.log"),
		OTelEnabled:   os.Getenv("OTEL_ENABLED") == "true",
		OTelEndpoint:  getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
	}

	var err error
	if cfg.OTelSampleRatio, err = parseFloat("OTEL_SAMPLE_RATIO", 1.0); err != nil {
		return nil, err
	}
	if cfg.ViewDedupeWindow, err = parseDuration("VIEW_DEDUPE_WINDOW", 30*time.Minute); err != nil {
		return nil, err
	}
	if cfg.RateLimitRequests, err = parseInt("RATE_LIMIT_REQUESTS", 120); err != nil {
		return nil, err
	}
	if cfg.RateLimitWindow, err = parseDuration("RATE_LIMIT_WINDOW", time.Minute); err != nil {
		return nil, err
	}

	if cfg.DBDriver != "postgres" && cfg.DBDriver != "sqlite" {
		return nil, fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", cfg.DBDriver)
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = defaultDatabaseURL(cfg.DBDriver)
	}

	return cfg, nil
}

// RedisEnabled reports whether a Redis host is configured
func (c *Config) RedisEnabled() bool {
	return c.RedisHost != ""
}

// IsDevelopment reports whether the server runs in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func defaultDatabaseURL(driver string) string {
	if driver == "sqlite" {
		return getEnvOrDefault("DB_PATH", "leadbridge.db")
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		getEnvOrDefault("DB_HOST", "localhost"),
		getEnvOrDefault("DB_PORT", "5432"),
		getEnvOrDefault("DB_USER", "postgres"),
		getEnvOrDefault("DB_PASSWORD", ""),
		getEnvOrDefault("DB_NAME", "leadbridge"),
		getEnvOrDefault("DB_SSLMODE", "disable"),
	)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func parseFloat(key string, defaultValue float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

// parseDuration accepts Go durations ("90s") or plain seconds ("90")
func parseDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
