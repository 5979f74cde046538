package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	HTTPPort string
	LogLevel string

	// Incident store backend: "memory" or "postgres".
	StoreBackend string
	DatabaseURL  string

	// Redis is optional; an empty address disables the geocode cache and the
	// alert queue.
	RedisAddr string
	RedisPass string
	RedisDB   int

	// Admin gate credentials. Required; there is no built-in default.
	AdminUsername string
	AdminPassword string

	// Geocoder config
	GeocoderBaseURL string
	GeocoderTimeout time.Duration
	GeocodeCacheTTL time.Duration

	// Alert webhook config
	AlertWebhookURL     string
	AlertWebhookSecret  string
	AlertWebhookTimeout time.Duration
	AlertMaxRetries     int
	AlertBaseDelay      time.Duration
}

const (
	StoreBackendMemory   = "memory"
	StoreBackendPostgres = "postgres"
)

// LoadConfig loads configuration from the environment and an optional .env file.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := &Config{
		HTTPPort:            getEnv("HTTP_PORT", "8080"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		StoreBackend:        getEnv("STORE_BACKEND", StoreBackendMemory),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		RedisAddr:           os.Getenv("REDIS_ADDR"),
		RedisPass:           os.Getenv("REDIS_PASSWORD"),
		RedisDB:             getEnvAsInt("REDIS_DB", 0),
		AdminUsername:       os.Getenv("ADMIN_USERNAME"),
		AdminPassword:       os.Getenv("ADMIN_PASSWORD"),
		GeocoderBaseURL:     getEnv("GEOCODER_BASE_URL", "https://api.postcodes.io"),
		GeocoderTimeout:     getEnvAsDuration("GEOCODER_TIMEOUT", 5*time.Second),
		GeocodeCacheTTL:     getEnvAsDuration("GEOCODE_CACHE_TTL", 24*time.Hour),
		AlertWebhookURL:     os.Getenv("ALERT_WEBHOOK_URL"),
		AlertWebhookSecret:  os.Getenv("ALERT_WEBHOOK_SECRET"),
		AlertWebhookTimeout: getEnvAsDuration("ALERT_WEBHOOK_TIMEOUT", 5*time.Second),
		AlertMaxRetries:     getEnvAsInt("ALERT_MAX_RETRIES", 3),
		AlertBaseDelay:      getEnvAsDuration("ALERT_BASE_DELAY", time.Second),
	}

	if cfg.AdminUsername == "" || cfg.AdminPassword == "" {
		return nil, fmt.Errorf("ADMIN_USERNAME and ADMIN_PASSWORD environment variables are required")
	}

	switch cfg.StoreBackend {
	case StoreBackendMemory:
	case StoreBackendPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when STORE_BACKEND=postgres")
		}
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}

	return cfg, nil
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt returns an environment variable parsed as int, or a default.
func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsDuration returns an environment variable parsed as time.Duration,
// or a default.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if durationValue, err := time.ParseDuration(value); err == nil {
			return durationValue
		}
	}
	return defaultValue
}
