package server

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/existflow/vibetrack/internal/logger"
)

// Config holds the server settings, read from the environment
type Config struct {
	Port                    string
	DatabaseURL             string
	RedisURL                string
	FirebaseCredentialsPath string
	SessionTTL              time.Duration
	AuthRateLimit           float64 // requests per second per IP on sign-in endpoints
	AuthRateBurst           int
	SessionPurgeSchedule    string
	LogLevel                string
	LogFile                 string
}

// LoadConfig reads .env (if present) and the environment
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("ignoring unreadable .env file", logger.Err(err))
	}

	cfg := &Config{
		Port:                    getEnv("PORT", "8080"),
		DatabaseURL:             os.Getenv("DATABASE_URL"),
		RedisURL:                os.Getenv("REDIS_URL"),
		FirebaseCredentialsPath: os.Getenv("FIREBASE_CREDENTIALS_PATH"),
		SessionTTL:              getEnvAsDuration("SESSION_TTL", 30*24*time.Hour),
		AuthRateLimit:           getEnvAsFloat("AUTH_RATE_LIMIT", 1),
		AuthRateBurst:           getEnvAsInt("AUTH_RATE_BURST", 5),
		SessionPurgeSchedule:    getEnv("SESSION_PURGE_SCHEDULE", "@hourly"),
		LogLevel:                getEnv("LOG_LEVEL", "INFO"),
		LogFile:                 os.Getenv("LOG_FILE"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports one problem per missing or malformed setting
func (c *Config) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.Port == "" {
		errs = append(errs, errors.New("PORT is required"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if c.AuthRateLimit <= 0 || c.AuthRateBurst <= 0 {
		errs = append(errs, errors.New("AUTH_RATE_LIMIT and AUTH_RATE_BURST must be positive"))
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	value, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}
