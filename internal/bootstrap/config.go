// Package bootstrap loads configuration and wires the application together.
package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"matchroom/internal/domain"
)

// Config carries every runtime setting of the service. Values come from the
// environment, with a .env file as the development convenience.
type Config struct {
	ServerPort string
	GinMode    string

	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret string

	CatalogBaseURL  string
	CatalogAPIKey   string
	CatalogTimeout  time.Duration
	CatalogCacheTTL time.Duration

	ActivityThresholds domain.ActivityThresholds
	RefreshThreshold   float64

	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// LoadConfig reads the environment. A missing .env file is fine in
// production; missing required values are not.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),
		GinMode:    getEnv("GIN_MODE", "debug"),

		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBHost:     getEnv("DB_HOST", "127.0.0.1"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBName:     getEnv("DB_NAME", "matchroom"),

		RedisAddr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		JWTSecret: os.Getenv("JWT_SECRET"),

		CatalogBaseURL:  getEnv("CATALOG_BASE_URL", "https://api.themoviedb.org/3"),
		CatalogAPIKey:   os.Getenv("CATALOG_API_KEY"),
		CatalogTimeout:  getEnvDuration("CATALOG_TIMEOUT", 5*time.Second),
		CatalogCacheTTL: getEnvDuration("CATALOG_CACHE_TTL", 24*time.Hour),

		ActivityThresholds: domain.ActivityThresholds{
			Warning:   getEnvDuration("ACTIVITY_WARNING", 15*time.Minute),
			Inactive:  getEnvDuration("ACTIVITY_INACTIVE", 30*time.Minute),
			Exclusion: getEnvDuration("ACTIVITY_EXCLUSION", 60*time.Minute),
		},
		RefreshThreshold: getEnvFloat("REFRESH_THRESHOLD", 0.9),

		RateLimitRequests: getEnvInt("RATE_LIMIT_REQUESTS", 120),
		RateLimitWindow:   getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		logrus.WithField("key", key).Warn("Invalid integer in environment, using default")
		return fallback
	}
	return value
}

func getEnvFloat(key string, fallback float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		logrus.WithField("key", key).Warn("Invalid float in environment, using default")
		return fallback
	}
	return value
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		logrus.WithField("key", key).Warn("Invalid duration in environment, using default")
		return fallback
	}
	return value
}
