package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"
)

const (
	SourceSQLite = "sqlite"
	SourceHTTP   = "http"
)

// Config holds all configuration for the application.
type Config struct {
	AppEnv                string
	Source                string
	DBPath                string
	DBDriver              string
	RedisAddr             string
	GRPCPort              int
	GRPCReflectionEnabled bool
	HTTPAddr              string
	BackendURL            string
	BackendToken          string
	BackendAdminID        string
	FetchConcurrency      int
	FetchTimeout          time.Duration
	CacheTTL              time.Duration
}

// LoadFromEnv loads configuration from environment variables.
// Unparsable numbers and durations fall back to their defaults.
func LoadFromEnv() *Config {
	return &Config{
		AppEnv:                getEnv("APP_ENV", "development"),
		Source:                getEnv("SOURCE", SourceSQLite),
		DBPath:                getEnv("DB_PATH", "./data/wellness.db"),
		DBDriver:              getEnv("DB_DRIVER", "sqlite3"),
		RedisAddr:             os.Getenv("REDIS_ADDR"),
		GRPCPort:              getEnvInt("GRPC_PORT", 50051),
		GRPCReflectionEnabled: getEnvBool("GRPC_REFLECTION_ENABLED", false),
		HTTPAddr:              getEnv("HTTP_ADDR", ":8080"),
		BackendURL:            os.Getenv("BACKEND_URL"),
		BackendToken:          os.Getenv("BACKEND_TOKEN"),
		BackendAdminID:        os.Getenv("BACKEND_ADMIN_ID"),
		FetchConcurrency:      getEnvInt("FETCH_CONCURRENCY", 4),
		FetchTimeout:          getEnvDuration("FETCH_TIMEOUT", 5*time.Second),
		CacheTTL:              getEnvDuration("CACHE_TTL", 10*time.Minute),
	}
}

// Validate reports settings that make startup impossible.
func (c *Config) Validate() error {
	switch c.Source {
	case SourceSQLite:
		if c.DBPath == "" {
			return fmt.Errorf("DB_PATH is required for source %q", c.Source)
		}
	case SourceHTTP:
		if c.BackendURL == "" {
			return fmt.Errorf("BACKEND_URL is required for source %q", c.Source)
		}
	default:
		return fmt.Errorf("unknown SOURCE %q: want %q or %q", c.Source, SourceSQLite, SourceHTTP)
	}
	return nil
}

// NewLogger creates a new Zap logger based on the config.
func NewLogger(cfg *Config) (*zap.Logger, error) {
	if cfg.AppEnv == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	b, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return b
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, ""))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
