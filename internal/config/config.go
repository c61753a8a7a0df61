// Package config loads server configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the webmail server configuration.
type Config struct {
	HTTPPort int

	// Storage backend: "memory", "postgres", or "mongo".
	StoreBackend string
	PostgresDSN  string
	MongoURI     string
	MongoDB      string

	// Session
	SessionSecret string
	SessionMaxAge time.Duration

	// Events
	RedisAddr     string
	RedisPassword string

	// Telemetry
	OTelEnabled bool
	ServiceName string
}

// Load reads configuration from the environment with defaults.
func Load() Config {
	return Config{
		HTTPPort:      getEnvInt("HTTP_PORT", 8080),
		StoreBackend:  getEnvString("STORE_BACKEND", "memory"),
		PostgresDSN:   getEnvString("POSTGRES_DSN", ""),
		MongoURI:      getEnvString("MONGO_URI", ""),
		MongoDB:       getEnvString("MONGO_DB", "webmail"),
		SessionSecret: getEnvString("SESSION_SECRET", ""),
		SessionMaxAge: getEnvDuration("SESSION_MAX_AGE", 7*24*time.Hour),
		RedisAddr:     getEnvString("REDIS_ADDR", ""),
		RedisPassword: getEnvString("REDIS_PASSWORD", ""),
		OTelEnabled:   getEnvBool("OTEL_ENABLED", false),
		ServiceName:   getEnvString("SERVICE_NAME", "webmail"),
	}
}

func getEnvString(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.Atoi(strings.TrimSpace(value))
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.ParseBool(strings.TrimSpace(value))
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := time.ParseDuration(strings.TrimSpace(value))
		if err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}
