package app

import (
	"os"
	"strconv"
	"time"

	"github.com/aussiebroadwan/sdaportal/pkg/jwtx"
)

type Config struct {
	Users          string        // Required: seed users, "username:password:role[:name]" separated by ';'
	Issuer         string        // Optional: issuer claim for tokens (default: sdaportal-devauth)
	SigningKeyFile string        // Optional: PEM Ed25519 key; generated per run when empty
	PepperFile     string        // Optional: pepper for password hashing (default: ./pepper)
	AccessTTL      time.Duration // Optional: access token lifetime (default: 15m)
	RefreshTTL     time.Duration // Optional: refresh token lifetime (default: 24h)

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 5000)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

func LoadConfig() Config {
	return Config{
		Users:               os.Getenv("DEVAUTH_USERS"),
		Issuer:              getEnvOrDefault("DEVAUTH_ISSUER", "sdaportal-devauth"),
		SigningKeyFile:      os.Getenv("DEVAUTH_SIGNING_KEY_FILE"),
		PepperFile:          getEnvOrDefault("DEVAUTH_PEPPER_FILE", "pepper"),
		AccessTTL:           getEnvDurationOrDefault("DEVAUTH_ACCESS_TTL", jwtx.DefaultAccessTokenTTL),
		RefreshTTL:          getEnvDurationOrDefault("DEVAUTH_REFRESH_TTL", jwtx.DefaultRefreshTokenTTL),
		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 5000),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}
	return defaultValue
}

// getEnvDurationOrDefault accepts Go durations ("15m") or a bare integer
// number of seconds.
func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
