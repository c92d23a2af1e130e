package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	AuthURL string // Auth backend base URL (default: http://localhost:5000)

	PersistentDriver string        // Persistent scope driver: sqlite or redis (default: sqlite)
	DatabaseFile     string        // SQLite file for the persistent scope (default: ./portal.db)
	RedisURL         string        // Redis URL when PersistentDriver is redis
	PersistentTTL    time.Duration // Idle lifetime of a remembered session (default: 24h)
	EphemeralIdle    time.Duration // Idle lifetime of a browser-session login (default: 2h)

	LoginPath      string        // Redirect target for unauthenticated callers (default: /login)
	HomePath       string        // Redirect target for forbidden callers (default: /)
	CookieName     string        // Session cookie name (default: sdaportal_session)
	CookieSecure   bool          // Mark cookies Secure (default: false in dev, true otherwise)
	RefreshTimeout time.Duration // Upper bound on one refresh call (default: 10s)

	HousekeepingInterval time.Duration // How often idle sessions are swept (default: 15m)

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

func LoadConfig() Config {
	env := getEnvOrDefault("ENV", "dev")

	return Config{
		AuthURL:              getEnvOrDefault("PORTAL_AUTH_URL", "http://localhost:5000"),
		PersistentDriver:     strings.ToLower(getEnvOrDefault("PORTAL_PERSISTENT_DRIVER", "sqlite")),
		DatabaseFile:         getEnvOrDefault("PORTAL_DATABASE_FILE", "portal.db"),
		RedisURL:             getEnvOrDefault("PORTAL_REDIS_URL", "redis://localhost:6379/0"),
		PersistentTTL:        getEnvDurationOrDefault("PORTAL_PERSISTENT_TTL", 24*time.Hour),
		EphemeralIdle:        getEnvDurationOrDefault("PORTAL_EPHEMERAL_IDLE", 2*time.Hour),
		LoginPath:            getEnvOrDefault("PORTAL_LOGIN_PATH", "/login"),
		HomePath:             getEnvOrDefault("PORTAL_HOME_PATH", "/"),
		CookieName:           getEnvOrDefault("PORTAL_COOKIE_NAME", "sdaportal_session"),
		CookieSecure:         getEnvBoolOrDefault("PORTAL_COOKIE_SECURE", env != "dev"),
		RefreshTimeout:       getEnvDurationOrDefault("PORTAL_REFRESH_TIMEOUT", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("PORTAL_HOUSEKEEPING_INTERVAL", 15*time.Minute),
		Env:                  env,
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
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

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are minutes.
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
