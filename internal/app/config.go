package app

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	TokenSecret string // Required: HMAC secret for session tokens
	Issuer      string // Issuer claim for tokens (default: perseus-defend)

	AccessTTL     time.Duration // Access token lifetime (default: 1m)
	RefreshTTL    time.Duration // Refresh token lifetime (default: 15m)
	RememberMeTTL time.Duration // Refresh lifetime with rememberMe (default: 168h)

	LockoutMaxAttempts int           // Failed logins before a lock (default: 5)
	LockoutDuration    time.Duration // Lock length (default: 24h)
	LockoutResetAfter  time.Duration // Quiet period that restarts the counter (default: 15m)

	DatabaseFile string // Path to SQLite database file (default: ./perseus.db)
	PepperFile   string // Path to the password pepper file (default: ./pepper)

	SMTPHost     string // Empty disables delivery; codes land in the log
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	MailFrom     string
	SalesAddress string // Receives demo request notices

	SentryDSN string // Empty disables Sentry

	Env                  string // Environment (dev, staging, prod) (default: dev)
	LogLevel             string // Log level (debug, info, warn, error) (default: info)
	LogFormat            string // Log format (json, text) (default: json)
	Port                 int    // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration
	HousekeepingInterval time.Duration
}

func LoadConfig() Config {
	// Local development keeps settings in a .env file; absence is fine.
	_ = godotenv.Load()

	cfg := Config{
		TokenSecret: os.Getenv("AUTH_TOKEN_SECRET"),
		Issuer:      getEnvOrDefault("AUTH_ISSUER", "perseus-defend"),

		AccessTTL:     getEnvDurationOrDefault("AUTH_ACCESS_TOKEN_TTL", time.Minute),
		RefreshTTL:    getEnvDurationOrDefault("AUTH_REFRESH_TOKEN_TTL", 15*time.Minute),
		RememberMeTTL: getEnvDurationOrDefault("AUTH_REMEMBER_ME_TTL", 7*24*time.Hour),

		LockoutMaxAttempts: getEnvIntOrDefault("AUTH_LOCKOUT_MAX_ATTEMPTS", 5),
		LockoutDuration:    getEnvDurationOrDefault("AUTH_LOCKOUT_DURATION", 24*time.Hour),
		LockoutResetAfter:  getEnvDurationOrDefault("AUTH_LOCKOUT_RESET_AFTER", 15*time.Minute),

		DatabaseFile: getEnvOrDefault("DATABASE_FILE", "perseus.db"),
		PepperFile:   getEnvOrDefault("PEPPER_FILE", "pepper"),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getEnvIntOrDefault("SMTP_PORT", 587),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		MailFrom:     getEnvOrDefault("MAIL_FROM", "no-reply@perseusdefend.com"),
		SalesAddress: getEnvOrDefault("SALES_ADDRESS", "sales@perseusdefend.com"),

		SentryDSN: os.Getenv("SENTRY_DSN"),

		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", time.Hour),
	}

	return cfg
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

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are read as minutes.
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
