package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	SiteURL string // Required: public base URL used in emailed links

	DatabaseFile string // Optional: path to SQLite database file (default: ./auth.db)
	PepperFile   string // Optional: path to file containing pepper for password hashing (default: ./pepper)

	SMTPHost               string // Optional: SMTP host; if empty, emails are logged instead of sent
	SMTPPort               int    // Optional: SMTP port (default: 587)
	SMTPFrom               string // Optional: From address (default: no-reply@<nothing>, set it)
	SMTPUsername           string // Optional: SMTP auth username
	SMTPPassword           string // Optional: SMTP auth password
	SMTPTLSMode            string // Optional: auto, starttls, ssl, none (default: auto)
	SMTPInsecureSkipVerify bool   // Optional: skip TLS verification (dev only)

	OTPTTL           time.Duration // Optional: emailed login code lifetime (default: 10m)
	ChallengeTTL     time.Duration // Optional: login challenge lifetime (default: 10m)
	VerifyEmailTTL   time.Duration // Optional: email verification token lifetime (default: 24h)
	ResetPasswordTTL time.Duration // Optional: password reset token lifetime (default: 1h)
	RememberMeTTL    time.Duration // Optional: remember-me session lifetime (default: 30 days)

	MaxLoginFailures   int           // Optional: failed logins per IP or identifier before limiting (default: 5)
	LoginFailureWindow time.Duration // Optional: window the failure count covers (default: 15m)

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
}

func LoadConfig() Config {
	cfg := Config{
		SiteURL:      getEnvOrDefault("AUTH_SITE_URL", "http://localhost:8080"),
		DatabaseFile: getEnvOrDefault("AUTH_DATABASE_FILE", "auth.db"),
		PepperFile:   getEnvOrDefault("AUTH_PEPPER_FILE", "pepper"),

		SMTPHost:               os.Getenv("SMTP_HOST"),
		SMTPPort:               getEnvIntOrDefault("SMTP_PORT", 587),
		SMTPFrom:               os.Getenv("SMTP_FROM"),
		SMTPUsername:           os.Getenv("SMTP_USERNAME"),
		SMTPPassword:           os.Getenv("SMTP_PASSWORD"),
		SMTPTLSMode:            getEnvOrDefault("SMTP_TLS_MODE", "auto"),
		SMTPInsecureSkipVerify: getEnvBoolOrDefault("SMTP_INSECURE_SKIP_VERIFY", false),

		OTPTTL:           getEnvDurationOrDefault("AUTH_OTP_TTL", 10*time.Minute),
		ChallengeTTL:     getEnvDurationOrDefault("AUTH_CHALLENGE_TTL", 10*time.Minute),
		VerifyEmailTTL:   getEnvDurationOrDefault("AUTH_VERIFY_EMAIL_TTL", 24*time.Hour),
		ResetPasswordTTL: getEnvDurationOrDefault("AUTH_RESET_PASSWORD_TTL", time.Hour),
		RememberMeTTL:    getEnvDurationOrDefault("AUTH_REMEMBER_ME_TTL", 30*24*time.Hour),

		MaxLoginFailures:   getEnvIntOrDefault("AUTH_MAX_LOGIN_FAILURES", 5),
		LoginFailureWindow: getEnvDurationOrDefault("AUTH_LOGIN_FAILURE_WINDOW", 15*time.Minute),

		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}

	if cfg.SMTPFrom == "" {
		cfg.SMTPFrom = "no-reply@localhost"
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

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if boolValue, err := strconv.ParseBool(value); err == nil {
		return boolValue
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

	// Try parsing as integer minutes (for backwards compatibility)
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
