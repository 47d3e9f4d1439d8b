package app

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/deafco/sonicsuite/internal/service"
)

type Config struct {
	SpotifyClientID     string // Required: application client id at the provider
	SpotifyClientSecret string // Required: application client secret
	SpotifyRedirectURI  string // Required: the one registered redirect URI
	SessionSecret       string // Required: HMAC key for session tokens

	SessionIssuer        string        // Optional: issuer claim for session tokens (default: sonicsuite)
	MasterKeyPath        string        // Optional: path to the refresh-token master key file
	DatabaseFile         string        // Optional: path to SQLite database file (default: ./sonicsuite.db)
	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
	SecureCookies        bool          // Mark cookies Secure (default: true outside dev)
}

func LoadConfig() Config {
	cfg := Config{
		SpotifyClientID:      os.Getenv("SPOTIFY_CLIENT_ID"),
		SpotifyClientSecret:  os.Getenv("SPOTIFY_CLIENT_SECRET"),
		SpotifyRedirectURI:   os.Getenv("SPOTIFY_REDIRECT_URI"),
		SessionSecret:        os.Getenv("SESSION_SECRET"),
		SessionIssuer:        getEnvOrDefault("SESSION_ISSUER", "sonicsuite"),
		MasterKeyPath:        os.Getenv("MASTER_KEY_PATH"), // Optional
		DatabaseFile:         getEnvOrDefault("DATABASE_FILE", "sonicsuite.db"),
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}

	cfg.SecureCookies = cfg.Env != "dev"
	if v := os.Getenv("SECURE_COOKIES"); v != "" {
		cfg.SecureCookies = v == "true" || v == "1"
	}

	return cfg
}

// Validate fails fast on missing credentials, before any network call.
// It names the missing variable but never echoes secret values.
func (cfg Config) Validate() error {
	required := map[string]string{
		"SPOTIFY_CLIENT_ID":     cfg.SpotifyClientID,
		"SPOTIFY_CLIENT_SECRET": cfg.SpotifyClientSecret,
		"SPOTIFY_REDIRECT_URI":  cfg.SpotifyRedirectURI,
		"SESSION_SECRET":        cfg.SessionSecret,
	}

	for name, value := range required {
		if value == "" {
			return fmt.Errorf("%s is not set: %w", name, service.ErrConfiguration)
		}
	}

	if len(cfg.SessionSecret) < 32 {
		return fmt.Errorf("SESSION_SECRET must be at least 32 bytes: %w", service.ErrConfiguration)
	}

	return nil
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

	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}
