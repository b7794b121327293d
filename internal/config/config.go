// Package config holds runtime configuration loaded from the environment.
package config

import "os"

// Config holds the server's runtime settings. Unset values fall back to
// defaults suitable for local development.
type Config struct {
	// DBPath is the SQLite database file path.
	DBPath string
	// Addr is the HTTP listen address.
	Addr string
	// LogLevel is the minimum log level (debug, info, warn, error).
	LogLevel string
	// LogFormat selects the log encoding (json or console).
	LogFormat string
}

// LoadFromEnv reads configuration from FIELDSTOCK_* environment variables.
func LoadFromEnv() Config {
	return Config{
		DBPath:    envOr("FIELDSTOCK_DB", "fieldstock.db"),
		Addr:      envOr("FIELDSTOCK_ADDR", ":8080"),
		LogLevel:  envOr("FIELDSTOCK_LOG_LEVEL", "info"),
		LogFormat: envOr("FIELDSTOCK_LOG_FORMAT", "json"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
