package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Config holds all configuration values.
type Config struct {
	// Backend endpoints
	APIURL      string
	RealtimeURL string

	// Message history page size on conversation open
	PageSize int

	// Logging
	LogFile  string
	LogLevel slog.Level

	// Stored session location
	SessionFile string

	// Last-session stats snapshot location
	StatsFile string
}

// Load reads configuration from environment variables.
func Load() Config {
	return Config{
		APIURL:      getEnv("SWAPCIRCLE_API_URL", "http://localhost:8787"),
		RealtimeURL: getEnv("SWAPCIRCLE_REALTIME_URL", "ws://localhost:8787/realtime"),

		PageSize: getEnvInt("SWAPCIRCLE_PAGE_SIZE", 60),

		LogFile:  getEnv("SWAPCIRCLE_LOG_FILE", filepath.Join(os.TempDir(), "swapcircle.log")),
		LogLevel: parseLogLevel(getEnv("SWAPCIRCLE_LOG_LEVEL", "INFO")),

		SessionFile: getEnv("SWAPCIRCLE_SESSION_FILE", defaultSessionFile()),
		StatsFile:   getEnv("SWAPCIRCLE_STATS_FILE", filepath.Join(os.TempDir(), "swapcircle-stats.json")),
	}
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "swapcircle-session.yaml")
	}
	return filepath.Join(dir, "swapcircle", "session.yaml")
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			return n
		}
	}
	return defaultVal
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
