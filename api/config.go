package api

import (
	"log/slog"
	"os"
	"strconv"
)

// Config is the service configuration, sourced from the environment.
type Config struct {
	Port          string
	MaxFileSizeMB int64
	TempDir       string
	DBPath        string
	LogJSON       bool
	LogLevel      slog.Level
}

// ConfigFromEnv reads PDFSQUEEZE_* variables, filling defaults for
// anything unset.
func ConfigFromEnv() Config {
	cfg := Config{
		Port:          envOr("PDFSQUEEZE_PORT", "8080"),
		MaxFileSizeMB: envInt("PDFSQUEEZE_MAX_FILE_SIZE_MB", 50),
		TempDir:       envOr("PDFSQUEEZE_TEMP_DIR", os.TempDir()),
		DBPath:        envOr("PDFSQUEEZE_DB_PATH", "pdfsqueeze.db"),
		LogJSON:       os.Getenv("PDFSQUEEZE_LOG_JSON") == "1",
	}
	switch envOr("PDFSQUEEZE_LOG_LEVEL", "info") {
	case "debug":
		cfg.LogLevel = slog.LevelDebug
	case "warn":
		cfg.LogLevel = slog.LevelWarn
	case "error":
		cfg.LogLevel = slog.LevelError
	default:
		cfg.LogLevel = slog.LevelInfo
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
