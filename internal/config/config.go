package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	APIPort string

	// DataDir holds one SQLite file per identity plus the guest and
	// template databases.
	DataDir        string
	GuestDBName    string
	TemplateDBName string

	// PublicDir is served as the static frontend when it exists.
	PublicDir string

	// Object storage bucket mirroring the per-identity database files.
	// An empty endpoint selects the in-memory backend (local development
	// only; nothing survives a restart).
	StorageEndpoint  string
	StorageAccessKey string
	StorageSecretKey string
	StorageBucket    string
	StorageUseSSL    bool

	// GuestSyncSchedule is a six-field cron expression for the scheduled
	// guest database backup.
	GuestSyncSchedule string

	LogLevel  slog.Level
	LogFormat string
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates required fields.
// If a .env file exists in the current directory or project root, it will be loaded
// automatically. Environment variables already set take precedence over .env values.
func Load() (*Config, error) {
	_ = godotenv.Load() // Try current directory

	// Walk up toward the project root looking for a .env file.
	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ {
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	cfg := &Config{
		APIPort:           getEnv("API_PORT", "5000"),
		DataDir:           getEnv("DATA_DIR", "./data/database"),
		GuestDBName:       getEnv("GUEST_DB_NAME", "vimusic.db"),
		TemplateDBName:    getEnv("TEMPLATE_DB_NAME", "empty.db"),
		PublicDir:         getEnv("PUBLIC_DIR", "./public"),
		StorageEndpoint:   getEnv("STORAGE_ENDPOINT", ""),
		StorageAccessKey:  getEnv("STORAGE_ACCESS_KEY", ""),
		StorageSecretKey:  getEnv("STORAGE_SECRET_KEY", ""),
		StorageBucket:     getEnv("STORAGE_BUCKET", "databases"),
		GuestSyncSchedule: getEnv("GUEST_SYNC_SCHEDULE", "0 0 0 * * *"),
		LogFormat:         getEnv("LOG_FORMAT", "text"),
	}

	useSSLStr := getEnv("STORAGE_USE_SSL", "true")
	useSSL, err := strconv.ParseBool(useSSLStr)
	if err != nil {
		return nil, fmt.Errorf("STORAGE_USE_SSL must be a boolean: %w", err)
	}
	cfg.StorageUseSSL = useSSL

	level, err := parseLogLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = level

	// Remote storage requires credentials; the in-memory backend does not.
	if cfg.StorageEndpoint != "" {
		if cfg.StorageAccessKey == "" {
			return nil, fmt.Errorf("STORAGE_ACCESS_KEY is required when STORAGE_ENDPOINT is set")
		}
		if cfg.StorageSecretKey == "" {
			return nil, fmt.Errorf("STORAGE_SECRET_KEY is required when STORAGE_ENDPOINT is set")
		}
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

// GuestDBPath returns the path of the long-lived guest database file.
func (c *Config) GuestDBPath() string {
	return filepath.Join(c.DataDir, c.GuestDBName)
}

// TemplatePath returns the path of the empty-schema template file used to
// provision new identities.
func (c *Config) TemplatePath() string {
	return filepath.Join(c.DataDir, c.TemplateDBName)
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error; got %q", s)
	}
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
