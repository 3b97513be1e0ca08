package config

import (
	"log/slog"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("DATA_DIR", tmpDir+"/db")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.APIPort != "5000" {
		t.Errorf("APIPort = %q, want 5000", cfg.APIPort)
	}
	if cfg.GuestDBName != "vimusic.db" {
		t.Errorf("GuestDBName = %q, want vimusic.db", cfg.GuestDBName)
	}
	if cfg.TemplateDBName != "empty.db" {
		t.Errorf("TemplateDBName = %q, want empty.db", cfg.TemplateDBName)
	}
	if cfg.StorageBucket != "databases" {
		t.Errorf("StorageBucket = %q, want databases", cfg.StorageBucket)
	}
	if cfg.GuestSyncSchedule != "0 0 0 * * *" {
		t.Errorf("GuestSyncSchedule = %q, want daily midnight", cfg.GuestSyncSchedule)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, want info", cfg.LogLevel)
	}
}

func TestLoad_CreatesDataDir(t *testing.T) {
	tmpDir := t.TempDir()
	dataDir := filepath.Join(tmpDir, "nested", "database")
	t.Setenv("DATA_DIR", dataDir)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.DataDir != dataDir {
		t.Errorf("DataDir = %q, want %q", cfg.DataDir, dataDir)
	}
}

func TestLoad_StorageCredentialsRequired(t *testing.T) {
	t.Setenv("DATA_DIR", t.TempDir())
	t.Setenv("STORAGE_ENDPOINT", "storage.example.com")
	t.Setenv("STORAGE_ACCESS_KEY", "")
	t.Setenv("STORAGE_SECRET_KEY", "")

	if _, err := Load(); err == nil {
		t.Error("Load() expected error for missing storage credentials, got nil")
	}

	t.Setenv("STORAGE_ACCESS_KEY", "key")
	if _, err := Load(); err == nil {
		t.Error("Load() expected error for missing secret key, got nil")
	}

	t.Setenv("STORAGE_SECRET_KEY", "secret")
	if _, err := Load(); err != nil {
		t.Errorf("Load() unexpected error with full credentials: %v", err)
	}
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	t.Setenv("DATA_DIR", t.TempDir())
	t.Setenv("LOG_LEVEL", "verbose")

	if _, err := Load(); err == nil {
		t.Error("Load() expected error for invalid LOG_LEVEL, got nil")
	}
}

func TestDerivedPaths(t *testing.T) {
	cfg := &Config{DataDir: "/var/lib/vimusic", GuestDBName: "vimusic.db", TemplateDBName: "empty.db"}

	if got := cfg.GuestDBPath(); got != "/var/lib/vimusic/vimusic.db" {
		t.Errorf("GuestDBPath() = %q", got)
	}
	if got := cfg.TemplatePath(); got != "/var/lib/vimusic/empty.db" {
		t.Errorf("TemplatePath() = %q", got)
	}
}
