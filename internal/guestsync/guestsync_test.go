package guestsync

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"vimusic-server/internal/blobstore"
)

func TestSync_UploadsGuestFile(t *testing.T) {
	store := blobstore.NewMemoryStore()
	guestPath := filepath.Join(t.TempDir(), "vimusic.db")
	if err := os.WriteFile(guestPath, []byte("guest-data"), 0644); err != nil {
		t.Fatalf("write guest file: %v", err)
	}

	b := New(store, guestPath, "0 0 0 * * *")
	if err := b.Sync(context.Background()); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	exists, err := store.Exists(context.Background(), RemoteName)
	if err != nil || !exists {
		t.Errorf("guest backup missing: exists=%v err=%v", exists, err)
	}
}

func TestSync_Overwrites(t *testing.T) {
	store := blobstore.NewMemoryStore()
	guestPath := filepath.Join(t.TempDir(), "vimusic.db")
	if err := os.WriteFile(guestPath, []byte("v1"), 0644); err != nil {
		t.Fatalf("write guest file: %v", err)
	}

	b := New(store, guestPath, "0 0 0 * * *")
	if err := b.Sync(context.Background()); err != nil {
		t.Fatalf("first Sync() error = %v", err)
	}

	if err := os.WriteFile(guestPath, []byte("v2"), 0644); err != nil {
		t.Fatalf("rewrite guest file: %v", err)
	}
	if err := b.Sync(context.Background()); err != nil {
		t.Fatalf("second Sync() error = %v", err)
	}

	dst := filepath.Join(t.TempDir(), "copy.db")
	if err := store.Download(context.Background(), RemoteName, dst); err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	data, _ := os.ReadFile(dst)
	if string(data) != "v2" {
		t.Errorf("backup content = %q, want v2", data)
	}
}

func TestSync_MissingGuestFile(t *testing.T) {
	store := blobstore.NewMemoryStore()
	b := New(store, filepath.Join(t.TempDir(), "absent.db"), "0 0 0 * * *")

	if err := b.Sync(context.Background()); err == nil {
		t.Error("Sync() with missing guest file expected error, got nil")
	}
}

func TestStartStop(t *testing.T) {
	store := blobstore.NewMemoryStore()
	guestPath := filepath.Join(t.TempDir(), "vimusic.db")
	if err := os.WriteFile(guestPath, []byte("guest-data"), 0644); err != nil {
		t.Fatalf("write guest file: %v", err)
	}

	b := New(store, guestPath, "0 0 0 * * *")
	if err := b.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	b.Stop()
}

func TestStart_BadSchedule(t *testing.T) {
	b := New(blobstore.NewMemoryStore(), "x", "not a schedule")
	if err := b.Start(); err == nil {
		t.Error("Start() with invalid schedule expected error, got nil")
	}
}
