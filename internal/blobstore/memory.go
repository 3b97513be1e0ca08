package blobstore

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"
)

// MemoryStore is an in-process Store used for local development (no object
// storage credentials configured) and for tests. Contents do not survive a
// restart.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemoryStore creates an empty in-memory Store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

// Exists reports whether the named object is present.
func (s *MemoryStore) Exists(_ context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[name]
	return ok, nil
}

// Upload stores a copy of the local file under name.
func (s *MemoryStore) Upload(_ context.Context, name, localPath string, overwrite bool) error {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return fmt.Errorf("upload %s: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[name]; ok && !overwrite {
		return fmt.Errorf("upload %s: %w", name, ErrExists)
	}
	s.objects[name] = data
	return nil
}

// Download writes the named object's bytes to localPath.
func (s *MemoryStore) Download(_ context.Context, name, localPath string) error {
	s.mu.RLock()
	data, ok := s.objects[name]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("download %s: %w", name, ErrNotExist)
	}
	if err := os.WriteFile(localPath, data, 0644); err != nil {
		return fmt.Errorf("download %s: %w", name, err)
	}
	return nil
}

// PresignedURL returns a synthetic URL; the memory backend has no HTTP surface,
// so this only exists to keep the export endpoint working in development.
func (s *MemoryStore) PresignedURL(_ context.Context, name string, expiry time.Duration) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.objects[name]; !ok {
		return "", fmt.Errorf("presign %s: %w", name, ErrNotExist)
	}
	return fmt.Sprintf("memory://%s?expires=%d", name, int64(expiry.Seconds())), nil
}

// Ping always succeeds.
func (s *MemoryStore) Ping(context.Context) error {
	return nil
}
