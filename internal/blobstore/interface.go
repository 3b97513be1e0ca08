// Package blobstore is the client boundary to the durable object storage bucket
// holding the canonical per-identity database backups.
package blobstore

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_store.go -package=mocks vimusic-server/internal/blobstore Store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotExist is returned when the named object is absent from the bucket.
	ErrNotExist = errors.New("object does not exist")
	// ErrExists is returned by a no-overwrite Upload when the object is already
	// present. First-login provisioning relies on this to fail loudly instead of
	// clobbering a concurrent writer's upload.
	ErrExists = errors.New("object already exists")
)

// Store defines the object storage operations the server needs: upload,
// download, existence checks, and time-limited download references.
type Store interface {
	// Exists reports whether the named object is present in the bucket.
	Exists(ctx context.Context, name string) (bool, error)

	// Upload copies the local file into the bucket under name. With overwrite
	// false it returns ErrExists if the object is already present.
	Upload(ctx context.Context, name, localPath string, overwrite bool) error

	// Download copies the named object to localPath, replacing any existing
	// file. Returns ErrNotExist if the object is absent.
	Download(ctx context.Context, name, localPath string) error

	// PresignedURL returns a time-limited download URL for the named object.
	// Returns ErrNotExist if the object is absent.
	PresignedURL(ctx context.Context, name string, expiry time.Duration) (string, error)

	// Ping verifies the bucket is reachable.
	Ping(ctx context.Context) error
}
