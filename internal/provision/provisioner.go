// Package provision decides which physical database file backs an identity and
// materializes it locally from the template or the blob store.
package provision

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"vimusic-server/internal/blobstore"
	"vimusic-server/internal/identity"
)

// Provisioner maps identities to database files and lazily creates or fetches
// them. It is stateless; all state lives on disk and in the bucket.
type Provisioner struct {
	dataDir      string
	guestDBName  string
	templatePath string
	store        blobstore.Store
	logger       *slog.Logger
}

// New creates a Provisioner.
func New(dataDir, guestDBName, templatePath string, store blobstore.Store) *Provisioner {
	return &Provisioner{
		dataDir:      dataDir,
		guestDBName:  guestDBName,
		templatePath: templatePath,
		store:        store,
		logger:       slog.Default(),
	}
}

// ResolvePath returns the local database path for an identity. Pure mapping:
// the guest sentinel maps to the fixed guest file, everything else to
// <dataDir>/<identity>.db.
func (p *Provisioner) ResolvePath(id string) string {
	if identity.IsGuest(id) {
		return filepath.Join(p.dataDir, p.guestDBName)
	}
	return filepath.Join(p.dataDir, id+".db")
}

// RemoteName returns the bucket object name for an identity.
func (p *Provisioner) RemoteName(id string) string {
	return id + ".db"
}

// GuestPath returns the fixed guest database path.
func (p *Provisioner) GuestPath() string {
	return filepath.Join(p.dataDir, p.guestDBName)
}

// EnsureLocal makes the identity's database file present locally, downloading
// it from the bucket or creating it from the template. Returns isNew=true only
// when a brand-new database was provisioned.
//
// The guest database never takes the cloud path here; it is provisioned out of
// band and only backed up on a schedule.
func (p *Provisioner) EnsureLocal(ctx context.Context, id string) (isNew bool, err error) {
	localPath := p.ResolvePath(id)

	if _, err := os.Stat(localPath); err == nil {
		return false, nil
	}

	if identity.IsGuest(id) {
		return false, fmt.Errorf("guest database missing at %s", localPath)
	}

	remote := p.RemoteName(id)
	exists, err := p.store.Exists(ctx, remote)
	if err != nil {
		return false, fmt.Errorf("check remote database: %w", err)
	}

	if exists {
		if err := p.store.Download(ctx, remote, localPath); err != nil {
			return false, fmt.Errorf("download database: %w", err)
		}
		p.logger.InfoContext(ctx, "downloaded existing database", "identity", id)
		return false, nil
	}

	// New identity: copy the template, then claim the remote name with a
	// no-overwrite upload so a concurrent first login fails loudly instead of
	// silently clobbering the other writer. On upload failure the local copy
	// is rolled back so no half-provisioned file remains.
	if err := copyFile(p.templatePath, localPath); err != nil {
		return false, fmt.Errorf("copy template: %w", err)
	}

	if err := p.store.Upload(ctx, remote, localPath, false); err != nil {
		if rmErr := os.Remove(localPath); rmErr != nil {
			p.logger.ErrorContext(ctx, "failed to roll back local database",
				"identity", id, "path", localPath, "error", rmErr)
		}
		return false, fmt.Errorf("upload new database: %w", err)
	}

	p.logger.InfoContext(ctx, "provisioned new database", "identity", id)
	return true, nil
}

// CheckGuest verifies the guest database file exists on disk. Missing guest
// data is an operator error, logged at startup, never fatal.
func (p *Provisioner) CheckGuest() bool {
	_, err := os.Stat(p.GuestPath())
	return err == nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dst)
		return err
	}
	return nil
}
