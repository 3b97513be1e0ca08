// Package guestsync backs up the long-lived guest database to the bucket on a
// schedule, decoupled from any request lifecycle.
package guestsync

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/robfig/cron/v3"

	"vimusic-server/internal/blobstore"
)

// RemoteName is the bucket object the guest backup is written to.
const RemoteName = "guest.db"

// syncTimeout bounds one backup upload.
const syncTimeout = 5 * time.Minute

// Backup uploads the guest database on a cron schedule. Failures are logged
// and retried on the next tick; no request ever waits on a guest backup.
type Backup struct {
	store     blobstore.Store
	guestPath string
	schedule  string
	cron      *cron.Cron
	logger    *slog.Logger
}

// New creates a Backup with a six-field cron schedule (seconds first), e.g.
// "0 0 0 * * *" for daily at midnight.
func New(store blobstore.Store, guestPath, schedule string) *Backup {
	return &Backup{
		store:     store,
		guestPath: guestPath,
		schedule:  schedule,
		cron:      cron.New(cron.WithSeconds()),
		logger:    slog.Default(),
	}
}

// Start runs one backup immediately in the background and then on every
// schedule tick.
func (b *Backup) Start() error {
	if _, err := b.cron.AddFunc(b.schedule, func() {
		b.runOnce()
	}); err != nil {
		return err
	}

	go b.runOnce()
	b.cron.Start()
	b.logger.Info("guest database backup scheduled", "schedule", b.schedule)
	return nil
}

// Stop halts the schedule and waits for a running backup to finish.
func (b *Backup) Stop() {
	<-b.cron.Stop().Done()
}

func (b *Backup) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
	defer cancel()

	if err := b.Sync(ctx); err != nil {
		b.logger.Error("guest database backup failed", "error", err)
		return
	}
	b.logger.Info("guest database backed up", "object", RemoteName)
}

// Sync performs one overwrite-upload of the guest database file.
func (b *Backup) Sync(ctx context.Context) error {
	if _, err := os.Stat(b.guestPath); err != nil {
		return err
	}
	return b.store.Upload(ctx, RemoteName, b.guestPath, true)
}
