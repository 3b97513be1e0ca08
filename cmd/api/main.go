package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vimusic-server/internal/blobstore"
	"vimusic-server/internal/config"
	"vimusic-server/internal/guestsync"
	"vimusic-server/internal/http"
	"vimusic-server/internal/provision"
	"vimusic-server/internal/storage"
)

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))

	// The empty-schema template is what new identities are provisioned from.
	if err := storage.EnsureTemplate(cfg.TemplatePath()); err != nil {
		log.Fatalf("Failed to ensure template database: %v", err)
	}
	slog.Info("Template database ready", "path", cfg.TemplatePath())

	// Object storage client: real bucket when configured, in-memory otherwise.
	var store blobstore.Store
	if cfg.StorageEndpoint != "" {
		store, err = blobstore.NewMinioStore(blobstore.MinioConfig{
			Endpoint:  cfg.StorageEndpoint,
			AccessKey: cfg.StorageAccessKey,
			SecretKey: cfg.StorageSecretKey,
			Bucket:    cfg.StorageBucket,
			UseSSL:    cfg.StorageUseSSL,
		})
		if err != nil {
			log.Fatalf("Failed to create storage client: %v", err)
		}
		slog.Info("Object storage connected", "endpoint", cfg.StorageEndpoint, "bucket", cfg.StorageBucket)
	} else {
		store = blobstore.NewMemoryStore()
		slog.Warn("STORAGE_ENDPOINT not set; using in-memory object storage (development only)")
	}

	prov := provision.New(cfg.DataDir, cfg.GuestDBName, cfg.TemplatePath(), store)

	// The guest database is provisioned out of band; missing is an operator
	// error, logged, not fatal.
	if !prov.CheckGuest() {
		slog.Error("Guest database missing", "path", cfg.GuestDBPath())
	} else {
		slog.Info("Guest database found", "path", cfg.GuestDBPath())
	}

	router := http.NewRouter(&http.Deps{
		Provisioner: prov,
		Store:       store,
		GuestDBName: cfg.GuestDBName,
		PublicDir:   cfg.PublicDir,
	})

	backup := guestsync.New(store, cfg.GuestDBPath(), cfg.GuestSyncSchedule)
	if err := backup.Start(); err != nil {
		log.Fatalf("Failed to start guest backup schedule: %v", err)
	}

	addr := ":" + cfg.APIPort
	server := &nethttp.Server{
		Addr:    addr,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("Starting API server", "addr", addr, "data_dir", cfg.DataDir)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			log.Fatalf("API server failed: %v", err)
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}
	backup.Stop()
}
