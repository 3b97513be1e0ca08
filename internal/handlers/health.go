package handlers

import (
	"context"
	"net/http"
	"time"

	"vimusic-server/internal/blobstore"
	"vimusic-server/internal/contextutil"
	"vimusic-server/internal/httpx"
	"vimusic-server/internal/provision"
)

// HealthHandler reports server, guest database, and bucket status.
type HealthHandler struct {
	store        blobstore.Store
	prov         *provision.Provisioner
	guestDBName  string
	checkTimeout time.Duration
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(store blobstore.Store, prov *provision.Provisioner, guestDBName string) *HealthHandler {
	return &HealthHandler{
		store:        store,
		prov:         prov,
		guestDBName:  guestDBName,
		checkTimeout: 5 * time.Second,
	}
}

// HealthResponse is the health check response body.
type HealthResponse struct {
	Status           string `json:"status"`
	DatabaseLabel    string `json:"databaseLabel"`
	GuestDBExists    bool   `json:"guestDbExists"`
	StorageConnected bool   `json:"storageConnected"`
	Timestamp        string `json:"timestamp"`
}

// ServeHTTP handles GET /api/health.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	checkCtx, cancel := context.WithTimeout(ctx, h.checkTimeout)
	defer cancel()

	storageConnected := true
	if err := h.store.Ping(checkCtx); err != nil {
		logger.WarnContext(ctx, "storage health check failed", "error", err)
		storageConnected = false
	}

	httpx.JSON(w, http.StatusOK, HealthResponse{
		Status:           "ok",
		DatabaseLabel:    h.guestDBName,
		GuestDBExists:    h.prov.CheckGuest(),
		StorageConnected: storageConnected,
		Timestamp:        time.Now().UTC().Format(time.RFC3339),
	})
}
