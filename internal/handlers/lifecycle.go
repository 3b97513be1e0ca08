package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"vimusic-server/internal/blobstore"
	"vimusic-server/internal/contextutil"
	"vimusic-server/internal/httpx"
	"vimusic-server/internal/identity"
	"vimusic-server/internal/provision"
)

// exportURLExpiry bounds the lifetime of an export download reference.
const exportURLExpiry = time.Hour

// importFormField is the multipart field carrying the uploaded database file.
const importFormField = "database"

// maxImportSize caps an imported database file at 64 MiB.
const maxImportSize = 64 << 20

// LifecycleHandler owns the endpoints that change which database file is
// current: login, sync, logout, import, and export. These routes bypass the
// session middleware and manage files directly, always completing the
// blob-store half of a transition before touching the local file so a crash
// leaves the cloud copy as the fallback.
type LifecycleHandler struct {
	prov  *provision.Provisioner
	store blobstore.Store
}

// NewLifecycleHandler creates a new LifecycleHandler.
func NewLifecycleHandler(prov *provision.Provisioner, store blobstore.Store) *LifecycleHandler {
	return &LifecycleHandler{prov: prov, store: store}
}

// emailParam validates the {email} route parameter and returns the derived
// identity, or writes a 400 and returns ok=false.
func emailParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	email := chi.URLParam(r, "email")
	if !identity.ValidEmail(email) {
		httpx.Error(w, http.StatusBadRequest, "Invalid email format")
		return "", false
	}
	return identity.FromHeader(email), true
}

// Login handles POST /api/login/{email}: make the identity's database local,
// provisioning from the template and persisting to the bucket when brand new.
func (h *LifecycleHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	id, ok := emailParam(w, r)
	if !ok {
		return
	}

	isNew, err := h.prov.EnsureLocal(ctx, id)
	if err != nil {
		logger.ErrorContext(ctx, "login failed", "identity", id, "error", err)
		httpx.Error(w, http.StatusInternalServerError, "Failed to load user database")
		return
	}

	message := "Database loaded"
	if isNew {
		message = "New database created"
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"message":         message,
		"user":            chi.URLParam(r, "email"),
		"isNew":           isNew,
		"requiresRefresh": true,
	})
}

// Sync handles POST /api/sync-database/{email}: overwrite-upload the local file
// without ending the session. 404 when no local file exists.
func (h *LifecycleHandler) Sync(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	id, ok := emailParam(w, r)
	if !ok {
		return
	}

	localPath := h.prov.ResolvePath(id)
	if _, err := os.Stat(localPath); err != nil {
		httpx.Error(w, http.StatusNotFound, "Local database not found")
		return
	}

	if err := h.store.Upload(ctx, h.prov.RemoteName(id), localPath, true); err != nil {
		logger.ErrorContext(ctx, "sync failed", "identity", id, "error", err)
		httpx.Error(w, http.StatusInternalServerError, "Failed to sync database")
		return
	}

	logger.InfoContext(ctx, "database synced", "identity", id)
	httpx.JSON(w, http.StatusOK, map[string]any{
		"message": "Database synced successfully",
		"success": true,
	})
}

// Logout handles POST /api/logout/{email}: upload then delete the local file.
// The upload happens first; local deletion only follows a durable cloud copy.
// Logout with no local file is an idempotent success.
func (h *LifecycleHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	id, ok := emailParam(w, r)
	if !ok {
		return
	}

	localPath := h.prov.ResolvePath(id)
	if _, err := os.Stat(localPath); err == nil {
		if err := h.store.Upload(ctx, h.prov.RemoteName(id), localPath, true); err != nil {
			logger.ErrorContext(ctx, "logout upload failed", "identity", id, "error", err)
			httpx.Error(w, http.StatusInternalServerError, "Failed to sync database")
			return
		}
		if err := os.Remove(localPath); err != nil {
			logger.ErrorContext(ctx, "failed to remove local database", "identity", id, "error", err)
			httpx.Error(w, http.StatusInternalServerError, "Failed to remove local database")
			return
		}
		logger.InfoContext(ctx, "logged out, database uploaded and local copy removed", "identity", id)
	}

	httpx.JSON(w, http.StatusOK, map[string]any{
		"message":         "Logged out successfully",
		"requiresRefresh": true,
	})
}

// Import handles POST /api/import-database/{email}: replace the identity's
// database wholesale from an uploaded file. The supplied file is staged to a
// temp path, overwrite-uploaded to the bucket, and only then swapped in
// locally by downloading the just-uploaded blob.
func (h *LifecycleHandler) Import(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	id, ok := emailParam(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxImportSize); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid upload")
		return
	}
	file, _, err := r.FormFile(importFormField)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, fmt.Sprintf("Missing %q file field", importFormField))
		return
	}
	defer file.Close()

	staging := filepath.Join(os.TempDir(), "import-"+uuid.New().String()+".db")
	if err := writeToFile(staging, file); err != nil {
		logger.ErrorContext(ctx, "failed to stage import", "identity", id, "error", err)
		httpx.Error(w, http.StatusInternalServerError, "Failed to stage imported database")
		return
	}
	defer func() {
		_ = os.Remove(staging)
	}()

	remote := h.prov.RemoteName(id)
	if err := h.store.Upload(ctx, remote, staging, true); err != nil {
		logger.ErrorContext(ctx, "import upload failed", "identity", id, "error", err)
		httpx.Error(w, http.StatusInternalServerError, "Failed to upload imported database")
		return
	}

	// Cloud copy is durable; now replace the local file from it.
	localPath := h.prov.ResolvePath(id)
	if err := os.Remove(localPath); err != nil && !os.IsNotExist(err) {
		logger.ErrorContext(ctx, "failed to discard local database", "identity", id, "error", err)
		httpx.Error(w, http.StatusInternalServerError, "Failed to replace local database")
		return
	}
	if err := h.store.Download(ctx, remote, localPath); err != nil {
		logger.ErrorContext(ctx, "import download failed", "identity", id, "error", err)
		httpx.Error(w, http.StatusInternalServerError, "Failed to download imported database")
		return
	}

	logger.InfoContext(ctx, "database imported", "identity", id)
	httpx.JSON(w, http.StatusOK, map[string]any{
		"message":         "Database imported successfully",
		"requiresRefresh": true,
	})
}

// ImportHint handles GET /api/import-database: the import endpoint is POST
// only, with the email in the path and the file in a multipart body.
func (h *LifecycleHandler) ImportHint(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Allow", http.MethodPost)
	httpx.Error(w, http.StatusMethodNotAllowed,
		"Use POST /api/import-database/{email} with a multipart \"database\" file field")
}

// Export handles GET /api/download-database/{email}: a time-limited download
// reference to the stored blob. Export always serves the bucket copy, never
// the local file.
func (h *LifecycleHandler) Export(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	id, ok := emailParam(w, r)
	if !ok {
		return
	}

	url, err := h.store.PresignedURL(ctx, h.prov.RemoteName(id), exportURLExpiry)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotExist) {
			httpx.Error(w, http.StatusNotFound, "Database not found in cloud storage")
			return
		}
		logger.ErrorContext(ctx, "export failed", "identity", id, "error", err)
		httpx.Error(w, http.StatusInternalServerError, "Failed to generate download URL")
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]any{
		"url":       url,
		"expiresIn": int64(exportURLExpiry.Seconds()),
	})
}

func writeToFile(path string, src io.Reader) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, src); err != nil {
		_ = out.Close()
		_ = os.Remove(path)
		return err
	}
	return out.Close()
}
