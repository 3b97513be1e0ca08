package http

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"vimusic-server/internal/blobstore"
	"vimusic-server/internal/provision"
	"vimusic-server/internal/storage"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	dataDir := t.TempDir()
	templatePath := filepath.Join(dataDir, "empty.db")
	if err := storage.EnsureTemplate(templatePath); err != nil {
		t.Fatalf("EnsureTemplate() error = %v", err)
	}
	prov := provision.New(dataDir, "vimusic.db", templatePath, blobstore.NewMemoryStore())
	if err := storage.EnsureTemplate(prov.GuestPath()); err != nil {
		t.Fatalf("EnsureTemplate(guest) error = %v", err)
	}

	return NewRouter(&Deps{
		Provisioner: prov,
		Store:       blobstore.NewMemoryStore(),
		GuestDBName: "vimusic.db",
	})
}

func TestRouter_Routes(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
	}{
		{name: "health", method: http.MethodGet, path: "/api/health", wantStatus: http.StatusOK},
		{name: "songs", method: http.MethodGet, path: "/api/songs", wantStatus: http.StatusOK},
		{name: "favorites", method: http.MethodGet, path: "/api/favorites", wantStatus: http.StatusOK},
		{name: "playlists", method: http.MethodGet, path: "/api/playlists", wantStatus: http.StatusOK},
		{name: "login bad email", method: http.MethodPost, path: "/api/login/nope", wantStatus: http.StatusBadRequest},
		{name: "login wrong method", method: http.MethodGet, path: "/api/login/a@b.com", wantStatus: http.StatusMethodNotAllowed},
		{name: "import hint", method: http.MethodGet, path: "/api/import-database", wantStatus: http.StatusMethodNotAllowed},
		{name: "export missing", method: http.MethodGet, path: "/api/download-database/a@b.com", wantStatus: http.StatusNotFound},
		{name: "unknown route", method: http.MethodGet, path: "/api/nope", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			if w.Code != tt.wantStatus {
				t.Errorf("%s %s status = %d, want %d", tt.method, tt.path, w.Code, tt.wantStatus)
			}
		})
	}
}

func TestRouter_HealthBypassesSession(t *testing.T) {
	// No guest database at all: catalog routes fail, health must still work.
	dataDir := t.TempDir()
	templatePath := filepath.Join(dataDir, "empty.db")
	if err := storage.EnsureTemplate(templatePath); err != nil {
		t.Fatalf("EnsureTemplate() error = %v", err)
	}
	prov := provision.New(dataDir, "vimusic.db", templatePath, blobstore.NewMemoryStore())
	router := NewRouter(&Deps{
		Provisioner: prov,
		Store:       blobstore.NewMemoryStore(),
		GuestDBName: "vimusic.db",
	})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("health status = %d, want 200", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/songs", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("songs without guest database status = %d, want 500", w.Code)
	}
}
