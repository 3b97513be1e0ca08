package http

import (
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"vimusic-server/internal/blobstore"
	"vimusic-server/internal/handlers"
	"vimusic-server/internal/provision"
	"vimusic-server/internal/session"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Provisioner *provision.Provisioner
	Store       blobstore.Store
	GuestDBName string

	// PublicDir is served at / when it exists (the built frontend).
	PublicDir string
}

// NewRouter creates the HTTP router. Catalog routes run inside the session
// middleware, which attaches a per-request database handle; lifecycle routes
// manage their own files and are mounted outside it.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(CORS)
	r.Use(LoggerMiddleware)

	sessionMW := session.NewMiddleware(deps.Provisioner)
	healthHandler := handlers.NewHealthHandler(deps.Store, deps.Provisioner, deps.GuestDBName)
	lifecycle := handlers.NewLifecycleHandler(deps.Provisioner, deps.Store)
	songs := handlers.NewSongHandler()
	playlists := handlers.NewPlaylistHandler()

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodGet, "/health", healthHandler)

		r.Post("/login/{email}", lifecycle.Login)
		r.Post("/sync-database/{email}", lifecycle.Sync)
		r.Post("/logout/{email}", lifecycle.Logout)
		r.Get("/import-database", lifecycle.ImportHint)
		r.Post("/import-database/{email}", lifecycle.Import)
		r.Get("/download-database/{email}", lifecycle.Export)

		r.Group(func(r chi.Router) {
			r.Use(sessionMW.Attach)

			r.Get("/songs", songs.List)
			r.Get("/favorites", songs.Favorites)
			r.Get("/songs/{songId}/playlists", songs.Playlists)
			r.Put("/songs/{songId}/favorite", songs.ToggleFavorite)

			r.Get("/playlists", playlists.List)
			r.Post("/playlists", playlists.Create)
			r.Put("/playlists/{id}", playlists.Rename)
			r.Delete("/playlists/{id}", playlists.Delete)
			r.Get("/playlists/{id}/songs", playlists.Songs)
			r.Post("/playlists/{playlistId}/songs/{songId}", playlists.AddSong)
			r.Delete("/playlists/{playlistId}/songs/{songId}", playlists.RemoveSong)
		})
	})

	if deps.PublicDir != "" {
		if info, err := os.Stat(deps.PublicDir); err == nil && info.IsDir() {
			fileServer := http.FileServer(http.Dir(deps.PublicDir))
			r.Handle("/*", fileServer)
		}
	}

	return r
}
