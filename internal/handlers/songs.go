package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"vimusic-server/internal/contextutil"
	"vimusic-server/internal/httpx"
	"vimusic-server/internal/session"
	"vimusic-server/internal/storage"
)

// mostPlayedLimit caps the library listing.
const mostPlayedLimit = 100

// SongHandler serves song listings and the favorite toggle against whichever
// database handle the session middleware attached.
type SongHandler struct{}

// NewSongHandler creates a new SongHandler.
func NewSongHandler() *SongHandler {
	return &SongHandler{}
}

// List handles GET /api/songs: most played first, capped.
func (h *SongHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	repo := storage.NewSongRepo(session.DB(ctx))
	songs, err := repo.MostPlayed(ctx, mostPlayedLimit)
	if err != nil {
		logger.ErrorContext(ctx, "failed to fetch songs", "error", err)
		httpx.Error(w, http.StatusInternalServerError, "Failed to fetch songs")
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]any{"songs": songs})
}

// Favorites handles GET /api/favorites: liked songs, most recent first.
func (h *SongHandler) Favorites(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	repo := storage.NewSongRepo(session.DB(ctx))
	songs, err := repo.Favorites(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "failed to fetch favorites", "error", err)
		httpx.Error(w, http.StatusInternalServerError, "Failed to fetch favorites")
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]any{"songs": songs})
}

// Playlists handles GET /api/songs/{songId}/playlists: every playlist
// containing the song.
func (h *SongHandler) Playlists(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	repo := storage.NewSongRepo(session.DB(ctx))
	playlists, err := repo.PlaylistsForSong(ctx, chi.URLParam(r, "songId"))
	if err != nil {
		logger.ErrorContext(ctx, "failed to fetch song playlists", "error", err)
		httpx.Error(w, http.StatusInternalServerError, "Failed to fetch playlists")
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]any{"playlists": playlists})
}

// ToggleFavorite handles PUT /api/songs/{songId}/favorite. The body carries the
// song attributes so the row can be upserted when this is the first time the
// song is referenced.
func (h *SongHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)
	songID := chi.URLParam(r, "songId")

	var attrs storage.SongAttributes
	if err := httpx.Decode(r, &attrs); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	repo := storage.NewSongRepo(session.DB(ctx))
	favorite, err := repo.ToggleFavorite(ctx, songID, attrs)
	if err != nil {
		logger.ErrorContext(ctx, "failed to toggle favorite", "song", songID, "error", err)
		httpx.Error(w, http.StatusInternalServerError, "Failed to toggle favorite")
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]any{"favorite": favorite})
}
