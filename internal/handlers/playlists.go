package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"vimusic-server/internal/contextutil"
	"vimusic-server/internal/httpx"
	"vimusic-server/internal/session"
	"vimusic-server/internal/storage"
)

// PlaylistHandler serves playlist CRUD and membership operations.
type PlaylistHandler struct{}

// NewPlaylistHandler creates a new PlaylistHandler.
func NewPlaylistHandler() *PlaylistHandler {
	return &PlaylistHandler{}
}

type playlistNameBody struct {
	Name string `json:"name"`
}

func playlistIDParam(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid playlist id")
		return 0, false
	}
	return id, true
}

// List handles GET /api/playlists.
func (h *PlaylistHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	repo := storage.NewPlaylistRepo(session.DB(ctx))
	playlists, err := repo.List(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "failed to fetch playlists", "error", err)
		httpx.Error(w, http.StatusInternalServerError, "Failed to fetch playlists")
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]any{"playlists": playlists})
}

// Create handles POST /api/playlists.
func (h *PlaylistHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var body playlistNameBody
	if err := httpx.Decode(r, &body); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		httpx.Error(w, http.StatusBadRequest, "Playlist name is required")
		return
	}

	repo := storage.NewPlaylistRepo(session.DB(ctx))
	playlist, err := repo.Create(ctx, name)
	if err != nil {
		logger.ErrorContext(ctx, "failed to create playlist", "error", err)
		httpx.Error(w, http.StatusInternalServerError, "Failed to create playlist")
		return
	}

	logger.InfoContext(ctx, "playlist created", "id", playlist.ID, "name", playlist.Name)
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"success":  true,
		"playlist": playlist,
	})
}

// Rename handles PUT /api/playlists/{id}.
func (h *PlaylistHandler) Rename(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	id, ok := playlistIDParam(w, r, "id")
	if !ok {
		return
	}

	var body playlistNameBody
	if err := httpx.Decode(r, &body); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		httpx.Error(w, http.StatusBadRequest, "Playlist name is required")
		return
	}

	repo := storage.NewPlaylistRepo(session.DB(ctx))
	if err := repo.Rename(ctx, id, name); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			httpx.Error(w, http.StatusNotFound, "Playlist not found")
			return
		}
		logger.ErrorContext(ctx, "failed to rename playlist", "id", id, "error", err)
		httpx.Error(w, http.StatusInternalServerError, "Failed to update playlist")
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"playlist": storage.Playlist{ID: id, Name: name},
	})
}

// Delete handles DELETE /api/playlists/{id}: membership rows first, then the
// playlist itself.
func (h *PlaylistHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	id, ok := playlistIDParam(w, r, "id")
	if !ok {
		return
	}

	repo := storage.NewPlaylistRepo(session.DB(ctx))
	if err := repo.Delete(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			httpx.Error(w, http.StatusNotFound, "Playlist not found")
			return
		}
		logger.ErrorContext(ctx, "failed to delete playlist", "id", id, "error", err)
		httpx.Error(w, http.StatusInternalServerError, "Failed to delete playlist")
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Playlist deleted",
	})
}

// Songs handles GET /api/playlists/{id}/songs, ordered by stored position.
func (h *PlaylistHandler) Songs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	id, ok := playlistIDParam(w, r, "id")
	if !ok {
		return
	}

	repo := storage.NewPlaylistRepo(session.DB(ctx))
	songs, err := repo.SongsIn(ctx, id)
	if err != nil {
		logger.ErrorContext(ctx, "failed to fetch playlist songs", "id", id, "error", err)
		httpx.Error(w, http.StatusInternalServerError, "Failed to fetch playlist songs")
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]any{"songs": songs})
}

// AddSong handles POST /api/playlists/{playlistId}/songs/{songId}. A duplicate
// membership is a 400 the client can show as "already in playlist".
func (h *PlaylistHandler) AddSong(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	playlistID, ok := playlistIDParam(w, r, "playlistId")
	if !ok {
		return
	}
	songID := chi.URLParam(r, "songId")

	var attrs storage.SongAttributes
	if err := httpx.Decode(r, &attrs); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	repo := storage.NewPlaylistRepo(session.DB(ctx))
	position, err := repo.AddSong(ctx, playlistID, songID, attrs)
	if err != nil {
		if errors.Is(err, storage.ErrConflict) {
			httpx.Error(w, http.StatusBadRequest, "Song already in playlist")
			return
		}
		logger.ErrorContext(ctx, "failed to add song to playlist",
			"playlist", playlistID, "song", songID, "error", err)
		httpx.Error(w, http.StatusInternalServerError, "Failed to add song to playlist")
		return
	}

	httpx.JSON(w, http.StatusCreated, map[string]any{
		"success":  true,
		"position": position,
	})
}

// RemoveSong handles DELETE /api/playlists/{playlistId}/songs/{songId}.
func (h *PlaylistHandler) RemoveSong(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	playlistID, ok := playlistIDParam(w, r, "playlistId")
	if !ok {
		return
	}
	songID := chi.URLParam(r, "songId")

	repo := storage.NewPlaylistRepo(session.DB(ctx))
	if err := repo.RemoveSong(ctx, playlistID, songID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			httpx.Error(w, http.StatusNotFound, "Song not found in playlist")
			return
		}
		logger.ErrorContext(ctx, "failed to remove song from playlist",
			"playlist", playlistID, "song", songID, "error", err)
		httpx.Error(w, http.StatusInternalServerError, "Failed to remove song")
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Song removed from playlist",
	})
}
