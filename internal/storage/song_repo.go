package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when an insert would duplicate an existing record.
	ErrConflict = errors.New("record already exists")
)

// SongRepo provides methods for song operations against one open database handle.
type SongRepo struct {
	db *sql.DB
}

// NewSongRepo creates a new SongRepo.
func NewSongRepo(db *sql.DB) *SongRepo {
	return &SongRepo{db: db}
}

// MostPlayed returns up to limit songs ordered by total play time descending.
func (r *SongRepo) MostPlayed(ctx context.Context, limit int) ([]Song, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, artistsText, durationText, thumbnailUrl, likedAt, totalPlayTimeMs
		 FROM Song ORDER BY totalPlayTimeMs DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query songs: %w", err)
	}
	defer rows.Close()

	return scanSongs(rows)
}

// Favorites returns liked songs ordered by most recently liked first.
func (r *SongRepo) Favorites(ctx context.Context) ([]Song, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, artistsText, durationText, thumbnailUrl, likedAt, totalPlayTimeMs
		 FROM Song WHERE likedAt IS NOT NULL ORDER BY likedAt DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query favorites: %w", err)
	}
	defer rows.Close()

	return scanSongs(rows)
}

// ToggleFavorite flips the favorite state of a song and returns the new state.
// If the song does not exist yet it is inserted from attrs with likedAt set, so
// a song may exist purely because it was favorited once.
//
// The read-check-then-write pair is not wrapped in a transaction; two concurrent
// toggles for the same song on the same identity can interleave. Statement-level
// atomicity comes from SQLite's file locking.
func (r *SongRepo) ToggleFavorite(ctx context.Context, songID string, attrs SongAttributes) (bool, error) {
	var likedAt sql.NullInt64
	err := r.db.QueryRowContext(ctx, "SELECT likedAt FROM Song WHERE id = ?", songID).Scan(&likedAt)

	switch {
	case err == sql.ErrNoRows:
		_, err = r.db.ExecContext(ctx,
			`INSERT INTO Song (id, title, artistsText, durationText, thumbnailUrl, likedAt, totalPlayTimeMs)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			songID, attrs.Title, attrs.ArtistsText, attrs.DurationText, attrs.ThumbnailURL,
			time.Now().UnixMilli(), attrs.TotalPlayTimeMs)
		if err != nil {
			return false, fmt.Errorf("failed to insert favorited song: %w", err)
		}
		return true, nil

	case err != nil:
		return false, fmt.Errorf("failed to query song: %w", err)

	case likedAt.Valid:
		if _, err := r.db.ExecContext(ctx, "UPDATE Song SET likedAt = NULL WHERE id = ?", songID); err != nil {
			return false, fmt.Errorf("failed to unfavorite song: %w", err)
		}
		return false, nil

	default:
		if _, err := r.db.ExecContext(ctx, "UPDATE Song SET likedAt = ? WHERE id = ?",
			time.Now().UnixMilli(), songID); err != nil {
			return false, fmt.Errorf("failed to favorite song: %w", err)
		}
		return true, nil
	}
}

// PlaylistsForSong returns every playlist containing the given song.
func (r *SongRepo) PlaylistsForSong(ctx context.Context, songID string) ([]Playlist, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT p.id, p.name
		 FROM Playlist p
		 JOIN SongPlaylistMap spm ON p.id = spm.playlistId
		 WHERE spm.songId = ?`, songID)
	if err != nil {
		return nil, fmt.Errorf("failed to query song playlists: %w", err)
	}
	defer rows.Close()

	playlists := []Playlist{}
	for rows.Next() {
		var p Playlist
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, fmt.Errorf("failed to scan playlist: %w", err)
		}
		playlists = append(playlists, p)
	}
	return playlists, rows.Err()
}

// ensureSong inserts the song from attrs if no row with songID exists yet.
func ensureSong(ctx context.Context, db *sql.DB, songID string, attrs SongAttributes) error {
	var one int
	err := db.QueryRowContext(ctx, "SELECT 1 FROM Song WHERE id = ?", songID).Scan(&one)
	if err == nil {
		return nil
	}
	if err != sql.ErrNoRows {
		return fmt.Errorf("failed to check song: %w", err)
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO Song (id, title, artistsText, durationText, thumbnailUrl, totalPlayTimeMs)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		songID, attrs.Title, attrs.ArtistsText, attrs.DurationText, attrs.ThumbnailURL, attrs.TotalPlayTimeMs)
	if err != nil {
		return fmt.Errorf("failed to insert song: %w", err)
	}
	return nil
}

func scanSongs(rows *sql.Rows) ([]Song, error) {
	songs := []Song{}
	for rows.Next() {
		var s Song
		var artists, duration, thumbnail sql.NullString
		var likedAt sql.NullInt64
		if err := rows.Scan(&s.ID, &s.Title, &artists, &duration, &thumbnail, &likedAt, &s.TotalPlayTimeMs); err != nil {
			return nil, fmt.Errorf("failed to scan song: %w", err)
		}
		s.ArtistsText = artists.String
		s.DurationText = duration.String
		s.ThumbnailURL = thumbnail.String
		if likedAt.Valid {
			v := likedAt.Int64
			s.LikedAt = &v
		}
		songs = append(songs, s)
	}
	return songs, rows.Err()
}
