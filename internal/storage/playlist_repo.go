package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// PlaylistRepo provides methods for playlist and membership operations.
type PlaylistRepo struct {
	db *sql.DB
}

// NewPlaylistRepo creates a new PlaylistRepo.
func NewPlaylistRepo(db *sql.DB) *PlaylistRepo {
	return &PlaylistRepo{db: db}
}

// List returns all playlists.
func (r *PlaylistRepo) List(ctx context.Context) ([]Playlist, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name FROM Playlist")
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists: %w", err)
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

// Create inserts a playlist and returns it with the auto-incremented id.
func (r *PlaylistRepo) Create(ctx context.Context, name string) (Playlist, error) {
	res, err := r.db.ExecContext(ctx, "INSERT INTO Playlist (name) VALUES (?)", name)
	if err != nil {
		return Playlist{}, fmt.Errorf("failed to create playlist: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Playlist{}, fmt.Errorf("failed to read playlist id: %w", err)
	}
	return Playlist{ID: id, Name: name}, nil
}

// Rename updates a playlist's name. Returns ErrNotFound if no such playlist.
func (r *PlaylistRepo) Rename(ctx context.Context, id int64, name string) error {
	res, err := r.db.ExecContext(ctx, "UPDATE Playlist SET name = ? WHERE id = ?", name, id)
	if err != nil {
		return fmt.Errorf("failed to rename playlist: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a playlist and all of its membership rows. The mappings go
// first so a failure cannot leave rows referencing a deleted playlist.
// Returns ErrNotFound if the playlist does not exist.
func (r *PlaylistRepo) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM SongPlaylistMap WHERE playlistId = ?", id); err != nil {
		return fmt.Errorf("failed to delete playlist mappings: %w", err)
	}

	res, err := r.db.ExecContext(ctx, "DELETE FROM Playlist WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete playlist: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SongsIn returns the songs of a playlist ordered by their stored position.
// Positions may have gaps; they are never renumbered after removals.
func (r *PlaylistRepo) SongsIn(ctx context.Context, playlistID int64) ([]Song, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT s.id, s.title, s.artistsText, s.durationText, s.thumbnailUrl, s.likedAt, s.totalPlayTimeMs
		 FROM Song s
		 JOIN SongPlaylistMap spm ON s.id = spm.songId
		 WHERE spm.playlistId = ?
		 ORDER BY spm.position ASC`, playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlist songs: %w", err)
	}
	defer rows.Close()

	return scanSongs(rows)
}

// AddSong appends a song to a playlist and returns the assigned position
// (current max + 1). The song row is inserted from attrs if absent. A song
// already in the playlist is ErrConflict, never a silent overwrite.
//
// The max-position read and the insert are separate statements; two concurrent
// adds to the same playlist for the same identity can both read the same max
// and end up with duplicate positions.
func (r *PlaylistRepo) AddSong(ctx context.Context, playlistID int64, songID string, attrs SongAttributes) (int64, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		"SELECT 1 FROM SongPlaylistMap WHERE songId = ? AND playlistId = ?",
		songID, playlistID).Scan(&one)
	if err == nil {
		return 0, ErrConflict
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("failed to check mapping: %w", err)
	}

	if err := ensureSong(ctx, r.db, songID, attrs); err != nil {
		return 0, err
	}

	var maxPos sql.NullInt64
	err = r.db.QueryRowContext(ctx,
		"SELECT MAX(position) FROM SongPlaylistMap WHERE playlistId = ?",
		playlistID).Scan(&maxPos)
	if err != nil {
		return 0, fmt.Errorf("failed to read max position: %w", err)
	}
	position := maxPos.Int64 + 1

	_, err = r.db.ExecContext(ctx,
		"INSERT INTO SongPlaylistMap (songId, playlistId, position) VALUES (?, ?, ?)",
		songID, playlistID, position)
	if err != nil {
		return 0, fmt.Errorf("failed to insert mapping: %w", err)
	}
	return position, nil
}

// RemoveSong deletes a song's membership row. Returns ErrNotFound when the song
// is not in the playlist. Remaining positions are left as they are.
func (r *PlaylistRepo) RemoveSong(ctx context.Context, playlistID int64, songID string) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM SongPlaylistMap WHERE playlistId = ? AND songId = ?",
		playlistID, songID)
	if err != nil {
		return fmt.Errorf("failed to delete mapping: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
