package storage

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := Create(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})

	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return db
}

func insertSong(t *testing.T, db *sql.DB, id string, playTimeMs int64, likedAt *int64) {
	t.Helper()
	_, err := db.Exec(
		`INSERT INTO Song (id, title, artistsText, durationText, thumbnailUrl, likedAt, totalPlayTimeMs)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, "Title "+id, "Artist", "3:00", "https://img.example/"+id, likedAt, playTimeMs)
	if err != nil {
		t.Fatalf("insertSong(%s) error = %v", id, err)
	}
}

func TestSongRepo_MostPlayed(t *testing.T) {
	db := newTestDB(t)
	repo := NewSongRepo(db)

	insertSong(t, db, "low", 100, nil)
	insertSong(t, db, "high", 9000, nil)
	insertSong(t, db, "mid", 500, nil)

	songs, err := repo.MostPlayed(context.Background(), 100)
	if err != nil {
		t.Fatalf("MostPlayed() error = %v", err)
	}

	if len(songs) != 3 {
		t.Fatalf("MostPlayed() returned %d songs, want 3", len(songs))
	}
	if songs[0].ID != "high" || songs[1].ID != "mid" || songs[2].ID != "low" {
		t.Errorf("MostPlayed() order = %s, %s, %s", songs[0].ID, songs[1].ID, songs[2].ID)
	}
}

func TestSongRepo_MostPlayedCap(t *testing.T) {
	db := newTestDB(t)
	repo := NewSongRepo(db)

	for i := 0; i < 5; i++ {
		insertSong(t, db, fmt.Sprintf("song-%d", i), int64(i), nil)
	}

	songs, err := repo.MostPlayed(context.Background(), 3)
	if err != nil {
		t.Fatalf("MostPlayed() error = %v", err)
	}
	if len(songs) != 3 {
		t.Errorf("MostPlayed(3) returned %d songs", len(songs))
	}
}

func TestSongRepo_Favorites(t *testing.T) {
	db := newTestDB(t)
	repo := NewSongRepo(db)

	older := int64(1000)
	newer := int64(2000)
	insertSong(t, db, "plain", 0, nil)
	insertSong(t, db, "older-like", 0, &older)
	insertSong(t, db, "newer-like", 0, &newer)

	songs, err := repo.Favorites(context.Background())
	if err != nil {
		t.Fatalf("Favorites() error = %v", err)
	}

	if len(songs) != 2 {
		t.Fatalf("Favorites() returned %d songs, want 2", len(songs))
	}
	if songs[0].ID != "newer-like" || songs[1].ID != "older-like" {
		t.Errorf("Favorites() order = %s, %s", songs[0].ID, songs[1].ID)
	}
	if songs[0].LikedAt == nil || *songs[0].LikedAt != newer {
		t.Errorf("Favorites()[0].LikedAt = %v, want %d", songs[0].LikedAt, newer)
	}
}

func TestSongRepo_ToggleFavorite_Involution(t *testing.T) {
	db := newTestDB(t)
	repo := NewSongRepo(db)
	ctx := context.Background()
	attrs := SongAttributes{Title: "Song X", ArtistsText: "Artist", TotalPlayTimeMs: 0}

	// Song does not exist: first toggle upserts it as a favorite.
	fav, err := repo.ToggleFavorite(ctx, "abc123", attrs)
	if err != nil {
		t.Fatalf("ToggleFavorite() error = %v", err)
	}
	if !fav {
		t.Error("first toggle = false, want true")
	}

	// Second toggle returns it to the unfavorited state.
	fav, err = repo.ToggleFavorite(ctx, "abc123", attrs)
	if err != nil {
		t.Fatalf("ToggleFavorite() error = %v", err)
	}
	if fav {
		t.Error("second toggle = true, want false")
	}

	var likedAt sql.NullInt64
	if err := db.QueryRow("SELECT likedAt FROM Song WHERE id = ?", "abc123").Scan(&likedAt); err != nil {
		t.Fatalf("song row missing after double toggle: %v", err)
	}
	if likedAt.Valid {
		t.Errorf("likedAt = %d after double toggle, want NULL", likedAt.Int64)
	}

	// Third toggle favorites the now-existing row.
	fav, err = repo.ToggleFavorite(ctx, "abc123", attrs)
	if err != nil {
		t.Fatalf("ToggleFavorite() error = %v", err)
	}
	if !fav {
		t.Error("third toggle = false, want true")
	}
}

func TestSongRepo_PlaylistsForSong(t *testing.T) {
	db := newTestDB(t)
	songs := NewSongRepo(db)
	playlists := NewPlaylistRepo(db)
	ctx := context.Background()

	p1, err := playlists.Create(ctx, "Road Trip")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	p2, err := playlists.Create(ctx, "Focus")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	attrs := SongAttributes{Title: "Song X"}
	if _, err := playlists.AddSong(ctx, p1.ID, "abc123", attrs); err != nil {
		t.Fatalf("AddSong() error = %v", err)
	}
	if _, err := playlists.AddSong(ctx, p2.ID, "abc123", attrs); err != nil {
		t.Fatalf("AddSong() error = %v", err)
	}
	if _, err := playlists.AddSong(ctx, p1.ID, "other", attrs); err != nil {
		t.Fatalf("AddSong() error = %v", err)
	}

	got, err := songs.PlaylistsForSong(ctx, "abc123")
	if err != nil {
		t.Fatalf("PlaylistsForSong() error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("PlaylistsForSong() returned %d playlists, want 2", len(got))
	}
}
