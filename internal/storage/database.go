package storage

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"

	_ "github.com/mattn/go-sqlite3"
)

// Open opens an existing SQLite database file read-write. The file must already
// exist: a per-identity database is only ever created by the provisioner (from
// the template), never as a side effect of opening.
//
// Callers own the returned handle and must Close it; Close is safe to call more
// than once.
func Open(path string) (*sql.DB, error) {
	// sql.Open alone would happily create an empty file, so check first and
	// use mode=rw to keep the driver from creating one in a race.
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("database file %s: %w", path, err)
	}

	db, err := sql.Open("sqlite3", dsn(path, "rw"))
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}

	// One connection per handle: each request owns its handle exclusively,
	// so there is nothing to pool.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}

	return db, nil
}

// Create opens a SQLite database at path, creating the file if absent.
// Used for the template and for tests; request handling always goes through Open.
func Create(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dsn(path, "rwc"))
	if err != nil {
		return nil, fmt.Errorf("create database %s: %w", path, err)
	}

	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create database %s: %w", path, err)
	}

	return db, nil
}

func dsn(path, mode string) string {
	return fmt.Sprintf("file:%s?mode=%s&_foreign_keys=on", url.PathEscape(path), mode)
}

// Migrate creates the catalog tables. It is idempotent and can be run multiple
// times safely.
func Migrate(db *sql.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS Song (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			artistsText TEXT,
			durationText TEXT,
			thumbnailUrl TEXT,
			likedAt INTEGER,
			totalPlayTimeMs INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS Playlist (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS SongPlaylistMap (
			songId TEXT NOT NULL,
			playlistId INTEGER NOT NULL,
			position INTEGER NOT NULL,
			PRIMARY KEY (songId, playlistId)
		);`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}

// EnsureTemplate creates the empty-schema template database at path if it does
// not already exist. New identities are provisioned by copying this file.
func EnsureTemplate(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	db, err := Create(path)
	if err != nil {
		return fmt.Errorf("create template: %w", err)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := Migrate(db); err != nil {
		_ = db.Close()
		_ = os.Remove(path)
		return fmt.Errorf("migrate template: %w", err)
	}

	return nil
}
