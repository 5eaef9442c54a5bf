package index

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/starford/canti/internal/apperr"
)

// SongRow represents a row in the songs table.
type SongRow struct {
	Name      string    `json:"name"`
	Title     string    `json:"title"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SearchResult represents one search hit.
type SearchResult struct {
	Name    string `json:"name"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// UpsertSong inserts or replaces a song and its FTS entry within a transaction.
func (db *DB) UpsertSong(s SongRow, body string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = time.Now()
	}
	_, err = tx.Exec(`
		INSERT INTO songs (name, title, checksum, body, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			title      = excluded.title,
			checksum   = excluded.checksum,
			body       = excluded.body,
			updated_at = excluded.updated_at
	`, s.Name, s.Title, s.Checksum, body, s.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("index: upsert song: %w", err)
	}

	if err := ftsUpsert(tx, s.Name, s.Title, body); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteSong removes a song and its FTS entry.
func (db *DB) DeleteSong(name string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := ftsDelete(tx, name); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM songs WHERE name = ?`, name); err != nil {
		return fmt.Errorf("index: delete song: %w", err)
	}
	return tx.Commit()
}

// GetSong returns one indexed song or apperr.ErrNotFound.
func (db *DB) GetSong(name string) (*SongRow, error) {
	var s SongRow
	err := db.conn.QueryRow(`SELECT name, title, checksum, updated_at FROM songs WHERE name = ?`, name).
		Scan(&s.Name, &s.Title, &s.Checksum, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("index: get song: %w", err)
	}
	return &s, nil
}

// AllChecksums returns name → checksum for every indexed song.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT name, checksum FROM songs`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var name, cs string
		if err := rows.Scan(&name, &cs); err != nil {
			return nil, err
		}
		out[name] = cs
	}
	return out, rows.Err()
}
