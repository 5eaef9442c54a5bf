package index

import (
	"encoding/json"
	"fmt"

	"github.com/starford/canti/internal/models"
)

const defaultRevisionLimit = 20

// RecordRevision stores one saved catalog document.
func (db *DB) RecordRevision(rev models.Revision) error {
	songs, err := json.Marshal(rev.Songs)
	if err != nil {
		return fmt.Errorf("index: encode revision songs: %w", err)
	}
	_, err = db.conn.Exec(`
		INSERT INTO revisions (id, week_date, songs, checksum, saved_by, saved_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rev.ID, rev.WeekDate, string(songs), rev.Checksum, rev.SavedBy, rev.SavedAt.UTC())
	if err != nil {
		return fmt.Errorf("index: insert revision: %w", err)
	}
	return nil
}

// Revisions returns up to limit revisions, newest first.
func (db *DB) Revisions(limit int) ([]models.Revision, error) {
	if limit <= 0 {
		limit = defaultRevisionLimit
	}
	rows, err := db.conn.Query(`
		SELECT id, week_date, songs, checksum, saved_by, saved_at
		FROM revisions
		ORDER BY saved_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("index: revisions: %w", err)
	}
	defer rows.Close()

	var out []models.Revision
	for rows.Next() {
		var (
			r     models.Revision
			songs string
		)
		if err := rows.Scan(&r.ID, &r.WeekDate, &songs, &r.Checksum, &r.SavedBy, &r.SavedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(songs), &r.Songs); err != nil {
			return nil, fmt.Errorf("index: decode revision %s: %w", r.ID, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
