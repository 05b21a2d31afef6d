// Package history stores finished dictations in a local SQLite database.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Dictation is one stored transcription result.
type Dictation struct {
	ID           int64
	Text         string
	CharCount    int
	AudioSeconds float64
	TranscribeMs int64
	CreatedAt    time.Time
}

// Store is a dictation history backed by SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the history database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("history: create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: enable WAL mode: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS dictations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		text TEXT NOT NULL,
		char_count INTEGER NOT NULL,
		audio_seconds REAL NOT NULL,
		transcribe_ms INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_dictations_created_at ON dictations(created_at);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: initialize schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Record appends one dictation. A zero CreatedAt is filled with now.
func (s *Store) Record(d Dictation) error {
	created := d.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := s.db.Exec(
		`INSERT INTO dictations (text, char_count, audio_seconds, transcribe_ms, created_at) VALUES (?, ?, ?, ?, ?)`,
		d.Text, d.CharCount, d.AudioSeconds, d.TranscribeMs, created.Unix(),
	)
	if err != nil {
		return fmt.Errorf("history: insert dictation: %w", err)
	}
	return nil
}

// Recent returns the latest n dictations, newest first.
func (s *Store) Recent(n int) ([]Dictation, error) {
	rows, err := s.db.Query(
		`SELECT id, text, char_count, audio_seconds, transcribe_ms, created_at
		 FROM dictations ORDER BY id DESC LIMIT ?`, n,
	)
	if err != nil {
		return nil, fmt.Errorf("history: query dictations: %w", err)
	}
	defer rows.Close()

	var out []Dictation
	for rows.Next() {
		var d Dictation
		var created int64
		if err := rows.Scan(&d.ID, &d.Text, &d.CharCount, &d.AudioSeconds, &d.TranscribeMs, &created); err != nil {
			return nil, fmt.Errorf("history: scan dictation: %w", err)
		}
		d.CreatedAt = time.Unix(created, 0)
		out = append(out, d)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
