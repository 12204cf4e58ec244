// Package memory implements the agent's long-term fact store: a
// SQLite + FTS5 full-text index that tool calls write to and query
// across sessions, matching config.MemoryConfig's intent of giving an
// agent recall beyond a single session's context window.
package memory

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Fact is one stored memory entry.
type Fact struct {
	ID        int64   `json:"id"`
	SessionID string  `json:"session_id"`
	Content   string  `json:"content"`
	CreatedAt string  `json:"created_at"`
	Score     float64 `json:"score,omitempty"`
}

// Store is a SQLite-backed fact store. One Store is shared across every
// session in a running gateway.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the SQLite database at path and ensures
// the FTS5 virtual table backing Search exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("memory: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1) // modernc.org/sqlite: one writer at a time

	const schema = `
CREATE VIRTUAL TABLE IF NOT EXISTS facts USING fts5(
	content,
	session_id UNINDEXED,
	created_at UNINDEXED
);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("memory: create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// Add records a new fact, tagged with the session it was learned in.
func (s *Store) Add(ctx context.Context, sessionID, content string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO facts (content, session_id, created_at) VALUES (?, ?, datetime('now'))`,
		content, sessionID)
	if err != nil {
		return fmt.Errorf("memory: add: %w", err)
	}
	return nil
}

// Search returns the limit best FTS5 matches for query, most relevant
// first (bm25 rank, ascending — lower is better in SQLite's FTS5 ranking
// and is translated into a descending Score here).
func (s *Store) Search(ctx context.Context, query string, limit int) ([]Fact, error) {
	if limit <= 0 {
		limit = 6
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT rowid, content, session_id, created_at, bm25(facts) AS rank
		 FROM facts WHERE facts MATCH ? ORDER BY rank LIMIT ?`,
		query, limit)
	if err != nil {
		return nil, fmt.Errorf("memory: search: %w", err)
	}
	defer rows.Close()

	var facts []Fact
	for rows.Next() {
		var f Fact
		var rank float64
		if err := rows.Scan(&f.ID, &f.Content, &f.SessionID, &f.CreatedAt, &rank); err != nil {
			return nil, fmt.Errorf("memory: scan: %w", err)
		}
		f.Score = -rank // bm25 is negative-is-better; flip so higher Score means more relevant
		facts = append(facts, f)
	}
	return facts, rows.Err()
}
