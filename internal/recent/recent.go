// Package recent persists the recently-used session list in SQLite under
// the mindroot data directory, backing the sessions picker.
package recent

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Entry is one recently-used session.
type Entry struct {
	Server   string    `json:"server"`
	Session  string    `json:"session"`
	LastUsed time.Time `json:"last_used"`
	Uses     int       `json:"uses"`
}

const schema = `
CREATE TABLE IF NOT EXISTS recents (
    server TEXT NOT NULL,
    session TEXT NOT NULL,
    last_used TIMESTAMP NOT NULL,
    uses INTEGER NOT NULL DEFAULT 1,
    PRIMARY KEY (server, session)
);
CREATE INDEX IF NOT EXISTS idx_recents_last_used ON recents(last_used DESC);
`

// Store is the SQLite-backed recents store.
type Store struct {
	db  *sql.DB
	max int
}

// Open creates or opens the recents database at dir/recents.db. max caps
// the number of kept entries (0 = unlimited).
func Open(dir string, max int) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, "recents.db"))
	if err != nil {
		return nil, fmt.Errorf("opening recents db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing recents schema: %w", err)
	}
	return &Store{db: db, max: max}, nil
}

// Touch records a use of the session, creating the entry if needed, and
// prunes beyond the configured maximum.
func (s *Store) Touch(ctx context.Context, server, session string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO recents (server, session, last_used, uses)
		VALUES (?, ?, ?, 1)
		ON CONFLICT (server, session)
		DO UPDATE SET last_used = excluded.last_used, uses = uses + 1`,
		server, session, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("recording recent session: %w", err)
	}
	return s.prune(ctx)
}

// List returns entries most-recently-used first, optionally scoped to a
// server. limit of 0 means all.
func (s *Store) List(ctx context.Context, server string, limit int) ([]Entry, error) {
	query := `SELECT server, session, last_used, uses FROM recents`
	var args []any
	if server != "" {
		query += ` WHERE server = ?`
		args = append(args, server)
	}
	query += ` ORDER BY last_used DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing recents: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Server, &e.Session, &e.LastUsed, &e.Uses); err != nil {
			return nil, fmt.Errorf("scanning recent entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Delete removes one entry.
func (s *Store) Delete(ctx context.Context, server, session string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM recents WHERE server = ? AND session = ?`, server, session)
	return err
}

// prune drops the oldest entries beyond the maximum.
func (s *Store) prune(ctx context.Context) error {
	if s.max <= 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM recents WHERE (server, session) NOT IN (
			SELECT server, session FROM recents
			ORDER BY last_used DESC LIMIT ?
		)`, s.max)
	return err
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
