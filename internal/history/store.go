// Package history persists which datasets were opened, backed by a
// local SQLite file.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Entry is one remembered dataset.
type Entry struct {
	Path        string
	FirstOpened time.Time
	LastOpened  time.Time
	OpenCount   int
}

// Store records dataset opens. All methods are safe for use from one
// process; the file lives under the user data dir by default.
type Store struct {
	db *sql.DB
}

// Open opens or creates the history database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create history dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history db: %w", err)
	}
	return &Store{db: db}, nil
}

// EnsureSchema creates the datasets table when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	// Timestamps are unix nanos so recency ordering is a plain integer
	// sort.
	stmt := `CREATE TABLE IF NOT EXISTS datasets (
		path TEXT PRIMARY KEY,
		first_opened INTEGER NOT NULL,
		last_opened INTEGER NOT NULL,
		open_count INTEGER NOT NULL DEFAULT 1
	);`
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Record notes one open of path, creating or bumping its row.
func (s *Store) Record(ctx context.Context, path string) error {
	now := time.Now().UnixNano()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO datasets(path, first_opened, last_opened, open_count)
		VALUES(?, ?, ?, 1)
		ON CONFLICT(path) DO UPDATE SET
			last_opened = excluded.last_opened,
			open_count = datasets.open_count + 1
	`, path, now, now)
	if err != nil {
		return fmt.Errorf("failed to record open: %w", err)
	}
	return nil
}

// Recent lists entries most recently opened first. limit <= 0 returns
// everything.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	query := `
		SELECT path, first_opened, last_opened, open_count
		FROM datasets
		ORDER BY last_opened DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e           Entry
			first, last int64
		)
		if err := rows.Scan(&e.Path, &first, &last, &e.OpenCount); err != nil {
			return nil, err
		}
		e.FirstOpened = time.Unix(0, first)
		e.LastOpened = time.Unix(0, last)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Remove forgets one path. Removing an unknown path is not an error.
func (s *Store) Remove(ctx context.Context, path string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM datasets WHERE path = ?`, path); err != nil {
		return fmt.Errorf("failed to remove history entry: %w", err)
	}
	return nil
}

// Clear forgets everything.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM datasets`); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
