// Package sqlite stores session snapshots in a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"seteuk/internal/domain"
)

var _ domain.SnapshotMedium = (*DB)(nil)

// DB is a SnapshotMedium backed by a single-file SQLite database.
type DB struct {
	sql *sql.DB
}

// Open creates or opens the database at path and applies the schema.
// Use ":memory:" for a throwaway database.
func Open(path string) (*DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("create state dir: %w", err)
		}
	}
	s, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// SQLite allows one writer; a single connection also keeps ":memory:" shared.
	s.SetMaxOpenConns(1)
	s.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.PingContext(ctx); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("connect database: %w", err)
	}

	d := &DB{sql: s}
	if err := d.migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return d, nil
}

// Close closes the database.
func (d *DB) Close() error {
	return d.sql.Close()
}

func (d *DB) migrate(ctx context.Context) error {
	stmts := []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA busy_timeout = 5000;",
		"CREATE TABLE IF NOT EXISTS session_snapshots (namespace TEXT PRIMARY KEY, payload TEXT NOT NULL, updated_at TEXT NOT NULL);",
	}
	for _, stmt := range stmts {
		if _, err := d.sql.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Load returns the snapshot stored under namespace.
func (d *DB) Load(ctx context.Context, namespace string) ([]byte, error) {
	var payload string
	err := d.sql.QueryRowContext(ctx,
		"SELECT payload FROM session_snapshots WHERE namespace = ?",
		namespace,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(payload), nil
}

// Save upserts the snapshot for namespace.
func (d *DB) Save(ctx context.Context, namespace string, data []byte) error {
	_, err := d.sql.ExecContext(ctx,
		`INSERT INTO session_snapshots (namespace, payload, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(namespace) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		namespace, string(data), time.Now().UTC().Format(time.RFC3339Nano),
	)
	return err
}

// Clear deletes the snapshot for namespace.
func (d *DB) Clear(ctx context.Context, namespace string) error {
	_, err := d.sql.ExecContext(ctx, "DELETE FROM session_snapshots WHERE namespace = ?", namespace)
	return err
}
