package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"seteuk/internal/domain"
)

var _ domain.SnapshotMedium = (*DB)(nil)

// Load returns the snapshot stored under namespace.
func (d *DB) Load(ctx context.Context, namespace string) ([]byte, error) {
	var payload string
	err := d.sql.QueryRowContext(ctx,
		"SELECT payload FROM session_snapshots WHERE namespace = $1",
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
		`INSERT INTO session_snapshots (namespace, payload, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (namespace) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`,
		namespace, string(data), time.Now(),
	)
	return err
}

// Clear deletes the snapshot for namespace. Deleting a missing row is not an error.
func (d *DB) Clear(ctx context.Context, namespace string) error {
	_, err := d.sql.ExecContext(ctx, "DELETE FROM session_snapshots WHERE namespace = $1", namespace)
	return err
}
