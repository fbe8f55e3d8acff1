package postgres

import (
	"context"
	"errors"
	"os"
	"testing"

	"seteuk/internal/domain"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	dsn := os.Getenv("SETEUK_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("SETEUK_TEST_DATABASE_URL not set")
	}
	d, err := Open(dsn)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestDB_SaveLoadClear(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()
	ns := "test-" + t.Name()
	t.Cleanup(func() { _ = d.Clear(ctx, ns) })

	if _, err := d.Load(ctx, ns); !errors.Is(err, domain.ErrSnapshotNotFound) {
		t.Fatalf("expected ErrSnapshotNotFound, got %v", err)
	}

	if err := d.Save(ctx, ns, []byte(`{"a":1}`)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := d.Save(ctx, ns, []byte(`{"a":2}`)); err != nil {
		t.Fatalf("Save overwrite: %v", err)
	}
	got, err := d.Load(ctx, ns)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(got) != `{"a":2}` {
		t.Errorf("expected overwritten payload, got %s", got)
	}

	if err := d.Clear(ctx, ns); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if err := d.Clear(ctx, ns); err != nil {
		t.Fatalf("Clear twice: %v", err)
	}
	if _, err := d.Load(ctx, ns); !errors.Is(err, domain.ErrSnapshotNotFound) {
		t.Errorf("expected ErrSnapshotNotFound after Clear, got %v", err)
	}
}
