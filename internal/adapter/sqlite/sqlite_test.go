package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"seteuk/internal/domain"
)

func TestDB_SaveLoadClear(t *testing.T) {
	d, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer d.Close()
	ctx := context.Background()

	if _, err := d.Load(ctx, "auth-storage"); !errors.Is(err, domain.ErrSnapshotNotFound) {
		t.Fatalf("expected ErrSnapshotNotFound, got %v", err)
	}
	if err := d.Save(ctx, "auth-storage", []byte("one")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := d.Save(ctx, "auth-storage", []byte("two")); err != nil {
		t.Fatalf("Save overwrite: %v", err)
	}
	got, err := d.Load(ctx, "auth-storage")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(got) != "two" {
		t.Errorf("expected two, got %q", got)
	}

	if err := d.Clear(ctx, "auth-storage"); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if err := d.Clear(ctx, "auth-storage"); err != nil {
		t.Fatalf("Clear twice: %v", err)
	}
	if _, err := d.Load(ctx, "auth-storage"); !errors.Is(err, domain.ErrSnapshotNotFound) {
		t.Errorf("expected ErrSnapshotNotFound after Clear, got %v", err)
	}
}

func TestDB_NamespacesAreIndependent(t *testing.T) {
	d, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer d.Close()
	ctx := context.Background()

	_ = d.Save(ctx, "a", []byte("A"))
	_ = d.Save(ctx, "b", []byte("B"))
	_ = d.Clear(ctx, "a")

	if got, err := d.Load(ctx, "b"); err != nil || string(got) != "B" {
		t.Errorf("expected B, got %q (%v)", got, err)
	}
}

func TestDB_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "session.db")
	ctx := context.Background()

	d, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := d.Save(ctx, "auth-storage", []byte("persisted")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	_ = d.Close()

	d, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer d.Close()
	got, err := d.Load(ctx, "auth-storage")
	if err != nil || string(got) != "persisted" {
		t.Errorf("expected persisted, got %q (%v)", got, err)
	}
}
