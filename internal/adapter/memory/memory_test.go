package memory

import (
	"context"
	"errors"
	"testing"

	"seteuk/internal/domain"
)

func TestMedium(t *testing.T) {
	m := New()
	ctx := context.Background()

	if _, err := m.Load(ctx, "auth-storage"); !errors.Is(err, domain.ErrSnapshotNotFound) {
		t.Fatalf("expected ErrSnapshotNotFound, got %v", err)
	}

	data := []byte(`{"token":"t"}`)
	if err := m.Save(ctx, "auth-storage", data); err != nil {
		t.Fatalf("Save: %v", err)
	}
	data[0] = 'X'

	got, err := m.Load(ctx, "auth-storage")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(got) != `{"token":"t"}` {
		t.Errorf("expected stored copy, got %s", got)
	}

	// Other namespaces are independent
	if _, err := m.Load(ctx, "other"); !errors.Is(err, domain.ErrSnapshotNotFound) {
		t.Error("expected other namespace to be empty")
	}

	if err := m.Clear(ctx, "auth-storage"); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if err := m.Clear(ctx, "auth-storage"); err != nil {
		t.Fatalf("second Clear: %v", err)
	}
	if m.Len() != 0 {
		t.Errorf("expected 0 items, got %d", m.Len())
	}
}
