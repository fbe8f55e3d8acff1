package file

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"seteuk/internal/domain"
)

func TestMedium_SaveLoadClear(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "state")
	m := New(dir)
	ctx := context.Background()

	if _, err := m.Load(ctx, "auth-storage"); !errors.Is(err, domain.ErrSnapshotNotFound) {
		t.Fatalf("expected ErrSnapshotNotFound, got %v", err)
	}
	if err := m.Save(ctx, "auth-storage", []byte(`{"token":null}`)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	info, err := os.Stat(filepath.Join(dir, "auth-storage.json"))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("expected 0600, got %o", perm)
	}
	assertNoTempFiles(t, dir)

	got, err := m.Load(ctx, "auth-storage")
	if err != nil || string(got) != `{"token":null}` {
		t.Fatalf("Load = %q, %v", got, err)
	}

	if err := m.Clear(ctx, "auth-storage"); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if err := m.Clear(ctx, "auth-storage"); err != nil {
		t.Fatalf("Clear twice: %v", err)
	}
	if _, err := m.Load(ctx, "auth-storage"); !errors.Is(err, domain.ErrSnapshotNotFound) {
		t.Errorf("expected ErrSnapshotNotFound after Clear, got %v", err)
	}
}

func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	left, err := filepath.Glob(filepath.Join(dir, "*.tmp"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(left) > 0 {
		t.Errorf("temp files left behind: %v", left)
	}
}

func TestMedium_ConcurrentWritersDoNotCollide(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	payloads := [][]byte{[]byte(`{"token":"a"}`), []byte(`{"token":"b"}`)}

	// Separate Medium values share no lock, like two CLI processes.
	var wg sync.WaitGroup
	errs := make(chan error, 2*50)
	for _, data := range payloads {
		m := New(dir)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				errs <- m.Save(ctx, "auth-storage", data)
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	got, err := New(dir).Load(ctx, "auth-storage")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !bytes.Equal(got, payloads[0]) && !bytes.Equal(got, payloads[1]) {
		t.Errorf("torn snapshot %q", got)
	}
	assertNoTempFiles(t, dir)
}

func TestMedium_FailedSaveRemovesTempFile(t *testing.T) {
	dir := t.TempDir()
	// A non-empty directory where the snapshot belongs makes the rename fail.
	blocker := filepath.Join(dir, "auth-storage.json")
	if err := os.MkdirAll(filepath.Join(blocker, "x"), 0o700); err != nil {
		t.Fatal(err)
	}

	if err := New(dir).Save(context.Background(), "auth-storage", []byte(`{}`)); err == nil {
		t.Fatal("expected Save to fail")
	}
	assertNoTempFiles(t, dir)
}

func TestMedium_RejectsPathNamespaces(t *testing.T) {
	m := New(t.TempDir())
	for _, ns := range []string{"", "..", "../escape", `a\b`} {
		if err := m.Save(context.Background(), ns, []byte("x")); !errors.Is(err, ErrInvalidNamespace) {
			t.Errorf("namespace %q: expected ErrInvalidNamespace, got %v", ns, err)
		}
	}
}

func TestMedium_SealedRoundTrip(t *testing.T) {
	dir := t.TempDir()
	m := New(dir, WithPassphrase("correct horse"))
	ctx := context.Background()
	plain := []byte(`{"token":"tok123","user":null,"isAuthenticated":false}`)

	if err := m.Save(ctx, "auth-storage", plain); err != nil {
		t.Fatalf("Save: %v", err)
	}
	raw, _ := os.ReadFile(filepath.Join(dir, "auth-storage.json"))
	if bytes.Contains(raw, []byte("tok123")) {
		t.Error("sealed file contains the plaintext token")
	}

	got, err := m.Load(ctx, "auth-storage")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !bytes.Equal(got, plain) {
		t.Errorf("expected %s, got %s", plain, got)
	}
}

func TestMedium_WrongPassphraseIsCorrupt(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	if err := New(dir, WithPassphrase("one")).Save(ctx, "auth-storage", []byte("secret")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	_, err := New(dir, WithPassphrase("two")).Load(ctx, "auth-storage")
	if !errors.Is(err, domain.ErrCorruptSnapshot) {
		t.Errorf("expected ErrCorruptSnapshot, got %v", err)
	}
}

func TestMedium_SealedFileBoundToNamespace(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	m := New(dir, WithPassphrase("pw"))
	if err := m.Save(ctx, "a", []byte("secret")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := os.Rename(filepath.Join(dir, "a.json"), filepath.Join(dir, "b.json")); err != nil {
		t.Fatalf("rename: %v", err)
	}
	if _, err := m.Load(ctx, "b"); !errors.Is(err, domain.ErrCorruptSnapshot) {
		t.Errorf("expected ErrCorruptSnapshot, got %v", err)
	}
}

func TestMedium_PlainFileWithPassphraseIsCorrupt(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	_ = New(dir).Save(ctx, "auth-storage", []byte(`{"token":null,"user":null,"isAuthenticated":false}`))

	if _, err := New(dir, WithPassphrase("pw")).Load(ctx, "auth-storage"); !errors.Is(err, domain.ErrCorruptSnapshot) {
		t.Errorf("expected ErrCorruptSnapshot, got %v", err)
	}
}
