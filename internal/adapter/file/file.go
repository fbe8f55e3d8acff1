// Package file stores session snapshots as files in a state directory,
// optionally sealed with a passphrase.
package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"seteuk/internal/domain"
)

var _ domain.SnapshotMedium = (*Medium)(nil)

// ErrInvalidNamespace is returned for namespaces that are not a plain file name.
var ErrInvalidNamespace = errors.New("invalid namespace")

// Medium keeps one <namespace>.json file per namespace under dir.
type Medium struct {
	mu     sync.Mutex
	dir    string
	sealer *sealer
}

// Option configures a Medium.
type Option func(*Medium)

// WithPassphrase seals every snapshot with a key derived from passphrase.
func WithPassphrase(passphrase string) Option {
	return func(m *Medium) {
		if passphrase != "" {
			m.sealer = newSealer(passphrase)
		}
	}
}

// New returns a Medium rooted at dir. The directory is created on first Save.
func New(dir string, opts ...Option) *Medium {
	m := &Medium{dir: dir}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Medium) path(namespace string) (string, error) {
	if namespace == "" || namespace == "." || namespace == ".." ||
		strings.ContainsAny(namespace, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidNamespace, namespace)
	}
	return filepath.Join(m.dir, namespace+".json"), nil
}

// Load reads the snapshot for namespace, unsealing it if a passphrase is set.
func (m *Medium) Load(_ context.Context, namespace string) ([]byte, error) {
	p, err := m.path(namespace)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, domain.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, err
	}
	if m.sealer == nil {
		return data, nil
	}
	plain, err := m.sealer.open(namespace, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCorruptSnapshot, err)
	}
	return plain, nil
}

// Save writes the snapshot atomically: a temp file is written and renamed
// over the previous one, so a crash never leaves a half-written snapshot.
func (m *Medium) Save(_ context.Context, namespace string, data []byte) error {
	p, err := m.path(namespace)
	if err != nil {
		return err
	}
	if m.sealer != nil {
		if data, err = m.sealer.seal(namespace, data); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := os.MkdirAll(m.dir, 0o700); err != nil {
		return err
	}
	return writeAtomic(m.dir, p, data)
}

// writeAtomic writes data to a uniquely named temp file in dir and renames it
// onto p. The temp file is removed on any failure.
func writeAtomic(dir, p string, data []byte) (err error) {
	f, err := os.CreateTemp(dir, filepath.Base(p)+".*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmp)
		}
	}()

	if err = f.Chmod(0o600); err != nil {
		_ = f.Close()
		return err
	}
	if _, err = f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, p)
}

// Clear removes the snapshot file. A missing file is not an error.
func (m *Medium) Clear(_ context.Context, namespace string) error {
	p, err := m.path(namespace)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
