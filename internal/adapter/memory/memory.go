// Package memory implements an in-memory snapshot medium for development and testing.
package memory

import (
	"bytes"
	"context"
	"sync"

	"seteuk/internal/domain"
)

// Medium keeps snapshots in a map. Contents do not survive the process.
type Medium struct {
	mu    sync.Mutex
	items map[string][]byte
}

// New creates an empty in-memory medium.
func New() *Medium {
	return &Medium{items: make(map[string][]byte)}
}

// Ensure interfaces are met.
var _ domain.SnapshotMedium = (*Medium)(nil)

// Load returns a copy of the snapshot stored under key.
func (m *Medium) Load(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.items[key]
	if !ok {
		return nil, domain.ErrSnapshotNotFound
	}
	return bytes.Clone(data), nil
}

// Save stores a copy of data under key.
func (m *Medium) Save(ctx context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items[key] = bytes.Clone(data)
	return nil
}

// Clear removes key. Missing keys are not an error.
func (m *Medium) Clear(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.items, key)
	return nil
}

// Len returns the number of stored snapshots.
func (m *Medium) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}
