// Package redis stores session snapshots in Redis so several machines can
// share one login.
package redis

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"seteuk/internal/domain"
)

var _ domain.SnapshotMedium = (*Medium)(nil)

// DefaultPrefix is prepended to every namespace.
const DefaultPrefix = "seteuk"

// Medium is a SnapshotMedium backed by a Redis string key per namespace.
type Medium struct {
	rdb    goredis.UniversalClient
	prefix string
	ttl    time.Duration
}

// New wraps rdb. A zero ttl stores snapshots without expiry.
func New(rdb goredis.UniversalClient, prefix string, ttl time.Duration) *Medium {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Medium{rdb: rdb, prefix: prefix, ttl: ttl}
}

// Dial connects to addr and verifies the connection.
func Dial(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{Addr: addr, Password: password, DB: db})
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}

func (m *Medium) key(namespace string) string {
	return m.prefix + ":" + namespace
}

// Load returns the snapshot stored under namespace.
func (m *Medium) Load(ctx context.Context, namespace string) ([]byte, error) {
	data, err := m.rdb.Get(ctx, m.key(namespace)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, domain.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Save writes the snapshot, refreshing the TTL.
func (m *Medium) Save(ctx context.Context, namespace string, data []byte) error {
	return m.rdb.Set(ctx, m.key(namespace), data, m.ttl).Err()
}

// Clear deletes the snapshot.
func (m *Medium) Clear(ctx context.Context, namespace string) error {
	return m.rdb.Del(ctx, m.key(namespace)).Err()
}
