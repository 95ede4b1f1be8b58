// Package db declares the key-value facade used for shared caches.
package db

import (
	"context"
	"time"
)

// Store is the database facade: connectivity plus key-value operations.
type Store interface {
	Pinger
	KVStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVItem is one key+value pair for pipelined SET.
type KVItem struct {
	Key   string
	Value []byte
}

// KVStore provides binary-safe key-value operations. A zero ttl means no expiry.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	// GetMulti returns one entry per key, nil where the key is missing.
	GetMulti(ctx context.Context, keys []string) ([][]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	SetMulti(ctx context.Context, items []KVItem, ttl time.Duration) error
}
