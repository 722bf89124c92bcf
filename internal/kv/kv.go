// Package kv defines the generic key-value store the application keeps all
// of its data in. Entities are namespaced by key prefix ("user:", "post:",
// "like:", "comment:", "follow:", "session:") and listed with prefix scans.
package kv

import (
	"context"
	"time"
)

// Entry is a single key/value pair returned by List.
type Entry struct {
	Key   string
	Value []byte
}

// Store is the storage contract. Implementations must be safe for
// concurrent use. Get returns models.ErrNotFound for missing or expired
// keys; List returns entries in ascending key order.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	// Set writes value under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]Entry, error)
	Close() error
}
