package kv

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a key is absent from the store.
var ErrNotFound = errors.New("kv: key not found")

// Store is the shared key-value store holding metric snapshots as JSON blobs.
// Handlers read it on every request; only the ingest path writes.
type Store interface {
	// GetJSON reads the blob at key and unmarshals it into dest.
	// Returns ErrNotFound when the key is absent.
	GetJSON(ctx context.Context, key string, dest interface{}) error
	// GetRaw returns the stored bytes without decoding.
	GetRaw(ctx context.Context, key string) ([]byte, error)
	// PutJSON marshals v and stores it at key. ttl <= 0 means no expiry.
	PutJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) error
	// PutRaw stores bytes verbatim.
	PutRaw(ctx context.Context, key string, b []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
	Close() error
}
