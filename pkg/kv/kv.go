// Package kv provides access to the hosted Redis-compatible key-value store
// that backs all persistent state. The store is reached over its REST
// interface; an in-memory implementation of the same interface backs tests
// and offline mode.
package kv

import (
	"context"
	"errors"
)

// ErrNil is returned by Get when the key does not exist.
var ErrNil = errors.New("kv: nil")

// Store is the interface both the REST client and the in-memory store satisfy.
// Values are opaque strings; callers serialize JSON themselves.
type Store interface {
	// Get returns the value at key, or ErrNil if the key is absent.
	Get(ctx context.Context, key string) (string, error)

	// Set writes value at key, overwriting any previous value.
	Set(ctx context.Context, key, value string) error

	// Del removes the given keys. Deleting an absent key is not an error.
	Del(ctx context.Context, keys ...string) error

	// Incr atomically increments the integer at key, creating it at 0 first.
	Incr(ctx context.Context, key string) (int64, error)

	// Keys returns all keys matching the glob pattern.
	Keys(ctx context.Context, pattern string) ([]string, error)

	// Ping verifies connectivity to the store.
	Ping(ctx context.Context) error
}
