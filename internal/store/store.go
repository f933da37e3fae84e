// Package store provides the durable key-value storage used for the
// session record and the persistent cache tier.
//
// All structured data is JSON-serialized by callers before it reaches a
// Store; values are opaque strings at this layer. Four backends are
// provided: memory (tests), filesystem (default), SQLite, and Redis.
package store

import (
	"context"
	"fmt"
)

// Store is the durable key-value contract.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the value for key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set persists value under key, overwriting any existing value.
	Set(ctx context.Context, key, value string) error

	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error

	// MultiRemove deletes all given keys in one batch.
	MultiRemove(ctx context.Context, keys []string) error

	// Keys returns all stored keys.
	Keys(ctx context.Context) ([]string, error)

	// Close releases any resources held by the store.
	Close() error
}

// Error wraps a storage backend failure with the failed operation and key.
type Error struct {
	Op  string
	Key string
	Err error
}

func (e *Error) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("store: %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports that local persistence failures are never retried.
func (e *Error) Retryable() bool { return false }
