package store

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store for testing.
type MemoryStore struct {
	mu      sync.RWMutex
	values  map[string]string
	failErr error
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

// FailWith makes every subsequent operation fail with err.
// Pass nil to restore normal behavior.
func (s *MemoryStore) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failErr = err
}

// Seed inserts entries directly, bypassing failure injection.
func (s *MemoryStore) Seed(entries map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range entries {
		s.values[k] = v
	}
}

// Len returns the number of stored keys.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}

// Get returns the value for key.
func (s *MemoryStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failErr != nil {
		return "", false, &Error{Op: "get", Key: key, Err: s.failErr}
	}
	v, ok := s.values[key]
	return v, ok, nil
}

// Set persists value under key.
func (s *MemoryStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return &Error{Op: "set", Key: key, Err: s.failErr}
	}
	s.values[key] = value
	return nil
}

// Remove deletes key.
func (s *MemoryStore) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return &Error{Op: "remove", Key: key, Err: s.failErr}
	}
	delete(s.values, key)
	return nil
}

// MultiRemove deletes all given keys.
func (s *MemoryStore) MultiRemove(ctx context.Context, keys []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return &Error{Op: "multiRemove", Err: s.failErr}
	}
	for _, k := range keys {
		delete(s.values, k)
	}
	return nil
}

// Keys returns all stored keys.
func (s *MemoryStore) Keys(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failErr != nil {
		return nil, &Error{Op: "keys", Err: s.failErr}
	}
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	return keys, nil
}

// Close is a no-op for the memory store.
func (s *MemoryStore) Close() error { return nil }
