package store

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const fileExt = ".kv"

// FileStore persists each key as one file under a root directory.
// This is the default on-device backend.
type FileStore struct {
	root      string
	writeLock sync.Mutex
}

// NewFileStore creates a filesystem-backed store rooted at dir.
// An empty dir defaults to ~/.ecotrace/data.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		dir = filepath.Join(home, ".ecotrace", "data")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &Error{Op: "init", Err: err}
	}
	return &FileStore{root: dir}, nil
}

// path maps a key to its file, escaping characters unsafe for filenames.
func (s *FileStore) path(key string) string {
	return filepath.Join(s.root, url.PathEscape(key)+fileExt)
}

// Get returns the value for key.
func (s *FileStore) Get(ctx context.Context, key string) (string, bool, error) {
	data, err := os.ReadFile(s.path(key))
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, &Error{Op: "get", Key: key, Err: err}
	}
	return string(data), true, nil
}

// Set persists value under key atomically (temp file + rename).
func (s *FileStore) Set(ctx context.Context, key, value string) error {
	s.writeLock.Lock()
	defer s.writeLock.Unlock()

	path := s.path(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(value), 0o644); err != nil {
		return &Error{Op: "set", Key: key, Err: err}
	}
	if err := os.Rename(tmp, path); err != nil {
		return &Error{Op: "set", Key: key, Err: err}
	}
	return nil
}

// Remove deletes key.
func (s *FileStore) Remove(ctx context.Context, key string) error {
	err := os.Remove(s.path(key))
	if err != nil && !os.IsNotExist(err) {
		return &Error{Op: "remove", Key: key, Err: err}
	}
	return nil
}

// MultiRemove deletes all given keys; the first failure is returned
// after attempting the rest.
func (s *FileStore) MultiRemove(ctx context.Context, keys []string) error {
	var firstErr error
	for _, k := range keys {
		if err := s.Remove(ctx, k); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Keys returns all stored keys.
func (s *FileStore) Keys(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, &Error{Op: "keys", Err: err}
	}
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, fileExt) {
			continue
		}
		key, err := url.PathUnescape(strings.TrimSuffix(name, fileExt))
		if err != nil {
			continue
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// Close is a no-op for the file store.
func (s *FileStore) Close() error { return nil }
