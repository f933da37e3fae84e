package store

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)

	if err := s.Set(ctx, "k", "v"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, found, err := s.Get(ctx, "k")
	if err != nil || !found || got != "v" {
		t.Errorf("Get = (%q, %v, %v)", got, found, err)
	}

	if err := s.Set(ctx, "k", "v2"); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	got, _, _ = s.Get(ctx, "k")
	if got != "v2" {
		t.Errorf("overwrite lost: %q", got)
	}
}

func TestSQLiteMissingKey(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)

	_, found, err := s.Get(ctx, "absent")
	if err != nil || found {
		t.Errorf("Get = (_, %v, %v), want (false, nil)", found, err)
	}
}

func TestSQLiteMultiRemoveAndKeys(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)

	for _, k := range []string{"a", "b", "c"} {
		if err := s.Set(ctx, k, "v"); err != nil {
			t.Fatalf("Set: %v", err)
		}
	}
	if err := s.MultiRemove(ctx, []string{"a", "b"}); err != nil {
		t.Fatalf("MultiRemove: %v", err)
	}

	keys, err := s.Keys(ctx)
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if len(keys) != 1 || keys[0] != "c" {
		t.Errorf("Keys = %v, want [c]", keys)
	}
}
