package store

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if err := s.Set(ctx, "k", "v"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, found, err := s.Get(ctx, "k")
	if err != nil || !found || got != "v" {
		t.Errorf("Get = (%q, %v, %v), want (v, true, nil)", got, found, err)
	}
	if s.Len() != 1 {
		t.Errorf("Len = %d, want 1", s.Len())
	}
}

func TestMemoryStoreFailureInjection(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	s.Seed(map[string]string{"k": "v"})

	s.FailWith(errors.New("storage unavailable"))

	if _, _, err := s.Get(ctx, "k"); err == nil {
		t.Error("expected injected failure from Get")
	}
	var storeErr *Error
	err := s.Set(ctx, "k", "v2")
	if !errors.As(err, &storeErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if storeErr.Retryable() {
		t.Error("store errors are not retryable")
	}

	s.FailWith(nil)
	if _, _, err := s.Get(ctx, "k"); err != nil {
		t.Errorf("failure should clear: %v", err)
	}
}

func TestMemoryStoreMultiRemove(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	s.Seed(map[string]string{"a": "1", "b": "2", "c": "3"})

	if err := s.MultiRemove(ctx, []string{"a", "b"}); err != nil {
		t.Fatalf("MultiRemove: %v", err)
	}
	if s.Len() != 1 {
		t.Errorf("Len = %d, want 1", s.Len())
	}
	keys, err := s.Keys(ctx)
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if len(keys) != 1 || keys[0] != "c" {
		t.Errorf("Keys = %v, want [c]", keys)
	}
}
