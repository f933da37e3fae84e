// Package session persists the authenticated user and auth token in
// the durable store. It deliberately lives outside the cache namespace:
// clearing cached data must never log the user out.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ecotrace/ecotrace-go/internal/api"
	"github.com/ecotrace/ecotrace-go/internal/store"
)

// Storage keys. The "@ecotrace_" prefix matches the historical
// on-device key format so existing sessions survive upgrades.
const (
	userKey  = "@ecotrace_user"
	tokenKey = "@ecotrace_auth_token"
)

// Store persists and retrieves session state.
//
// Write failures for user data and tokens are surfaced: losing a
// session write means the user silently logs out on next launch, which
// the caller must know about. Read and removal failures are logged and
// degrade to "no session".
type Store struct {
	store  store.Store
	logger *slog.Logger
}

// NewStore wraps the durable store with session semantics.
func NewStore(s store.Store, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{store: s, logger: logger}
}

// StoreUser persists the user record.
func (s *Store) StoreUser(ctx context.Context, user api.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to store user data: %w", err)
	}
	if err := s.store.Set(ctx, userKey, string(data)); err != nil {
		return fmt.Errorf("failed to store user data: %w", err)
	}
	return nil
}

// GetUser returns the persisted user, or nil when no session exists or
// the stored record cannot be read.
func (s *Store) GetUser(ctx context.Context) *api.User {
	data, found, err := s.store.Get(ctx, userKey)
	if err != nil {
		s.logger.Warn("session: user read failed", "error", err)
		return nil
	}
	if !found {
		return nil
	}
	var user api.User
	if err := json.Unmarshal([]byte(data), &user); err != nil {
		s.logger.Warn("session: corrupt user record", "error", err)
		return nil
	}
	return &user
}

// RemoveUser deletes the persisted user. Failures are logged.
func (s *Store) RemoveUser(ctx context.Context) {
	if err := s.store.Remove(ctx, userKey); err != nil {
		s.logger.Warn("session: user removal failed", "error", err)
	}
}

// StoreAuthToken persists the auth token.
func (s *Store) StoreAuthToken(ctx context.Context, token string) error {
	if err := s.store.Set(ctx, tokenKey, token); err != nil {
		return fmt.Errorf("failed to store auth token: %w", err)
	}
	return nil
}

// GetAuthToken returns the persisted token, or "" when absent.
func (s *Store) GetAuthToken(ctx context.Context) string {
	token, found, err := s.store.Get(ctx, tokenKey)
	if err != nil {
		s.logger.Warn("session: token read failed", "error", err)
		return ""
	}
	if !found {
		return ""
	}
	return token
}

// RemoveAuthToken deletes the persisted token. Failures are logged.
func (s *Store) RemoveAuthToken(ctx context.Context) {
	if err := s.store.Remove(ctx, tokenKey); err != nil {
		s.logger.Warn("session: token removal failed", "error", err)
	}
}

// ClearAll removes every session key in one batch. Failures are logged;
// logout must always succeed locally.
func (s *Store) ClearAll(ctx context.Context) {
	if err := s.store.MultiRemove(ctx, []string{userKey, tokenKey}); err != nil {
		s.logger.Warn("session: clear failed", "error", err)
	}
}

// HasValidToken reports whether a non-empty token is stored.
func (s *Store) HasValidToken(ctx context.Context) bool {
	return s.GetAuthToken(ctx) != ""
}

// Info summarizes the stored session for diagnostics. The token is
// truncated so it never leaks in full through logs.
type Info struct {
	HasUser      bool
	HasToken     bool
	UserID       int
	Username     string
	TokenPreview string
}

// Info returns a diagnostic snapshot of the stored session.
func (s *Store) Info(ctx context.Context) Info {
	info := Info{}
	if user := s.GetUser(ctx); user != nil {
		info.HasUser = true
		info.UserID = user.ID
		info.Username = user.Username
	}
	if token := s.GetAuthToken(ctx); token != "" {
		info.HasToken = true
		if len(token) > 10 {
			info.TokenPreview = token[:10] + "..."
		} else {
			info.TokenPreview = token
		}
	}
	return info
}
