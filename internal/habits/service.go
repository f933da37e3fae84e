// Package habits implements user-initiated mutations: tracking and
// completing habits, joining challenges, and profile updates. Each
// mutation applies an optimistic local update, runs the API call under
// the user-action retry preset, and reconciles with the server result.
package habits

import (
	"context"
	"log/slog"

	"github.com/ecotrace/ecotrace-go/internal/api"
	"github.com/ecotrace/ecotrace-go/internal/auth"
	"github.com/ecotrace/ecotrace-go/internal/core"
	"github.com/ecotrace/ecotrace-go/internal/notify"
	"github.com/ecotrace/ecotrace-go/internal/retry"
	"github.com/ecotrace/ecotrace-go/internal/session"
)

// Service performs habit and challenge mutations for the signed-in user.
// Mutations are serialized through a queue so overlapping retries never
// interleave their writes.
type Service struct {
	api      api.Service
	sessions *session.Store
	auth     *auth.Controller
	notifier notify.Notifier
	presets  core.RetryPresets
	queue    *retry.Queue
	logger   *slog.Logger
}

// NewService wires the mutation service. Release it with Close.
func NewService(svc api.Service, sessions *session.Store, ac *auth.Controller, notifier notify.Notifier, cfg core.Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		api:      svc,
		sessions: sessions,
		auth:     ac,
		notifier: notifier,
		presets:  cfg.Retry,
		queue:    retry.NewQueue(16),
		logger:   logger,
	}
}

// Close stops the mutation queue.
func (s *Service) Close() {
	s.queue.Close()
}

// CancelPending discards queued mutations that have not started. Their
// callers receive an error; the mutation currently running finishes.
// Called on logout so a departing user's queued writes never land.
func (s *Service) CancelPending() {
	s.queue.Clear()
}

// call runs a retried API call through the mutation queue.
func call[T any](ctx context.Context, s *Service, op func(ctx context.Context) (T, error)) (T, error) {
	policy := retry.FromSettings(s.presets.UserAction)
	var result T
	err := s.queue.Add(ctx, func(ctx context.Context) error {
		var err error
		result, err = retry.Do(ctx, policy, op)
		return err
	})
	return result, err
}

// currentUser returns the signed-in user, or nil when unauthenticated.
func (s *Service) currentUser() *api.User {
	state := s.auth.State()
	if state.Status != auth.Authenticated {
		return nil
	}
	return state.User
}

// commitUser propagates a server-confirmed user record to auth state
// and session storage.
func (s *Service) commitUser(ctx context.Context, user api.User) {
	s.auth.UpdateUser(user)
	if err := s.sessions.StoreUser(ctx, user); err != nil {
		s.logger.Warn("user persist after mutation failed", "userId", user.ID, "error", err)
	}
}

// TrackHabit adds a habit to the signed-in user's tracked set. The
// tracked set updates optimistically; on failure the previous record is
// restored and a notification posted.
func (s *Service) TrackHabit(ctx context.Context, habitID int) error {
	user := s.currentUser()
	if user == nil {
		return auth.ErrNotSignedIn
	}
	prev := *user
	optimistic := ApplyTrack(prev, habitID)
	s.auth.UpdateUser(optimistic)

	updated, err := call(ctx, s, func(ctx context.Context) (api.User, error) {
		return s.api.TrackHabit(ctx, prev.ID, habitID)
	})
	final := Reconcile(prev, optimistic, updated, err)
	s.commitUser(ctx, final)

	if err != nil {
		s.logger.Warn("track habit failed", "habitId", habitID, "error", err)
		s.notifier.Error(notify.Message(err), func() {
			_ = s.TrackHabit(ctx, habitID)
		}, "Try Again")
		return err
	}
	return nil
}

// UntrackHabit removes a habit from the tracked set, optimistically.
func (s *Service) UntrackHabit(ctx context.Context, habitID int) error {
	user := s.currentUser()
	if user == nil {
		return auth.ErrNotSignedIn
	}
	prev := *user
	optimistic := ApplyUntrack(prev, habitID)
	s.auth.UpdateUser(optimistic)

	updated, err := call(ctx, s, func(ctx context.Context) (api.User, error) {
		return s.api.UntrackHabit(ctx, prev.ID, habitID)
	})
	final := Reconcile(prev, optimistic, updated, err)
	s.commitUser(ctx, final)

	if err != nil {
		s.logger.Warn("untrack habit failed", "habitId", habitID, "error", err)
		s.notifier.Error(notify.Message(err), func() {
			_ = s.UntrackHabit(ctx, habitID)
		}, "Try Again")
		return err
	}
	return nil
}

// CompleteHabit records a completion and returns the points earned.
// Completion is not optimistic: points come from the server.
func (s *Service) CompleteHabit(ctx context.Context, habitID int) (api.CompletionResult, error) {
	user := s.currentUser()
	if user == nil {
		return api.CompletionResult{}, auth.ErrNotSignedIn
	}

	result, err := call(ctx, s, func(ctx context.Context) (api.CompletionResult, error) {
		return s.api.CompleteHabit(ctx, user.ID, habitID)
	})
	if err != nil {
		s.logger.Warn("complete habit failed", "habitId", habitID, "error", err)
		s.notifier.Error(notify.Message(err), nil, "")
		return api.CompletionResult{}, err
	}

	s.commitUser(ctx, result.User)
	return result, nil
}

// JoinChallenge enrolls the signed-in user in a challenge.
func (s *Service) JoinChallenge(ctx context.Context, challengeID int) error {
	user := s.currentUser()
	if user == nil {
		return auth.ErrNotSignedIn
	}

	_, err := call(ctx, s, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.api.JoinChallenge(ctx, user.ID, challengeID)
	})
	if err != nil {
		s.logger.Warn("join challenge failed", "challengeId", challengeID, "error", err)
		s.notifier.Error(notify.Message(err), nil, "")
		return err
	}
	return nil
}

// LeaveChallenge withdraws the signed-in user from a challenge.
func (s *Service) LeaveChallenge(ctx context.Context, challengeID int) error {
	user := s.currentUser()
	if user == nil {
		return auth.ErrNotSignedIn
	}

	_, err := call(ctx, s, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.api.LeaveChallenge(ctx, user.ID, challengeID)
	})
	if err != nil {
		s.logger.Warn("leave challenge failed", "challengeId", challengeID, "error", err)
		s.notifier.Error(notify.Message(err), nil, "")
		return err
	}
	return nil
}

// UpdateProfile applies a partial profile update and commits the
// server's view of the user.
func (s *Service) UpdateProfile(ctx context.Context, updates api.ProfileUpdate) (api.User, error) {
	user := s.currentUser()
	if user == nil {
		return api.User{}, auth.ErrNotSignedIn
	}

	updated, err := call(ctx, s, func(ctx context.Context) (api.User, error) {
		return s.api.UpdateUserProfile(ctx, user.ID, updates)
	})
	if err != nil {
		s.logger.Warn("profile update failed", "userId", user.ID, "error", err)
		s.notifier.Error(notify.Message(err), nil, "")
		return api.User{}, err
	}

	s.commitUser(ctx, updated)
	return updated, nil
}
