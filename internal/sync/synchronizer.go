// Package sync keeps the app's remote collections (habits, challenges,
// users) fresh: cache-first loading, staleness-gated refreshes, and
// atomic snapshot swaps so consumers never see a half-updated world.
package sync

import (
	"context"
	"errors"
	"log/slog"
	stdsync "sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ecotrace/ecotrace-go/internal/api"
	"github.com/ecotrace/ecotrace-go/internal/auth"
	"github.com/ecotrace/ecotrace-go/internal/cache"
	"github.com/ecotrace/ecotrace-go/internal/core"
	"github.com/ecotrace/ecotrace-go/internal/notify"
	"github.com/ecotrace/ecotrace-go/internal/retry"
)

// stalenessWindow is how old a full snapshot may be before a
// non-forced refresh hits the network.
const stalenessWindow = 5 * time.Minute

// ErrNotAuthenticated is returned when a refresh is requested without
// an authenticated session.
var ErrNotAuthenticated = errors.New("not authenticated")

// ErrRefreshInFlight is returned when a refresh overlaps another.
var ErrRefreshInFlight = errors.New("refresh already in progress")

// Snapshot is a consistent view of all synchronized collections.
// LastUpdated stamps the last successful full refresh only; targeted
// single-collection refreshes never advance it.
type Snapshot struct {
	Habits      []api.Habit
	Challenges  []api.Challenge
	Users       []api.User
	LastUpdated time.Time
}

// Synchronizer coordinates cache, API, and auth state for app data.
type Synchronizer struct {
	api      api.Service
	cache    *cache.Manager
	auth     *auth.Controller
	notifier notify.Notifier
	presets  core.RetryPresets
	logger   *slog.Logger

	mu      stdsync.Mutex
	snap    Snapshot
	loading bool
	lastErr error

	now func() time.Time
}

// NewSynchronizer wires the data synchronizer.
func NewSynchronizer(svc api.Service, cm *cache.Manager, ac *auth.Controller, notifier notify.Notifier, cfg core.Config, logger *slog.Logger) *Synchronizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Synchronizer{
		api:      svc,
		cache:    cm,
		auth:     ac,
		notifier: notifier,
		presets:  cfg.Retry,
		logger:   logger,
		now:      time.Now,
	}
}

// Start runs the startup sequence: migrate legacy cache entries, load
// whatever cached data exists into the snapshot, and register for
// authentication events so a login triggers the first refresh when no
// data is loaded yet.
func (s *Synchronizer) Start(ctx context.Context) {
	s.cache.MigrateLegacy(ctx)

	s.mu.Lock()
	var habits []api.Habit
	if s.cache.Get(ctx, cache.KeyHabits, &habits) {
		s.snap.Habits = habits
	}
	var challenges []api.Challenge
	if s.cache.Get(ctx, cache.KeyChallenges, &challenges) {
		s.snap.Challenges = challenges
	}
	var users []api.User
	if s.cache.Get(ctx, cache.KeyUsers, &users) {
		s.snap.Users = users
	}
	s.mu.Unlock()

	s.auth.OnAuthenticated(func(ctx context.Context) {
		s.mu.Lock()
		empty := len(s.snap.Habits) == 0
		s.mu.Unlock()
		if empty {
			if err := s.RefreshData(ctx, false); err != nil {
				s.logger.Warn("post-login refresh failed", "error", err)
			}
		}
	})
}

// Snapshot returns the current data snapshot.
func (s *Synchronizer) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Loading reports whether a full refresh is in flight.
func (s *Synchronizer) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// LastError returns the error from the most recent failed refresh, or
// nil after a success.
func (s *Synchronizer) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// IsStale reports whether the snapshot is older than the staleness
// window. A never-refreshed snapshot is always stale.
func (s *Synchronizer) IsStale() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.LastUpdated.IsZero() || s.now().Sub(s.snap.LastUpdated) > stalenessWindow
}

// RefreshData refreshes all collections from the backend. Without
// force, a fresh snapshot short-circuits with no network traffic. The
// three fetches run concurrently, each under the Normal retry preset;
// the snapshot and cache are updated only if every fetch succeeds, so
// a partial failure leaves the previous consistent view intact.
func (s *Synchronizer) RefreshData(ctx context.Context, force bool) error {
	if s.auth.State().Status != auth.Authenticated {
		return ErrNotAuthenticated
	}
	if !force && !s.IsStale() {
		s.logger.Debug("snapshot fresh, skipping refresh")
		return nil
	}

	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		return ErrRefreshInFlight
	}
	s.loading = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
	}()

	policy := retry.FromSettings(s.presets.Normal)
	var habits []api.Habit
	var challenges []api.Challenge
	var users []api.User

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		habits, err = retry.Do(gctx, policy, s.api.GetHabits)
		return err
	})
	g.Go(func() error {
		var err error
		challenges, err = retry.Do(gctx, policy, s.api.GetChallenges)
		return err
	})
	g.Go(func() error {
		var err error
		users, err = retry.Do(gctx, policy, s.api.GetUsers)
		return err
	})

	if err := g.Wait(); err != nil {
		s.logger.Warn("refresh failed", "error", err)
		s.mu.Lock()
		s.lastErr = err
		s.mu.Unlock()
		s.notifier.Error("Failed to refresh data. Please check your connection.", func() {
			_ = s.RefreshData(ctx, true)
		}, "Retry")
		return err
	}

	s.cache.Set(ctx, cache.KeyHabits, habits, s.cache.Duration(cache.Medium))
	s.cache.Set(ctx, cache.KeyChallenges, challenges, s.cache.Duration(cache.Long))
	s.cache.Set(ctx, cache.KeyUsers, users, s.cache.Duration(cache.Medium))

	s.mu.Lock()
	s.snap = Snapshot{
		Habits:      habits,
		Challenges:  challenges,
		Users:       users,
		LastUpdated: s.now(),
	}
	s.lastErr = nil
	s.mu.Unlock()

	s.logger.Info("data refreshed",
		"habits", len(habits), "challenges", len(challenges), "users", len(users))
	return nil
}

// RefreshHabits refreshes only the habit catalog. Without force, an
// unexpired cache entry is used and no request is made. LastUpdated is
// untouched: a targeted refresh does not make the whole snapshot fresh.
func (s *Synchronizer) RefreshHabits(ctx context.Context, force bool) error {
	if !force {
		var cached []api.Habit
		if s.cache.Get(ctx, cache.KeyHabits, &cached) {
			s.mu.Lock()
			s.snap.Habits = cached
			s.mu.Unlock()
			return nil
		}
	}

	policy := retry.FromSettings(s.presets.UserAction)
	habits, err := retry.Do(ctx, policy, s.api.GetHabits)
	if err != nil {
		s.logger.Warn("habit refresh failed", "error", err)
		s.notifier.Error("Failed to load habits. Please try again.", func() {
			_ = s.RefreshHabits(ctx, true)
		}, "Retry")
		return err
	}

	s.cache.Set(ctx, cache.KeyHabits, habits, s.cache.Duration(cache.Medium))
	s.mu.Lock()
	s.snap.Habits = habits
	s.mu.Unlock()
	return nil
}

// RefreshChallenges refreshes only the challenge list.
func (s *Synchronizer) RefreshChallenges(ctx context.Context, force bool) error {
	if !force {
		var cached []api.Challenge
		if s.cache.Get(ctx, cache.KeyChallenges, &cached) {
			s.mu.Lock()
			s.snap.Challenges = cached
			s.mu.Unlock()
			return nil
		}
	}

	policy := retry.FromSettings(s.presets.UserAction)
	challenges, err := retry.Do(ctx, policy, s.api.GetChallenges)
	if err != nil {
		s.logger.Warn("challenge refresh failed", "error", err)
		s.notifier.Error("Failed to load challenges. Please try again.", func() {
			_ = s.RefreshChallenges(ctx, true)
		}, "Retry")
		return err
	}

	s.cache.Set(ctx, cache.KeyChallenges, challenges, s.cache.Duration(cache.Long))
	s.mu.Lock()
	s.snap.Challenges = challenges
	s.mu.Unlock()
	return nil
}

// RefreshUsers refreshes only the user list (the leaderboard source).
func (s *Synchronizer) RefreshUsers(ctx context.Context, force bool) error {
	if !force {
		var cached []api.User
		if s.cache.Get(ctx, cache.KeyUsers, &cached) {
			s.mu.Lock()
			s.snap.Users = cached
			s.mu.Unlock()
			return nil
		}
	}

	policy := retry.FromSettings(s.presets.UserAction)
	users, err := retry.Do(ctx, policy, s.api.GetUsers)
	if err != nil {
		s.logger.Warn("user refresh failed", "error", err)
		s.notifier.Error("Failed to load leaderboard. Please try again.", func() {
			_ = s.RefreshUsers(ctx, true)
		}, "Retry")
		return err
	}

	s.cache.Set(ctx, cache.KeyUsers, users, s.cache.Duration(cache.Medium))
	s.mu.Lock()
	s.snap.Users = users
	s.mu.Unlock()
	return nil
}

// ClearCache drops all cached data. The in-memory snapshot survives
// until the next refresh replaces it.
func (s *Synchronizer) ClearCache(ctx context.Context) {
	s.cache.Clear(ctx)
}

// HandleForeground refreshes data when the app returns to the
// foreground with a stale snapshot.
func (s *Synchronizer) HandleForeground(ctx context.Context) {
	if s.auth.State().Status != auth.Authenticated {
		return
	}
	if !s.IsStale() {
		return
	}
	if err := s.RefreshData(ctx, false); err != nil {
		s.logger.Warn("foreground refresh failed", "error", err)
	}
}
