package sync

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecotrace/ecotrace-go/internal/api"
	"github.com/ecotrace/ecotrace-go/internal/auth"
	"github.com/ecotrace/ecotrace-go/internal/cache"
	"github.com/ecotrace/ecotrace-go/internal/core"
	"github.com/ecotrace/ecotrace-go/internal/notify"
	"github.com/ecotrace/ecotrace-go/internal/session"
	"github.com/ecotrace/ecotrace-go/internal/store"
)

func testConfig() core.Config {
	cfg := core.DevelopmentConfig()
	fast := core.RetrySettings{MaxAttempts: 2, Delay: time.Millisecond, BackoffMultiplier: 1.0, MaxDelay: time.Millisecond}
	cfg.Retry = core.RetryPresets{Critical: fast, Normal: fast, Background: fast, UserAction: fast}
	return cfg
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	mock     *api.Mock
	store    *store.MemoryStore
	cache    *cache.Manager
	notifier *notify.Center
	auth     *auth.Controller
	sync     *Synchronizer
}

var seedHabits = []api.Habit{
	{ID: 1, Name: "Cycle to work", Category: "transport", Impact: 10},
	{ID: 2, Name: "Meatless Monday", Category: "food", Impact: 5},
}

var seedChallenges = []api.Challenge{
	{ID: 1, Name: "Zero Waste Week", Duration: "7 days", Reward: 100},
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := testConfig()
	logger := testLogger()
	mock := api.NewMock()
	mock.SeedHabits(seedHabits...)
	mock.SeedChallenges(seedChallenges...)
	mock.SeedUsers(api.User{ID: 1, Username: "eco", Email: "eco@example.com"})

	st := store.NewMemoryStore()
	cm := cache.NewManager(st, cfg.CacheDurations, logger)
	sessions := session.NewStore(st, logger)
	notifier := notify.NewCenter(logger)
	authCtrl := auth.NewController(mock, sessions, notifier, cfg, logger)
	t.Cleanup(authCtrl.Close)
	s := NewSynchronizer(mock, cm, authCtrl, notifier, cfg, logger)

	return &fixture{mock: mock, store: st, cache: cm, notifier: notifier, auth: authCtrl, sync: s}
}

// login authenticates the fixture's user and clears the mock's call log
// so tests count only their own traffic.
func (f *fixture) login(t *testing.T) {
	t.Helper()
	require.NoError(t, f.auth.Login(context.Background(), "eco@example.com", "pw"))
	f.mock.Reset()
}

func TestRefreshRequiresAuthentication(t *testing.T) {
	f := newFixture(t)
	f.sync.Start(context.Background())

	err := f.sync.RefreshData(context.Background(), false)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	assert.Zero(t, f.mock.RequestsMade())
}

func TestRefreshPopulatesSnapshotAndCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.sync.Start(ctx)
	f.login(t)
	f.mock.Reset()

	require.NoError(t, f.sync.RefreshData(ctx, true))

	snap := f.sync.Snapshot()
	assert.Len(t, snap.Habits, 2)
	assert.Len(t, snap.Challenges, 1)
	assert.Len(t, snap.Users, 1)
	assert.False(t, snap.LastUpdated.IsZero())
	assert.False(t, f.sync.IsStale())
	assert.NoError(t, f.sync.LastError())

	// Each collection lands in the cache for the next cold start.
	var habits []api.Habit
	assert.True(t, f.cache.Get(ctx, cache.KeyHabits, &habits))
	var challenges []api.Challenge
	assert.True(t, f.cache.Get(ctx, cache.KeyChallenges, &challenges))
	var users []api.User
	assert.True(t, f.cache.Get(ctx, cache.KeyUsers, &users))
}

func TestLoginTriggersInitialRefresh(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.sync.Start(ctx)

	require.NoError(t, f.auth.Login(ctx, "eco@example.com", "pw"))

	snap := f.sync.Snapshot()
	assert.Len(t, snap.Habits, 2, "login with an empty snapshot should refresh")
}

func TestFreshSnapshotSkipsNetwork(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.sync.Start(ctx)
	f.login(t)
	require.NoError(t, f.sync.RefreshData(ctx, true))
	f.mock.Reset()

	require.NoError(t, f.sync.RefreshData(ctx, false))
	assert.Zero(t, f.mock.RequestsMade(), "fresh snapshot must short-circuit")

	require.NoError(t, f.sync.RefreshData(ctx, true))
	assert.NotZero(t, f.mock.RequestsMade(), "force must bypass the staleness gate")
}

func TestStaleSnapshotRefreshes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.sync.Start(ctx)
	f.login(t)
	require.NoError(t, f.sync.RefreshData(ctx, true))
	f.mock.Reset()

	// Age the snapshot past the staleness window.
	f.sync.now = func() time.Time { return time.Now().Add(stalenessWindow + time.Second) }
	assert.True(t, f.sync.IsStale())

	require.NoError(t, f.sync.RefreshData(ctx, false))
	assert.NotZero(t, f.mock.RequestsMade())
}

func TestPartialFailureKeepsPreviousSnapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.sync.Start(ctx)
	f.login(t)
	require.NoError(t, f.sync.RefreshData(ctx, true))
	before := f.sync.Snapshot()

	// Change backend data, then make one of the three fetches fail hard.
	f.mock.SeedHabits(api.Habit{ID: 3, Name: "Compost", Impact: 3})
	f.mock.FailAlways("getUsers", &api.ServerError{StatusCode: 503, Message: "down"})

	err := f.sync.RefreshData(ctx, true)
	require.Error(t, err)

	after := f.sync.Snapshot()
	assert.Equal(t, before.Habits, after.Habits, "failed refresh must not partially apply")
	assert.Equal(t, before.LastUpdated, after.LastUpdated)
	assert.Error(t, f.sync.LastError())

	notifications := f.notifier.Notifications()
	require.Len(t, notifications, 1)
	assert.Equal(t, "Failed to refresh data. Please check your connection.", notifications[0].Message)
	assert.Equal(t, "Retry", notifications[0].RetryLabel)
	assert.NotNil(t, notifications[0].Retry)
}

func TestRefreshRecoversAfterTransientFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.sync.Start(ctx)
	f.login(t)

	f.mock.FailOnce("getHabits", &api.NetworkError{Err: errors.New("reset")})
	require.NoError(t, f.sync.RefreshData(ctx, true), "one transient failure is absorbed by retry")
	assert.Equal(t, 2, f.mock.CallsTo("getHabits"))
}

func TestColdStartLoadsFromCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.sync.Start(ctx)
	f.login(t)
	require.NoError(t, f.sync.RefreshData(ctx, true))

	// Second synchronizer on the same store simulates an app restart.
	cfg := testConfig()
	logger := testLogger()
	cm := cache.NewManager(f.store, cfg.CacheDurations, logger)
	sessions := session.NewStore(f.store, logger)
	authCtrl := auth.NewController(f.mock, sessions, notify.NewCenter(logger), cfg, logger)
	t.Cleanup(authCtrl.Close)
	restarted := NewSynchronizer(f.mock, cm, authCtrl, notify.NewCenter(logger), cfg, logger)

	f.mock.Reset()
	restarted.Start(ctx)

	snap := restarted.Snapshot()
	assert.Len(t, snap.Habits, 2, "cached habits should load without network")
	assert.Len(t, snap.Challenges, 1)
	assert.Zero(t, f.mock.RequestsMade())
	assert.True(t, restarted.IsStale(), "cache-loaded snapshot has no refresh timestamp")
}

func TestTargetedRefreshDoesNotAdvanceLastUpdated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.sync.Start(ctx)
	f.login(t)
	require.NoError(t, f.sync.RefreshData(ctx, true))
	stamp := f.sync.Snapshot().LastUpdated

	f.mock.SeedHabits(api.Habit{ID: 3, Name: "Compost", Impact: 3})
	require.NoError(t, f.sync.RefreshHabits(ctx, true))

	snap := f.sync.Snapshot()
	assert.Len(t, snap.Habits, 3)
	assert.Equal(t, stamp, snap.LastUpdated, "targeted refresh must not mark the full snapshot fresh")
}

func TestTargetedRefreshUsesCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.sync.Start(ctx)
	f.login(t)
	require.NoError(t, f.sync.RefreshData(ctx, true))
	f.mock.Reset()

	require.NoError(t, f.sync.RefreshHabits(ctx, false))
	assert.Zero(t, f.mock.CallsTo("getHabits"), "unexpired cache entry must satisfy the refresh")

	require.NoError(t, f.sync.RefreshHabits(ctx, true))
	assert.Equal(t, 1, f.mock.CallsTo("getHabits"))
}

func TestTargetedRefreshFailureNotifies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.sync.Start(ctx)
	f.login(t)
	f.mock.FailAlways("getChallenges", &api.ServerError{StatusCode: 503, Message: "down"})

	err := f.sync.RefreshChallenges(ctx, true)
	require.Error(t, err)

	notifications := f.notifier.Notifications()
	require.Len(t, notifications, 1)
	assert.Equal(t, "Failed to load challenges. Please try again.", notifications[0].Message)
}

func TestClearCachePreservesSnapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.sync.Start(ctx)
	f.login(t)
	require.NoError(t, f.sync.RefreshData(ctx, true))

	f.sync.ClearCache(ctx)

	assert.False(t, f.cache.Has(ctx, cache.KeyHabits))
	assert.Len(t, f.sync.Snapshot().Habits, 2, "in-memory snapshot survives a cache clear")
}

func TestHandleForegroundRefreshesWhenStale(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.sync.Start(ctx)
	f.login(t)
	require.NoError(t, f.sync.RefreshData(ctx, true))
	f.mock.Reset()

	f.sync.HandleForeground(ctx)
	assert.Zero(t, f.mock.RequestsMade(), "fresh snapshot needs no foreground refresh")

	f.sync.now = func() time.Time { return time.Now().Add(stalenessWindow + time.Second) }
	f.sync.HandleForeground(ctx)
	assert.NotZero(t, f.mock.RequestsMade())
}

func TestMigrationRunsOnStart(t *testing.T) {
	cfg := testConfig()
	logger := testLogger()
	st := store.NewMemoryStore()
	st.Seed(map[string]string{
		"@ecotrace_habits_cache": `[{"id":1,"name":"Cycle to work","impact":10}]`,
	})

	mock := api.NewMock()
	cm := cache.NewManager(st, cfg.CacheDurations, logger)
	sessions := session.NewStore(st, logger)
	authCtrl := auth.NewController(mock, sessions, notify.NewCenter(logger), cfg, logger)
	t.Cleanup(authCtrl.Close)
	s := NewSynchronizer(mock, cm, authCtrl, notify.NewCenter(logger), cfg, logger)

	ctx := context.Background()
	s.Start(ctx)

	snap := s.Snapshot()
	require.Len(t, snap.Habits, 1, "migrated legacy data should reach the snapshot")
	assert.Equal(t, "Cycle to work", snap.Habits[0].Name)

	if _, found, _ := st.Get(ctx, "@ecotrace_habits_cache"); found {
		t.Error("legacy key should be gone after startup")
	}
}
