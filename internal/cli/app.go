package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/ecotrace/ecotrace-go/internal/api"
	"github.com/ecotrace/ecotrace-go/internal/auth"
	"github.com/ecotrace/ecotrace-go/internal/cache"
	"github.com/ecotrace/ecotrace-go/internal/core"
	"github.com/ecotrace/ecotrace-go/internal/habits"
	"github.com/ecotrace/ecotrace-go/internal/notify"
	"github.com/ecotrace/ecotrace-go/internal/session"
	"github.com/ecotrace/ecotrace-go/internal/store"
	syncer "github.com/ecotrace/ecotrace-go/internal/sync"
)

// app is the composition root: every component constructed once, with
// dependencies passed explicitly.
type app struct {
	cfg      core.Config
	store    store.Store
	cache    *cache.Manager
	sessions *session.Store
	client   *api.Client
	notifier *notify.Center
	auth     *auth.Controller
	sync     *syncer.Synchronizer
	habits   *habits.Service
	logger   *slog.Logger
}

// newApp builds the full component graph from flags and environment.
func newApp(ctx context.Context) (*app, error) {
	// A .env file is optional; ECOTRACE_* process vars win either way.
	_ = godotenv.Load()

	env := environment
	if env == "" {
		env = os.Getenv("ECOTRACE_ENV")
	}
	cfg, err := core.Load(env)
	if err != nil {
		return nil, err
	}

	level := slog.LevelWarn
	if verbose || cfg.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	st, err := openStore()
	if err != nil {
		return nil, err
	}

	notifier := notify.NewCenter(logger)
	client := api.NewClient(cfg, logger)
	cm := cache.NewManager(st, cfg.CacheDurations, logger)
	sessions := session.NewStore(st, logger)
	authCtrl := auth.NewController(client, sessions, notifier, cfg, logger)
	synchronizer := syncer.NewSynchronizer(client, cm, authCtrl, notifier, cfg, logger)
	habitSvc := habits.NewService(client, sessions, authCtrl, notifier, cfg, logger)

	a := &app{
		cfg:      cfg,
		store:    st,
		cache:    cm,
		sessions: sessions,
		client:   client,
		notifier: notifier,
		auth:     authCtrl,
		sync:     synchronizer,
		habits:   habitSvc,
		logger:   logger,
	}

	// Startup sequence: register data hooks, settle the session, then
	// arm the periodic session check.
	a.sync.Start(ctx)
	a.auth.Restore(ctx)
	a.auth.StartRevalidation(ctx)
	return a, nil
}

// openStore selects the storage backend from the --store flag.
func openStore() (store.Store, error) {
	switch backend {
	case "file", "":
		return store.NewFileStore(dataDir)
	case "sqlite":
		dir := dataDir
		if dir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				home = "."
			}
			dir = filepath.Join(home, ".ecotrace")
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
		return store.NewSQLite(filepath.Join(dir, "ecotrace.db"))
	case "redis":
		return store.NewRedis(store.RedisConfig{Addr: redisAddr})
	case "memory":
		return store.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}

// close releases background workers and the storage backend.
func (a *app) close() {
	a.habits.Close()
	a.auth.Close()
	if err := a.store.Close(); err != nil {
		a.logger.Warn("store close failed", "error", err)
	}
}

// requireUser returns the signed-in user or an error suitable for
// direct display.
func (a *app) requireUser() (*api.User, error) {
	state := a.auth.State()
	if state.Status != auth.Authenticated {
		return nil, fmt.Errorf("not signed in; run 'ecotrace login' first")
	}
	return state.User, nil
}

// reportNotifications prints any pending user-facing notifications to
// stderr so command failures come with the guidance the app would show.
func (a *app) reportNotifications() {
	for _, n := range a.notifier.Notifications() {
		fmt.Fprintf(os.Stderr, "[%s] %s\n", n.Level, n.Message)
	}
	a.notifier.DismissAll()
}
