package auth

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ecotrace/ecotrace-go/internal/api"
	"github.com/ecotrace/ecotrace-go/internal/core"
	"github.com/ecotrace/ecotrace-go/internal/notify"
	"github.com/ecotrace/ecotrace-go/internal/retry"
	"github.com/ecotrace/ecotrace-go/internal/session"
)

// defaultRevalidateEvery is how often an authenticated session is
// re-checked against the backend.
const defaultRevalidateEvery = 5 * time.Minute

// Controller drives the session lifecycle. All dependencies are
// injected; construct one per process and share it.
type Controller struct {
	api      api.Service
	sessions *session.Store
	notifier notify.Notifier
	presets  core.RetryPresets
	logger   *slog.Logger

	mu    sync.Mutex
	state State

	onAuthenticated []func(ctx context.Context)

	// revalidateEvery is the periodic session-check interval.
	revalidateEvery time.Duration
	// stateChanged wakes the revalidation loop on auth transitions so
	// the ticker runs only while authenticated.
	stateChanged   chan struct{}
	stopRevalidate chan struct{}
	stopOnce       sync.Once
}

// NewController wires the session lifecycle controller. The initial
// state is Initializing until Restore runs.
func NewController(svc api.Service, sessions *session.Store, notifier notify.Notifier, cfg core.Config, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		api:             svc,
		sessions:        sessions,
		notifier:        notifier,
		presets:         cfg.Retry,
		logger:          logger,
		state:           State{Status: Initializing},
		revalidateEvery: defaultRevalidateEvery,
		stateChanged:    make(chan struct{}, 1),
		stopRevalidate:  make(chan struct{}),
	}
}

// State returns the current authentication state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// OnAuthenticated registers a callback invoked after every transition
// into the Authenticated state. Register before Restore.
func (c *Controller) OnAuthenticated(fn func(ctx context.Context)) {
	c.mu.Lock()
	c.onAuthenticated = append(c.onAuthenticated, fn)
	c.mu.Unlock()
}

func (c *Controller) setAuthenticated(ctx context.Context, user api.User) {
	c.mu.Lock()
	u := user
	c.state = State{Status: Authenticated, User: &u}
	callbacks := make([]func(ctx context.Context), len(c.onAuthenticated))
	copy(callbacks, c.onAuthenticated)
	c.mu.Unlock()

	c.signalStateChanged()
	for _, fn := range callbacks {
		fn(ctx)
	}
}

func (c *Controller) setUnauthenticated() {
	c.mu.Lock()
	c.state = State{Status: Unauthenticated}
	c.mu.Unlock()
	c.signalStateChanged()
}

// signalStateChanged nudges the revalidation loop without blocking.
func (c *Controller) signalStateChanged() {
	select {
	case c.stateChanged <- struct{}{}:
	default:
	}
}

// Restore resolves the cold-start session. With no stored session the
// state becomes Unauthenticated. With a stored user and token, one
// validation attempt runs: a definitive rejection clears the session;
// a transport fault is trusted offline: the stored session stands and
// revalidation will settle it later. Restore never returns an error;
// it always leaves the state settled.
func (c *Controller) Restore(ctx context.Context) {
	user := c.sessions.GetUser(ctx)
	token := c.sessions.GetAuthToken(ctx)

	if user == nil || token == "" {
		if user != nil || token != "" {
			// Half a session is no session.
			c.sessions.ClearAll(ctx)
		}
		c.setUnauthenticated()
		return
	}

	valid, err := c.api.ValidateSession(ctx, user.ID)
	switch {
	case err != nil:
		// Could not reach the backend: trust the stored session.
		c.logger.Warn("session validation unreachable, trusting stored session",
			"userId", user.ID, "error", err)
		c.setAuthenticated(ctx, *user)
	case !valid:
		c.logger.Info("stored session rejected, clearing", "userId", user.ID)
		c.sessions.ClearAll(ctx)
		c.setUnauthenticated()
	default:
		c.setAuthenticated(ctx, *user)
	}
}

// Login authenticates with the backend and persists the session. On
// failure a user-facing notification with a retry action is posted and
// the typed error is returned.
func (c *Controller) Login(ctx context.Context, email, password string) error {
	policy := retry.FromSettings(c.presets.UserAction)
	user, err := retry.Do(ctx, policy, func(ctx context.Context) (api.User, error) {
		return c.api.Login(ctx, email, password)
	})
	if err != nil {
		c.logger.Warn("login failed", "email", email, "error", err)
		c.notifier.Error(notify.Message(err), func() {
			_ = c.Login(ctx, email, password)
		}, "Try Again")
		return err
	}

	if err := c.persistSession(ctx, user); err != nil {
		// A login that cannot persist would silently vanish on the next
		// launch; abort rather than pretend it took.
		c.logger.Error("login aborted: session persist failed", "userId", user.ID, "error", err)
		c.notifier.Error(notify.Message(err), func() {
			_ = c.Login(ctx, email, password)
		}, "Try Again")
		return err
	}
	c.setAuthenticated(ctx, user)
	c.logger.Info("login succeeded", "userId", user.ID)
	return nil
}

// Signup registers a new account and persists the session.
func (c *Controller) Signup(ctx context.Context, username, email, password string) error {
	policy := retry.FromSettings(c.presets.UserAction)
	user, err := retry.Do(ctx, policy, func(ctx context.Context) (api.User, error) {
		return c.api.Signup(ctx, username, email, password)
	})
	if err != nil {
		c.logger.Warn("signup failed", "email", email, "error", err)
		c.notifier.Error(notify.Message(err), func() {
			_ = c.Signup(ctx, username, email, password)
		}, "Try Again")
		return err
	}

	if err := c.persistSession(ctx, user); err != nil {
		c.logger.Error("signup aborted: session persist failed", "userId", user.ID, "error", err)
		c.notifier.Error(notify.Message(err), func() {
			_ = c.Signup(ctx, username, email, password)
		}, "Try Again")
		return err
	}
	c.setAuthenticated(ctx, user)
	c.logger.Info("signup succeeded", "userId", user.ID)
	return nil
}

// persistSession stores the user and a derived token.
func (c *Controller) persistSession(ctx context.Context, user api.User) error {
	if err := c.sessions.StoreUser(ctx, user); err != nil {
		return err
	}
	token, err := session.DeriveToken(user)
	if err != nil {
		return err
	}
	return c.sessions.StoreAuthToken(ctx, token)
}

// Logout clears the stored session and transitions to Unauthenticated.
// Local logout always succeeds; storage failures are logged inside
// ClearAll and do not keep the user signed in.
func (c *Controller) Logout(ctx context.Context) {
	c.sessions.ClearAll(ctx)
	c.setUnauthenticated()
	c.logger.Info("logged out")
}

// UpdateUser replaces the in-memory user record after a profile or
// habit mutation. It does not touch storage; callers persist through
// the session store themselves.
func (c *Controller) UpdateUser(user api.User) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Status != Authenticated {
		return
	}
	u := user
	c.state.User = &u
}

// HandleForeground revalidates the session when the app returns to the
// foreground. A definitive rejection logs the user out; a transport
// fault is ignored (fail open, same offline-trust policy as Restore).
func (c *Controller) HandleForeground(ctx context.Context) {
	state := c.State()
	if state.Status != Authenticated {
		return
	}

	valid, err := c.api.ValidateSession(ctx, state.User.ID)
	if err != nil {
		c.logger.Debug("foreground revalidation unreachable", "error", err)
		return
	}
	if !valid {
		c.logger.Info("session no longer valid, logging out", "userId", state.User.ID)
		c.Logout(ctx)
	}
}

// StartRevalidation launches the periodic session check. The ticker
// runs only while the session is Authenticated: it stops on the
// transition to Unauthenticated and re-arms on the next login. Stop it
// with Close. Call once per controller.
func (c *Controller) StartRevalidation(ctx context.Context) {
	go func() {
		for {
			if !c.waitForAuthenticated(ctx) {
				return
			}
			if !c.revalidateWhileAuthenticated(ctx) {
				return
			}
		}
	}()
}

// waitForAuthenticated parks until the session is Authenticated.
// It returns false when the controller is shutting down.
func (c *Controller) waitForAuthenticated(ctx context.Context) bool {
	for c.State().Status != Authenticated {
		select {
		case <-c.stateChanged:
		case <-c.stopRevalidate:
			return false
		case <-ctx.Done():
			return false
		}
	}
	return true
}

// revalidateWhileAuthenticated ticks until the session leaves the
// Authenticated state. It returns false when the controller is
// shutting down.
func (c *Controller) revalidateWhileAuthenticated(ctx context.Context) bool {
	ticker := time.NewTicker(c.revalidateEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if c.State().Status != Authenticated {
				return true
			}
			c.HandleForeground(ctx)
		case <-c.stateChanged:
			if c.State().Status != Authenticated {
				return true
			}
		case <-c.stopRevalidate:
			return false
		case <-ctx.Done():
			return false
		}
	}
}

// Close stops background revalidation.
func (c *Controller) Close() {
	c.stopOnce.Do(func() { close(c.stopRevalidate) })
}
