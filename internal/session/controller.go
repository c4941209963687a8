package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dsfhealth/sahaya/internal/identity"
)

// State describes where a controller is in its lifecycle.
type State int

const (
	// StateBootstrapping is the initial state: the cached session has not
	// been verified against the identity provider yet.
	StateBootstrapping State = iota
	StateAuthenticated
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateBootstrapping:
		return "bootstrapping"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

// Snapshot is a point-in-time copy of controller state.
type Snapshot struct {
	State   State
	Session *identity.Session
	Loading bool
}

// Navigator receives the controller's redirect side effects. The server
// wiring uses a no-op implementation (navigation is a client concern there);
// tests assert against a fake.
type Navigator interface {
	// ToLogin redirects to the login surface.
	ToLogin()
	// ToApp redirects to the application root.
	ToApp()
	// OnLogin reports whether the user is currently on the login surface.
	OnLogin() bool
}

const providerCallTimeout = 10 * time.Second

// Controller owns the single source of truth for "is there a valid
// authenticated session right now" for one access token. Bootstrap, provider
// push events, and explicit sign-out all mutate that state; every mutation is
// serialized through one command loop, so either completion order converges
// to the same result. Loading is driven false exactly once, by bootstrap
// settling; push events update the session (last writer wins) but never
// re-enter loading.
type Controller struct {
	provider identity.Provider
	nav      Navigator
	logger   *slog.Logger
	token    string

	cmds chan func()
	done chan struct{}

	settled    chan struct{}
	settleOnce sync.Once
	closeOnce  sync.Once

	sub identity.Subscription

	mu     sync.RWMutex
	state  State
	sess   *identity.Session
	userID string
}

// NewController starts a controller for the given access token. Bootstrap is
// enqueued before the push subscription is registered, so events arriving
// mid-bootstrap queue up behind it and are applied afterwards rather than
// being lost or overwritten.
func NewController(provider identity.Provider, nav Navigator, logger *slog.Logger, accessToken string) *Controller {
	c := &Controller{
		provider: provider,
		nav:      nav,
		logger:   logger,
		token:    accessToken,
		cmds:     make(chan func(), 32),
		done:     make(chan struct{}),
		settled:  make(chan struct{}),
		state:    StateBootstrapping,
	}

	go c.run()
	c.enqueue(c.bootstrap)
	c.sub = provider.Subscribe(c.HandleEvent)
	return c
}

func (c *Controller) run() {
	for {
		select {
		case cmd := <-c.cmds:
			cmd()
		case <-c.done:
			return
		}
	}
}

func (c *Controller) enqueue(cmd func()) {
	select {
	case c.cmds <- cmd:
	case <-c.done:
	}
}

// State returns the current snapshot.
func (c *Controller) State() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Snapshot{
		State:   c.state,
		Session: c.sess,
		Loading: c.state == StateBootstrapping,
	}
}

// WaitSettled blocks until bootstrap has resolved (either way) or the context
// is done. The route guard uses this so protected content is never served
// while the session is still unknown.
func (c *Controller) WaitSettled(ctx context.Context) error {
	select {
	case <-c.settled:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// HandleEvent feeds a provider push event into the command loop. Only events
// bound to this controller's token or verified user are applied; the rest
// are ignored.
func (c *Controller) HandleEvent(ev identity.Event) {
	c.enqueue(func() { c.applyEvent(ev) })
}

// SignOut requests provider-side invalidation and clears local state. The
// local clear and login redirect happen regardless of whether the provider
// call succeeds: state must never keep pointing at a session the user
// explicitly tried to end. It is safe to call when already unauthenticated.
func (c *Controller) SignOut(ctx context.Context) {
	doneCh := make(chan struct{})
	c.enqueue(func() {
		defer close(doneCh)
		if err := c.provider.SignOut(ctx, c.token); err != nil {
			c.logger.Warn("provider sign-out failed, clearing local session anyway", "error", err)
		}
		c.clearSessionAndRedirect()
	})
	select {
	case <-doneCh:
	case <-c.done:
	case <-ctx.Done():
	}
}

// Close cancels the push subscription and stops the command loop. Required
// on teardown so no redirect or state update fires afterwards.
func (c *Controller) Close() {
	c.closeOnce.Do(func() {
		c.sub.Unsubscribe()
		close(c.done)
		// Unblock anyone still waiting on bootstrap.
		c.settleOnce.Do(func() { close(c.settled) })
	})
}

// bootstrap fetches the cached session and, if one exists, independently
// re-verifies it by fetching the current user from the provider. A cached
// session is never trusted blindly: stale local tokens referencing a deleted
// or disabled account end up unauthenticated.
func (c *Controller) bootstrap() {
	defer c.settle()

	ctx, cancel := context.WithTimeout(context.Background(), providerCallTimeout)
	defer cancel()

	sess, err := c.provider.GetSession(ctx, c.token)
	if err != nil || sess == nil {
		if err != nil {
			c.logger.Warn("failed to read session during bootstrap", "error", err)
		}
		c.clearSessionAndRedirect()
		return
	}

	c.mu.Lock()
	c.userID = sess.User.ID
	c.mu.Unlock()

	user, err := c.provider.GetUser(ctx, c.token)
	if err != nil || user == nil {
		c.logger.Info("invalid session detected during bootstrap, clearing", "error", err)
		c.clearSessionAndRedirect()
		return
	}

	sess.User = *user
	c.setSession(sess, false)
}

// settle drives loading false. Only bootstrap completion gets here; the
// resolved state follows whatever session survived the bootstrap writes.
func (c *Controller) settle() {
	c.mu.Lock()
	if c.state == StateBootstrapping {
		if c.sess != nil {
			c.state = StateAuthenticated
		} else {
			c.state = StateUnauthenticated
		}
	}
	c.mu.Unlock()
	c.settleOnce.Do(func() { close(c.settled) })
}

func (c *Controller) applyEvent(ev identity.Event) {
	if !c.eventIsMine(ev) {
		return
	}

	c.logger.Debug("auth state changed", "event", string(ev.Kind))

	if ev.Kind == identity.EventSignedOut {
		c.clearSessionAndRedirect()
		return
	}

	if ev.Session != nil {
		c.setSession(ev.Session, true)
		return
	}
	c.clearSessionAndRedirect()
}

// eventIsMine binds events to the controller's identity. A session event is
// mine only when it carries this controller's own token; anything else is
// mine only when a verified user is already known and the event names that
// user (or is a broadcast). A controller that never verified anyone matches
// nothing else: an arbitrary token must not inherit another user's sign-in.
func (c *Controller) eventIsMine(ev identity.Event) bool {
	if ev.Session != nil && ev.Session.AccessToken == c.token {
		return true
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.userID == "" {
		return false
	}
	return ev.UserID == "" || ev.UserID == c.userID
}

// setSession caches the session. Push-event writes additionally move the
// user off the login surface, so an already-authenticated user is never
// shown the login form; bootstrap writes do not navigate.
func (c *Controller) setSession(sess *identity.Session, navigate bool) {
	c.mu.Lock()
	c.sess = sess
	c.userID = sess.User.ID
	if c.state != StateBootstrapping {
		// A mid-bootstrap write records the session but leaves loading
		// to settle(); anything later authenticates immediately.
		c.state = StateAuthenticated
	}
	c.mu.Unlock()

	if navigate && c.nav.OnLogin() {
		c.nav.ToApp()
	}
}

func (c *Controller) clearSessionAndRedirect() {
	c.mu.Lock()
	c.sess = nil
	if c.state != StateBootstrapping {
		c.state = StateUnauthenticated
	}
	c.mu.Unlock()
	c.nav.ToLogin()
}
