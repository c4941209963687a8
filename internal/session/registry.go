package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/dsfhealth/sahaya/internal/identity"
	"github.com/dsfhealth/sahaya/internal/metrics"
	"github.com/redis/go-redis/v9"
)

// ErrUnauthenticated is returned by Resolve when no valid session backs the
// presented token.
var ErrUnauthenticated = errors.New("session: not authenticated")

const cacheKeyPrefix = "sahaya:sess:v1:"

// store is the subset of Redis behavior the registry needs. *redis.Client
// satisfies it through redisStore; tests use an in-memory fake.
type store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

type redisStore struct {
	client *redis.Client
}

func (s redisStore) Get(ctx context.Context, key string) (string, error) {
	return s.client.Get(ctx, key).Result()
}

func (s redisStore) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

func (s redisStore) Del(ctx context.Context, keys ...string) error {
	return s.client.Del(ctx, keys...).Err()
}

// Config controls registry TTLs.
type Config struct {
	// VerifyTTL bounds how long a provider verification is trusted before
	// the next request re-verifies. Default: 5 minutes.
	VerifyTTL time.Duration

	// IdleTTL is how long an unused controller survives before the janitor
	// evicts it. Default: 30 minutes.
	IdleTTL time.Duration
}

// Registry wires session lifecycle controllers into the request path: one
// controller per distinct access token, lazily bootstrapped on first sight,
// with verified-user snapshots cached in Redis so replicas and restarts skip
// re-verification. Provider push events reach both the controllers (through
// their own subscriptions) and the registry, which purges affected cache
// entries.
type Registry struct {
	provider identity.Provider
	cache    store
	logger   *slog.Logger
	metrics  metrics.Recorder
	cfg      Config

	mu      sync.Mutex
	entries map[string]*entry
	byUser  map[string]map[string]struct{}

	sub       identity.Subscription
	done      chan struct{}
	closeOnce sync.Once
}

type entry struct {
	ctrl     *Controller
	lastSeen time.Time
	userID   string
}

// NewRegistry creates a registry backed by the given provider and Redis
// client and starts its idle-eviction janitor.
func NewRegistry(provider identity.Provider, client *redis.Client, logger *slog.Logger, rec metrics.Recorder, cfg Config) *Registry {
	return newRegistry(provider, redisStore{client: client}, logger, rec, cfg)
}

func newRegistry(provider identity.Provider, cache store, logger *slog.Logger, rec metrics.Recorder, cfg Config) *Registry {
	if cfg.VerifyTTL == 0 {
		cfg.VerifyTTL = 5 * time.Minute
	}
	if cfg.IdleTTL == 0 {
		cfg.IdleTTL = 30 * time.Minute
	}

	r := &Registry{
		provider: provider,
		cache:    cache,
		logger:   logger,
		metrics:  rec,
		cfg:      cfg,
		entries:  make(map[string]*entry),
		byUser:   make(map[string]map[string]struct{}),
		done:     make(chan struct{}),
	}
	r.sub = provider.Subscribe(r.handleEvent)
	go r.janitor()
	return r
}

// TokenHash derives the cache/registry key for an access token. Raw tokens
// are never used as keys or logged.
func TokenHash(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Resolve returns the verified user behind the token, bootstrapping a
// controller on first sight and blocking until its bootstrap settles. It
// returns ErrUnauthenticated when the token has no valid provider-side
// session.
func (r *Registry) Resolve(ctx context.Context, token string) (*identity.User, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}
	hash := TokenHash(token)
	key := cacheKeyPrefix + hash

	cached, err := r.cache.Get(ctx, key)
	switch {
	case err == nil:
		var user identity.User
		if jsonErr := json.Unmarshal([]byte(cached), &user); jsonErr == nil && user.ID != "" {
			r.metrics.RecordSessionCacheHit()
			r.touch(hash)
			return &user, nil
		}
		// Unreadable cache entry: drop it and re-verify.
		_ = r.cache.Del(ctx, key)
	case errors.Is(err, redis.Nil):
		r.metrics.RecordSessionCacheMiss()
	default:
		// A cache outage must not take authentication down with it.
		r.logger.Warn("session cache read failed, falling back to provider", "error", err)
	}

	e := r.entryFor(token, hash)
	if err := e.ctrl.WaitSettled(ctx); err != nil {
		r.metrics.RecordSessionVerification(metrics.ResultError)
		return nil, err
	}

	snap := e.ctrl.State()
	if snap.State != StateAuthenticated || snap.Session == nil {
		r.metrics.RecordSessionVerification(metrics.ResultInvalid)
		return nil, ErrUnauthenticated
	}

	user := snap.Session.User
	r.index(hash, user.ID)
	if payload, jsonErr := json.Marshal(user); jsonErr == nil {
		if setErr := r.cache.Set(ctx, key, string(payload), r.cfg.VerifyTTL); setErr != nil {
			r.logger.Warn("failed to cache verified session", "error", setErr)
		}
	}
	r.metrics.RecordSessionVerification(metrics.ResultOK)
	return &user, nil
}

// SignOut runs the controller's sign-out for the token and purges its cache
// entry. Local state is always cleared, even when the provider call fails.
func (r *Registry) SignOut(ctx context.Context, token string) {
	if token == "" {
		return
	}
	hash := TokenHash(token)

	e := r.entryFor(token, hash)
	e.ctrl.SignOut(ctx)

	if err := r.cache.Del(ctx, cacheKeyPrefix+hash); err != nil {
		r.logger.Warn("failed to purge signed-out session from cache", "error", err)
	}
	r.evict(hash)
}

// Close cancels the event subscription and tears down every controller.
func (r *Registry) Close() {
	r.closeOnce.Do(func() {
		r.sub.Unsubscribe()
		close(r.done)

		r.mu.Lock()
		entries := r.entries
		r.entries = make(map[string]*entry)
		r.byUser = make(map[string]map[string]struct{})
		r.mu.Unlock()

		for _, e := range entries {
			e.ctrl.Close()
		}
	})
}

func (r *Registry) entryFor(token, hash string) *entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[hash]; ok {
		e.lastSeen = time.Now()
		return e
	}
	e := &entry{
		ctrl:     NewController(r.provider, nopNavigator{}, r.logger, token),
		lastSeen: time.Now(),
	}
	r.entries[hash] = e
	return e
}

func (r *Registry) touch(hash string) {
	r.mu.Lock()
	if e, ok := r.entries[hash]; ok {
		e.lastSeen = time.Now()
	}
	r.mu.Unlock()
}

func (r *Registry) index(hash, userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[hash]; ok {
		e.userID = userID
	}
	set, ok := r.byUser[userID]
	if !ok {
		set = make(map[string]struct{})
		r.byUser[userID] = set
	}
	set[hash] = struct{}{}
}

func (r *Registry) evict(hash string) {
	r.mu.Lock()
	e, ok := r.entries[hash]
	if ok {
		delete(r.entries, hash)
		if set, found := r.byUser[e.userID]; found {
			delete(set, hash)
			if len(set) == 0 {
				delete(r.byUser, e.userID)
			}
		}
	}
	r.mu.Unlock()
	if ok {
		e.ctrl.Close()
	}
}

// handleEvent purges cached verifications affected by a push event. The
// controllers themselves transition through their own subscriptions; the
// registry only keeps the Redis cache honest.
func (r *Registry) handleEvent(ev identity.Event) {
	r.metrics.RecordAuthEvent(string(ev.Kind))

	invalidating := ev.Kind == identity.EventSignedOut || ev.Session == nil
	if !invalidating {
		return
	}

	userID := ev.UserID
	if userID == "" && ev.Session != nil {
		userID = ev.Session.User.ID
	}
	if userID == "" {
		return
	}

	r.mu.Lock()
	hashes := make([]string, 0, len(r.byUser[userID]))
	for hash := range r.byUser[userID] {
		hashes = append(hashes, hash)
	}
	r.mu.Unlock()

	if len(hashes) == 0 {
		return
	}

	keys := make([]string, len(hashes))
	for i, hash := range hashes {
		keys[i] = cacheKeyPrefix + hash
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.cache.Del(ctx, keys...); err != nil {
		r.logger.Warn("failed to purge cache entries on auth event", "kind", string(ev.Kind), "error", err)
	}
}

func (r *Registry) janitor() {
	interval := r.cfg.IdleTTL / 2
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.sweep()
		case <-r.done:
			return
		}
	}
}

func (r *Registry) sweep() {
	cutoff := time.Now().Add(-r.cfg.IdleTTL)

	r.mu.Lock()
	stale := make([]string, 0)
	for hash, e := range r.entries {
		if e.lastSeen.Before(cutoff) {
			stale = append(stale, hash)
		}
	}
	r.mu.Unlock()

	for _, hash := range stale {
		r.evict(hash)
	}
}

// nopNavigator is the server-side Navigator: redirects are a client concern
// here, the API answers with status codes instead.
type nopNavigator struct{}

func (nopNavigator) ToLogin()      {}
func (nopNavigator) ToApp()        {}
func (nopNavigator) OnLogin() bool { return false }
