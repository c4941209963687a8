package session

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dsfhealth/sahaya/internal/identity"
	"github.com/dsfhealth/sahaya/internal/metrics"
)

// memStore is an in-memory stand-in for the Redis-backed store.
type memStore struct {
	mu   sync.Mutex
	data map[string]string

	getErr error
	setErr error
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string]string)}
}

func (s *memStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return "", s.getErr
	}
	v, ok := s.data[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (s *memStore) Set(_ context.Context, key, value string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setErr != nil {
		return s.setErr
	}
	s.data[key] = value
	return nil
}

func (s *memStore) Del(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.data, k)
	}
	return nil
}

func (s *memStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

func newTestRegistry(t *testing.T, provider identity.Provider, cache store) *Registry {
	t.Helper()
	r := newRegistry(provider, cache, testLogger(), metrics.Nop{}, Config{})
	t.Cleanup(r.Close)
	return r
}

func TestResolveBootstrapsAndCachesVerifiedUser(t *testing.T) {
	provider := newFakeProvider()
	provider.session = makeSession("user-1", "asha@example.com")
	provider.user = &identity.User{ID: "user-1", Email: "asha@example.com"}
	cache := newMemStore()
	r := newTestRegistry(t, provider, cache)

	user, err := r.Resolve(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", user.ID)

	// The verified snapshot must now be cached under the token hash.
	cached, err := cache.Get(context.Background(), cacheKeyPrefix+TokenHash("tok-1"))
	require.NoError(t, err)
	var snap identity.User
	require.NoError(t, json.Unmarshal([]byte(cached), &snap))
	assert.Equal(t, "user-1", snap.ID)
}

func TestResolveServesFromCacheWithoutProviderCall(t *testing.T) {
	// The provider has no session behind any token, so a provider round trip
	// would fail; a cached snapshot must answer on its own.
	provider := newFakeProvider()
	cache := newMemStore()
	payload, _ := json.Marshal(identity.User{ID: "user-1", Email: "asha@example.com"})
	require.NoError(t, cache.Set(context.Background(), cacheKeyPrefix+TokenHash("tok-1"), string(payload), time.Minute))
	r := newTestRegistry(t, provider, cache)

	user, err := r.Resolve(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", user.ID)
}

func TestResolveUnauthenticatedWithoutSession(t *testing.T) {
	provider := newFakeProvider() // no session behind any token
	r := newTestRegistry(t, provider, newMemStore())

	_, err := r.Resolve(context.Background(), "unknown-token")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestResolveUnknownTokenStaysUnauthenticatedAfterOtherUsersSignIn(t *testing.T) {
	provider := newFakeProvider() // no session behind any token
	cache := newMemStore()
	r := newTestRegistry(t, provider, cache)

	_, err := r.Resolve(context.Background(), "some-random-token")
	require.ErrorIs(t, err, ErrUnauthenticated)

	// Another user signing in must not authenticate the unrelated token's
	// controller, and nothing may be cached for it.
	victim := makeSession("user-1", "asha@example.com")
	provider.hub.Publish(identity.Event{Kind: identity.EventSignedIn, UserID: "user-1", Session: victim})

	assert.Never(t, func() bool {
		_, err := r.Resolve(context.Background(), "some-random-token")
		return err == nil
	}, 300*time.Millisecond, 30*time.Millisecond)
	assert.Zero(t, cache.len())
}

func TestResolveEmptyToken(t *testing.T) {
	r := newTestRegistry(t, newFakeProvider(), newMemStore())

	_, err := r.Resolve(context.Background(), "")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestResolveFallsBackWhenCacheUnavailable(t *testing.T) {
	provider := newFakeProvider()
	provider.session = makeSession("user-1", "asha@example.com")
	provider.user = &identity.User{ID: "user-1", Email: "asha@example.com"}
	cache := newMemStore()
	cache.getErr = assertableError("cache down")
	r := newTestRegistry(t, provider, cache)

	user, err := r.Resolve(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", user.ID)
}

func TestSignOutPurgesCacheAndController(t *testing.T) {
	provider := newFakeProvider()
	provider.session = makeSession("user-1", "asha@example.com")
	provider.user = &identity.User{ID: "user-1", Email: "asha@example.com"}
	cache := newMemStore()
	r := newTestRegistry(t, provider, cache)

	_, err := r.Resolve(context.Background(), "tok-1")
	require.NoError(t, err)
	require.Equal(t, 1, cache.len())

	r.SignOut(context.Background(), "tok-1")

	assert.Zero(t, cache.len())
	assert.Equal(t, 1, provider.signOuts())
}

func TestSignedOutEventPurgesUserCacheEntries(t *testing.T) {
	provider := newFakeProvider()
	provider.session = makeSession("user-1", "asha@example.com")
	provider.user = &identity.User{ID: "user-1", Email: "asha@example.com"}
	cache := newMemStore()
	r := newTestRegistry(t, provider, cache)

	_, err := r.Resolve(context.Background(), "tok-1")
	require.NoError(t, err)
	require.Equal(t, 1, cache.len())

	provider.hub.Publish(identity.Event{Kind: identity.EventSignedOut, UserID: "user-1"})

	assert.Eventually(t, func() bool {
		return cache.len() == 0
	}, time.Second, 10*time.Millisecond)
}

type assertableError string

func (e assertableError) Error() string { return string(e) }
