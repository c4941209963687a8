package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dsfhealth/sahaya/internal/contextx"
	"github.com/dsfhealth/sahaya/internal/identity"
	"github.com/dsfhealth/sahaya/internal/metrics"
	"github.com/dsfhealth/sahaya/internal/session"
)

type stubProvider struct {
	mu       sync.Mutex
	session  *identity.Session
	user     *identity.User
	userGate chan struct{}
	hub      *identity.Hub
}

func newStubProvider() *stubProvider {
	return &stubProvider{hub: identity.NewHub()}
}

func (p *stubProvider) GetSession(_ context.Context, _ string) (*identity.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.session, nil
}

func (p *stubProvider) GetUser(_ context.Context, _ string) (*identity.User, error) {
	p.mu.Lock()
	gate := p.userGate
	p.mu.Unlock()
	if gate != nil {
		<-gate
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.user, nil
}

func (p *stubProvider) SignOut(_ context.Context, _ string) error { return nil }

func (p *stubProvider) Subscribe(fn func(identity.Event)) identity.Subscription {
	return p.hub.Subscribe(fn)
}

// newGuardedServer builds a minimal API with one protected route. The Redis
// address points nowhere, exercising the registry's cache-outage fallback.
func newGuardedServer(t *testing.T, provider identity.Provider) http.Handler {
	t.Helper()

	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	registry := session.NewRegistry(provider, client, discardLogger(), metrics.Nop{}, session.Config{})
	t.Cleanup(registry.Close)
	t.Cleanup(func() { _ = client.Close() })

	router := chi.NewMux()
	api := humachi.New(router, huma.DefaultConfig("test", "0.0.0"))
	api.UseMiddleware(SessionGuardHuma(registry, discardLogger()))

	huma.Register(api, huma.Operation{
		Method: http.MethodGet,
		Path:   "/me",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body struct {
			UserID string `json:"userId"`
		}
	}, error) {
		resp := &struct {
			Body struct {
				UserID string `json:"userId"`
			}
		}{}
		resp.Body.UserID, _ = ctx.Value(contextx.UserIDKey).(string)
		return resp, nil
	})

	return router
}

func verifiedProvider(userID, email string) *stubProvider {
	p := newStubProvider()
	p.session = &identity.Session{
		AccessToken: "tok",
		TokenType:   "bearer",
		ExpiresAt:   time.Now().Add(time.Hour),
		User:        identity.User{ID: userID, Email: email},
	}
	p.user = &identity.User{ID: userID, Email: email}
	return p
}

func TestGuardRejectsMissingToken(t *testing.T) {
	srv := newGuardedServer(t, verifiedProvider("user-1", "a@b.c"))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
}

func TestGuardRejectsMalformedHeader(t *testing.T) {
	srv := newGuardedServer(t, verifiedProvider("user-1", "a@b.c"))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Basic abc123")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGuardRejectsInvalidToken(t *testing.T) {
	srv := newGuardedServer(t, newStubProvider()) // no session behind any token

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer bogus")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGuardPassesVerifiedUser(t *testing.T) {
	srv := newGuardedServer(t, verifiedProvider("user-1", "a@b.c"))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer some-token")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "user-1")
}

func TestGuardBlocksWhileSessionIsLoading(t *testing.T) {
	provider := verifiedProvider("user-1", "a@b.c")
	provider.userGate = make(chan struct{})
	srv := newGuardedServer(t, provider)

	done := make(chan int, 1)
	go func() {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer some-token")
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		done <- rec.Code
	}()

	// While verification is in flight nothing may be served.
	select {
	case code := <-done:
		t.Fatalf("request completed while session was still loading: %d", code)
	case <-time.After(150 * time.Millisecond):
	}

	close(provider.userGate)

	select {
	case code := <-done:
		assert.Equal(t, http.StatusOK, code)
	case <-time.After(2 * time.Second):
		t.Fatal("request did not complete after verification settled")
	}
}
