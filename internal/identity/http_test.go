package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "super-secret-signing-key"

func signToken(t *testing.T, secret string, claims accessClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func newProvider(t *testing.T, baseURL string) *HTTPProvider {
	t.Helper()
	p, err := NewHTTPProvider(baseURL, testSecret)
	require.NoError(t, err)
	return p
}

func TestNewHTTPProviderValidatesInputs(t *testing.T) {
	_, err := NewHTTPProvider("", testSecret)
	assert.Error(t, err)

	_, err = NewHTTPProvider("http://idp.local", "  ")
	assert.Error(t, err)
}

func TestGetSessionDecodesValidToken(t *testing.T) {
	p := newProvider(t, "http://idp.local")
	expires := time.Now().Add(time.Hour).Truncate(time.Second)
	token := signToken(t, testSecret, accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		Email: "asha@example.com",
		Phone: "+911234567890",
	})

	sess, err := p.GetSession(context.Background(), token)
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, token, sess.AccessToken)
	assert.Equal(t, "bearer", sess.TokenType)
	assert.Equal(t, "user-1", sess.User.ID)
	assert.Equal(t, "asha@example.com", sess.User.Email)
	assert.WithinDuration(t, expires, sess.ExpiresAt, time.Second)
}

func TestGetSessionReturnsNilForBadTokens(t *testing.T) {
	p := newProvider(t, "http://idp.local")

	cases := map[string]string{
		"empty":     "",
		"garbage":   "not-a-jwt",
		"expired":   signToken(t, testSecret, accessClaims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u", ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour))}}),
		"wrong key": signToken(t, "other-secret", accessClaims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u"}}),
	}
	for name, token := range cases {
		sess, err := p.GetSession(context.Background(), token)
		assert.NoError(t, err, name)
		assert.Nil(t, sess, name)
	}
}

func TestGetUserVerifiesAgainstProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/user", r.URL.Path)
		require.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(User{ID: "user-1", Email: "asha@example.com"})
	}))
	defer srv.Close()

	p := newProvider(t, srv.URL)
	user, err := p.GetUser(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", user.ID)
}

func TestGetUserMapsRevokedSessions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	p := newProvider(t, srv.URL)
	_, err := p.GetUser(context.Background(), "tok-1")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestGetUserUnreachableProvider(t *testing.T) {
	p := newProvider(t, "http://127.0.0.1:1")
	_, err := p.GetUser(context.Background(), "tok-1")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestSignOutTreatsUnauthorizedAsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/logout", r.URL.Path)
		// The provider answers 401 when the session is already gone;
		// sign-out still counts as done.
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	p := newProvider(t, srv.URL)
	assert.NoError(t, p.SignOut(context.Background(), "tok-1"))
}

func TestSignOutSurfacesServerFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := newProvider(t, srv.URL)
	assert.Error(t, p.SignOut(context.Background(), "tok-1"))
}
