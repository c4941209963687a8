package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const errorBodyReadLimit int64 = 1024

var errBaseURLRequired = errors.New("identity provider base URL is required")
var errJWTSecretRequired = errors.New("identity provider JWT secret is required")

// HTTPProvider talks to a GoTrue-compatible identity service over REST.
// Access tokens are decoded locally (GetSession); account verification and
// sign-out go to the provider. Push events arrive through the embedded Hub,
// fed by the provider's webhook.
type HTTPProvider struct {
	httpClient *http.Client
	baseURL    string
	jwtSecret  []byte
	hub        *Hub
}

// Option configures optional provider behavior.
type Option func(*HTTPProvider)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(p *HTTPProvider) {
		if client != nil {
			p.httpClient = client
		}
	}
}

// NewHTTPProvider builds the provider client for the given service URL.
func NewHTTPProvider(baseURL, jwtSecret string, opts ...Option) (*HTTPProvider, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errBaseURLRequired
	}
	if strings.TrimSpace(jwtSecret) == "" {
		return nil, errJWTSecretRequired
	}

	p := &HTTPProvider{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    trimmed,
		jwtSecret:  []byte(jwtSecret),
		hub:        NewHub(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p, nil
}

type accessClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// GetSession decodes the access token locally and returns the session it
// describes, or nil when the token is absent, malformed, or already expired.
// The result is the cached view: it says nothing about provider-side
// revocation, which only GetUser can detect.
func (p *HTTPProvider) GetSession(_ context.Context, accessToken string) (*Session, error) {
	if strings.TrimSpace(accessToken) == "" {
		return nil, nil
	}

	claims := &accessClaims{}
	token, err := jwt.ParseWithClaims(accessToken, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return p.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, nil
	}

	var expiresAt time.Time
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}

	return &Session{
		AccessToken: accessToken,
		TokenType:   "bearer",
		ExpiresAt:   expiresAt,
		User: User{
			ID:    claims.Subject,
			Email: claims.Email,
			Phone: claims.Phone,
		},
	}, nil
}

// GetUser fetches the account behind the token from the provider. A 401/403
// maps to ErrUnauthorized: the token may still decode locally, but the
// provider-side session is gone.
func (p *HTTPProvider) GetUser(ctx context.Context, accessToken string) (*User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/user", nil)
	if err != nil {
		return nil, fmt.Errorf("build user request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusOK:
		var u User
		if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
			return nil, fmt.Errorf("decode user response: %w", err)
		}
		if u.ID == "" {
			return nil, ErrUnauthorized
		}
		return &u, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, ErrUnauthorized
	default:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
		return nil, fmt.Errorf("user request failed: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
}

// SignOut asks the provider to invalidate the session behind the token.
// Callers clear their local state regardless of the outcome.
func (p *HTTPProvider) SignOut(ctx context.Context, accessToken string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/logout", nil)
	if err != nil {
		return fmt.Errorf("build logout request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest && resp.StatusCode != http.StatusUnauthorized {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
		return fmt.Errorf("logout request failed: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}

// Subscribe registers a push-event callback.
func (p *HTTPProvider) Subscribe(fn func(Event)) Subscription {
	return p.hub.Subscribe(fn)
}

// Publish feeds a provider push event into the subscription fan-out. The auth
// webhook handler is the usual caller.
func (p *HTTPProvider) Publish(ev Event) {
	p.hub.Publish(ev)
}
