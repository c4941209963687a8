package identity

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrUnauthorized means the provider rejected the access token: the
	// session it references has been revoked or the account no longer exists.
	ErrUnauthorized = errors.New("identity: session not valid")

	// ErrUnavailable means the provider could not be reached.
	ErrUnavailable = errors.New("identity: provider unavailable")
)

// User is the provider-side account a session points at.
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	Phone        string     `json:"phone,omitempty"`
	LastSignInAt *time.Time `json:"last_sign_in_at,omitempty"`
}

// Session is the token bundle issued by the identity provider. Holders of a
// Session have a cached, possibly-stale view; only GetUser is authoritative.
type Session struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        User      `json:"user"`
}

// EventKind tags an auth state-change push event.
type EventKind string

const (
	EventSignedIn       EventKind = "SIGNED_IN"
	EventSignedOut      EventKind = "SIGNED_OUT"
	EventTokenRefreshed EventKind = "TOKEN_REFRESHED"
	EventUserUpdated    EventKind = "USER_UPDATED"
)

// Event is a provider push notification: a kind plus the session it concerns
// (nil for sign-out style events). UserID names the affected account even
// when Session is nil so consumers can route the event; an empty UserID is a
// broadcast.
type Event struct {
	Kind    EventKind `json:"kind"`
	UserID  string    `json:"user_id,omitempty"`
	Session *Session  `json:"session,omitempty"`
}

// Subscription is a handle on a push-event subscription.
type Subscription interface {
	Unsubscribe()
}

// Provider is the identity provider client surface. GetSession is a local,
// possibly-stale decode of the access token; GetUser re-verifies the account
// with the provider and fails for revoked sessions; SignOut asks the provider
// to invalidate the session; Subscribe delivers push events asynchronously,
// at-least-once, in arrival order per subscriber.
type Provider interface {
	GetSession(ctx context.Context, accessToken string) (*Session, error)
	GetUser(ctx context.Context, accessToken string) (*User, error)
	SignOut(ctx context.Context, accessToken string) error
	Subscribe(fn func(Event)) Subscription
}
