// Package auth exposes the session surface of the API: the current verified
// session, sign-out, and the identity-provider event webhook.
package auth

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/dsfhealth/sahaya/internal/contextx"
	"github.com/dsfhealth/sahaya/internal/session"
)

// Handler holds the dependencies for the auth module's HTTP handlers.
type Handler struct {
	sessions *session.Registry
	logger   *slog.Logger
}

// NewHandler creates a new handler for the auth module.
func NewHandler(sessions *session.Registry, logger *slog.Logger) *Handler {
	return &Handler{
		sessions: sessions,
		logger:   logger,
	}
}

// RegisterRoutes sets up the guarded auth routes. The event webhook is a
// plain HTTP handler mounted separately; see WebhookHandler.
func (h *Handler) RegisterRoutes(api huma.API) {
	huma.Register(api, huma.Operation{
		Method:   http.MethodGet,
		Path:     "/auth/session",
		Summary:  "Get the current verified session",
		Security: []map[string][]string{{"bearerAuth": {}}},
	}, h.SessionHandler)

	huma.Register(api, huma.Operation{
		Method:        http.MethodPost,
		Path:          "/auth/signout",
		Summary:       "Sign out the current session",
		Security:      []map[string][]string{{"bearerAuth": {}}},
		DefaultStatus: http.StatusNoContent,
	}, h.SignOutHandler)
}

// SessionResponse is the DTO for the verified session snapshot.
type SessionResponse struct {
	Body struct {
		UserID       string     `json:"userId"`
		Email        string     `json:"email"`
		LastSignInAt *time.Time `json:"lastSignInAt,omitempty"`
	}
}

// SessionHandler returns the verified user behind the presented token. The
// guard has already resolved the session; this re-reads the registry so the
// response reflects the latest controller state.
func (h *Handler) SessionHandler(ctx context.Context, _ *struct{}) (*SessionResponse, error) {
	token, ok := ctx.Value(contextx.AccessTokenKey).(string)
	if !ok || token == "" {
		return nil, huma.Error401Unauthorized("invalid authentication context")
	}

	user, err := h.sessions.Resolve(ctx, token)
	if err != nil {
		return nil, huma.Error401Unauthorized("invalid or expired session")
	}

	var resp SessionResponse
	resp.Body.UserID = user.ID
	resp.Body.Email = user.Email
	resp.Body.LastSignInAt = user.LastSignInAt
	return &resp, nil
}

// SignOutHandler signs the current session out. It always answers 204: local
// session state is cleared even when the provider-side revocation fails.
func (h *Handler) SignOutHandler(ctx context.Context, _ *struct{}) (*struct{}, error) {
	token, ok := ctx.Value(contextx.AccessTokenKey).(string)
	if !ok || token == "" {
		return nil, huma.Error401Unauthorized("invalid authentication context")
	}

	h.sessions.SignOut(ctx, token)
	return nil, nil
}
