package middleware

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/dsfhealth/sahaya/internal/contextx"
	apphttpx "github.com/dsfhealth/sahaya/internal/httpx"
	"github.com/dsfhealth/sahaya/internal/session"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// SessionGuardHuma is a router-agnostic Huma middleware guarding protected
// routes on the session lifecycle controller's verdict. It extracts the
// bearer token, resolves it through the registry (blocking while the
// controller is still bootstrapping, so protected content is never served
// before the session is known) and injects the verified user into the
// request context. On failure it writes an RFC7807 problem+json response.
func SessionGuardHuma(sessions *session.Registry, logger *slog.Logger) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		r, w := humachi.Unwrap(ctx)

		writeUnauthorized := func(detail string) {
			reqID := chimw.GetReqID(r.Context())
			p := &apphttpx.Problem{
				Type:      "urn:problem:auth/err-unauthorized",
				Title:     http.StatusText(http.StatusUnauthorized),
				Status:    http.StatusUnauthorized,
				Detail:    detail,
				Code:      "ErrUnauthorized",
				RequestID: reqID,
			}
			w.Header().Set("Content-Type", "application/problem+json")
			w.WriteHeader(p.GetStatus())
			_ = json.NewEncoder(w).Encode(p)
		}

		// 1. Authorization header.
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeUnauthorized("missing authorization header")
			return
		}

		// 2. Bearer token.
		token, found := strings.CutPrefix(authHeader, "Bearer ")
		if !found {
			writeUnauthorized("invalid authorization header format")
			return
		}

		// 3. Resolve through the session lifecycle controller.
		user, err := sessions.Resolve(r.Context(), token)
		if err != nil {
			if !errors.Is(err, session.ErrUnauthenticated) {
				logger.Warn("session resolution failed", "error", err)
			}
			writeUnauthorized("invalid or expired session")
			return
		}

		// 4. Inject the verified user for downstream handlers.
		ctx = huma.WithValue(ctx, contextx.UserIDKey, user.ID)
		ctx = huma.WithValue(ctx, contextx.UserEmailKey, user.Email)
		ctx = huma.WithValue(ctx, contextx.AccessTokenKey, token)
		next(ctx)
	}
}
