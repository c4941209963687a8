package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"

	apphttpx "github.com/dsfhealth/sahaya/internal/httpx"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/crypto/bcrypt"
)

// PreviewKeyHeader carries the shared preview password on staging deployments.
const PreviewKeyHeader = "X-Preview-Key"

// PreviewGate optionally fences the whole API behind a shared password for
// pre-launch environments. It is deliberately separate from session auth and
// never substitutes for it: the identity provider stays the only
// authorization source of truth, this gate only hides a staging deployment
// from passers-by. An empty hash disables the gate.
func PreviewGate(passwordHash string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if passwordHash == "" {
			return next
		}
		logger.Info("preview gate enabled, all routes require a preview key")

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(PreviewKeyHeader)
			if key == "" || bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(key)) != nil {
				p := &apphttpx.Problem{
					Type:      "urn:problem:auth/err-preview-key",
					Title:     http.StatusText(http.StatusForbidden),
					Status:    http.StatusForbidden,
					Detail:    "a valid preview key is required",
					Code:      "ErrPreviewKey",
					RequestID: chimw.GetReqID(r.Context()),
				}
				w.Header().Set("Content-Type", "application/problem+json")
				w.WriteHeader(p.GetStatus())
				_ = json.NewEncoder(w).Encode(p)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
