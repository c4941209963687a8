package auth

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dsfhealth/sahaya/internal/identity"
)

// WebhookSecretHeader carries the shared secret on identity-provider
// event deliveries.
const WebhookSecretHeader = "X-Webhook-Secret"

// Publisher fans an auth event out to local subscribers.
type Publisher interface {
	Publish(ev identity.Event)
}

// WebhookHandler receives auth state-change events pushed by the identity
// provider and feeds them into the local event hub. Session controllers and
// the registry react through their own subscriptions.
type WebhookHandler struct {
	publisher Publisher
	secret    string
	logger    *slog.Logger
}

// NewWebhookHandler creates the event webhook. An empty secret disables the
// endpoint entirely: deliveries are rejected rather than accepted unsigned.
func NewWebhookHandler(publisher Publisher, secret string, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		publisher: publisher,
		secret:    secret,
		logger:    logger,
	}
}

type webhookEvent struct {
	Type    string            `json:"type"`
	UserID  string            `json:"user_id"`
	Session *identity.Session `json:"session"`
}

// ServeHTTP handles one event delivery.
func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if h.secret == "" {
		h.logger.Warn("auth event webhook called but no webhook secret is configured")
		w.WriteHeader(http.StatusForbidden)
		return
	}
	presented := r.Header.Get(WebhookSecretHeader)
	if subtle.ConstantTimeCompare([]byte(presented), []byte(h.secret)) != 1 {
		w.WriteHeader(http.StatusForbidden)
		return
	}

	var ev webhookEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	kind, ok := eventKind(ev.Type)
	if !ok {
		h.logger.Warn("ignoring auth event of unknown kind", "type", ev.Type)
		w.WriteHeader(http.StatusAccepted)
		return
	}

	userID := ev.UserID
	if userID == "" && ev.Session != nil {
		userID = ev.Session.User.ID
	}

	h.publisher.Publish(identity.Event{
		Kind:    kind,
		UserID:  userID,
		Session: ev.Session,
	})

	h.logger.Info("auth event accepted", "kind", string(kind), "user_id", userID)
	w.WriteHeader(http.StatusAccepted)
}

func eventKind(value string) (identity.EventKind, bool) {
	switch identity.EventKind(value) {
	case identity.EventSignedIn, identity.EventSignedOut, identity.EventTokenRefreshed, identity.EventUserUpdated:
		return identity.EventKind(value), true
	default:
		return "", false
	}
}
