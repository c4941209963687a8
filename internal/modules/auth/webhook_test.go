package auth

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dsfhealth/sahaya/internal/identity"
)

type capturingPublisher struct {
	events []identity.Event
}

func (p *capturingPublisher) Publish(ev identity.Event) {
	p.events = append(p.events, ev)
}

func newWebhook(pub Publisher, secret string) *WebhookHandler {
	return NewWebhookHandler(pub, secret, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func deliver(h http.Handler, secret, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/auth/events", strings.NewReader(body))
	if secret != "" {
		req.Header.Set(WebhookSecretHeader, secret)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestWebhookPublishesSignedOutEvent(t *testing.T) {
	pub := &capturingPublisher{}
	h := newWebhook(pub, "s3cret")

	rec := deliver(h, "s3cret", `{"type":"SIGNED_OUT","user_id":"user-1"}`)

	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, pub.events, 1)
	assert.Equal(t, identity.EventSignedOut, pub.events[0].Kind)
	assert.Equal(t, "user-1", pub.events[0].UserID)
	assert.Nil(t, pub.events[0].Session)
}

func TestWebhookDerivesUserIDFromSession(t *testing.T) {
	pub := &capturingPublisher{}
	h := newWebhook(pub, "s3cret")

	rec := deliver(h, "s3cret", `{"type":"SIGNED_IN","session":{"access_token":"tok","user":{"id":"user-9","email":"a@b.c"}}}`)

	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, pub.events, 1)
	assert.Equal(t, identity.EventSignedIn, pub.events[0].Kind)
	assert.Equal(t, "user-9", pub.events[0].UserID)
	require.NotNil(t, pub.events[0].Session)
	assert.Equal(t, "tok", pub.events[0].Session.AccessToken)
}

func TestWebhookRejectsWrongSecret(t *testing.T) {
	pub := &capturingPublisher{}
	h := newWebhook(pub, "s3cret")

	rec := deliver(h, "wrong", `{"type":"SIGNED_OUT","user_id":"user-1"}`)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, pub.events)
}

func TestWebhookDisabledWithoutSecret(t *testing.T) {
	pub := &capturingPublisher{}
	h := newWebhook(pub, "")

	rec := deliver(h, "", `{"type":"SIGNED_OUT","user_id":"user-1"}`)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, pub.events)
}

func TestWebhookIgnoresUnknownKind(t *testing.T) {
	pub := &capturingPublisher{}
	h := newWebhook(pub, "s3cret")

	rec := deliver(h, "s3cret", `{"type":"MFA_CHALLENGE","user_id":"user-1"}`)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Empty(t, pub.events)
}

func TestWebhookRejectsMalformedBody(t *testing.T) {
	pub := &capturingPublisher{}
	h := newWebhook(pub, "s3cret")

	rec := deliver(h, "s3cret", `{not json`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, pub.events)
}
