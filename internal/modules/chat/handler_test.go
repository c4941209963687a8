package chat

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCompleter struct {
	lastSystemPrompt string
	lastMessage      string
	reply            string
	err              error
}

func (f *fakeCompleter) Complete(_ context.Context, systemPrompt, userMessage string) (string, error) {
	f.lastSystemPrompt = systemPrompt
	f.lastMessage = userMessage
	return f.reply, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestHandler(llm Completer) http.Handler {
	svc := NewService(&Config{LLM: llm, Logger: testLogger()})
	return NewHandler(svc, testLogger()).Routes()
}

func postRelay(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRelayReturnsResponse(t *testing.T) {
	llm := &fakeCompleter{reply: "Namaste! Here is some guidance."}
	h := newTestHandler(llm)

	rec := postRelay(t, h, `{"message":"hello","language":"en"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body["response"])
	assert.Equal(t, "hello", llm.lastMessage)
	assert.Equal(t, SystemPrompt(LanguageEnglish), llm.lastSystemPrompt)
}

func TestRelaySelectsHindiPrompt(t *testing.T) {
	llm := &fakeCompleter{reply: "उत्तर"}
	h := newTestHandler(llm)

	rec := postRelay(t, h, `{"message":"नमस्ते","language":"hi"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, SystemPrompt(LanguageHindi), llm.lastSystemPrompt)
}

func TestRelayDefaultsToEnglish(t *testing.T) {
	llm := &fakeCompleter{reply: "ok"}
	h := newTestHandler(llm)

	rec := postRelay(t, h, `{"message":"hello"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, SystemPrompt(LanguageEnglish), llm.lastSystemPrompt)
}

func TestRelayWithoutCredentialReturnsError(t *testing.T) {
	h := newTestHandler(nil)

	rec := postRelay(t, h, `{"message":"hello"}`)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body["error"])
}

func TestRelayUpstreamFailureReturnsError(t *testing.T) {
	llm := &fakeCompleter{err: errors.New("status 500: upstream exploded")}
	h := newTestHandler(llm)

	rec := postRelay(t, h, `{"message":"hello","language":"en"}`)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body["error"])
}

func TestRelayRejectsUnknownLanguage(t *testing.T) {
	llm := &fakeCompleter{reply: "ok"}
	h := newTestHandler(llm)

	rec := postRelay(t, h, `{"message":"hello","language":"fr"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRelayRejectsEmptyMessage(t *testing.T) {
	h := newTestHandler(&fakeCompleter{reply: "ok"})

	rec := postRelay(t, h, `{"language":"en"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRelayOptionsPreflight(t *testing.T) {
	h := newTestHandler(&fakeCompleter{})

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
}
