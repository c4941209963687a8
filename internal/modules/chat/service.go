package chat

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dsfhealth/sahaya/internal/metrics"
)

var (
	// ErrNotConfigured means no LLM credential was configured. This is a
	// deployment problem, fatal for every relay request until fixed.
	ErrNotConfigured = errors.New("chat: llm provider is not configured")

	// ErrRelayFailed wraps upstream completion failures. Requests are not
	// retried; the caller surfaces the failure and keeps the optimistic
	// user message in place.
	ErrRelayFailed = errors.New("chat: relay to llm provider failed")
)

// Completer is the slice of the LLM client the relay needs.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userMessage string) (string, error)
}

// Service defines the chat relay's business logic.
type Service interface {
	Send(ctx context.Context, message, language string) (string, error)
}

// Config holds the dependencies for the chat service.
type Config struct {
	LLM     Completer
	Logger  *slog.Logger
	Metrics metrics.Recorder
}

type service struct {
	llm     Completer
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewService creates a new chat relay service. LLM may be nil when no
// credential is configured; Send then fails with ErrNotConfigured.
func NewService(cfg *Config) Service {
	rec := cfg.Metrics
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &service{
		llm:     cfg.LLM,
		logger:  cfg.Logger,
		metrics: rec,
	}
}

// Send relays one message to the LLM provider under the language-selected
// system prompt and returns the reply. Stateless: nothing is persisted.
func (s *service) Send(ctx context.Context, message, language string) (string, error) {
	if s.llm == nil {
		s.metrics.RecordRelayRequest(metrics.OutcomeError)
		return "", ErrNotConfigured
	}

	start := time.Now()
	reply, err := s.llm.Complete(ctx, SystemPrompt(language), message)
	s.metrics.RecordRelayLatency(time.Since(start))
	if err != nil {
		s.metrics.RecordRelayRequest(metrics.OutcomeError)
		s.logger.Error("relay to llm provider failed", "language", language, "error", err)
		return "", errors.Join(ErrRelayFailed, err)
	}

	s.metrics.RecordRelayRequest(metrics.OutcomeOK)
	return reply, nil
}
