package supplement

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dsfhealth/sahaya/internal/metrics"
)

// DayView is the list surface for a single calendar date: the user's
// supplements plus which of them are already marked taken that day.
type DayView struct {
	Supplements []Supplement
	TakenIDs    []string
}

// Service defines the supplement module's business logic.
type Service interface {
	ListForDate(ctx context.Context, userID string, date time.Time) (*DayView, error)
	MarkTaken(ctx context.Context, userID, supplementID string, date time.Time) error
	LogDates(ctx context.Context, userID string) ([]time.Time, error)
}

// Config holds the dependencies for the supplement service.
type Config struct {
	Repo    Repository
	Logger  *slog.Logger
	Metrics metrics.Recorder
}

type service struct {
	repo    Repository
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewService creates a new supplement service with the given dependencies.
func NewService(cfg *Config) Service {
	rec := cfg.Metrics
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &service{
		repo:    cfg.Repo,
		logger:  cfg.Logger,
		metrics: rec,
	}
}

// ListForDate returns the user's supplements and that day's logged IDs. A
// first-time user gets the default supplements seeded before listing.
func (s *service) ListForDate(ctx context.Context, userID string, date time.Time) (*DayView, error) {
	supplements, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list supplements", "error", err, "user_id", userID)
		return nil, ErrInternal.WithCause(err)
	}

	if len(supplements) == 0 {
		supplements, err = s.seedDefaults(ctx, userID)
		if err != nil {
			return nil, err
		}
	}

	takenIDs, err := s.repo.LoggedSupplementIDs(ctx, userID, date)
	if err != nil {
		s.logger.Error("failed to load logged supplement ids", "error", err, "user_id", userID)
		return nil, ErrInternal.WithCause(err)
	}

	return &DayView{Supplements: supplements, TakenIDs: takenIDs}, nil
}

// MarkTaken logs a supplement as taken on a date. Marking the same day twice
// is idempotent and leaves a single log row.
func (s *service) MarkTaken(ctx context.Context, userID, supplementID string, date time.Time) error {
	supplement, err := s.repo.FindByID(ctx, supplementID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound.WithCause(err)
		}
		s.logger.Error("failed to find supplement for logging", "error", err, "supplement_id", supplementID)
		return ErrInternal.WithCause(err)
	}
	if supplement.UserID != userID {
		return ErrNotFound
	}

	id, err := uuid.NewV7()
	if err != nil {
		return ErrInternal.WithCause(err)
	}

	if err := s.repo.LogTaken(ctx, &Log{
		ID:           id.String(),
		SupplementID: supplementID,
		TakenDate:    date,
	}); err != nil {
		s.logger.Error("failed to log supplement intake", "error", err, "supplement_id", supplementID)
		return ErrInternal.WithCause(err)
	}

	s.metrics.RecordSupplementLogged()
	return nil
}

// LogDates returns every distinct date the user logged any supplement.
func (s *service) LogDates(ctx context.Context, userID string) ([]time.Time, error) {
	dates, err := s.repo.LoggedDates(ctx, userID)
	if err != nil {
		s.logger.Error("failed to load supplement log dates", "error", err, "user_id", userID)
		return nil, ErrInternal.WithCause(err)
	}
	return dates, nil
}

// seedDefaults inserts the starter supplements for a first-time user.
func (s *service) seedDefaults(ctx context.Context, userID string) ([]Supplement, error) {
	seeded := make([]Supplement, 0, len(defaultNames))
	for _, name := range defaultNames {
		id, err := uuid.NewV7()
		if err != nil {
			return nil, ErrInternal.WithCause(err)
		}
		seeded = append(seeded, Supplement{ID: id.String(), UserID: userID, Name: name})
	}

	if err := s.repo.InsertMany(ctx, seeded); err != nil {
		s.logger.Error("failed to seed default supplements", "error", err, "user_id", userID)
		return nil, ErrInternal.WithCause(err)
	}

	s.logger.Info("seeded default supplements", "user_id", userID, "count", len(seeded))
	return seeded, nil
}
