package profile

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Service defines the profile module's business logic.
type Service interface {
	Get(ctx context.Context, userID string) (*Profile, error)
	Update(ctx context.Context, userID string, input UpdateInput) (*Profile, error)
}

// UpdateInput defines the updatable profile fields. Pointers distinguish a
// field not being provided (nil) from one set to its zero value.
type UpdateInput struct {
	Name        *string
	Age         *int
	PhoneNumber *string
	Address     *string
	Country     *string
	State       *string
	City        *string
}

// Config holds the dependencies for the profile service.
type Config struct {
	Repo   Repository
	Logger *slog.Logger
}

type service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new profile service with the given dependencies.
func NewService(cfg *Config) Service {
	return &service{
		repo:   cfg.Repo,
		logger: cfg.Logger,
	}
}

// Get retrieves a user's profile, creating an empty row on first access so
// every verified user always has one.
func (s *service) Get(ctx context.Context, userID string) (*Profile, error) {
	profile, err := s.repo.FindByID(ctx, userID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, ErrNotFound) {
		s.logger.Error("failed to get profile from repository", "error", err, "user_id", userID)
		return nil, ErrInternal.WithCause(err)
	}

	fresh := &Profile{ID: userID}
	if err := s.repo.Insert(ctx, fresh); err != nil {
		s.logger.Error("failed to create initial profile", "error", err, "user_id", userID)
		return nil, ErrInternal.WithCause(err)
	}

	s.logger.Info("created initial profile", "user_id", userID)
	return fresh, nil
}

// Update applies the provided fields to a user's profile and persists it.
func (s *service) Update(ctx context.Context, userID string, input UpdateInput) (*Profile, error) {
	// Ensure the row exists first; Get creates it on first access.
	profile, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		profile.Name = *input.Name
	}
	if input.Age != nil {
		profile.Age = input.Age
	}
	if input.PhoneNumber != nil {
		profile.PhoneNumber = *input.PhoneNumber
	}
	if input.Address != nil {
		profile.Address = *input.Address
	}
	if input.Country != nil {
		profile.Country = *input.Country
	}
	if input.State != nil {
		profile.State = *input.State
	}
	if input.City != nil {
		profile.City = *input.City
	}
	profile.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, profile); err != nil {
		s.logger.Error("failed to update profile in repository", "error", err, "user_id", userID)
		return nil, ErrInternal.WithCause(err)
	}

	s.logger.Info("profile updated", "user_id", userID)
	return profile, nil
}
