// Package emergency turns the app's emergency action into a real alert: the
// configured helpline contact is emailed the caller's profile essentials so a
// human can follow up. Nothing is persisted.
package emergency

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/dsfhealth/sahaya/internal/modules/profile"
	"github.com/dsfhealth/sahaya/internal/notification"
	"github.com/dsfhealth/sahaya/internal/notification/templates"
)

// Service defines the emergency module's business logic.
type Service interface {
	Trigger(ctx context.Context, userID, email string) error
}

// Config holds the dependencies for the emergency service.
type Config struct {
	Profiles profile.Service
	Notifier notification.Service
	Renderer *templates.Engine
	Logger   *slog.Logger

	// HelplineEmail receives the alert. Empty disables the endpoint.
	HelplineEmail string
}

type service struct {
	profiles profile.Service
	notifier notification.Service
	renderer *templates.Engine
	logger   *slog.Logger
	helpline string
}

// NewService creates a new emergency service with the given dependencies.
func NewService(cfg *Config) Service {
	return &service{
		profiles: cfg.Profiles,
		notifier: cfg.Notifier,
		renderer: cfg.Renderer,
		logger:   cfg.Logger,
		helpline: cfg.HelplineEmail,
	}
}

// Trigger sends the helpline alert for the given user. The alert goes out
// with whatever profile data exists; a sparse profile never blocks it. When
// the profile has a phone number the user also gets an SMS confirmation.
func (s *service) Trigger(ctx context.Context, userID, email string) error {
	if s.helpline == "" {
		return ErrNotConfigured
	}

	p, err := s.profiles.Get(ctx, userID)
	if err != nil {
		s.logger.Error("failed to load profile for emergency alert, sending without it", "error", err, "user_id", userID)
		p = &profile.Profile{ID: userID}
	}

	age := ""
	if p.Age != nil {
		age = strconv.Itoa(*p.Age)
	}
	rendered, err := templates.Render(ctx, s.renderer, templates.EmergencyAlert, templates.EmergencyAlertData{
		Name:        p.Name,
		Email:       email,
		PhoneNumber: p.PhoneNumber,
		Age:         age,
		City:        p.City,
		State:       p.State,
		Country:     p.Country,
		TriggeredAt: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		s.logger.Error("failed to render emergency alert", "error", err, "user_id", userID)
		return ErrInternal.WithCause(err)
	}

	if err := s.notifier.Send(ctx, notification.Notification{
		Recipient: s.helpline,
		Channels:  []notification.Channel{notification.ChannelEmail},
		Content: notification.Content{
			EmailSubject:  rendered.Subject,
			EmailHTMLBody: rendered.EmailHTML,
		},
	}); err != nil {
		s.logger.Error("failed to deliver emergency alert", "error", err, "user_id", userID)
		return ErrAlertFailed.WithCause(err)
	}

	if p.PhoneNumber != "" {
		confirm := notification.Notification{
			Recipient: p.PhoneNumber,
			Channels:  []notification.Channel{notification.ChannelSMS},
			Content:   notification.Content{SMSText: rendered.SMSText},
		}
		// Confirmation is best effort; the alert already went out.
		if err := s.notifier.Send(ctx, confirm); err != nil {
			s.logger.Warn("failed to send emergency sms confirmation", "error", err, "user_id", userID)
		}
	}

	s.logger.Info("🚨 emergency alert sent", "user_id", userID, "helpline", s.helpline)
	return nil
}
