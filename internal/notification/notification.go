// Package notification delivers outbound alerts. The only production
// scenario today is the emergency helpline alert; delivery is synchronous so
// callers can surface failures instead of silently dropping an alert.
package notification

import (
	"context"
	"errors"
	"log/slog"
)

type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// Content holds the message data for each channel. A notification can carry
// content for multiple channels simultaneously.
type Content struct {
	EmailSubject  string
	EmailHTMLBody string
	SMSText       string
}

// Notification is the universal object used to send any notification.
type Notification struct {
	// Recipient is an email address for ChannelEmail, a phone number for ChannelSMS.
	Recipient string
	Channels  []Channel
	Content   Content
}

// --- Internal Sender Interfaces ---

type emailSender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}
type smsSender interface {
	Send(ctx context.Context, to, message string) error
}

// Service is the main interface for the notification system.
type Service interface {
	Send(ctx context.Context, n Notification) error
}

type service struct {
	log         *slog.Logger
	emailSender emailSender
	smsSender   smsSender
}

// NewService creates a new notification service.
func NewService(log *slog.Logger, emailSender emailSender, smsSender smsSender) Service {
	return &service{
		log:         log,
		emailSender: emailSender,
		smsSender:   smsSender,
	}
}

// Send dispatches the notification to every requested channel and waits for
// each to finish. All channels are attempted even when an earlier one fails;
// the joined error reports every failure.
func (s *service) Send(ctx context.Context, n Notification) error {
	var errs []error
	for _, channel := range n.Channels {
		var err error
		switch channel {
		case ChannelEmail:
			s.log.Info("dispatching email notification", "recipient", n.Recipient)
			err = s.emailSender.Send(ctx, n.Recipient, n.Content.EmailSubject, n.Content.EmailHTMLBody)
		case ChannelSMS:
			s.log.Info("dispatching sms notification", "recipient", n.Recipient)
			err = s.smsSender.Send(ctx, n.Recipient, n.Content.SMSText)
		default:
			s.log.Warn("unsupported notification channel", "channel", channel)
		}

		if err != nil {
			s.log.Error("failed to send notification", "channel", channel, "recipient", n.Recipient, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
