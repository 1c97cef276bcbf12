package services

import (
	"context"
	"encoding/json"
	"log/slog"
)

// NotificationChannel is the MQ channel the worker consumes.
const NotificationChannel = "notifications"

// Notification kinds understood by the worker.
const (
	NotifyWelcome         = "welcome"
	NotifyPasswordReset   = "password_reset"
	NotifyPaperDecision   = "paper_decision"
	NotifyPaymentDecision = "payment_decision"
)

// Notification is the JSON payload published to the MQ channel.
type Notification struct {
	Kind       string `json:"kind"`
	Email      string `json:"email"`
	FullName   string `json:"full_name,omitempty"`
	Subject    string `json:"subject,omitempty"`
	Body       string `json:"body,omitempty"`
	ResetToken string `json:"reset_token,omitempty"`
	Status     string `json:"status,omitempty"`
	Reference  string `json:"reference,omitempty"`
}

// Publisher is the subset of the MQ client used to emit notifications.
type Publisher interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
}

// NotificationService publishes notification events. Publishing is
// fire-and-forget: a broker failure is logged and swallowed so it
// never fails the request that triggered the notification.
type NotificationService struct {
	publisher Publisher
	logger    *slog.Logger
}

func NewNotificationService(publisher Publisher, logger *slog.Logger) *NotificationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationService{publisher: publisher, logger: logger}
}

// Publish emits a notification event, swallowing any error. A nil
// publisher (broker not configured) drops silently.
func (s *NotificationService) Publish(ctx context.Context, n Notification) {
	if s.publisher == nil {
		return
	}

	data, err := json.Marshal(n)
	if err != nil {
		s.logger.Error("notification marshal failed", slog.String("kind", n.Kind), slog.String("error", err.Error()))
		return
	}

	attrs := map[string]string{"kind": n.Kind}
	if _, err := s.publisher.Publish(ctx, NotificationChannel, data, attrs); err != nil {
		s.logger.Error("notification publish failed",
			slog.String("kind", n.Kind),
			slog.String("email", n.Email),
			slog.String("error", err.Error()),
		)
	}
}
