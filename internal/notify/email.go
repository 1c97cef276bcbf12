package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/openconf/apiserver/config"
	"github.com/openconf/apiserver/internal/mq"
	"github.com/openconf/apiserver/internal/services"
	"gopkg.in/gomail.v2"
)

// EmailNotifier consumes notification events and delivers them over SMTP.
type EmailNotifier struct {
	cfg    config.SMTPConfig
	logger *slog.Logger
}

// NewEmailNotifier creates a mailer for the worker.
func NewEmailNotifier(cfg config.SMTPConfig, logger *slog.Logger) *EmailNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &EmailNotifier{cfg: cfg, logger: logger}
}

// Handle is the MQ handler: decode the event, send the email. A
// malformed payload is acked (there is no point retrying it); a
// delivery failure is returned so the broker redelivers.
func (n *EmailNotifier) Handle(ctx context.Context, msg mq.Message) error {
	var event services.Notification
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		n.logger.Warn("dropping malformed notification", slog.String("id", msg.ID))
		return nil
	}
	return n.Send(ctx, event)
}

// Send delivers one notification. Missing SMTP config or recipient
// logs and drops rather than erroring the whole subscription.
func (n *EmailNotifier) Send(ctx context.Context, event services.Notification) error {
	if n.cfg.Host == "" || n.cfg.FromEmail == "" {
		n.logger.Warn("smtp config missing, skipping notification", slog.String("kind", event.Kind))
		return nil
	}
	if strings.TrimSpace(event.Email) == "" {
		n.logger.Warn("notification has no recipient, skipping", slog.String("kind", event.Kind))
		return nil
	}

	subject, body := renderEmail(event)

	m := gomail.NewMessage()
	m.SetHeader("From", n.cfg.FromEmail)
	m.SetHeader("To", event.Email)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(n.cfg.Host, n.cfg.Port, n.cfg.User, n.cfg.Password)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	n.logger.Info("notification sent", slog.String("kind", event.Kind), slog.String("to", event.Email))
	return nil
}

func renderEmail(event services.Notification) (subject, body string) {
	name := event.FullName
	if name == "" {
		name = "there"
	}

	switch event.Kind {
	case services.NotifyWelcome:
		subject = "Welcome to OpenConf"
		body = fmt.Sprintf("Hi %s,\n\nYour account has been created. You can now submit papers and track your registration.\n", name)
	case services.NotifyPasswordReset:
		subject = "Reset your OpenConf password"
		body = fmt.Sprintf("Hi %s,\n\nUse this token to reset your password within the next hour:\n\n%s\n\nIf you did not request a reset, ignore this message.\n", name, event.ResetToken)
	case services.NotifyPaperDecision:
		subject = fmt.Sprintf("Decision on your paper %q", event.Subject)
		body = fmt.Sprintf("Hi %s,\n\nYour paper %q has been %s.\n", name, event.Subject, event.Status)
	case services.NotifyPaymentDecision:
		subject = "Your payment has been reviewed"
		body = fmt.Sprintf("Hi %s,\n\nYour payment (reference %s) has been %s.\n", name, event.Reference, event.Status)
	default:
		subject = "OpenConf notification"
		body = event.Body
	}
	return subject, body
}
