// Package email delivers alert messages. Delivery is fire-and-report: callers
// decide what a failure means.
package email

import (
	"context"
	"fmt"
	"log/slog"

	"mangaalert/internal/config"
	"mangaalert/internal/secrets"
)

// SendGridAPIKeyField is the key holding the API key inside the SendGrid secret.
const SendGridAPIKeyField = "sendgrid-api-key"

const senderName = "Manga Alert Italia"

type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string // optional
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// DeliveryError reports a message the provider did not accept.
type DeliveryError struct {
	To         string
	StatusCode int // 0 when the request never got a response
	Err        error
}

func (e *DeliveryError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("deliver to %s: status %d: %v", e.To, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("deliver to %s: %v", e.To, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// New builds the sender selected by EMAIL_BACKEND. The SendGrid key is read
// once, here; SES uses the AWS credential chain.
func New(ctx context.Context, cfg *config.Config, provider secrets.Provider, logger *slog.Logger) (Sender, error) {
	switch cfg.EmailBackend {
	case "log":
		return NewLogSender(logger), nil
	case "sendgrid":
		key, err := secrets.Lookup(ctx, provider, cfg.SendGridSecretName, SendGridAPIKeyField)
		if err != nil {
			return nil, fmt.Errorf("load sendgrid api key: %w", err)
		}
		return NewSendGridSender(cfg.SendGridAPIHost, key, cfg.EmailSender), nil
	case "ses":
		sender, err := NewSESFromRegion(ctx, cfg.AWSRegion, cfg.EmailSender, logger)
		if err != nil {
			return nil, err
		}
		return sender, nil
	}
	return nil, fmt.Errorf("unsupported email backend %q", cfg.EmailBackend)
}

// LogSender writes messages to the log instead of sending them.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.logger.Info("email_dry_run", "to", msg.To, "subject", msg.Subject, "text_bytes", len(msg.Text), "html", msg.HTML != "")
	return nil
}
