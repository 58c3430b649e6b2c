// Package email delivers outbound lead email through SMTP or the Brevo API.
package email

import (
	"context"
	"fmt"
	"time"

	"leadagent_backend/platform/config"
)

// Receipt confirms a message was accepted by the provider.
type Receipt struct {
	Provider  string    `json:"provider"`
	MessageID string    `json:"messageId,omitempty"`
	To        string    `json:"to"`
	SentAt    time.Time `json:"sentAt"`
}

// Mailer sends one HTML message. A nil error means the provider accepted it.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) (Receipt, error)
}

// NoopMailer accepts every message without sending. Used when email is disabled.
type NoopMailer struct{}

func (NoopMailer) Send(_ context.Context, to, _, _ string) (Receipt, error) {
	return Receipt{Provider: config.EmailProviderNone, To: to, SentAt: time.Now()}, nil
}

// New builds the configured mailer.
func New(cfg config.EmailConfig) (Mailer, error) {
	switch cfg.GetEmailProvider() {
	case "", config.EmailProviderNone:
		return NoopMailer{}, nil
	case config.EmailProviderBrevo:
		return NewBrevoMailer(cfg.GetBrevoAPIKey(), cfg.GetEmailFromAddress(), cfg.GetEmailFromName()), nil
	case config.EmailProviderSMTP:
		return NewSMTPMailer(
			cfg.GetSMTPHost(), cfg.GetSMTPPort(), cfg.GetSMTPUsername(), cfg.GetSMTPPassword(),
			cfg.GetEmailFromAddress(), cfg.GetEmailFromName(),
		), nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.GetEmailProvider())
	}
}
