package email

import (
	"log/slog"

	"github.com/dukerupert/bakehouse/internal"
)

// NewSender builds the configured provider wrapped in a circuit breaker.
// Provider "none" or "" returns ErrNotConfigured; the caller skips
// notifications in that case.
func NewSender(cfg internal.EmailConfig, logger *slog.Logger) (Sender, error) {
	var sender Sender

	switch cfg.Provider {
	case "", "none":
		return nil, ErrNotConfigured
	case "log":
		return NewLogSender(logger), nil
	case "smtp":
		sender = NewSMTPSender(&SMTPConfig{
			Host:     cfg.Host,
			Port:     int(cfg.Port),
			Username: cfg.Username,
			Password: cfg.Password,
			From:     cfg.From,
			FromName: cfg.FromName,
		}, logger)
	case "postmark":
		if cfg.PostmarkToken == "" {
			return nil, ErrMissingCredentials
		}
		sender = NewPostmarkSender(cfg.PostmarkToken)
	case "resend":
		if cfg.ResendAPIKey == "" {
			return nil, ErrMissingCredentials
		}
		sender = NewResendSender(cfg.ResendAPIKey)
	default:
		return nil, ErrUnknownProvider(cfg.Provider)
	}

	return NewBreakerSender(sender, "email-"+cfg.Provider, logger), nil
}
