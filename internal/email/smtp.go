package email

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/wneessen/go-mail"
)

// SMTPConfig holds SMTP connection parameters.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string // optional - some servers allow unauthenticated relay
	Password string // optional
	From     string // default sender address
	FromName string // optional sender display name
	Timeout  time.Duration
}

// SMTPSender implements Sender using go-mail. TLS mode is chosen from the
// port: implicit TLS on 465, mandatory STARTTLS on 587, opportunistic
// otherwise (e.g. Mailpit on 1025).
type SMTPSender struct {
	config *SMTPConfig
	logger *slog.Logger
}

// NewSMTPSender creates an SMTP sender from a config struct.
func NewSMTPSender(config *SMTPConfig, logger *slog.Logger) *SMTPSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &SMTPSender{
		config: config,
		logger: logger,
	}
}

// Send sends an email via SMTP using go-mail.
func (s *SMTPSender) Send(ctx context.Context, email *Email) (string, error) {
	msg, err := s.buildMessage(email)
	if err != nil {
		return "", err
	}

	client, err := mail.NewClient(s.config.Host, s.buildClientOptions()...)
	if err != nil {
		return "", ErrSendFailed("smtp", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		s.logger.Error("smtp: failed to send email", "error", err, "host", s.config.Host)
		return "", ErrSendFailed("smtp", err)
	}

	s.logger.Debug("smtp: email sent", "to", email.To, "subject", email.Subject)

	// SMTP doesn't return a message ID reliably.
	return fmt.Sprintf("smtp-%d-%d", time.Now().UnixNano(), len(email.To)), nil
}

func (s *SMTPSender) buildMessage(email *Email) (*mail.Msg, error) {
	msg := mail.NewMsg()

	if email.From != "" {
		if err := msg.From(email.From); err != nil {
			return nil, ErrInvalidFromAddress
		}
	} else if err := msg.FromFormat(s.config.FromName, s.config.From); err != nil {
		return nil, ErrInvalidFromAddress
	}

	if err := msg.To(email.To...); err != nil {
		return nil, ErrInvalidToAddress
	}

	if email.ReplyTo != "" {
		if err := msg.ReplyTo(email.ReplyTo); err != nil {
			return nil, newEmailError(codeInvalid, "Invalid reply-to email address")
		}
	}

	msg.Subject(email.Subject)

	// Prefer HTML with a text alternative.
	switch {
	case email.HTMLBody != "" && email.TextBody != "":
		msg.SetBodyString(mail.TypeTextPlain, email.TextBody)
		msg.AddAlternativeString(mail.TypeTextHTML, email.HTMLBody)
	case email.HTMLBody != "":
		msg.SetBodyString(mail.TypeTextHTML, email.HTMLBody)
	default:
		msg.SetBodyString(mail.TypeTextPlain, email.TextBody)
	}

	for key, value := range email.Headers {
		msg.SetGenHeader(mail.Header(key), value)
	}

	return msg, nil
}

func (s *SMTPSender) buildClientOptions() []mail.Option {
	timeout := s.config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	opts := []mail.Option{
		mail.WithPort(s.config.Port),
		mail.WithTimeout(timeout),
	}

	switch s.config.Port {
	case 465:
		opts = append(opts, mail.WithSSL())
	case 587:
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	default:
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}

	if s.config.Username != "" && s.config.Password != "" {
		opts = append(opts,
			mail.WithUsername(s.config.Username),
			mail.WithPassword(s.config.Password),
			mail.WithSMTPAuth(mail.SMTPAuthAutoDiscover),
		)
	}

	return opts
}
