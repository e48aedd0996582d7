package email

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
)

// LogSender writes emails to the log instead of delivering them. It is the
// development default.
type LogSender struct {
	logger *slog.Logger
	count  atomic.Int64
}

func NewLogSender(logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{logger: logger}
}

func (l *LogSender) Send(ctx context.Context, email *Email) (string, error) {
	n := l.count.Add(1)
	l.logger.InfoContext(ctx, "email: not delivered (log provider)",
		"to", email.To,
		"from", email.From,
		"reply_to", email.ReplyTo,
		"subject", email.Subject,
		"text", email.TextBody,
	)
	return fmt.Sprintf("log-%d", n), nil
}
