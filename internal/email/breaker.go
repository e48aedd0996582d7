package email

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// BreakerSender wraps a Sender in a circuit breaker so a failing provider is
// not hammered by every contact submission. While open, Send fails fast with
// ErrCircuitOpen.
type BreakerSender struct {
	next Sender
	cb   *gobreaker.CircuitBreaker
}

// NewBreakerSender trips after at least 5 sends in a 5s window with a 60%
// failure ratio, and probes again after 10s.
func NewBreakerSender(next Sender, name string, logger *slog.Logger) *BreakerSender {
	if logger == nil {
		logger = slog.Default()
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    5 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
		IsSuccessful: func(err error) bool {
			// Bad input is the caller's fault, not the provider's.
			var ee *EmailError
			if errors.As(err, &ee) && ee.Code == codeInvalid {
				return true
			}
			return err == nil
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("email circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}

	return &BreakerSender{
		next: next,
		cb:   gobreaker.NewCircuitBreaker(settings),
	}
}

func (b *BreakerSender) Send(ctx context.Context, email *Email) (string, error) {
	res, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Send(ctx, email)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", ErrCircuitOpen
		}
		return "", err
	}

	return res.(string), nil
}

// State reports the breaker state for health output.
func (b *BreakerSender) State() gobreaker.State {
	return b.cb.State()
}
