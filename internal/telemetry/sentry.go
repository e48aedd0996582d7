package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/getsentry/sentry-go"
	sentryhttp "github.com/getsentry/sentry-go/http"
)

const flushTimeout = 2 * time.Second

// SentryConfig holds configuration for Sentry error tracking.
type SentryConfig struct {
	DSN         string
	Enabled     bool
	Environment string
	Release     string
	// SampleRate is the share of errors sent, 0 means all.
	SampleRate float64
	// TracesSampleRate of 0 turns performance tracing off.
	TracesSampleRate float64
	Debug            bool
}

var sentryEnabled atomic.Bool

// InitSentry starts the Sentry client and returns a flush function for
// shutdown. A disabled or DSN-less config leaves reporting off; every
// helper in this file is then a no-op.
func InitSentry(cfg SentryConfig, logger *slog.Logger) (func(), error) {
	sentryEnabled.Store(false)
	noop := func() {}

	if !cfg.Enabled {
		logger.Info("Sentry disabled")
		return noop, nil
	}
	if cfg.DSN == "" {
		logger.Warn("Sentry DSN not configured, disabling error tracking")
		return noop, nil
	}

	sampleRate := cfg.SampleRate
	if sampleRate == 0 {
		sampleRate = 1.0
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		SampleRate:       sampleRate,
		EnableTracing:    cfg.TracesSampleRate > 0,
		TracesSampleRate: cfg.TracesSampleRate,
		Debug:            cfg.Debug,
		BeforeSend:       scrubCustomerData,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Sentry: %w", err)
	}
	sentryEnabled.Store(true)

	logger.Info("Sentry initialized",
		"environment", cfg.Environment,
		"release", cfg.Release,
		"sample_rate", sampleRate,
	)

	return func() { sentry.Flush(flushTimeout) }, nil
}

// scrubCustomerData keeps contact details and the admin session cookie out
// of reported events.
func scrubCustomerData(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
	if event.Request != nil {
		event.Request.Data = ""
		event.Request.Cookies = ""
		delete(event.Request.Headers, "Cookie")
		delete(event.Request.Headers, "X-Csrf-Token")
	}
	return event
}

// IsEnabled reports whether errors are being sent.
func IsEnabled() bool {
	return sentryEnabled.Load()
}

// RecoverGoroutine reports a panic in a background goroutine and logs it
// instead of crashing the process. Use: defer telemetry.RecoverGoroutine(logger, "name")
func RecoverGoroutine(logger *slog.Logger, name string) {
	if r := recover(); r != nil {
		logger.Error("panic in background task", "task", name, "panic", r)
		if IsEnabled() {
			sentry.CurrentHub().Recover(r)
			sentry.Flush(flushTimeout)
		}
	}
}

// SentryMiddleware attaches a per-request hub and reports panics. The panic
// is re-raised so router.Recovery still writes the 500 and logs the stack.
func SentryMiddleware() func(http.Handler) http.Handler {
	h := sentryhttp.New(sentryhttp.Options{
		Repanic: true,
		Timeout: flushTimeout,
	})
	return func(next http.Handler) http.Handler {
		wrapped := h.Handle(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !IsEnabled() {
				next.ServeHTTP(w, r)
				return
			}
			wrapped.ServeHTTP(w, r)
		})
	}
}

// UserInfo identifies the signed-in admin on reported events.
type UserInfo struct {
	ID    string
	Email string
}

// UserContextExtractor finds the signed-in admin, if any.
type UserContextExtractor func(ctx context.Context) *UserInfo

// SentryContextMiddleware tags the request's hub with the route and, when
// userExtractor finds one, the admin. Apply it after the session middleware.
func SentryContextMiddleware(userExtractor UserContextExtractor) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !IsEnabled() {
				next.ServeHTTP(w, r)
				return
			}

			hub := sentry.GetHubFromContext(r.Context())
			if hub == nil {
				hub = sentry.CurrentHub().Clone()
			}

			hub.ConfigureScope(func(scope *sentry.Scope) {
				scope.SetTag("area", area(r.URL.Path))
				scope.SetContext("request", map[string]interface{}{
					"method": r.Method,
					"path":   r.URL.Path,
				})
				if userExtractor != nil {
					if user := userExtractor(r.Context()); user != nil {
						scope.SetUser(sentry.User{ID: user.ID, Email: user.Email})
					}
				}
			})

			next.ServeHTTP(w, r.WithContext(sentry.SetHubOnContext(r.Context(), hub)))
		})
	}
}

// area groups events by the part of the site that raised them.
func area(path string) string {
	switch {
	case strings.HasPrefix(path, "/admin"):
		return "admin"
	case strings.HasPrefix(path, "/api/"):
		return "api"
	default:
		return "storefront"
	}
}

// CaptureErrorFromContext reports err through the request's hub, falling
// back to the global hub outside a request.
func CaptureErrorFromContext(ctx context.Context, err error, extras map[string]interface{}) {
	if !IsEnabled() || err == nil {
		return
	}

	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}

	hub.WithScope(func(scope *sentry.Scope) {
		for key, value := range extras {
			scope.SetExtra(key, value)
		}
		hub.CaptureException(err)
	})
}
