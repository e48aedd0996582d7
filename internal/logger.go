package internal

import (
	"io"
	"log/slog"
	"time"
)

// NewLogger builds the process logger. Dev gets readable text with source
// locations at debug level; prod gets JSON stamped with the service name.
func NewLogger(w io.Writer, env string, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		slog.Default().Warn("Invalid log level. Using default level: info", slog.String("value", level))
		lvl = slog.LevelInfo
	}

	if env != "prod" {
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
			Level:     lvl,
			AddSource: lvl == slog.LevelDebug,
		}))
	}

	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.TimeKey {
				return slog.String(slog.TimeKey, a.Value.Time().UTC().Format(time.RFC3339Nano))
			}
			return a
		},
	})
	return slog.New(h).With(slog.String("service", "bakehouse"))
}
