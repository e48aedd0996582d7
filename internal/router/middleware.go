package router

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/dukerupert/bakehouse/internal/handler"
	"github.com/dukerupert/bakehouse/internal/middleware"
)

const panicMessage = "Something went wrong. Please try again."

// Recovery turns a handler panic into a 500 and logs the stack. JSON clients
// get {"error": ...} instead of plain text. Reporting is left to
// telemetry.SentryMiddleware, which re-panics into this.
func Recovery(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if p := recover(); p != nil {
					if p == http.ErrAbortHandler {
						panic(p)
					}

					middleware.GetLogger(r.Context(), logger).Error("panic recovered",
						"panic", p,
						"method", r.Method,
						"path", r.URL.Path,
						"stack", string(debug.Stack()),
					)
					if handler.AcceptsJSON(r) {
						handler.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": panicMessage})
						return
					}
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
