package handler

import (
	"context"
	"net/http"
	"time"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health answers GET /health. With a database configured it is pinged and a
// failure answers 503.
func Health(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := map[string]string{"status": "ok"}
		code := http.StatusOK

		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				status["status"] = "unavailable"
				status["database"] = "unreachable"
				code = http.StatusServiceUnavailable
			} else {
				status["database"] = "ok"
			}
		}

		WriteJSON(w, code, status)
	}
}
