package routes

import (
	"net/http"

	"github.com/dukerupert/bakehouse/internal/handler/admin"
	"github.com/dukerupert/bakehouse/internal/middleware"
)

// StorefrontDeps contains dependencies for public routes
type StorefrontDeps struct {
	HomeHandler    http.Handler
	ContactHandler http.Handler

	// ContactLimiter throttles contact submissions per client IP.
	ContactLimiter *middleware.RateLimiter
}

// AdminDeps contains dependencies for admin routes
type AdminDeps struct {
	Sessions *middleware.SessionManager

	LoginHandler   *admin.LoginHandler
	ProductHandler *admin.ProductHandler

	// LoginLimiter throttles sign-in attempts per client IP.
	LoginLimiter *middleware.RateLimiter
}
