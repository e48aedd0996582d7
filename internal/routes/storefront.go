package routes

import (
	"github.com/dukerupert/bakehouse/internal/middleware"
	"github.com/dukerupert/bakehouse/internal/router"
)

// contactMaxBodySize bounds a contact submission.
const contactMaxBodySize = 64 * middleware.KB

// RegisterStorefrontRoutes registers the public storefront routes.
func RegisterStorefrontRoutes(r *router.Router, deps StorefrontDeps) {
	public := r.Group(middleware.Timeout(middleware.DefaultTimeout))

	public.Get("/{$}", deps.HomeHandler.ServeHTTP)

	contact := public.Group(
		deps.ContactLimiter.Middleware,
		middleware.MaxBodySize(contactMaxBodySize),
	)
	contact.Post("/api/contact", deps.ContactHandler.ServeHTTP)
}
