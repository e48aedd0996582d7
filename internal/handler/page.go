package handler

import (
	"net/http"

	"github.com/dukerupert/bakehouse/internal/middleware"
)

// Flash messages selected by the ?flash= query parameter after a redirect.
var flashMessages = map[string]string{
	"saved":   "Product saved.",
	"deleted": "Product deleted.",
	"updated": "Product updated.",
}

// PageData returns the values every admin page template expects.
func PageData(r *http.Request, title string) map[string]interface{} {
	return map[string]interface{}{
		"Title":       title,
		"CurrentPath": r.URL.Path,
		"CSRFToken":   middleware.GetCSRFToken(r.Context()),
		"Admin":       middleware.GetAdmin(r.Context()),
		"Flash":       flashMessages[r.URL.Query().Get("flash")],
	}
}
