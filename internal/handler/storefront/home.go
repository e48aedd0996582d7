package storefront

import (
	"context"
	"net/http"

	"github.com/dukerupert/bakehouse/internal/handler"
	"github.com/dukerupert/bakehouse/internal/service"
)

// Catalog assembles the public product listing.
type Catalog interface {
	Assemble(ctx context.Context) service.StorefrontView
}

// HomeHandler handles the storefront homepage
type HomeHandler struct {
	catalog   Catalog
	renderer  *handler.Renderer
	storeName string
}

// NewHomeHandler creates a new home handler
func NewHomeHandler(catalog Catalog, renderer *handler.Renderer, storeName string) *HomeHandler {
	return &HomeHandler{
		catalog:   catalog,
		renderer:  renderer,
		storeName: storeName,
	}
}

// HomePageData contains data for the home page template
type HomePageData struct {
	Title       string
	StoreName   string
	View        service.StorefrontView
	ContactSent bool
}

// ServeHTTP handles GET /. A catalog read failure still renders the page,
// with the empty state.
func (h *HomeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		handler.NotFoundResponse(w, r)
		return
	}

	data := HomePageData{
		StoreName:   h.storeName,
		View:        h.catalog.Assemble(r.Context()),
		ContactSent: r.URL.Query().Get("contact") == "sent",
	}

	w.Header().Set("Cache-Control", "no-store")
	h.renderer.RenderHTTP(w, "home", data)
}
