package routes

import (
	"net/http"

	"github.com/dukerupert/bakehouse/internal/middleware"
	"github.com/dukerupert/bakehouse/internal/router"
)

// RegisterAdminRoutes registers the admin routes under /admin. Every admin
// route runs behind CSRF protection; all but sign-in require a signed-in
// admin. Body limits are applied before CSRF reads the form.
func RegisterAdminRoutes(r *router.Router, deps AdminDeps) {
	forms := r.Group(
		middleware.MaxBodySize(middleware.DefaultMaxBodySize),
		middleware.Timeout(middleware.DefaultTimeout),
		deps.Sessions.CSRF,
	)

	// Sign in and out
	forms.Get("/admin/login", deps.LoginHandler.ShowForm)
	forms.Post("/admin/login", deps.LoginHandler.HandleSubmit, deps.LoginLimiter.Middleware)
	forms.Post("/admin/logout", deps.LoginHandler.Logout)

	admin := forms.Group(middleware.RequireAdmin)

	admin.Get("/admin", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/admin/products", http.StatusSeeOther)
	})

	// Product management
	admin.Get("/admin/products", deps.ProductHandler.List)
	admin.Get("/admin/products/new", deps.ProductHandler.New)
	admin.Get("/admin/products/{id}/edit", deps.ProductHandler.Edit)
	admin.Post("/admin/products/{id}/toggle/{field}", deps.ProductHandler.Toggle)
	admin.Post("/admin/products/{id}/delete", deps.ProductHandler.Delete)
	admin.Delete("/admin/products/{id}", deps.ProductHandler.Delete)
	admin.Post("/admin/products/{id}/image/remove", deps.ProductHandler.RemoveImage)

	// Routes that may carry an image get the larger body and time limits.
	uploads := r.Group(
		middleware.MaxBodySize(middleware.UploadMaxBodySize),
		middleware.Timeout(middleware.UploadTimeout),
		deps.Sessions.CSRF,
		middleware.RequireAdmin,
	)

	uploads.Post("/admin/products/new", deps.ProductHandler.Create)
	uploads.Post("/admin/products/{id}/edit", deps.ProductHandler.Update)
	uploads.Post("/admin/products/{id}/image", deps.ProductHandler.AttachImage)
	uploads.Post("/admin/images", deps.ProductHandler.UploadImage)
}
