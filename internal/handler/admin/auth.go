package admin

import (
	"net/http"
	"strings"

	"github.com/dukerupert/bakehouse/internal/domain"
	"github.com/dukerupert/bakehouse/internal/handler"
	"github.com/dukerupert/bakehouse/internal/middleware"
	"github.com/dukerupert/bakehouse/internal/telemetry"
)

// Verifier checks admin credentials and returns the canonical email.
type Verifier interface {
	Verify(email, password string) (string, error)
}

// Sessions signs the admin in and out.
type Sessions interface {
	Login(w http.ResponseWriter, r *http.Request, email string) error
	Logout(w http.ResponseWriter, r *http.Request) error
}

// LoginHandler handles the admin login page and form submission
type LoginHandler struct {
	verifier Verifier
	sessions Sessions
	renderer *handler.Renderer
	metrics  *telemetry.BusinessMetrics
}

// NewLoginHandler creates a new admin login handler
func NewLoginHandler(verifier Verifier, sessions Sessions, renderer *handler.Renderer, metrics *telemetry.BusinessMetrics) *LoginHandler {
	return &LoginHandler{
		verifier: verifier,
		sessions: sessions,
		renderer: renderer,
		metrics:  metrics,
	}
}

// ShowForm handles GET /admin/login
func (h *LoginHandler) ShowForm(w http.ResponseWriter, r *http.Request) {
	if domain.IsAuthenticated(r.Context()) {
		http.Redirect(w, r, safeNext(r.URL.Query().Get("next")), http.StatusSeeOther)
		return
	}
	h.showFormWithError(w, r, http.StatusOK, "", "", r.URL.Query().Get("next"))
}

func (h *LoginHandler) showFormWithError(w http.ResponseWriter, r *http.Request, status int, formError, email, next string) {
	data := handler.PageData(r, "Sign in")
	data["Error"] = formError
	data["Email"] = email
	data["Next"] = next

	h.renderer.RenderStatus(w, "admin/login", status, data)
}

// HandleSubmit handles POST /admin/login
func (h *LoginHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context())

	if err := r.ParseForm(); err != nil {
		h.showFormWithError(w, r, http.StatusBadRequest, "Invalid form data", "", "")
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	next := r.FormValue("next")

	if email == "" || password == "" {
		h.showFormWithError(w, r, http.StatusBadRequest, "Email and password are required", email, next)
		return
	}

	ipAddress := middleware.GetClientIP(r)

	adminEmail, err := h.verifier.Verify(email, password)
	if err != nil {
		if domain.ErrorCode(err) != domain.EUNAUTHORIZED {
			h.metrics.AdminLogin(telemetry.ResultFailed)
			handler.InternalErrorResponse(w, r, err)
			return
		}

		h.metrics.AdminLogin(telemetry.ResultRejected)
		logger.Warn("admin: login failed",
			"email", email,
			"ip", ipAddress,
			"user_agent", r.UserAgent(),
		)
		h.showFormWithError(w, r, http.StatusUnauthorized, "Invalid email or password", email, next)
		return
	}

	if err := h.sessions.Login(w, r, adminEmail); err != nil {
		h.metrics.AdminLogin(telemetry.ResultFailed)
		handler.InternalErrorResponse(w, r, err)
		return
	}

	h.metrics.AdminLogin(telemetry.ResultOK)
	logger.Info("admin: login successful",
		"email", adminEmail,
		"ip", ipAddress,
	)

	http.Redirect(w, r, safeNext(next), http.StatusSeeOther)
}

// Logout handles POST /admin/logout
func (h *LoginHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Logout(w, r); err != nil {
		middleware.GetLogger(r.Context()).Warn("admin: failed to clear session", "error", err)
	}
	http.Redirect(w, r, middleware.LoginPath, http.StatusSeeOther)
}

// safeNext keeps post-login redirects inside the admin area.
func safeNext(next string) string {
	if strings.HasPrefix(next, "/admin/") && !strings.HasPrefix(next, "//") && !strings.Contains(next, "\\") && next != middleware.LoginPath {
		return next
	}
	return productsPath
}
