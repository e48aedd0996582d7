package middleware

import (
	"context"
	"crypto/sha256"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/dukerupert/bakehouse/internal/domain"
	"github.com/gorilla/sessions"
)

const (
	// SessionName is the admin session cookie.
	SessionName = "bakehouse_admin"

	sessionKeyEmail    = "admin_email"
	sessionKeyLoggedIn = "logged_in"
	sessionKeyCSRF     = "csrf_token"

	// LoginPath is where unauthenticated admin requests are sent.
	LoginPath = "/admin/login"
)

// SessionConfig configures the admin session cookie.
type SessionConfig struct {
	Secret string
	MaxAge time.Duration
	Secure bool
}

// SessionManager keeps the single administrator's sign-in state in a signed
// and encrypted cookie.
type SessionManager struct {
	store *sessions.CookieStore
}

// NewSessionManager derives the cookie signing and encryption keys from
// cfg.Secret.
func NewSessionManager(cfg SessionConfig) (*SessionManager, error) {
	if cfg.Secret == "" {
		return nil, errors.New("session secret is required")
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = 12 * time.Hour
	}

	hashKey := sha256.Sum256([]byte("bakehouse-session-auth:" + cfg.Secret))
	blockKey := sha256.Sum256([]byte("bakehouse-session-enc:" + cfg.Secret))

	store := sessions.NewCookieStore(hashKey[:], blockKey[:])
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}

	return &SessionManager{store: store}, nil
}

// session returns the request's admin session. A cookie that fails to
// decode yields a fresh session.
func (m *SessionManager) session(r *http.Request) *sessions.Session {
	s, err := m.store.Get(r, SessionName)
	if err != nil {
		s, _ = m.store.New(r, SessionName)
	}
	return s
}

// Login records email as signed in and rotates the CSRF token.
func (m *SessionManager) Login(w http.ResponseWriter, r *http.Request, email string) error {
	s := m.session(r)
	token, err := generateCSRFToken()
	if err != nil {
		return err
	}

	s.Values[sessionKeyEmail] = email
	s.Values[sessionKeyLoggedIn] = time.Now().Unix()
	s.Values[sessionKeyCSRF] = token
	return s.Save(r, w)
}

// Logout expires the session cookie.
func (m *SessionManager) Logout(w http.ResponseWriter, r *http.Request) error {
	s := m.session(r)
	s.Values = map[interface{}]interface{}{}
	s.Options.MaxAge = -1
	return s.Save(r, w)
}

// WithAdmin attaches the signed-in admin, if any, to the request context. It
// never rejects a request.
func (m *SessionManager) WithAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := m.session(r)
		email, _ := s.Values[sessionKeyEmail].(string)
		if email == "" {
			next.ServeHTTP(w, r)
			return
		}

		admin := &domain.Admin{Email: email}
		if ts, ok := s.Values[sessionKeyLoggedIn].(int64); ok {
			admin.LoggedIn = time.Unix(ts, 0)
		}

		ctx := domain.NewContextWithAdmin(r.Context(), admin)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin rejects anonymous requests. Browsers are sent to the login
// page with a return path; JSON clients get 401.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if domain.IsAuthenticated(r.Context()) {
			next.ServeHTTP(w, r)
			return
		}

		if acceptsJSON(r) || r.Method != http.MethodGet {
			respondUnauthorized(w, r)
			return
		}

		returnTo := r.URL.Path
		if r.URL.RawQuery != "" {
			returnTo += "?" + r.URL.RawQuery
		}
		http.Redirect(w, r, LoginPath+"?next="+url.QueryEscape(returnTo), http.StatusSeeOther)
	})
}

// GetAdmin returns the signed-in admin, or nil.
func GetAdmin(ctx context.Context) *domain.Admin {
	return domain.AdminFromContext(ctx)
}
