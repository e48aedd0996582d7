package routes

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/dukerupert/bakehouse/internal/auth"
	"github.com/dukerupert/bakehouse/internal/handler"
	"github.com/dukerupert/bakehouse/internal/handler/admin"
	"github.com/dukerupert/bakehouse/internal/handler/storefront"
	"github.com/dukerupert/bakehouse/internal/memory"
	"github.com/dukerupert/bakehouse/internal/middleware"
	"github.com/dukerupert/bakehouse/internal/router"
	"github.com/dukerupert/bakehouse/internal/service"
	"github.com/dukerupert/bakehouse/internal/storage"
	"github.com/dukerupert/bakehouse/web"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var csrfPattern = regexp.MustCompile(`name="csrf_token" value="([^"]+)"`)

type site struct {
	server   *httptest.Server
	client   *http.Client
	products *memory.ProductStore
	contacts *memory.ContactStore
}

func newSite(t *testing.T) *site {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	products := memory.NewProductStore()
	contacts := memory.NewContactStore()
	st, err := storage.NewLocalStorage(t.TempDir(), "/uploads")
	require.NoError(t, err)

	renderer, err := handler.NewRenderer(web.Templates(), logger)
	require.NoError(t, err)
	sessions, err := middleware.NewSessionManager(middleware.SessionConfig{Secret: "test-secret", MaxAge: time.Hour})
	require.NoError(t, err)
	verifier, err := auth.NewAuthenticator("jen@example.com", "sticky-buns-42", "")
	require.NoError(t, err)

	contactLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{RequestsPerSecond: 1, BurstSize: 2})
	loginLimiter := middleware.NewRateLimiter(middleware.LoginRateLimiterConfig())
	t.Cleanup(contactLimiter.Stop)
	t.Cleanup(loginLimiter.Stop)

	r := router.New(
		router.Recovery(logger),
		middleware.RequestID,
		sessions.WithAdmin,
		middleware.WithRequestLogger(logger),
		middleware.AccessLog,
	)

	RegisterStorefrontRoutes(r, StorefrontDeps{
		HomeHandler:    storefront.NewHomeHandler(service.NewStorefrontService(products, logger, nil), renderer, "Bakehouse"),
		ContactHandler: storefront.NewContactHandler(service.NewContactService(contacts, nil, service.ContactConfig{}, logger, nil)),
		ContactLimiter: contactLimiter,
	})
	RegisterAdminRoutes(r, AdminDeps{
		Sessions:     sessions,
		LoginHandler: admin.NewLoginHandler(verifier, sessions, renderer, nil),
		ProductHandler: admin.NewProductHandler(
			service.NewCatalogService(products, logger, nil),
			service.NewImageService(st, products, "", logger, nil),
			renderer,
		),
		LoginLimiter: loginLimiter,
	})

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	return &site{server: server, client: client, products: products, contacts: contacts}
}

func (s *site) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	resp, err := s.client.Get(s.server.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func (s *site) post(t *testing.T, path string, form url.Values) *http.Response {
	t.Helper()
	resp, err := s.client.PostForm(s.server.URL+path, form)
	require.NoError(t, err)
	resp.Body.Close()
	return resp
}

func csrfToken(t *testing.T, body string) string {
	t.Helper()
	m := csrfPattern.FindStringSubmatch(body)
	require.Len(t, m, 2, "no csrf token in page")
	return m[1]
}

func (s *site) login(t *testing.T) {
	t.Helper()
	_, body := s.get(t, "/admin/login")
	resp := s.post(t, "/admin/login", url.Values{
		"csrf_token": {csrfToken(t, body)},
		"email":      {"jen@example.com"},
		"password":   {"sticky-buns-42"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/admin/products", resp.Header.Get("Location"))
}

func TestAdminRequiresSignIn(t *testing.T) {
	s := newSite(t)

	resp, _ := s.get(t, "/admin/products")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/admin/login?next=%2Fadmin%2Fproducts", resp.Header.Get("Location"))

	_, body := s.get(t, "/admin/login")
	resp = s.post(t, "/admin/products/new", url.Values{"csrf_token": {csrfToken(t, body)}, "name": {"x"}})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Empty(t, s.products.All())
}

func TestAdminRejectsMissingCSRFToken(t *testing.T) {
	s := newSite(t)
	s.login(t)

	resp := s.post(t, "/admin/products/new", url.Values{"name": {"Forged"}})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Empty(t, s.products.All())
}

func TestAdminProductLifecycle(t *testing.T) {
	s := newSite(t)
	s.login(t)

	resp, body := s.get(t, "/admin/products/new")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token := csrfToken(t, body)

	resp = s.post(t, "/admin/products/new", url.Values{
		"csrf_token":  {token},
		"form_token":  {"form-1"},
		"name":        {"Peanut Butter Blossom"},
		"price":       {"22.00"},
		"batch_size":  {"12"},
		"is_active":   {"on"},
		"is_featured": {"on"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Len(t, s.products.All(), 1)
	id := s.products.All()[0].ID.String()

	_, home := s.get(t, "/")
	assert.Contains(t, home, "Peanut Butter Blossom")
	assert.Contains(t, home, "Featured Selections")

	req, err := http.NewRequest(http.MethodPost, s.server.URL+"/admin/products/"+id+"/toggle/active", nil)
	require.NoError(t, err)
	req.Header.Set("Accept", "application/json")
	req.Header.Set(middleware.CSRFHeaderName, token)
	toggled, err := s.client.Do(req)
	require.NoError(t, err)
	toggled.Body.Close()
	assert.Equal(t, http.StatusOK, toggled.StatusCode)

	_, home = s.get(t, "/")
	assert.NotContains(t, home, "Peanut Butter Blossom")
	assert.Contains(t, home, "No products available at the moment")

	resp = s.post(t, "/admin/products/"+id+"/delete", url.Values{"csrf_token": {token}})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Empty(t, s.products.All())
}

func TestContactRoute(t *testing.T) {
	s := newSite(t)

	post := func() *http.Response {
		resp, err := s.client.Post(s.server.URL+"/api/contact", "application/json",
			strings.NewReader(`{"name":"Ada","email":"ada@example.com","message":"hi"}`))
		require.NoError(t, err)
		resp.Body.Close()
		return resp
	}

	assert.Equal(t, http.StatusOK, post().StatusCode)
	assert.Equal(t, http.StatusOK, post().StatusCode)
	assert.Equal(t, http.StatusTooManyRequests, post().StatusCode)
	assert.Len(t, s.contacts.All(), 2)
}

func TestUnknownPath(t *testing.T) {
	s := newSite(t)

	resp, _ := s.get(t, "/nope")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
