package middleware

import (
	"net/http"
	"strconv"
	"strings"
)

// SecurityHeadersConfig configures security headers
type SecurityHeadersConfig struct {
	// ContentSecurityPolicy is sent as-is. Empty disables the header.
	ContentSecurityPolicy string
	FrameOptions          string
	ReferrerPolicy        string
	PermissionsPolicy     string
	// HSTSMaxAge in seconds; 0 disables Strict-Transport-Security.
	HSTSMaxAge int
}

// DefaultSecurityHeadersConfig returns the production header set. imageHosts
// are extra origins product images may load from, such as the public bucket
// URL.
func DefaultSecurityHeadersConfig(imageHosts ...string) SecurityHeadersConfig {
	img := []string{"'self'", "data:"}
	for _, h := range imageHosts {
		if h = strings.TrimSpace(h); h != "" {
			img = append(img, h)
		}
	}

	csp := strings.Join([]string{
		"default-src 'self'",
		"script-src 'self' 'unsafe-inline'",
		"style-src 'self' 'unsafe-inline'",
		"img-src " + strings.Join(img, " "),
		"connect-src 'self'",
		"frame-ancestors 'none'",
		"base-uri 'self'",
		"form-action 'self'",
	}, "; ")

	return SecurityHeadersConfig{
		ContentSecurityPolicy: csp,
		FrameOptions:          "DENY",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		PermissionsPolicy:     "camera=(), microphone=(), geolocation=(), payment=()",
		HSTSMaxAge:            31536000,
	}
}

// SecurityHeaders adds security headers to all responses
func SecurityHeaders(config SecurityHeadersConfig) func(http.Handler) http.Handler {
	headers := map[string]string{
		"X-Content-Type-Options": "nosniff",
	}
	if config.FrameOptions != "" {
		headers["X-Frame-Options"] = config.FrameOptions
	}
	if config.ReferrerPolicy != "" {
		headers["Referrer-Policy"] = config.ReferrerPolicy
	}
	if config.ContentSecurityPolicy != "" {
		headers["Content-Security-Policy"] = config.ContentSecurityPolicy
	}
	if config.PermissionsPolicy != "" {
		headers["Permissions-Policy"] = config.PermissionsPolicy
	}
	if config.HSTSMaxAge > 0 {
		headers["Strict-Transport-Security"] = "max-age=" + strconv.Itoa(config.HSTSMaxAge) + "; includeSubDomains"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for k, v := range headers {
				w.Header().Set(k, v)
			}
			next.ServeHTTP(w, r)
		})
	}
}
