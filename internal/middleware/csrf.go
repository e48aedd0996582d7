package middleware

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"strings"
)

const (
	csrfTokenLength = 32

	// CSRFHeaderName carries the token on fetch requests from admin pages.
	CSRFHeaderName = "X-CSRF-Token"

	// CSRFFormField carries the token in admin form posts.
	CSRFFormField = "csrf_token"

	csrfContextKey contextKey = "csrf_token"

	// csrfMultipartMemory bounds the in-memory part of a multipart form
	// parsed for its token; larger parts spill to disk.
	csrfMultipartMemory = 8 << 20
)

// CSRF protects admin forms with a synchronizer token kept in the admin
// session. Safe methods get a token issued when the session has none; unsafe
// methods must echo it in the X-CSRF-Token header or the csrf_token field.
func (m *SessionManager) CSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := m.session(r)

		token, _ := s.Values[sessionKeyCSRF].(string)
		if token == "" {
			var err error
			token, err = generateCSRFToken()
			if err != nil {
				respondInternalError(w, r, err)
				return
			}
			s.Values[sessionKeyCSRF] = token
			if err := s.Save(r, w); err != nil {
				respondInternalError(w, r, err)
				return
			}
		}

		r = r.WithContext(context.WithValue(r.Context(), csrfContextKey, token))

		if isSafeMethod(r.Method) {
			next.ServeHTTP(w, r)
			return
		}

		if !validCSRFToken(token, submittedCSRFToken(r)) {
			GetLogger(r.Context()).Warn("csrf token mismatch")
			respondForbidden(w, r)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// GetCSRFToken retrieves the CSRF token for templates:
// <input type="hidden" name="csrf_token" value="{{.CSRFToken}}">
func GetCSRFToken(ctx context.Context) string {
	token, _ := ctx.Value(csrfContextKey).(string)
	return token
}

func generateCSRFToken() (string, error) {
	b := make([]byte, csrfTokenLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func submittedCSRFToken(r *http.Request) string {
	if token := r.Header.Get(CSRFHeaderName); token != "" {
		return token
	}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(csrfMultipartMemory); err != nil {
			return ""
		}
	}
	return r.FormValue(CSRFFormField)
}

func validCSRFToken(expected, submitted string) bool {
	if expected == "" || submitted == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(submitted)) == 1
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}
