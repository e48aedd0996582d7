package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dukerupert/bakehouse/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type jsonError struct {
	Error struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	} `json:"error"`
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) jsonError {
	t.Helper()
	var body jsonError
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func jsonRequest(method string) *http.Request {
	req := httptest.NewRequest(method, "/admin/products", nil)
	req.Header.Set("Accept", "application/json")
	return req
}

func TestErrorCodeToHTTPStatus(t *testing.T) {
	tests := map[string]int{
		domain.EINVALID:      http.StatusBadRequest,
		domain.EUNAUTHORIZED: http.StatusUnauthorized,
		domain.EFORBIDDEN:    http.StatusForbidden,
		domain.ENOTFOUND:     http.StatusNotFound,
		domain.ECONFLICT:     http.StatusConflict,
		domain.ETOOLARGE:     http.StatusRequestEntityTooLarge,
		domain.EUNAVAILABLE:  http.StatusServiceUnavailable,
		domain.ERATELIMIT:    http.StatusTooManyRequests,
		domain.EINTERNAL:     http.StatusInternalServerError,
		"unknown_code":       http.StatusInternalServerError,
	}
	for code, want := range tests {
		assert.Equal(t, want, ErrorCodeToHTTPStatus(code), code)
	}
}

func TestErrorResponse_JSON(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{"missing product", domain.ErrProductNotFound, http.StatusNotFound, domain.ENOTFOUND, "Product not found"},
		{"unknown toggle", domain.Invalid("product.toggle", "Unknown toggle field"), http.StatusBadRequest, domain.EINVALID, "Unknown toggle field"},
		{"store down", domain.Unavailable(errors.New("dial tcp"), "product.update", "Could not save the product. Please try again."), http.StatusServiceUnavailable, domain.EUNAVAILABLE, "Could not save the product. Please try again."},
		{"busy row", domain.Conflict("product.toggle", "This product is already being updated"), http.StatusConflict, domain.ECONFLICT, "This product is already being updated"},
		{"wrapped not found", errors.Join(errors.New("edit"), domain.ErrProductNotFound), http.StatusNotFound, domain.ENOTFOUND, "Product not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			ErrorResponse(rec, jsonRequest(http.MethodPost), tt.err)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			body := decodeError(t, rec)
			assert.Equal(t, tt.code, body.Error.Code)
			assert.Equal(t, tt.message, body.Error.Message)
		})
	}
}

func TestErrorResponse_PlainText(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/admin/products/x/edit", nil)
	req.Header.Set("Accept", "text/html")
	rec := httptest.NewRecorder()

	ErrorResponse(rec, req, domain.ErrProductNotFound)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Product not found\n", rec.Body.String())
}

func TestErrorResponse_InternalHidesDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	err := domain.Internal(errors.New("password authentication failed for user bakehouse"), "product.list", "query products")

	ErrorResponse(rec, jsonRequest(http.MethodGet), err)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "An internal error occurred. Please try again later.", body.Error.Message)
	assert.NotContains(t, body.Error.Message, "bakehouse")
}

func TestValidationErrorResponse(t *testing.T) {
	err := domain.NewValidationError("product.validate", "name", "Name is required")
	err = domain.AddFieldError(err, "price", "Price cannot be negative")

	t.Run("json carries fields", func(t *testing.T) {
		rec := httptest.NewRecorder()
		ValidationErrorResponse(rec, jsonRequest(http.MethodPost), err)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		body := decodeError(t, rec)
		assert.Equal(t, domain.EINVALID, body.Error.Code)
		assert.Equal(t, map[string]string{
			"name":  "Name is required",
			"price": "Price cannot be negative",
		}, body.Error.Fields)
	})

	t.Run("plain text lists fields in order", func(t *testing.T) {
		rec := httptest.NewRecorder()
		ValidationErrorResponse(rec, httptest.NewRequest(http.MethodPost, "/admin/products/new", nil), err)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Please correct the highlighted fields.\nname: Name is required\nprice: Price cannot be negative\n", rec.Body.String())
	})

	t.Run("other errors fall through", func(t *testing.T) {
		rec := httptest.NewRecorder()
		ValidationErrorResponse(rec, jsonRequest(http.MethodPost), domain.ErrProductNotFound)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestConvenienceResponses(t *testing.T) {
	tests := []struct {
		name   string
		write  func(http.ResponseWriter, *http.Request)
		status int
	}{
		{"not found", NotFoundResponse, http.StatusNotFound},
		{"internal", func(w http.ResponseWriter, r *http.Request) { InternalErrorResponse(w, r, nil) }, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.write(rec, jsonRequest(http.MethodGet))
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestAcceptsJSON(t *testing.T) {
	tests := []struct {
		name        string
		accept      string
		contentType string
		path        string
		want        bool
	}{
		{name: "accept header", accept: "application/json", path: "/admin/products", want: true},
		{name: "accept with charset", accept: "application/json; charset=utf-8", path: "/admin/products", want: true},
		{name: "json body", contentType: "application/json", path: "/api/contact", want: true},
		{name: "json suffix", path: "/admin/products.json", want: true},
		{name: "browser", accept: "text/html,application/xhtml+xml", path: "/admin/products"},
		{name: "no headers", path: "/admin/products"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.accept != "" {
				req.Header.Set("Accept", tt.accept)
			}
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			assert.Equal(t, tt.want, AcceptsJSON(req))
		})
	}
}
