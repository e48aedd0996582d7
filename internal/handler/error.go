package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"github.com/dukerupert/bakehouse/internal/domain"
	"github.com/dukerupert/bakehouse/internal/middleware"
	"github.com/dukerupert/bakehouse/internal/telemetry"
)

// ErrorCodeToHTTPStatus maps domain error codes to HTTP status codes.
func ErrorCodeToHTTPStatus(code string) int {
	switch code {
	case domain.EINVALID:
		return http.StatusBadRequest
	case domain.EUNAUTHORIZED:
		return http.StatusUnauthorized
	case domain.EFORBIDDEN:
		return http.StatusForbidden
	case domain.ENOTFOUND:
		return http.StatusNotFound
	case domain.ECONFLICT:
		return http.StatusConflict
	case domain.ETOOLARGE:
		return http.StatusRequestEntityTooLarge
	case domain.ERATELIMIT:
		return http.StatusTooManyRequests
	case domain.EUNAVAILABLE:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// errorBody is the JSON envelope for every admin error response.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// ErrorResponse logs err and writes it as JSON or plain text depending on
// what the client accepts. Internal details never reach the client.
func ErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	code := domain.ErrorCode(err)
	status := ErrorCodeToHTTPStatus(code)
	message := domain.ErrorMessage(err)

	logError(r, err, code, status)

	if AcceptsJSON(r) {
		WriteJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
		return
	}
	http.Error(w, message, status)
}

// ValidationErrorResponse writes the field map of a ValidationError. Other
// errors fall through to ErrorResponse.
func ValidationErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	fields := domain.GetValidationFields(err)
	if fields == nil {
		ErrorResponse(w, r, err)
		return
	}

	logError(r, err, domain.EINVALID, http.StatusBadRequest)

	if AcceptsJSON(r) {
		WriteJSON(w, http.StatusBadRequest, errorBody{Error: errorDetail{
			Code:    domain.EINVALID,
			Message: domain.ErrorMessage(err),
			Fields:  fields,
		}})
		return
	}

	names := make([]string, 0, len(fields))
	for field := range fields {
		names = append(names, field)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(domain.ErrorMessage(err))
	for _, field := range names {
		fmt.Fprintf(&b, "\n%s: %s", field, fields[field])
	}
	http.Error(w, b.String(), http.StatusBadRequest)
}

func NotFoundResponse(w http.ResponseWriter, r *http.Request) {
	ErrorResponse(w, r, domain.Errorf(domain.ENOTFOUND, "", "The requested page was not found"))
}

// InternalErrorResponse reports err to Sentry and answers 500.
func InternalErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		telemetry.CaptureErrorFromContext(r.Context(), err, map[string]interface{}{"path": r.URL.Path})
	}
	ErrorResponse(w, r, domain.Internal(err, "", "unexpected error"))
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Warn("failed to encode JSON response", "error", err)
	}
}

// AcceptsJSON reports whether the client wants a JSON answer.
func AcceptsJSON(r *http.Request) bool {
	return acceptsJSON(r)
}

func acceptsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return true
	}
	return strings.HasSuffix(r.URL.Path, ".json")
}

func logError(r *http.Request, err error, code string, status int) {
	logger := middleware.GetLogger(r.Context())
	attrs := []any{
		"error", err,
		"code", code,
		"op", domain.ErrorOp(err),
		"status", status,
	}
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request failed", attrs...)
		return
	}
	logger.InfoContext(r.Context(), "request rejected", attrs...)
}
