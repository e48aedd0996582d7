// Package domain holds the catalog and intake types shared by every layer,
// the repository contracts, coded errors and request-scoped context helpers.
package domain

import (
	"context"
	"time"
)

type contextKey int

const (
	adminContextKey contextKey = iota
	requestIDContextKey
)

// Admin is the authenticated storefront administrator. There is only one.
type Admin struct {
	Email    string
	LoggedIn time.Time
}

// NewContextWithAdmin returns a context carrying the authenticated admin.
func NewContextWithAdmin(ctx context.Context, admin *Admin) context.Context {
	return context.WithValue(ctx, adminContextKey, admin)
}

// AdminFromContext returns the admin, or nil for anonymous requests.
func AdminFromContext(ctx context.Context) *Admin {
	admin, _ := ctx.Value(adminContextKey).(*Admin)
	return admin
}

// IsAuthenticated reports whether ctx belongs to an authenticated admin.
func IsAuthenticated(ctx context.Context) bool {
	return AdminFromContext(ctx) != nil
}

func NewContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDContextKey, requestID)
}

// RequestIDFromContext returns the request ID, or "" when none is set.
func RequestIDFromContext(ctx context.Context) string {
	requestID, _ := ctx.Value(requestIDContextKey).(string)
	return requestID
}
