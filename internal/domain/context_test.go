package domain

import (
	"context"
	"testing"
	"time"
)

func TestAdminContext(t *testing.T) {
	t.Run("anonymous context", func(t *testing.T) {
		ctx := context.Background()
		if AdminFromContext(ctx) != nil {
			t.Error("expected nil admin")
		}
		if IsAuthenticated(ctx) {
			t.Error("expected anonymous context to be unauthenticated")
		}
	})

	t.Run("admin attached", func(t *testing.T) {
		expected := &Admin{Email: "jen@example.com", LoggedIn: time.Now()}
		ctx := NewContextWithAdmin(context.Background(), expected)

		got := AdminFromContext(ctx)
		if got == nil {
			t.Fatal("expected admin, got nil")
		}
		if got.Email != expected.Email {
			t.Errorf("expected Email %q, got %q", expected.Email, got.Email)
		}
		if !IsAuthenticated(ctx) {
			t.Error("expected authenticated context")
		}
	})
}

func TestRequestIDContext(t *testing.T) {
	if id := RequestIDFromContext(context.Background()); id != "" {
		t.Errorf("expected empty request id, got %q", id)
	}

	ctx := NewContextWithRequestID(context.Background(), "req-123")
	if id := RequestIDFromContext(ctx); id != "req-123" {
		t.Errorf("expected req-123, got %q", id)
	}
}

func TestPreferredFormatDisplay(t *testing.T) {
	tests := map[PreferredFormat]string{
		FormatFrozen:      "Frozen Dough",
		FormatBaked:       "Fresh Baked",
		FormatEither:      "Either is fine",
		FormatUnspecified: "Not specified",
		"":                "Not specified",
	}
	for format, want := range tests {
		if got := format.Display(); got != want {
			t.Errorf("%q.Display() = %q, want %q", format, got, want)
		}
	}
}

func TestToggleFieldValid(t *testing.T) {
	if !ToggleActive.Valid() || !ToggleFeatured.Valid() {
		t.Error("active and featured must be valid toggles")
	}
	if ToggleField("pecan").Valid() {
		t.Error("pecan is not a toggle")
	}
}

func TestDefaultProductInput(t *testing.T) {
	in := DefaultProductInput()
	if in.PriceCents != 2000 || in.BatchSize != 12 {
		t.Errorf("unexpected defaults: price=%d batch=%d", in.PriceCents, in.BatchSize)
	}
	if !in.AvailableFrozen || !in.AvailableBaked || !in.IsActive || in.IsFeatured {
		t.Errorf("unexpected flag defaults: %+v", in)
	}
}
