package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dukerupert/bakehouse/internal/domain"
	"github.com/dukerupert/bakehouse/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorefrontService_Assemble(t *testing.T) {
	repo := newMockProductRepo()
	createProduct(t, repo, "Hidden Featured", func(in *domain.ProductInput) {
		in.IsActive = false
		in.IsFeatured = true
	})
	createProduct(t, repo, "Sticky Buns", func(in *domain.ProductInput) {
		in.IsFeatured = true
		in.SortOrder = 2
	})
	createProduct(t, repo, "Cinnamon Rolls", func(in *domain.ProductInput) { in.SortOrder = 1 })

	view := NewStorefrontService(repo, nil, nil).Assemble(context.Background())

	assert.False(t, view.Degraded)
	assert.False(t, view.Empty)
	assert.True(t, view.ShowFeatured)

	require.Len(t, view.Products, 2)
	assert.Equal(t, "Cinnamon Rolls", view.Products[0].Name)
	assert.Equal(t, "Sticky Buns", view.Products[1].Name)

	require.Len(t, view.Featured, 1)
	assert.Equal(t, "Sticky Buns", view.Featured[0].Name)
}

func TestStorefrontService_NoFeatured(t *testing.T) {
	repo := newMockProductRepo()
	createProduct(t, repo, "Rolls", nil)

	view := NewStorefrontService(repo, nil, nil).Assemble(context.Background())
	assert.False(t, view.ShowFeatured)
	assert.NotNil(t, view.Featured)
	assert.Len(t, view.Products, 1)
}

func TestStorefrontService_Empty(t *testing.T) {
	repo := newMockProductRepo()
	createProduct(t, repo, "Off", func(in *domain.ProductInput) { in.IsActive = false })

	view := NewStorefrontService(repo, nil, nil).Assemble(context.Background())
	assert.True(t, view.Empty)
	assert.False(t, view.Degraded)
	assert.Empty(t, view.Products)
}

func TestStorefrontService_IgnoresInactiveRowsFromRepository(t *testing.T) {
	repo := newMockProductRepo()
	repo.listFunc = func(context.Context, domain.ProductFilter) ([]domain.Product, error) {
		return []domain.Product{{Name: "Leaked", IsActive: false, IsFeatured: true}}, nil
	}

	view := NewStorefrontService(repo, nil, nil).Assemble(context.Background())
	assert.True(t, view.Empty)
	assert.False(t, view.ShowFeatured)
}

func TestStorefrontService_Degraded(t *testing.T) {
	repo := newMockProductRepo()
	repo.listFunc = func(context.Context, domain.ProductFilter) ([]domain.Product, error) {
		return nil, domain.Unavailable(errors.New("db down"), "product.list", "Could not load products.")
	}
	metrics := telemetry.NewBusinessMetrics("test", prometheus.NewRegistry())

	view := NewStorefrontService(repo, nil, metrics).Assemble(context.Background())
	assert.True(t, view.Degraded)
	assert.True(t, view.Empty)
	assert.False(t, view.ShowFeatured)
	assert.NotNil(t, view.Products)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.StorefrontRenders.WithLabelValues(telemetry.ResultDegraded)))
}

func TestNewProductCard(t *testing.T) {
	img := "/uploads/products/1-abc-rolls.png"
	card := NewProductCard(domain.Product{
		Name:            "Rolls",
		Description:     strings.Repeat("a", 120),
		PriceCents:      2200,
		AvailableFrozen: true,
		HasPecanOption:  true,
		ImageURL:        &img,
	})

	assert.Equal(t, "$22.00", card.Price)
	assert.Equal(t, img, card.ImageSrc)
	assert.True(t, card.HasImage)
	assert.Equal(t, []string{"Frozen Dough", "Pecan Option"}, card.Badges)
	assert.Equal(t, strings.Repeat("a", 100)+"...", card.Summary)

	plain := NewProductCard(domain.Product{Name: "Plain", Description: "short"})
	assert.Equal(t, PlaceholderImage, plain.ImageSrc)
	assert.False(t, plain.HasImage)
	assert.Empty(t, plain.Badges)
	assert.Equal(t, "short", plain.Summary)
}

func TestSafeImageURL(t *testing.T) {
	str := func(s string) *string { return &s }
	tests := []struct {
		name string
		in   *string
		want string
		ok   bool
	}{
		{"nil", nil, PlaceholderImage, false},
		{"blank", str("  "), PlaceholderImage, false},
		{"rooted path", str("/uploads/products/a.jpg"), "/uploads/products/a.jpg", true},
		{"https", str("https://cdn.example.com/a.jpg"), "https://cdn.example.com/a.jpg", true},
		{"http", str("http://cdn.example.com/a.jpg"), "http://cdn.example.com/a.jpg", true},
		{"javascript", str("javascript:alert(1)"), PlaceholderImage, false},
		{"data uri", str("data:image/png;base64,AAAA"), PlaceholderImage, false},
		{"relative", str("uploads/a.jpg"), PlaceholderImage, false},
		{"scheme relative", str("//evil.example.com/a.jpg"), PlaceholderImage, false},
		{"backslash relative", str(`/\evil.example.com/a.jpg`), PlaceholderImage, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SafeImageURL(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "exactly10!", Truncate("exactly10!", 10))
	assert.Equal(t, "hello...", Truncate("hello world", 6))
	assert.Equal(t, "crème...", Truncate("crème brûlée", 5))
}
