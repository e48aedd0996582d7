package service

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/dukerupert/bakehouse/internal/domain"
	"github.com/dukerupert/bakehouse/internal/telemetry"
	"github.com/dukerupert/bakehouse/internal/validation"
)

// PlaceholderImage is shown for products without a usable image.
const PlaceholderImage = "/static/img/placeholder.svg"

const summaryLength = 100

// ProductCard is a product prepared for the storefront grid.
type ProductCard struct {
	domain.Product

	ImageSrc string
	// HasImage is false when ImageSrc is the placeholder.
	HasImage bool
	Price    string
	Summary  string
	Badges   []string
}

// StorefrontView is everything the home page renders.
type StorefrontView struct {
	Featured []ProductCard
	Products []ProductCard

	// ShowFeatured is false when no active product is featured; the page
	// then omits the featured section entirely.
	ShowFeatured bool
	// Empty is true when there are no active products.
	Empty bool
	// Degraded is set when the catalog could not be read.
	Degraded bool
}

// StorefrontService assembles the public catalog.
type StorefrontService struct {
	products domain.ProductRepository
	logger   *slog.Logger
	metrics  *telemetry.BusinessMetrics
}

func NewStorefrontService(products domain.ProductRepository, logger *slog.Logger, metrics *telemetry.BusinessMetrics) *StorefrontService {
	if logger == nil {
		logger = slog.Default()
	}
	return &StorefrontService{products: products, logger: logger, metrics: metrics}
}

// Assemble reads active products and splits out the featured ones. A read
// failure yields an empty, degraded view instead of an error so the page
// still renders.
func (s *StorefrontService) Assemble(ctx context.Context) StorefrontView {
	products, err := s.products.List(ctx, domain.ProductFilter{ActiveOnly: true})
	if err != nil {
		s.logger.ErrorContext(ctx, "storefront catalog read failed", "error", err)
		telemetry.CaptureErrorFromContext(ctx, err, map[string]interface{}{"op": "storefront.assemble"})
		s.metrics.StorefrontRender(telemetry.ResultDegraded)
		return StorefrontView{
			Featured: []ProductCard{},
			Products: []ProductCard{},
			Empty:    true,
			Degraded: true,
		}
	}

	view := StorefrontView{
		Featured: []ProductCard{},
		Products: make([]ProductCard, 0, len(products)),
	}
	for _, p := range products {
		// The repository filters already; inactive rows never reach a visitor.
		if !p.IsActive {
			continue
		}
		card := NewProductCard(p)
		view.Products = append(view.Products, card)
		if p.IsFeatured {
			view.Featured = append(view.Featured, card)
		}
	}

	view.ShowFeatured = len(view.Featured) > 0
	view.Empty = len(view.Products) == 0
	s.metrics.StorefrontRender(telemetry.ResultOK)
	return view
}

// NewProductCard computes the display fields for p.
func NewProductCard(p domain.Product) ProductCard {
	src, ok := SafeImageURL(p.ImageURL)

	var badges []string
	if p.AvailableFrozen {
		badges = append(badges, "Frozen Dough")
	}
	if p.AvailableBaked {
		badges = append(badges, "Fresh Baked")
	}
	if p.HasPecanOption {
		badges = append(badges, "Pecan Option")
	}

	return ProductCard{
		Product:  p,
		ImageSrc: src,
		HasImage: ok,
		Price:    "$" + validation.FormatPrice(p.PriceCents),
		Summary:  Truncate(p.Description, summaryLength),
		Badges:   badges,
	}
}

// SafeImageURL returns raw when it is a rooted path or an absolute http(s)
// URL, and the placeholder otherwise.
func SafeImageURL(raw *string) (string, bool) {
	if raw == nil {
		return PlaceholderImage, false
	}
	s := strings.TrimSpace(*raw)
	if s == "" {
		return PlaceholderImage, false
	}

	u, err := url.Parse(s)
	if err != nil {
		return PlaceholderImage, false
	}

	switch {
	case u.Scheme == "" && u.Host == "" && validation.SitePath(s):
		return s, true
	case (u.Scheme == "http" || u.Scheme == "https") && u.Host != "":
		return s, true
	default:
		return PlaceholderImage, false
	}
}

// Truncate shortens s to at most n runes, ending in "..." when cut.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimRight(string(r[:n]), " ") + "..."
}
