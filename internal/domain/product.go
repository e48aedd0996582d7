package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// PRODUCT DOMAIN TYPES
// =============================================================================

// Product is a bakery catalog item. Prices are held in minor currency units.
type Product struct {
	ID          uuid.UUID
	Name        string
	Description string
	PriceCents  int64
	BatchSize   int32

	HasPecanOption  bool
	AvailableFrozen bool
	AvailableBaked  bool
	IsFeatured      bool
	IsActive        bool

	// ImageURL is a weak reference into object storage. It may be nil or
	// point at an object that no longer exists.
	ImageURL *string

	SortOrder int32
	// Seq records insertion order and breaks SortOrder ties.
	Seq int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasImage reports whether an image reference is set.
func (p *Product) HasImage() bool {
	return p.ImageURL != nil && *p.ImageURL != ""
}

// ProductInput carries the administrator-editable attributes of a product.
// Update replaces every one of them.
type ProductInput struct {
	Name            string
	Description     string
	PriceCents      int64
	BatchSize       int32
	HasPecanOption  bool
	AvailableFrozen bool
	AvailableBaked  bool
	IsFeatured      bool
	IsActive        bool
	ImageURL        *string
	SortOrder       int32
}

// DefaultProductInput returns the values a blank "new product" form starts with.
func DefaultProductInput() ProductInput {
	return ProductInput{
		PriceCents:      2000,
		BatchSize:       12,
		AvailableFrozen: true,
		AvailableBaked:  true,
		IsActive:        true,
	}
}

// Input converts a stored product back into editable form values.
func (p *Product) Input() ProductInput {
	return ProductInput{
		Name:            p.Name,
		Description:     p.Description,
		PriceCents:      p.PriceCents,
		BatchSize:       p.BatchSize,
		HasPecanOption:  p.HasPecanOption,
		AvailableFrozen: p.AvailableFrozen,
		AvailableBaked:  p.AvailableBaked,
		IsFeatured:      p.IsFeatured,
		IsActive:        p.IsActive,
		ImageURL:        p.ImageURL,
		SortOrder:       p.SortOrder,
	}
}

// ToggleField names a boolean product flag the admin list can flip in place.
type ToggleField string

const (
	ToggleActive   ToggleField = "active"
	ToggleFeatured ToggleField = "featured"
)

// Valid reports whether f is a recognised toggle.
func (f ToggleField) Valid() bool {
	return f == ToggleActive || f == ToggleFeatured
}

// ProductFilter narrows List results.
type ProductFilter struct {
	ActiveOnly bool
}

// ErrProductNotFound is returned by repository reads and writes that target
// an id with no stored product.
var ErrProductNotFound = Errorf(ENOTFOUND, "", "Product not found")

// ProductRepository is the record-store contract for products.
//
// List orders by SortOrder ascending then insertion order, and returns an
// empty slice rather than an error when nothing matches. Toggle flips the
// stored value atomically and returns the new value. Delete of an unknown id
// succeeds. No method touches object storage.
type ProductRepository interface {
	List(ctx context.Context, filter ProductFilter) ([]Product, error)
	Get(ctx context.Context, id uuid.UUID) (*Product, error)
	Create(ctx context.Context, in ProductInput) (*Product, error)
	Update(ctx context.Context, id uuid.UUID, in ProductInput) (*Product, error)
	Toggle(ctx context.Context, id uuid.UUID, field ToggleField) (bool, error)
	SetImage(ctx context.Context, id uuid.UUID, imageURL *string) (*Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
