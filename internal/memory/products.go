// Package memory holds in-process record stores for products and contact
// submissions. They back STORE_DRIVER=memory in development and the service
// and handler tests.
package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/dukerupert/bakehouse/internal/domain"
	"github.com/google/uuid"
)

// ProductStore implements domain.ProductRepository.
type ProductStore struct {
	mu       sync.RWMutex
	products map[uuid.UUID]domain.Product
	seq      int64
	now      func() time.Time
}

var _ domain.ProductRepository = (*ProductStore)(nil)

// NewProductStore returns an empty product store.
func NewProductStore() *ProductStore {
	return &ProductStore{
		products: make(map[uuid.UUID]domain.Product),
		now:      time.Now,
	}
}

// WithClock replaces the timestamp source. Used by tests.
func (s *ProductStore) WithClock(now func() time.Time) *ProductStore {
	s.now = now
	return s
}

func (s *ProductStore) List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		if filter.ActiveOnly && !p.IsActive {
			continue
		}
		out = append(out, clone(p))
	}

	slices.SortFunc(out, func(a, b domain.Product) int {
		if c := cmp.Compare(a.SortOrder, b.SortOrder); c != 0 {
			return c
		}
		return cmp.Compare(a.Seq, b.Seq)
	})

	return out, nil
}

func (s *ProductStore) Get(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	c := clone(p)
	return &c, nil
}

func (s *ProductStore) Create(ctx context.Context, in domain.ProductInput) (*domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	now := s.now().UTC()
	p := domain.Product{
		ID:        uuid.New(),
		Seq:       s.seq,
		CreatedAt: now,
		UpdatedAt: now,
	}
	apply(&p, in)
	s.products[p.ID] = p

	c := clone(p)
	return &c, nil
}

func (s *ProductStore) Update(ctx context.Context, id uuid.UUID, in domain.ProductInput) (*domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	apply(&p, in)
	p.UpdatedAt = s.now().UTC()
	s.products[id] = p

	c := clone(p)
	return &c, nil
}

func (s *ProductStore) Toggle(ctx context.Context, id uuid.UUID, field domain.ToggleField) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if !field.Valid() {
		return false, domain.Invalid("memory.toggle", "Unknown toggle field")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return false, domain.ErrProductNotFound
	}

	var v bool
	switch field {
	case domain.ToggleActive:
		p.IsActive = !p.IsActive
		v = p.IsActive
	case domain.ToggleFeatured:
		p.IsFeatured = !p.IsFeatured
		v = p.IsFeatured
	}
	p.UpdatedAt = s.now().UTC()
	s.products[id] = p

	return v, nil
}

func (s *ProductStore) SetImage(ctx context.Context, id uuid.UUID, imageURL *string) (*domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	p.ImageURL = copyString(imageURL)
	p.UpdatedAt = s.now().UTC()
	s.products[id] = p

	c := clone(p)
	return &c, nil
}

func (s *ProductStore) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.products, id)
	return nil
}

func apply(p *domain.Product, in domain.ProductInput) {
	p.Name = in.Name
	p.Description = in.Description
	p.PriceCents = in.PriceCents
	p.BatchSize = in.BatchSize
	p.HasPecanOption = in.HasPecanOption
	p.AvailableFrozen = in.AvailableFrozen
	p.AvailableBaked = in.AvailableBaked
	p.IsFeatured = in.IsFeatured
	p.IsActive = in.IsActive
	p.ImageURL = copyString(in.ImageURL)
	p.SortOrder = in.SortOrder
}

func clone(p domain.Product) domain.Product {
	p.ImageURL = copyString(p.ImageURL)
	return p
}

// All returns every stored product, oldest first.
func (s *ProductStore) All() []domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, clone(p))
	}
	slices.SortFunc(out, func(a, b domain.Product) int {
		return cmp.Compare(a.Seq, b.Seq)
	})
	return out
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
