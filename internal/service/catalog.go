package service

import (
	"context"
	"log/slog"
	"net/url"

	"github.com/dukerupert/bakehouse/internal/domain"
	"github.com/dukerupert/bakehouse/internal/telemetry"
	"github.com/dukerupert/bakehouse/internal/validation"
	"github.com/google/uuid"
)

// AdminRow is one line of the admin product table.
type AdminRow struct {
	domain.Product
	// Updating is set while a toggle or delete for the row is in flight.
	Updating bool
}

// CatalogService runs the admin product mutations. It never caches products:
// every read goes to the repository.
type CatalogService struct {
	products domain.ProductRepository
	rows     *InFlight
	forms    *InFlight
	logger   *slog.Logger
	metrics  *telemetry.BusinessMetrics
}

func NewCatalogService(products domain.ProductRepository, logger *slog.Logger, metrics *telemetry.BusinessMetrics) *CatalogService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CatalogService{
		products: products,
		rows:     NewInFlight(),
		forms:    NewInFlight(),
		logger:   logger,
		metrics:  metrics,
	}
}

// List returns every product, inactive included, in storefront order.
func (s *CatalogService) List(ctx context.Context) ([]AdminRow, error) {
	products, err := s.products.List(ctx, domain.ProductFilter{})
	if err != nil {
		return nil, err
	}

	rows := make([]AdminRow, len(products))
	for i, p := range products {
		rows[i] = AdminRow{Product: p, Updating: s.rows.Busy(rowKey(p.ID))}
	}
	return rows, nil
}

func (s *CatalogService) Get(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return s.products.Get(ctx, id)
}

// EditForm loads a product into a new edit form.
func (s *CatalogService) EditForm(ctx context.Context, id uuid.UUID) (*FormSession, error) {
	p, err := s.products.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return NewEditForm(p), nil
}

// Submit validates values and creates or updates the product, recording the
// outcome on form. On failure the posted values stay on the form for
// re-rendering. Concurrent submits of the same form token are refused with
// ErrFormBusy.
func (s *CatalogService) Submit(ctx context.Context, form *FormSession, values url.Values) (*domain.Product, error) {
	if token := values.Get(FormTokenField); token != "" {
		form.Token = token
		release, ok := s.forms.Acquire(token)
		if !ok {
			return nil, ErrFormBusy
		}
		defer release()
	}

	if err := form.Begin(values); err != nil {
		return nil, err
	}

	op := "create"
	if form.Mode == FormEdit {
		op = "update"
	}

	in, err := validation.ParseProduct(values)
	if err != nil {
		form.Fail(err)
		s.metrics.ProductMutation(op, telemetry.ResultRejected)
		return nil, err
	}

	var p *domain.Product
	if form.Mode == FormEdit {
		p, err = s.products.Update(ctx, form.ProductID, in)
	} else {
		p, err = s.products.Create(ctx, in)
	}
	if err != nil {
		form.Fail(err)
		s.metrics.ProductMutation(op, telemetry.ResultFailed)
		s.logger.ErrorContext(ctx, "product save failed", "op", op, "product_id", form.ProductID, "error", err)
		return nil, err
	}

	form.Succeed(p)
	s.metrics.ProductMutation(op, telemetry.ResultOK)
	s.logger.InfoContext(ctx, "product saved", "op", op, "product_id", p.ID, "name", p.Name)
	return p, nil
}

// Toggle flips a flag on one row. A second action on the same row while this
// one runs gets ErrRowBusy.
func (s *CatalogService) Toggle(ctx context.Context, id uuid.UUID, field domain.ToggleField) (bool, error) {
	if !field.Valid() {
		return false, domain.Invalid("product.toggle", "Unknown toggle field")
	}

	release, ok := s.rows.Acquire(rowKey(id))
	if !ok {
		return false, ErrRowBusy
	}
	defer release()

	value, err := s.products.Toggle(ctx, id, field)
	if err != nil {
		s.metrics.ProductMutation("toggle", telemetry.ResultFailed)
		return false, err
	}

	s.metrics.ProductMutation("toggle", telemetry.ResultOK)
	s.logger.InfoContext(ctx, "product toggled", "product_id", id, "field", field, "value", value)
	return value, nil
}

// Delete removes one row. Deleting a product that is already gone succeeds.
// The product's image object is not deleted.
func (s *CatalogService) Delete(ctx context.Context, id uuid.UUID) error {
	release, ok := s.rows.Acquire(rowKey(id))
	if !ok {
		return ErrRowBusy
	}
	defer release()

	if err := s.products.Delete(ctx, id); err != nil {
		s.metrics.ProductMutation("delete", telemetry.ResultFailed)
		return err
	}

	s.metrics.ProductMutation("delete", telemetry.ResultOK)
	s.logger.InfoContext(ctx, "product deleted", "product_id", id)
	return nil
}

func rowKey(id uuid.UUID) string {
	return "product:" + id.String()
}
