package postgres

import (
	"context"
	"errors"

	"github.com/dukerupert/bakehouse/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// ProductRepository implements domain.ProductRepository using PostgreSQL.
type ProductRepository struct {
	db DBTX
}

var _ domain.ProductRepository = (*ProductRepository)(nil)

func NewProductRepository(db DBTX) *ProductRepository {
	return &ProductRepository{db: db}
}

const productColumns = `id, seq, name, description, price_cents, batch_size,
	has_pecan_option, available_frozen, available_baked, is_featured, is_active,
	image_url, sort_order, created_at, updated_at`

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var (
		p        domain.Product
		id       pgtype.UUID
		imageURL pgtype.Text
	)
	err := row.Scan(
		&id, &p.Seq, &p.Name, &p.Description, &p.PriceCents, &p.BatchSize,
		&p.HasPecanOption, &p.AvailableFrozen, &p.AvailableBaked, &p.IsFeatured, &p.IsActive,
		&imageURL, &p.SortOrder, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.ID = fromPgUUID(id)
	p.ImageURL = ptrFromPgText(imageURL)
	return &p, nil
}

// =============================================================================
// READS
// =============================================================================

func (r *ProductRepository) List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + `
		FROM products
		WHERE ($1::boolean = false OR is_active)
		ORDER BY sort_order ASC, seq ASC`

	rows, err := r.db.Query(ctx, query, filter.ActiveOnly)
	if err != nil {
		return nil, domain.Unavailable(err, "product.list", "Could not load products. Please try again.")
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, domain.Unavailable(err, "product.list", "Could not load products. Please try again.")
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Unavailable(err, "product.list", "Could not load products. Please try again.")
	}

	return products, nil
}

func (r *ProductRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	p, err := scanProduct(r.db.QueryRow(ctx, query, pgUUID(id)))
	if err != nil {
		return nil, rowError(err, "product.get", "Could not load the product. Please try again.")
	}
	return p, nil
}

// =============================================================================
// WRITES
// =============================================================================

func (r *ProductRepository) Create(ctx context.Context, in domain.ProductInput) (*domain.Product, error) {
	query := `
		INSERT INTO products (
			name, description, price_cents, batch_size,
			has_pecan_option, available_frozen, available_baked, is_featured, is_active,
			image_url, sort_order
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + productColumns

	p, err := scanProduct(r.db.QueryRow(ctx, query,
		in.Name, in.Description, in.PriceCents, in.BatchSize,
		in.HasPecanOption, in.AvailableFrozen, in.AvailableBaked, in.IsFeatured, in.IsActive,
		pgTextFromPtr(in.ImageURL), in.SortOrder,
	))
	if err != nil {
		return nil, domain.Unavailable(err, "product.create", "Could not save the product. Please try again.")
	}
	return p, nil
}

func (r *ProductRepository) Update(ctx context.Context, id uuid.UUID, in domain.ProductInput) (*domain.Product, error) {
	query := `
		UPDATE products SET
			name = $2, description = $3, price_cents = $4, batch_size = $5,
			has_pecan_option = $6, available_frozen = $7, available_baked = $8,
			is_featured = $9, is_active = $10, image_url = $11, sort_order = $12,
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + productColumns

	p, err := scanProduct(r.db.QueryRow(ctx, query, pgUUID(id),
		in.Name, in.Description, in.PriceCents, in.BatchSize,
		in.HasPecanOption, in.AvailableFrozen, in.AvailableBaked,
		in.IsFeatured, in.IsActive, pgTextFromPtr(in.ImageURL), in.SortOrder,
	))
	if err != nil {
		return nil, rowError(err, "product.update", "Could not save the product. Please try again.")
	}
	return p, nil
}

// Toggle flips the flag in a single statement so concurrent toggles cannot
// read a stale value.
func (r *ProductRepository) Toggle(ctx context.Context, id uuid.UUID, field domain.ToggleField) (bool, error) {
	var query string
	switch field {
	case domain.ToggleActive:
		query = `UPDATE products SET is_active = NOT is_active, updated_at = NOW()
			WHERE id = $1 RETURNING is_active`
	case domain.ToggleFeatured:
		query = `UPDATE products SET is_featured = NOT is_featured, updated_at = NOW()
			WHERE id = $1 RETURNING is_featured`
	default:
		return false, domain.Invalid("product.toggle", "Unknown toggle field")
	}

	var value bool
	if err := r.db.QueryRow(ctx, query, pgUUID(id)).Scan(&value); err != nil {
		return false, rowError(err, "product.toggle", "Could not update the product. Please try again.")
	}
	return value, nil
}

func (r *ProductRepository) SetImage(ctx context.Context, id uuid.UUID, imageURL *string) (*domain.Product, error) {
	query := `UPDATE products SET image_url = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + productColumns

	p, err := scanProduct(r.db.QueryRow(ctx, query, pgUUID(id), pgTextFromPtr(imageURL)))
	if err != nil {
		return nil, rowError(err, "product.set_image", "Could not save the product image. Please try again.")
	}
	return p, nil
}

// Delete removes the row. Deleting an id that does not exist succeeds.
func (r *ProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, pgUUID(id)); err != nil {
		return domain.Unavailable(err, "product.delete", "Could not delete the product. Please try again.")
	}
	return nil
}

func rowError(err error, op, message string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrProductNotFound
	}
	return domain.Unavailable(err, op, message)
}
