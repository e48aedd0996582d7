package postgres

import (
	"context"

	"github.com/dukerupert/bakehouse/internal/domain"
	"github.com/jackc/pgx/v5/pgtype"
)

// ContactRepository implements domain.ContactRepository using PostgreSQL.
type ContactRepository struct {
	db DBTX
}

var _ domain.ContactRepository = (*ContactRepository)(nil)

func NewContactRepository(db DBTX) *ContactRepository {
	return &ContactRepository{db: db}
}

func (r *ContactRepository) Create(ctx context.Context, s domain.ContactSubmission) (*domain.ContactSubmission, error) {
	query := `
		INSERT INTO contact_submissions (name, email, phone, message, preferred_format)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	var id pgtype.UUID
	err := r.db.QueryRow(ctx, query,
		s.Name, s.Email, pgTextFromPtr(s.Phone), s.Message, string(s.PreferredFormat),
	).Scan(&id, &s.CreatedAt)
	if err != nil {
		return nil, domain.Unavailable(err, "contact.create", "Could not store the contact submission.")
	}

	s.ID = fromPgUUID(id)
	return &s, nil
}
