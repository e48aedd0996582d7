package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// PreferredFormat is how an inquiring customer would like their order.
type PreferredFormat string

const (
	FormatFrozen      PreferredFormat = "frozen"
	FormatBaked       PreferredFormat = "baked"
	FormatEither      PreferredFormat = "either"
	FormatUnspecified PreferredFormat = "unspecified"
)

// Display returns the wording used in notifications and admin views.
func (f PreferredFormat) Display() string {
	switch f {
	case FormatFrozen:
		return "Frozen Dough"
	case FormatBaked:
		return "Fresh Baked"
	case FormatEither:
		return "Either is fine"
	default:
		return "Not specified"
	}
}

// ContactSubmission is an order inquiry from a storefront visitor.
// Submissions are append-only.
type ContactSubmission struct {
	ID              uuid.UUID
	Name            string
	Email           string
	Phone           *string
	Message         string
	PreferredFormat PreferredFormat
	CreatedAt       time.Time
}

// ContactRepository persists contact submissions. It has no update or delete.
type ContactRepository interface {
	Create(ctx context.Context, s ContactSubmission) (*ContactSubmission, error)
}
