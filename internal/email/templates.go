package email

import (
	"time"

	"github.com/dukerupert/bakehouse/internal/domain"
)

// EmailTemplate defines the interface for email templates
type EmailTemplate interface {
	Subject() string
	TemplateName() string
}

// ContactNotification is the operator alert for a new order inquiry.
type ContactNotification struct {
	To              string
	Name            string
	Email           string
	Phone           *string
	Message         string
	PreferredFormat domain.PreferredFormat
	SubmittedAt     time.Time
}

// NewContactNotification addresses an alert about s to the operator.
func NewContactNotification(to string, s domain.ContactSubmission) ContactNotification {
	return ContactNotification{
		To:              to,
		Name:            s.Name,
		Email:           s.Email,
		Phone:           s.Phone,
		Message:         s.Message,
		PreferredFormat: s.PreferredFormat,
		SubmittedAt:     s.CreatedAt,
	}
}

func (e ContactNotification) Subject() string {
	return "New Order Inquiry from " + e.Name
}

func (e ContactNotification) TemplateName() string {
	return "contact_notification.html"
}

// PhoneDisplay returns the phone number or "Not provided".
func (e ContactNotification) PhoneDisplay() string {
	if e.Phone == nil || *e.Phone == "" {
		return "Not provided"
	}
	return *e.Phone
}

func (e ContactNotification) FormatDisplay() string {
	return e.PreferredFormat.Display()
}
