package validation

import (
	"net/url"
	"strings"

	"github.com/dukerupert/bakehouse/internal/domain"
)

// ContactForm is the raw contact payload, accepted as JSON or form values.
type ContactForm struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Message         string `json:"message"`
	PreferredFormat string `json:"preferred_format"`
}

// ContactFormFromValues reads a url-encoded contact submission.
func ContactFormFromValues(values url.Values) ContactForm {
	return ContactForm{
		Name:            values.Get("name"),
		Email:           values.Get("email"),
		Phone:           values.Get("phone"),
		Message:         values.Get("message"),
		PreferredFormat: values.Get("preferred_format"),
	}
}

type contactFields struct {
	Name            string `form:"name" validate:"required,max=200"`
	Email           string `form:"email" validate:"required,max=320,loose_email"`
	Phone           string `form:"phone" validate:"max=50"`
	Message         string `form:"message" validate:"required,max=5000"`
	PreferredFormat string `form:"preferred_format" validate:"oneof=frozen baked either unspecified"`
}

var contactLabels = map[string]string{
	"name":             "Name",
	"email":            "Email",
	"phone":            "Phone",
	"message":          "Message",
	"preferred_format": "Preferred format",
}

// ParseContact validates a contact form and returns the submission to store.
// ID and CreatedAt are left for the record store to assign. A missing
// preferred format means "either".
func ParseContact(in ContactForm) (domain.ContactSubmission, error) {
	fields := contactFields{
		Name:            strings.TrimSpace(in.Name),
		Email:           strings.TrimSpace(in.Email),
		Phone:           strings.TrimSpace(in.Phone),
		Message:         strings.TrimSpace(in.Message),
		PreferredFormat: strings.ToLower(strings.TrimSpace(in.PreferredFormat)),
	}
	if fields.PreferredFormat == "" {
		fields.PreferredFormat = string(domain.FormatEither)
	}

	ve := &domain.ValidationError{Op: "contact.validate"}
	check(ve, fields, contactLabels)
	if !ve.Empty() {
		return domain.ContactSubmission{}, ve
	}

	sub := domain.ContactSubmission{
		Name:            fields.Name,
		Email:           fields.Email,
		Message:         fields.Message,
		PreferredFormat: domain.PreferredFormat(fields.PreferredFormat),
	}
	if fields.Phone != "" {
		phone := fields.Phone
		sub.Phone = &phone
	}

	return sub, nil
}

// ContactSummary condenses contact field errors into the single headline the
// storefront form shows above the fields.
func ContactSummary(fields map[string]string) string {
	for _, f := range []string{"name", "email", "message"} {
		if msg, ok := fields[f]; ok && strings.HasSuffix(msg, " is required") {
			return "Name, email, and message are required"
		}
	}
	if _, ok := fields["email"]; ok {
		return "Please provide a valid email address"
	}
	return "Please check your submission and try again"
}
