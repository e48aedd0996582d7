package email

import "fmt"

// ============================================================================
// EMAIL ERROR CODES
// ============================================================================
// These constants mirror domain error codes to avoid circular imports.
// The handler layer maps these to HTTP status codes.

const (
	codeInternal    = "internal"
	codeNotFound    = "not_found"
	codeInvalid     = "invalid"
	codeUnavailable = "unavailable"
)

// EmailError represents an email-specific error with a code and message.
type EmailError struct {
	Code    string
	Message string
	Err     error
}

func (e *EmailError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *EmailError) Unwrap() error {
	return e.Err
}

// ErrorCode returns the error code for HTTP status mapping.
func (e *EmailError) ErrorCode() string {
	return e.Code
}

// ErrorMessage returns the user-facing message.
func (e *EmailError) ErrorMessage() string {
	return e.Message
}

func newEmailError(code, message string) *EmailError {
	return &EmailError{Code: code, Message: message}
}

var (
	// ErrNotConfigured is returned by NewSender when no provider is set.
	ErrNotConfigured = newEmailError(codeInvalid, "Email provider not configured")

	ErrInvalidFromAddress = newEmailError(codeInvalid, "Invalid from email address")
	ErrInvalidToAddress   = newEmailError(codeInvalid, "Invalid to email address")
	ErrMissingCredentials = newEmailError(codeInvalid, "Email provider credentials are required")

	// ErrCircuitOpen is returned while the breaker rejects sends.
	ErrCircuitOpen = newEmailError(codeUnavailable, "Email provider temporarily unavailable")
)

// ErrTemplateNotFound creates a template not found error.
func ErrTemplateNotFound(templateName string) error {
	return &EmailError{
		Code:    codeNotFound,
		Message: fmt.Sprintf("Email template %s not found", templateName),
	}
}

// ErrSendFailed wraps a provider failure.
func ErrSendFailed(provider string, err error) error {
	return &EmailError{
		Code:    codeUnavailable,
		Message: fmt.Sprintf("%s: failed to send email", provider),
		Err:     err,
	}
}

// ErrUnknownProvider creates an error for unknown email providers.
func ErrUnknownProvider(provider string) error {
	return &EmailError{
		Code:    codeInvalid,
		Message: fmt.Sprintf("unknown email provider: %s", provider),
	}
}
