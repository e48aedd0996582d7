package domain

import (
	"errors"
	"fmt"
)

// Application error codes. The HTTP layer maps each one to a status code.
const (
	ECONFLICT     = "conflict"     // 409
	EINTERNAL     = "internal"     // 500, details hidden from users
	EINVALID      = "invalid"      // 400
	ENOTFOUND     = "not_found"    // 404
	EUNAUTHORIZED = "unauthorized" // 401
	EFORBIDDEN    = "forbidden"    // 403
	ERATELIMIT    = "rate_limit"   // 429
	ETOOLARGE     = "too_large"    // 413
	EUNAVAILABLE  = "unavailable"  // 503, a backing store or provider failed
)

const internalMessage = "An internal error occurred. Please try again later."

// Error is a coded application error. Message is safe to show to users;
// Op and Err are for logs.
type Error struct {
	Code    string
	Message string
	Op      string // e.g. "catalog.create"
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		if e.Op != "" {
			return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
		}
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches two domain errors by code and message so that sentinel values
// such as ErrProductNotFound survive being rewrapped with a different Op.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// ErrorCode extracts the code from err. ValidationError reports EINVALID;
// anything unrecognised reports EINTERNAL.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		return EINVALID
	}

	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	return EINTERNAL
}

// ErrorMessage extracts a user-facing message from err.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		return "Please correct the highlighted fields."
	}

	var e *Error
	if errors.As(err, &e) && e.Code != EINTERNAL {
		return e.Message
	}

	return internalMessage
}

// ErrorOp extracts the operation from err for logging.
func ErrorOp(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Op
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Op
	}
	return ""
}

// Errorf creates a domain error with a formatted message.
func Errorf(code, op, format string, args ...any) error {
	return &Error{
		Code:    code,
		Op:      op,
		Message: fmt.Sprintf(format, args...),
	}
}

// WrapError attaches a code, op and message to err. Returns nil if err is nil.
func WrapError(err error, code, op, message string) error {
	if err == nil {
		return nil
	}

	return &Error{
		Code:    code,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code string) bool {
	return ErrorCode(err) == code
}

// ValidationError collects per-field failures for form input.
type ValidationError struct {
	Fields map[string]string
	Op     string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 1 {
		for field, msg := range e.Fields {
			if e.Op != "" {
				return fmt.Sprintf("%s: %s: %s", e.Op, field, msg)
			}
			return fmt.Sprintf("%s: %s", field, msg)
		}
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: validation failed for %d fields", e.Op, len(e.Fields))
	}
	return fmt.Sprintf("validation failed for %d fields", len(e.Fields))
}

// Empty reports whether no field failures were recorded.
func (e *ValidationError) Empty() bool {
	return e == nil || len(e.Fields) == 0
}

// Add records a failure for field. The first message for a field wins.
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = message
	}
}

// NewValidationError creates a validation error for a single field.
func NewValidationError(op, field, message string) error {
	return &ValidationError{
		Op:     op,
		Fields: map[string]string{field: message},
	}
}

// AddFieldError adds a field failure to err, creating a ValidationError when
// err is nil or of another type.
func AddFieldError(err error, field, message string) error {
	var ve *ValidationError
	if err != nil && errors.As(err, &ve) {
		ve.Fields[field] = message
		return ve
	}

	return &ValidationError{
		Fields: map[string]string{field: message},
	}
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// GetValidationFields returns the field map of a ValidationError, or nil.
func GetValidationFields(err error) map[string]string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Fields
	}
	return nil
}

// NotFound creates a not found error for a resource.
func NotFound(op, resource, identifier string) error {
	return &Error{
		Code:    ENOTFOUND,
		Op:      op,
		Message: fmt.Sprintf("%s not found: %s", resource, identifier),
	}
}

func Unauthorized(op, message string) error {
	return &Error{Code: EUNAUTHORIZED, Op: op, Message: message}
}

func Forbidden(op, message string) error {
	return &Error{Code: EFORBIDDEN, Op: op, Message: message}
}

func Invalid(op, message string) error {
	return &Error{Code: EINVALID, Op: op, Message: message}
}

func Conflict(op, message string) error {
	return &Error{Code: ECONFLICT, Op: op, Message: message}
}

// Unavailable reports a failure of the record store, object storage or a
// notification provider. The message is shown to the administrator.
func Unavailable(err error, op, message string) error {
	return &Error{Code: EUNAVAILABLE, Op: op, Message: message, Err: err}
}

// Internal wraps err as an internal error. Users only see a generic message.
func Internal(err error, op, message string) error {
	return &Error{Code: EINTERNAL, Op: op, Message: message, Err: err}
}
