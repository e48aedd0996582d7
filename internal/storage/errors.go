package storage

import (
	"errors"
	"fmt"
)

// ============================================================================
// STORAGE ERROR CODES
// ============================================================================
// These constants mirror domain error codes to avoid circular imports.
// The handler layer maps these to HTTP status codes.

const (
	codeConflict    = "conflict"
	codeInvalid     = "invalid"
	codeNotFound    = "not_found"
	codeUnavailable = "unavailable"
)

// StorageError is a storage failure carrying a domain-compatible code.
type StorageError struct {
	Code    string
	Message string
	Err     error
}

func (e *StorageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ErrorCode returns the error code for HTTP status mapping.
func (e *StorageError) ErrorCode() string {
	return e.Code
}

// ErrorMessage returns the user-facing message.
func (e *StorageError) ErrorMessage() string {
	return e.Message
}

func newStorageError(code, message string) *StorageError {
	return &StorageError{Code: code, Message: message}
}

var (
	ErrR2AccountIDRequired = newStorageError(codeInvalid, "R2 account ID is required")
	ErrCredentialsRequired = newStorageError(codeInvalid, "storage credentials are required")
	ErrBucketRequired      = newStorageError(codeInvalid, "storage bucket name is required")
	ErrInvalidKey          = newStorageError(codeInvalid, "invalid storage key")
)

// ErrFileNotFound creates an error for when a file is not found.
func ErrFileNotFound(key string) error {
	return &StorageError{
		Code:    codeNotFound,
		Message: fmt.Sprintf("file not found: %s", key),
	}
}

// ErrObjectExists is returned by Put when the key is already taken.
func ErrObjectExists(key string) error {
	return &StorageError{
		Code:    codeConflict,
		Message: fmt.Sprintf("object already exists: %s", key),
	}
}

// ErrUploadFailed wraps a backend failure during Put.
func ErrUploadFailed(err error) error {
	return &StorageError{
		Code:    codeUnavailable,
		Message: "Image upload failed. Please try again.",
		Err:     err,
	}
}

func errBackend(message string, err error) error {
	return &StorageError{Code: codeUnavailable, Message: message, Err: err}
}

// ErrUnknownProvider creates an error for unknown storage providers.
func ErrUnknownProvider(provider string) error {
	return &StorageError{
		Code:    codeInvalid,
		Message: fmt.Sprintf("unknown storage provider: %s", provider),
	}
}

// IsConflict reports whether err is a Put onto an existing key.
func IsConflict(err error) bool {
	var se *StorageError
	return errors.As(err, &se) && se.Code == codeConflict
}
