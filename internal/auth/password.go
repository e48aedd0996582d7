package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength applies to plaintext ADMIN_PASSWORD values.
const MinPasswordLength = 8

// hashCost is lowered in tests.
var hashCost = 12

var (
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
	ErrPasswordMismatch = errors.New("password does not match")
	ErrMalformedHash    = errors.New("admin password hash is not a bcrypt hash")
)

// HashPassword returns the bcrypt hash stored for the admin password.
func HashPassword(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", ErrPasswordTooShort
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), hashCost)
	if err != nil {
		return "", fmt.Errorf("hash admin password: %w", err)
	}
	return string(hash), nil
}

// CheckHash rejects an ADMIN_PASSWORD_HASH that bcrypt cannot read, so a
// typo fails at startup instead of on every sign-in.
func CheckHash(hash string) error {
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedHash, err)
	}
	return nil
}

// VerifyPassword compares password with hash. A mismatch is
// ErrPasswordMismatch; anything else means the hash itself is bad.
func VerifyPassword(password, hash string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return ErrPasswordMismatch
	default:
		return fmt.Errorf("verify admin password: %w", err)
	}
}
