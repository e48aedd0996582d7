package auth

import (
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/dukerupert/bakehouse/internal/domain"
)

// ErrInvalidCredentials is returned for any failed sign-in. It does not say
// which half of the pair was wrong.
var ErrInvalidCredentials = domain.Unauthorized("auth.verify", "Invalid email or password")

// Authenticator checks sign-in attempts against the single configured admin.
type Authenticator struct {
	email string
	hash  string
}

// NewAuthenticator builds an Authenticator. A bcrypt passwordHash wins over a
// plaintext password; the plaintext is hashed once here and not retained.
func NewAuthenticator(email, password, passwordHash string) (*Authenticator, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, errors.New("admin email is required")
	}

	hash := strings.TrimSpace(passwordHash)
	if hash != "" {
		if err := CheckHash(hash); err != nil {
			return nil, err
		}
	} else {
		var err error
		hash, err = HashPassword(password)
		if err != nil {
			return nil, err
		}
	}

	return &Authenticator{email: email, hash: hash}, nil
}

// Verify returns the canonical admin email when email and password match.
func (a *Authenticator) Verify(email, password string) (string, error) {
	given := strings.ToLower(strings.TrimSpace(email))
	emailOK := subtle.ConstantTimeCompare([]byte(given), []byte(a.email)) == 1

	// Always pay the bcrypt cost so a wrong email is not faster to detect.
	err := VerifyPassword(password, a.hash)
	if !emailOK || err != nil {
		if err != nil && !errors.Is(err, ErrPasswordMismatch) {
			return "", domain.Internal(err, "auth.verify", "verify admin password")
		}
		return "", ErrInvalidCredentials
	}

	return a.email, nil
}
