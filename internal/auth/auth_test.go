package auth

import (
	"os"
	"testing"

	"github.com/dukerupert/bakehouse/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	hashCost = bcrypt.MinCost
	os.Exit(m.Run())
}

func TestHashPassword(t *testing.T) {
	_, err := HashPassword("short")
	assert.ErrorIs(t, err, ErrPasswordTooShort)

	hash, err := HashPassword("sticky-buns-42")
	require.NoError(t, err)
	assert.NoError(t, VerifyPassword("sticky-buns-42", hash))
	assert.ErrorIs(t, VerifyPassword("wrong-password", hash), ErrPasswordMismatch)
}

func TestAuthenticator_PlaintextPassword(t *testing.T) {
	a, err := NewAuthenticator(" Jen@Example.com ", "sticky-buns-42", "")
	require.NoError(t, err)

	email, err := a.Verify("jen@example.com", "sticky-buns-42")
	require.NoError(t, err)
	assert.Equal(t, "jen@example.com", email)

	email, err = a.Verify("JEN@example.com ", "sticky-buns-42")
	require.NoError(t, err)
	assert.Equal(t, "jen@example.com", email)
}

func TestAuthenticator_Rejects(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("sticky-buns-42"), bcrypt.MinCost)
	require.NoError(t, err)

	a, err := NewAuthenticator("jen@example.com", "", string(hash))
	require.NoError(t, err)

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"wrong password", "jen@example.com", "nope-nope-nope"},
		{"wrong email", "someone@example.com", "sticky-buns-42"},
		{"both blank", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.Verify(tt.email, tt.password)
			assert.ErrorIs(t, err, ErrInvalidCredentials)
			assert.Equal(t, domain.EUNAUTHORIZED, domain.ErrorCode(err))
		})
	}
}

func TestNewAuthenticator_Errors(t *testing.T) {
	_, err := NewAuthenticator("", "sticky-buns-42", "")
	assert.Error(t, err)

	_, err = NewAuthenticator("jen@example.com", "short", "")
	assert.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestNewAuthenticator_MalformedHash(t *testing.T) {
	_, err := NewAuthenticator("jen@example.com", "", "not-a-bcrypt-hash")
	assert.ErrorIs(t, err, ErrMalformedHash)
}

func TestAuthenticator_CorruptHash(t *testing.T) {
	a := &Authenticator{email: "jen@example.com", hash: "$2a$10$truncated"}

	_, err := a.Verify("jen@example.com", "sticky-buns-42")
	assert.Equal(t, domain.EINTERNAL, domain.ErrorCode(err))
}
