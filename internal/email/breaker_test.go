package email

import (
	"context"
	"errors"
	"testing"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreakerSender_TripsAfterRepeatedFailures(t *testing.T) {
	inner := &mockSender{sendFunc: func(context.Context, *Email) (string, error) {
		return "", ErrSendFailed("test", errors.New("connection refused"))
	}}
	b := NewBreakerSender(inner, "test", nil)

	for range 5 {
		_, err := b.Send(context.Background(), &Email{})
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, b.State())

	_, err := b.Send(context.Background(), &Email{})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, 5, inner.calls, "open breaker must not reach the provider")
}

func TestBreakerSender_InvalidInputDoesNotTrip(t *testing.T) {
	inner := &mockSender{sendFunc: func(context.Context, *Email) (string, error) {
		return "", ErrInvalidToAddress
	}}
	b := NewBreakerSender(inner, "test", nil)

	for range 10 {
		_, err := b.Send(context.Background(), &Email{})
		assert.ErrorIs(t, err, ErrInvalidToAddress)
	}
	assert.Equal(t, gobreaker.StateClosed, b.State())
}

func TestBreakerSender_PassesThrough(t *testing.T) {
	b := NewBreakerSender(&mockSender{}, "test", nil)

	id, err := b.Send(context.Background(), &Email{To: []string{"a@b.com"}})
	require.NoError(t, err)
	assert.Equal(t, "msg-1", id)
}
