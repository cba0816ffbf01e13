package gateway

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewError(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewError(ErrNetworkError, "backend unreachable",
		WithGateway(Braintree),
		WithDetail("url", "https://api.example.com"),
		WithCause(cause),
	)

	assert.Equal(t, ErrNetworkError, err.Kind)
	assert.Equal(t, Braintree, err.Gateway)
	assert.Equal(t, "https://api.example.com", err.Details["url"])
	assert.Equal(t, "Braintree: network_error: backend unreachable", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestErrorfAndKindOf(t *testing.T) {
	err := Errorf(ErrNotSupported, "gateway '%s' is not registered", "PayPal")
	assert.Equal(t, "not_supported: gateway 'PayPal' is not registered", err.Error())

	assert.Equal(t, ErrNotSupported, KindOf(err))
	assert.Equal(t, ErrorKind(""), KindOf(errors.New("plain")))
	assert.Equal(t, ErrorKind(""), KindOf(nil))
}

func TestIsKind_SeesThroughWrapping(t *testing.T) {
	inner := NewError(ErrInvalidCard, "declined", WithGateway(Stripe))
	wrapped := fmt.Errorf("create token: %w", inner)

	assert.True(t, IsKind(wrapped, ErrInvalidCard))
	assert.False(t, IsKind(wrapped, ErrNetworkError))

	pe, ok := AsPaymentError(wrapped)
	require.True(t, ok)
	assert.Equal(t, Stripe, pe.Gateway)
}
