package gateway

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopGateway struct{}

func (nopGateway) Initialize(context.Context, EnvironmentAdapter) error { return nil }
func (nopGateway) CreateToken(context.Context, Card, EnvironmentAdapter) (string, error) {
	return "tok_test", nil
}
func (nopGateway) Reset()        {}
func (nopGateway) IsReady() bool { return true }

func TestRegistry(t *testing.T) {
	registry := NewRegistry()
	registry.Register(Stripe, func() PaymentGateway { return &nopGateway{} })

	t.Run("get registered", func(t *testing.T) {
		factory, err := registry.Get(Stripe)
		require.NoError(t, err)
		assert.NotNil(t, factory)
	})

	t.Run("get unregistered", func(t *testing.T) {
		_, err := registry.Get(Braintree)
		require.Error(t, err)
		assert.True(t, IsKind(err, ErrNotSupported))
	})

	t.Run("create instance", func(t *testing.T) {
		gw, err := registry.CreateGateway(Stripe)
		require.NoError(t, err)
		assert.True(t, gw.IsReady())
	})

	t.Run("names", func(t *testing.T) {
		registry.Register(AuthorizeNet, func() PaymentGateway { return &nopGateway{} })
		names := registry.GatewayNames()
		assert.ElementsMatch(t, []GatewayName{Stripe, AuthorizeNet}, names)
	})

	t.Run("factory runs per create", func(t *testing.T) {
		created := 0
		registry.Register(Braintree, func() PaymentGateway {
			created++
			return &nopGateway{}
		})
		_, err := registry.CreateGateway(Braintree)
		require.NoError(t, err)
		_, err = registry.CreateGateway(Braintree)
		require.NoError(t, err)
		assert.Equal(t, 2, created)
	})
}
