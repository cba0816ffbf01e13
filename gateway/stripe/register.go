package stripe

import "github.com/paybridge/paybridge/gateway"

// Register the Stripe adapter with the gateway registry
func init() {
	gateway.Register(gateway.Stripe, NewGateway)
}
