package braintree

import "github.com/paybridge/paybridge/gateway"

// Register the Braintree adapter with the gateway registry
func init() {
	gateway.Register(gateway.Braintree, NewGateway)
}
