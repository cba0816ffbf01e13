package authorizenet

import "github.com/paybridge/paybridge/gateway"

// Register the Authorize.Net adapter with the gateway registry
func init() {
	gateway.Register(gateway.AuthorizeNet, NewGateway)
}
