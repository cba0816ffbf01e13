// Package paybridge unifies three payment gateways (Stripe, Braintree,
// Authorize.Net) behind one client API: tokenize card data, detect which
// gateway and checkout scenario a merchant account uses, and manage vendor
// SDK lifecycle with single-flight initialization and retry-with-backoff.
//
// # Overview
//
// A backend detection call resolves one of four mutually exclusive checkout
// scenarios (stripe-session, stripe-redirect, braintree-edge,
// authorizenet-edge). The gateway.Manager ensures the matching vendor SDK is
// loaded exactly once, validates card input, dispatches tokenization to the
// right adapter and emits lifecycle events along the way.
//
// # Quick Start
//
//	package main
//
//	import (
//	    "context"
//
//	    "github.com/paybridge/paybridge/gateway"
//	    "github.com/paybridge/paybridge/infra/config"
//
//	    // Import to register adapters
//	    _ "github.com/paybridge/paybridge/gateway/authorizenet"
//	    _ "github.com/paybridge/paybridge/gateway/braintree"
//	    _ "github.com/paybridge/paybridge/gateway/stripe"
//	)
//
//	func main() {
//	    env := gateway.NewRuntimeEnvironment(config.FromEnv())
//
//	    manager, err := gateway.NewManager(env)
//	    if err != nil {
//	        panic(err)
//	    }
//
//	    configuration, err := manager.DetectGateway(context.Background())
//	    if err != nil {
//	        panic(err)
//	    }
//
//	    if manager.RequiresEdgeCheckout() {
//	        result, err := manager.GetPaymentMethodToken(context.Background(), gateway.TokenInput{
//	            Card: &gateway.Card{Number: "4242424242424242", ExpMonth: "12", ExpYear: "2030", CVC: "123"},
//	        })
//	        _, _ = result, err
//	    }
//	    _ = configuration
//	}
//
// Tokens returned by every path are vendor-issued opaque strings (session
// ids, nonces, opaque data); raw card data never leaves the call stack and
// is redacted from all logging.
package paybridge
