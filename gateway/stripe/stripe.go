// Package stripe implements the Stripe gateway adapter. Stripe tokenization
// does not happen client-side: card fields are posted to the backend, which
// creates the payment method with Stripe and returns its id.
package stripe

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/paybridge/paybridge/gateway"
)

const (
	scriptURL                   = "https://js.stripe.com/v3/"
	createPaymentMethodEndpoint = "/api/payments/stripe/create-payment-method"

	publishableKeyPrefix = "pk_"
)

// StripeGateway implements gateway.PaymentGateway for Stripe.
type StripeGateway struct {
	guard gateway.InitGuard

	mu             sync.Mutex
	publishableKey string
}

// NewGateway creates a new Stripe gateway adapter.
func NewGateway() gateway.PaymentGateway {
	return &StripeGateway{}
}

// Initialize loads Stripe.js and validates the publishable key. Idempotent
// and single-flight; a failed attempt may be retried from scratch.
func (g *StripeGateway) Initialize(ctx context.Context, env gateway.EnvironmentAdapter) error {
	if !env.IsBrowser() {
		return gateway.NewError(gateway.ErrSdkLoadFailed,
			"stripe sdk requires a browser-capable environment", gateway.WithGateway(gateway.Stripe))
	}

	return g.guard.Do(ctx, func(ctx context.Context) error {
		cfg := env.Config()
		key := ""
		if cfg != nil {
			key = cfg.StripePublishableKey
		}
		if key == "" {
			return gateway.NewError(gateway.ErrConfigMissing,
				"stripe publishable key is not configured", gateway.WithGateway(gateway.Stripe))
		}
		if !strings.HasPrefix(key, publishableKeyPrefix) {
			return gateway.NewError(gateway.ErrConfigMissing,
				"stripe publishable key must start with pk_", gateway.WithGateway(gateway.Stripe))
		}

		if err := gateway.DefaultSDKLoader.Load(ctx, env, scriptURL); err != nil {
			return err
		}

		g.mu.Lock()
		g.publishableKey = key
		g.mu.Unlock()
		return nil
	})
}

type createPaymentMethodRequest struct {
	CardNumber string `json:"cardNumber"`
	ExpMonth   string `json:"expMonth"`
	ExpYear    string `json:"expYear"`
	CVC        string `json:"cvc"`
}

type createPaymentMethodResponse struct {
	PaymentMethodID string `json:"paymentMethodId"`
	Error           string `json:"error,omitempty"`
	Code            string `json:"code,omitempty"`
}

// CreateToken posts the raw card fields to the backend and returns the
// backend-issued payment-method id. Does not require Initialize: the
// exchange is backend-side, not through Stripe.js.
func (g *StripeGateway) CreateToken(ctx context.Context, card gateway.Card, env gateway.EnvironmentAdapter) (string, error) {
	cfg := env.Config()
	if cfg == nil || cfg.APIBaseURL == "" {
		return "", gateway.NewError(gateway.ErrConfigMissing,
			"api base url is not configured", gateway.WithGateway(gateway.Stripe))
	}

	payload := createPaymentMethodRequest{
		CardNumber: card.Number,
		ExpMonth:   card.ExpMonth,
		ExpYear:    card.ExpYear,
		CVC:        card.CVC,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", gateway.NewError(gateway.ErrTokenizationFailed,
			"failed to encode payment method request", gateway.WithGateway(gateway.Stripe), gateway.WithCause(err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.APIBaseURL+createPaymentMethodEndpoint, bytes.NewReader(body))
	if err != nil {
		return "", gateway.NewError(gateway.ErrTokenizationFailed,
			"failed to build payment method request", gateway.WithGateway(gateway.Stripe), gateway.WithCause(err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := env.HTTPClient().Do(req)
	if err != nil {
		return "", gateway.NewError(gateway.ErrNetworkError,
			"payment method request failed", gateway.WithGateway(gateway.Stripe), gateway.WithCause(err))
	}
	defer resp.Body.Close()

	var result createPaymentMethodResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", gateway.NewError(gateway.ErrTokenizationFailed,
			"failed to parse payment method response", gateway.WithGateway(gateway.Stripe), gateway.WithCause(err))
	}

	if result.Error != "" {
		return "", gateway.NewError(gateway.ErrInvalidCard, result.Error,
			gateway.WithGateway(gateway.Stripe), gateway.WithDetail("code", result.Code))
	}
	if result.PaymentMethodID == "" {
		return "", gateway.NewError(gateway.ErrTokenizationFailed,
			"backend returned no payment method id", gateway.WithGateway(gateway.Stripe))
	}

	return result.PaymentMethodID, nil
}

// Reset clears all adapter-local state unconditionally.
func (g *StripeGateway) Reset() {
	g.guard.Reset()
	g.mu.Lock()
	g.publishableKey = ""
	g.mu.Unlock()
}

// IsReady reports whether initialization completed and the key is held.
func (g *StripeGateway) IsReady() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.guard.Ready() && g.publishableKey != ""
}
