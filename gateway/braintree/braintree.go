// Package braintree implements the Braintree Edge Checkout adapter. A
// backend-issued client token authorizes direct calls against the Braintree
// client API, which exchanges card fields for a nonce.
package braintree

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/paybridge/paybridge/gateway"
)

const (
	scriptURL = "https://js.braintreegateway.com/web/3.97.0/js/client.min.js"

	clientTokenEndpoint  = "/api/braintree/token"
	tokenizeCardEndpoint = "/v1/payment_methods/credit_cards"
)

// clientState is the vendor client constructed from a decoded client token.
type clientState struct {
	clientToken              string
	clientAPIURL             string
	authorizationFingerprint string
}

// BraintreeGateway implements gateway.PaymentGateway for Braintree.
type BraintreeGateway struct {
	guard gateway.InitGuard

	mu     sync.Mutex
	client *clientState
}

// NewGateway creates a new Braintree gateway adapter.
func NewGateway() gateway.PaymentGateway {
	return &BraintreeGateway{}
}

// Initialize loads the Braintree client script, fetches a client token from
// the backend and constructs the client state from it.
func (g *BraintreeGateway) Initialize(ctx context.Context, env gateway.EnvironmentAdapter) error {
	if !env.IsBrowser() {
		return gateway.NewError(gateway.ErrSdkLoadFailed,
			"braintree sdk requires a browser-capable environment", gateway.WithGateway(gateway.Braintree))
	}

	return g.guard.Do(ctx, func(ctx context.Context) error {
		if err := gateway.DefaultSDKLoader.Load(ctx, env, scriptURL); err != nil {
			return err
		}
		_, err := g.ensureClient(ctx, env)
		return err
	})
}

type clientTokenResponse struct {
	ClientToken string `json:"clientToken"`
}

// decodedToken is the JSON payload inside a base64 Braintree client token.
type decodedToken struct {
	AuthorizationFingerprint string `json:"authorizationFingerprint"`
	ClientAPIURL             string `json:"clientApiUrl"`
}

// ensureClient returns the constructed client, lazily fetching and decoding
// a client token when none is cached.
func (g *BraintreeGateway) ensureClient(ctx context.Context, env gateway.EnvironmentAdapter) (*clientState, error) {
	g.mu.Lock()
	if g.client != nil {
		client := g.client
		g.mu.Unlock()
		return client, nil
	}
	g.mu.Unlock()

	cfg := env.Config()
	if cfg == nil || cfg.APIBaseURL == "" {
		return nil, gateway.NewError(gateway.ErrConfigMissing,
			"api base url is not configured", gateway.WithGateway(gateway.Braintree))
	}

	tokenURL := cfg.BraintreeTokenURL
	if tokenURL == "" {
		tokenURL = cfg.APIBaseURL + clientTokenEndpoint
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, tokenURL, nil)
	if err != nil {
		return nil, gateway.NewError(gateway.ErrClientTokenFailed,
			"failed to build client token request", gateway.WithGateway(gateway.Braintree), gateway.WithCause(err))
	}

	resp, err := env.HTTPClient().Do(req)
	if err != nil {
		return nil, gateway.NewError(gateway.ErrNetworkError,
			"client token request failed", gateway.WithGateway(gateway.Braintree), gateway.WithCause(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, gateway.Errorf(gateway.ErrClientTokenFailed,
			"client token request returned status %d", resp.StatusCode)
	}

	var tokenResp clientTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return nil, gateway.NewError(gateway.ErrClientTokenFailed,
			"failed to parse client token response", gateway.WithGateway(gateway.Braintree), gateway.WithCause(err))
	}
	if tokenResp.ClientToken == "" {
		return nil, gateway.NewError(gateway.ErrClientTokenFailed,
			"backend returned an empty client token", gateway.WithGateway(gateway.Braintree))
	}

	client, err := buildClient(tokenResp.ClientToken)
	if err != nil {
		return nil, err
	}

	g.mu.Lock()
	g.client = client
	g.mu.Unlock()
	return client, nil
}

// buildClient decodes the base64 client token into usable client state.
func buildClient(clientToken string) (*clientState, error) {
	raw, err := base64.StdEncoding.DecodeString(clientToken)
	if err != nil {
		return nil, gateway.NewError(gateway.ErrClientTokenFailed,
			"client token is not valid base64", gateway.WithGateway(gateway.Braintree), gateway.WithCause(err))
	}

	var decoded decodedToken
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, gateway.NewError(gateway.ErrClientTokenFailed,
			"client token payload is malformed", gateway.WithGateway(gateway.Braintree), gateway.WithCause(err))
	}
	if decoded.AuthorizationFingerprint == "" || decoded.ClientAPIURL == "" {
		return nil, gateway.NewError(gateway.ErrClientTokenFailed,
			"client token is missing authorization fields", gateway.WithGateway(gateway.Braintree))
	}

	return &clientState{
		clientToken:              clientToken,
		clientAPIURL:             decoded.ClientAPIURL,
		authorizationFingerprint: decoded.AuthorizationFingerprint,
	}, nil
}

type tokenizeRequest struct {
	AuthorizationFingerprint string       `json:"authorizationFingerprint"`
	CreditCard               tokenizeCard `json:"creditCard"`
}

type tokenizeCard struct {
	Number          string `json:"number"`
	ExpirationMonth string `json:"expirationMonth"`
	ExpirationYear  string `json:"expirationYear"`
	CVV             string `json:"cvv"`
}

type tokenizeResponse struct {
	CreditCards []struct {
		Nonce string `json:"nonce"`
	} `json:"creditCards"`
}

// CreateToken exchanges card fields for a nonce against the Braintree client
// API, lazily constructing the client when Initialize has not run.
func (g *BraintreeGateway) CreateToken(ctx context.Context, card gateway.Card, env gateway.EnvironmentAdapter) (string, error) {
	client, err := g.ensureClient(ctx, env)
	if err != nil {
		return "", err
	}

	payload := tokenizeRequest{
		AuthorizationFingerprint: client.authorizationFingerprint,
		CreditCard: tokenizeCard{
			Number:          card.Number,
			ExpirationMonth: card.ExpMonth,
			ExpirationYear:  card.ExpYear,
			CVV:             card.CVC,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", gateway.NewError(gateway.ErrTokenizationFailed,
			"failed to encode tokenize request", gateway.WithGateway(gateway.Braintree), gateway.WithCause(err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, client.clientAPIURL+tokenizeCardEndpoint, bytes.NewReader(body))
	if err != nil {
		return "", gateway.NewError(gateway.ErrTokenizationFailed,
			"failed to build tokenize request", gateway.WithGateway(gateway.Braintree), gateway.WithCause(err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := env.HTTPClient().Do(req)
	if err != nil {
		return "", gateway.NewError(gateway.ErrNetworkError,
			"tokenize request failed", gateway.WithGateway(gateway.Braintree), gateway.WithCause(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", gateway.Errorf(gateway.ErrTokenizationFailed,
			"tokenize request returned status %d", resp.StatusCode)
	}

	var result tokenizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", gateway.NewError(gateway.ErrTokenizationFailed,
			"failed to parse tokenize response", gateway.WithGateway(gateway.Braintree), gateway.WithCause(err))
	}

	if len(result.CreditCards) == 0 || result.CreditCards[0].Nonce == "" {
		return "", gateway.NewError(gateway.ErrTokenizationFailed,
			"tokenize response carried no nonce", gateway.WithGateway(gateway.Braintree))
	}

	return result.CreditCards[0].Nonce, nil
}

// Reset clears the cached client token and readiness unconditionally.
func (g *BraintreeGateway) Reset() {
	g.guard.Reset()
	g.mu.Lock()
	g.client = nil
	g.mu.Unlock()
}

// IsReady reports whether a constructed client is held.
func (g *BraintreeGateway) IsReady() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.client != nil
}
