// Package authorizenet implements the Authorize.Net Edge Checkout adapter.
// Card fields are dispatched to the vendor Accept endpoint together with the
// merchant's client key and API login id, returning opaque payment data.
package authorizenet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/paybridge/paybridge/gateway"
)

const (
	sandboxScriptURL    = "https://jstest.authorize.net/v1/Accept.js"
	productionScriptURL = "https://js.authorize.net/v1/Accept.js"

	sandboxEndpoint    = "https://apitest.authorize.net/xml/v1/request.api"
	productionEndpoint = "https://api.authorize.net/xml/v1/request.api"
)

// credentials is the adapter-local singleton state constructed during
// Initialize.
type credentials struct {
	clientKey string
	loginID   string
	endpoint  string
}

// AuthorizeNetGateway implements gateway.PaymentGateway for Authorize.Net.
type AuthorizeNetGateway struct {
	guard gateway.InitGuard

	mu    sync.Mutex
	creds *credentials
}

// NewGateway creates a new Authorize.Net gateway adapter.
func NewGateway() gateway.PaymentGateway {
	return &AuthorizeNetGateway{}
}

func scriptURLFor(environment string) string {
	if environment == "production" {
		return productionScriptURL
	}
	return sandboxScriptURL
}

// Initialize loads Accept.js and validates that both the client key and the
// API login id are configured.
func (g *AuthorizeNetGateway) Initialize(ctx context.Context, env gateway.EnvironmentAdapter) error {
	if !env.IsBrowser() {
		return gateway.NewError(gateway.ErrSdkLoadFailed,
			"authorize.net sdk requires a browser-capable environment", gateway.WithGateway(gateway.AuthorizeNet))
	}

	return g.guard.Do(ctx, func(ctx context.Context) error {
		cfg := env.Config()
		if cfg == nil || cfg.AuthorizeNetClientKey == "" || cfg.AuthorizeNetLoginID == "" {
			return gateway.NewError(gateway.ErrConfigMissing,
				"authorize.net requires both a client key and an api login id", gateway.WithGateway(gateway.AuthorizeNet))
		}

		if err := gateway.DefaultSDKLoader.Load(ctx, env, scriptURLFor(cfg.Environment)); err != nil {
			return err
		}

		endpoint := cfg.AuthorizeNetEndpoint
		if endpoint == "" {
			endpoint = sandboxEndpoint
			if cfg.Environment == "production" {
				endpoint = productionEndpoint
			}
		}

		g.mu.Lock()
		g.creds = &credentials{
			clientKey: cfg.AuthorizeNetClientKey,
			loginID:   cfg.AuthorizeNetLoginID,
			endpoint:  endpoint,
		}
		g.mu.Unlock()
		return nil
	})
}

type dispatchRequest struct {
	SecurePaymentContainerRequest securePaymentContainer `json:"securePaymentContainerRequest"`
}

type securePaymentContainer struct {
	MerchantAuthentication merchantAuthentication `json:"merchantAuthentication"`
	Data                   containerData          `json:"data"`
}

type merchantAuthentication struct {
	Name      string `json:"name"`
	ClientKey string `json:"clientKey"`
}

type containerData struct {
	Type  string       `json:"type"`
	ID    string       `json:"id"`
	Token responseCard `json:"token"`
}

type responseCard struct {
	CardNumber     string `json:"cardNumber"`
	ExpirationDate string `json:"expirationDate"`
	CardCode       string `json:"cardCode"`
}

type dispatchResponse struct {
	OpaqueData struct {
		DataDescriptor string `json:"dataDescriptor"`
		DataValue      string `json:"dataValue"`
	} `json:"opaqueData"`
	Messages struct {
		ResultCode string `json:"resultCode"`
		Message    []struct {
			Code string `json:"code"`
			Text string `json:"text"`
		} `json:"message"`
	} `json:"messages"`
}

// zeroPadMonth normalizes a 1-digit month to the MM form the vendor expects.
func zeroPadMonth(month string) string {
	if n, err := strconv.Atoi(month); err == nil && n >= 1 && n <= 9 {
		return fmt.Sprintf("0%d", n)
	}
	return month
}

// CreateToken dispatches card data to the Accept endpoint and returns the
// opaque data value. Requires Initialize to have completed.
func (g *AuthorizeNetGateway) CreateToken(ctx context.Context, card gateway.Card, env gateway.EnvironmentAdapter) (string, error) {
	g.mu.Lock()
	creds := g.creds
	g.mu.Unlock()

	if creds == nil {
		return "", gateway.NewError(gateway.ErrNotReady,
			"authorize.net adapter is not initialized", gateway.WithGateway(gateway.AuthorizeNet))
	}

	payload := dispatchRequest{
		SecurePaymentContainerRequest: securePaymentContainer{
			MerchantAuthentication: merchantAuthentication{
				Name:      creds.loginID,
				ClientKey: creds.clientKey,
			},
			Data: containerData{
				Type: "TOKEN",
				ID:   "paybridge",
				Token: responseCard{
					CardNumber:     card.Number,
					ExpirationDate: zeroPadMonth(card.ExpMonth) + card.ExpYear,
					CardCode:       card.CVC,
				},
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", gateway.NewError(gateway.ErrTokenizationFailed,
			"failed to encode dispatch request", gateway.WithGateway(gateway.AuthorizeNet), gateway.WithCause(err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, creds.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", gateway.NewError(gateway.ErrTokenizationFailed,
			"failed to build dispatch request", gateway.WithGateway(gateway.AuthorizeNet), gateway.WithCause(err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := env.HTTPClient().Do(req)
	if err != nil {
		return "", gateway.NewError(gateway.ErrNetworkError,
			"dispatch request failed", gateway.WithGateway(gateway.AuthorizeNet), gateway.WithCause(err))
	}
	defer resp.Body.Close()

	var result dispatchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", gateway.NewError(gateway.ErrTokenizationFailed,
			"failed to parse dispatch response", gateway.WithGateway(gateway.AuthorizeNet), gateway.WithCause(err))
	}

	if result.Messages.ResultCode == "Error" {
		msg := "card was rejected"
		if len(result.Messages.Message) > 0 {
			msg = result.Messages.Message[0].Text
		}
		return "", gateway.NewError(gateway.ErrInvalidCard, msg, gateway.WithGateway(gateway.AuthorizeNet))
	}

	if result.OpaqueData.DataValue == "" {
		return "", gateway.NewError(gateway.ErrTokenizationFailed,
			"dispatch response carried no opaque data", gateway.WithGateway(gateway.AuthorizeNet))
	}

	return result.OpaqueData.DataValue, nil
}

// Reset clears credentials and readiness unconditionally.
func (g *AuthorizeNetGateway) Reset() {
	g.guard.Reset()
	g.mu.Lock()
	g.creds = nil
	g.mu.Unlock()
}

// IsReady reports whether initialization stored usable credentials.
func (g *AuthorizeNetGateway) IsReady() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.creds != nil
}
