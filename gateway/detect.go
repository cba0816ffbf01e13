package gateway

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/paybridge/paybridge/infra/logger"
)

const detectionEndpoint = "/api/integration/getDefaultSubscriptionType"

// PaymentThrough values the backend reports.
const (
	PaymentThroughStripe       = "Stripe"
	PaymentThroughEdgeCheckout = "Edge Checkout"
)

// RedirectInfo describes whether the backend wants a hosted redirect flow.
type RedirectInfo struct {
	IsAvailable bool   `json:"isAvailable"`
	URL         string `json:"url,omitempty"`
}

// DetectionData is the payload of a gateway detection response.
type DetectionData struct {
	GatewayName    string       `json:"gatewayName"`
	PaymentThrough string       `json:"paymentThrough"`
	RedirectURL    RedirectInfo `json:"redirectUrl"`
}

// DetectionResponse is the backend's gateway detection envelope.
type DetectionResponse struct {
	Status  bool          `json:"Status"`
	MsgCode string        `json:"msgCode,omitempty"`
	Message string        `json:"message,omitempty"`
	Data    DetectionData `json:"data"`
	Token   string        `json:"Token,omitempty"`
}

// DeterminePaymentScenario maps a detection response to exactly one of the
// four supported scenarios. The mapping is total and order-independent:
//
//	Stripe        / Stripe        / no redirect -> stripe-session    (sessionId)
//	Stripe        / Stripe        / redirect    -> stripe-redirect   (sessionId)
//	Braintree     / Edge Checkout / (ignored)   -> braintree-edge    (nonce)
//	Authorize.Net / Edge Checkout / (ignored)   -> authorizenet-edge (rawCard)
//
// Every other combination fails with NotSupported naming the pair.
func DeterminePaymentScenario(resp DetectionResponse) (*PaymentConfiguration, error) {
	data := resp.Data
	name := GatewayName(data.GatewayName)

	switch {
	case name == Stripe && data.PaymentThrough == PaymentThroughStripe:
		if data.RedirectURL.IsAvailable && data.RedirectURL.URL != "" {
			return &PaymentConfiguration{
				GatewayName:      Stripe,
				PaymentMethod:    data.PaymentThrough,
				RequiresRedirect: true,
				RedirectURL:      data.RedirectURL.URL,
				Scenario:         ScenarioStripeRedirect,
				TokenType:        TokenSessionID,
			}, nil
		}
		return &PaymentConfiguration{
			GatewayName:   Stripe,
			PaymentMethod: data.PaymentThrough,
			Scenario:      ScenarioStripeSession,
			TokenType:     TokenSessionID,
		}, nil

	case name == Braintree && data.PaymentThrough == PaymentThroughEdgeCheckout:
		return &PaymentConfiguration{
			GatewayName:   Braintree,
			PaymentMethod: data.PaymentThrough,
			Scenario:      ScenarioBraintreeEdge,
			TokenType:     TokenNonce,
		}, nil

	case name == AuthorizeNet && data.PaymentThrough == PaymentThroughEdgeCheckout:
		return &PaymentConfiguration{
			GatewayName:   AuthorizeNet,
			PaymentMethod: data.PaymentThrough,
			Scenario:      ScenarioAuthorizeNetEdge,
			TokenType:     TokenRawCard,
		}, nil
	}

	return nil, Errorf(ErrNotSupported, "unsupported gateway/payment combination: '%s' via '%s'",
		data.GatewayName, data.PaymentThrough)
}

// DetectActiveGateway asks the backend which gateway and checkout flow the
// merchant account uses and resolves it into a PaymentConfiguration.
func DetectActiveGateway(ctx context.Context, env EnvironmentAdapter) (*PaymentConfiguration, error) {
	cfg := env.Config()
	if cfg == nil || cfg.APIBaseURL == "" {
		return nil, NewError(ErrConfigMissing, "api base url is not configured")
	}

	url := cfg.APIBaseURL + detectionEndpoint
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, NewError(ErrDetectionFailed, "failed to build detection request", WithCause(err))
	}

	resp, err := env.HTTPClient().Do(req)
	if err != nil {
		return nil, NewError(ErrNetworkError, "gateway detection request failed", WithCause(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, Errorf(ErrDetectionFailed, "gateway detection returned status %d", resp.StatusCode)
	}

	var detection DetectionResponse
	if err := json.NewDecoder(resp.Body).Decode(&detection); err != nil {
		return nil, NewError(ErrDetectionFailed, "failed to parse detection response", WithCause(err))
	}

	if !detection.Status {
		msg := detection.Message
		if msg == "" {
			msg = "backend reported detection failure"
		}
		return nil, NewError(ErrDetectionFailed, msg, WithDetail("msgCode", detection.MsgCode))
	}

	configuration, err := DeterminePaymentScenario(detection)
	if err != nil {
		return nil, err
	}

	logger.Debug("gateway detected", logger.LogContext{
		Gateway: string(configuration.GatewayName),
		Fields: map[string]any{
			"scenario": string(configuration.Scenario),
		},
	})

	return configuration, nil
}

var configValidator = validator.New()

// ValidatePaymentConfiguration checks structural consistency of a resolved
// configuration without re-deriving it.
func ValidatePaymentConfiguration(cfg *PaymentConfiguration) error {
	if cfg == nil {
		return NewError(ErrValidationError, "payment configuration is nil")
	}

	if err := configValidator.Struct(cfg); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			return Errorf(ErrValidationError, "payment configuration field %s is invalid", verrs[0].Field())
		}
		return NewError(ErrValidationError, "payment configuration is invalid", WithCause(err))
	}

	if !cfg.GatewayName.Valid() {
		return Errorf(ErrValidationError, "unknown gateway name '%s'", cfg.GatewayName)
	}

	if cfg.RequiresRedirect && cfg.RedirectURL == "" {
		return NewError(ErrValidationError, "redirect is required but no redirect url is set")
	}

	return nil
}
