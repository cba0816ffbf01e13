package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
)

const (
	createSessionEndpoint   = "/api/payments/stripe/create-session"
	retrieveSessionEndpoint = "/api/payments/stripe/session/"
)

// CheckoutSessionRequest asks the backend to create a Stripe-hosted
// checkout session.
type CheckoutSessionRequest struct {
	Amount        int64             `json:"amount" validate:"required,gt=0"`
	Currency      string            `json:"currency" validate:"required,len=3"`
	SuccessURL    string            `json:"successUrl" validate:"required,url"`
	CancelURL     string            `json:"cancelUrl" validate:"required,url"`
	CustomerEmail string            `json:"customerEmail,omitempty" validate:"omitempty,email"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// CheckoutSession is the backend's session record.
type CheckoutSession struct {
	SessionID     string `json:"sessionId"`
	URL           string `json:"url,omitempty"`
	PaymentStatus string `json:"payment_status,omitempty"`
}

// Validate checks the request shape before it leaves the process.
func (r *CheckoutSessionRequest) Validate() error {
	if err := configValidator.Struct(r); err != nil {
		return NewError(ErrValidationError, "invalid checkout session request", WithCause(err))
	}
	return nil
}

// CreateCheckoutSession posts a session request to the backend. Used by the
// stripe-session and stripe-redirect scenarios.
func CreateCheckoutSession(ctx context.Context, env EnvironmentAdapter, request CheckoutSessionRequest) (*CheckoutSession, error) {
	cfg := env.Config()
	if cfg == nil || cfg.APIBaseURL == "" {
		return nil, NewError(ErrConfigMissing, "api base url is not configured")
	}

	if err := request.Validate(); err != nil {
		return nil, err
	}

	body, err := json.Marshal(request)
	if err != nil {
		return nil, NewError(ErrTokenizationFailed, "failed to encode session request", WithCause(err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.APIBaseURL+createSessionEndpoint, bytes.NewReader(body))
	if err != nil {
		return nil, NewError(ErrTokenizationFailed, "failed to build session request", WithCause(err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := env.HTTPClient().Do(req)
	if err != nil {
		return nil, NewError(ErrNetworkError, "checkout session request failed", WithCause(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, Errorf(ErrTokenizationFailed, "checkout session creation returned status %d", resp.StatusCode)
	}

	var session CheckoutSession
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, NewError(ErrTokenizationFailed, "failed to parse session response", WithCause(err))
	}

	if session.SessionID == "" {
		return nil, NewError(ErrTokenizationFailed, "backend returned no session id")
	}

	return &session, nil
}

// RetrieveCheckoutSession fetches session details, including payment_status,
// after a redirect return.
func RetrieveCheckoutSession(ctx context.Context, env EnvironmentAdapter, sessionID string) (*CheckoutSession, error) {
	cfg := env.Config()
	if cfg == nil || cfg.APIBaseURL == "" {
		return nil, NewError(ErrConfigMissing, "api base url is not configured")
	}
	if sessionID == "" {
		return nil, NewError(ErrValidationError, "session id is required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.APIBaseURL+retrieveSessionEndpoint+sessionID, nil)
	if err != nil {
		return nil, NewError(ErrTokenizationFailed, "failed to build session lookup", WithCause(err))
	}

	resp, err := env.HTTPClient().Do(req)
	if err != nil {
		return nil, NewError(ErrNetworkError, "checkout session lookup failed", WithCause(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, Errorf(ErrTokenizationFailed, "checkout session lookup returned status %d", resp.StatusCode)
	}

	var session CheckoutSession
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, NewError(ErrTokenizationFailed, "failed to parse session response", WithCause(err))
	}

	return &session, nil
}
