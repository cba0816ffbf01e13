package gateway

import "context"

// GatewayName identifies one of the supported payment gateways.
type GatewayName string

const (
	Stripe       GatewayName = "Stripe"
	Braintree    GatewayName = "Braintree"
	AuthorizeNet GatewayName = "Authorize.Net"
)

// SupportedGateways lists every gateway the library knows about.
var SupportedGateways = []GatewayName{Stripe, Braintree, AuthorizeNet}

// Valid reports whether the name is one of the supported gateways.
func (n GatewayName) Valid() bool {
	switch n {
	case Stripe, Braintree, AuthorizeNet:
		return true
	}
	return false
}

// Scenario is one of the four mutually exclusive checkout flows resolved
// from backend configuration.
type Scenario string

const (
	ScenarioStripeSession    Scenario = "stripe-session"
	ScenarioStripeRedirect   Scenario = "stripe-redirect"
	ScenarioBraintreeEdge    Scenario = "braintree-edge"
	ScenarioAuthorizeNetEdge Scenario = "authorizenet-edge"
)

// TokenType describes what kind of opaque token a scenario produces.
type TokenType string

const (
	TokenSessionID TokenType = "sessionId"
	TokenNonce     TokenType = "nonce"
	TokenRawCard   TokenType = "rawCard"
)

// Card holds raw card input. It is never persisted; it flows through
// validation and into exactly one adapter call per tokenization attempt.
type Card struct {
	Number   string `json:"number" validate:"required"`
	ExpMonth string `json:"expMonth" validate:"required"`
	ExpYear  string `json:"expYear" validate:"required"`
	CVC      string `json:"cvc" validate:"required"`
}

// PaymentConfiguration is the resolved checkout configuration. It is set as
// a whole by detection (never merged) and discarded on ClearPaymentContext.
type PaymentConfiguration struct {
	GatewayName      GatewayName `json:"gatewayName" validate:"required"`
	PaymentMethod    string      `json:"paymentMethod" validate:"required"`
	RequiresRedirect bool        `json:"requiresRedirect"`
	RedirectURL      string      `json:"redirectUrl,omitempty"`
	Scenario         Scenario    `json:"scenario" validate:"required"`
	TokenType        TokenType   `json:"tokenType" validate:"required"`
}

// TokenResult is the outcome of a manager-level tokenization.
type TokenResult struct {
	Token       string      `json:"token"`
	GatewayName GatewayName `json:"gatewayName"`
}

// ScenarioTokenResult is the outcome of scenario-level tokenization, carrying
// the token type the resolved scenario produces.
type ScenarioTokenResult struct {
	Token       string      `json:"token"`
	TokenType   TokenType   `json:"tokenType"`
	GatewayName GatewayName `json:"gatewayName"`
}

// TokenInput carries the scenario-specific inputs for GetPaymentMethodToken.
// Card is required by the edge-checkout scenarios, SessionRequest by the
// stripe-session scenario; stripe-redirect needs neither.
type TokenInput struct {
	Card           *Card
	SessionRequest *CheckoutSessionRequest
}

// PaymentGateway is the contract every gateway adapter implements. Adapter
// state is instance-owned: two adapters of the same gateway never share
// readiness or cached vendor state.
type PaymentGateway interface {
	// Initialize loads the vendor SDK and constructs the vendor client.
	// Idempotent and single-flight: concurrent callers share one attempt,
	// and a failed attempt clears its in-flight slot so a later call can
	// start over.
	Initialize(ctx context.Context, env EnvironmentAdapter) error

	// CreateToken exchanges card data for a gateway-issued opaque token.
	CreateToken(ctx context.Context, card Card, env EnvironmentAdapter) (string, error)

	// Reset clears all adapter-local state unconditionally.
	Reset()

	// IsReady reports whether the adapter holds a usable vendor client.
	IsReady() bool
}

// GatewayFactory creates a new PaymentGateway instance.
type GatewayFactory func() PaymentGateway
