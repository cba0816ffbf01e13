package config

import (
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// GetEnv returns the value of an environment variable or a default value
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetBoolEnv returns the boolean value of an environment variable or a default value
func GetBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// GetIntEnv returns the integer value of an environment variable or a default value
func GetIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// LoadEnv loads a .env file if one is present. Missing files are not an
// error; explicit environment always wins over file values.
func LoadEnv(paths ...string) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		_ = godotenv.Load(p)
	}
}

// GatewayConfig is the typed configuration gateway adapters read through the
// environment adapter. Fields are optional per gateway; each adapter checks
// the fields it needs during Initialize, and the whole struct is validated
// once at manager construction so malformed values surface early.
type GatewayConfig struct {
	// APIBaseURL is the backend the library calls for gateway detection,
	// Stripe payment methods/sessions and Braintree client tokens.
	APIBaseURL string `validate:"required,url"`

	// StripePublishableKey must carry the pk_ prefix Stripe issues.
	StripePublishableKey string `validate:"omitempty,startswith=pk_"`

	// BraintreeTokenURL overrides the default {APIBaseURL}/api/braintree/token.
	BraintreeTokenURL string `validate:"omitempty,url"`

	// AuthorizeNetClientKey and AuthorizeNetLoginID are both required for
	// Authorize.Net Edge Checkout.
	AuthorizeNetClientKey string
	AuthorizeNetLoginID   string

	// AuthorizeNetEndpoint overrides the vendor Accept endpoint; when empty
	// the sandbox or production default is chosen from Environment.
	AuthorizeNetEndpoint string `validate:"omitempty,url"`

	// Environment is sandbox, test or production.
	Environment string `validate:"omitempty,oneof=sandbox test production"`
}

var validate = validator.New()

// Validate checks the structural shape of the configuration. Per-gateway
// required fields are enforced by the adapters, not here.
func (c *GatewayConfig) Validate() error {
	return validate.Struct(c)
}

// FromEnv builds a GatewayConfig from environment variables.
func FromEnv() *GatewayConfig {
	return &GatewayConfig{
		APIBaseURL:            GetEnv("PAYBRIDGE_API_BASE_URL", ""),
		StripePublishableKey:  GetEnv("STRIPE_PUBLISHABLE_KEY", ""),
		BraintreeTokenURL:     GetEnv("BRAINTREE_TOKEN_URL", ""),
		AuthorizeNetClientKey: GetEnv("AUTHORIZENET_CLIENT_KEY", ""),
		AuthorizeNetLoginID:   GetEnv("AUTHORIZENET_LOGIN_ID", ""),
		AuthorizeNetEndpoint:  GetEnv("AUTHORIZENET_ENDPOINT", ""),
		Environment:           GetEnv("PAYBRIDGE_ENVIRONMENT", "sandbox"),
	}
}
