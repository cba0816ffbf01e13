package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("PAYBRIDGE_TEST_STR", "value")
	assert.Equal(t, "value", GetEnv("PAYBRIDGE_TEST_STR", "fallback"))
	assert.Equal(t, "fallback", GetEnv("PAYBRIDGE_TEST_UNSET", "fallback"))
}

func TestGetBoolEnv(t *testing.T) {
	t.Setenv("PAYBRIDGE_TEST_BOOL", "true")
	assert.True(t, GetBoolEnv("PAYBRIDGE_TEST_BOOL", false))

	t.Setenv("PAYBRIDGE_TEST_BOOL", "not-a-bool")
	assert.True(t, GetBoolEnv("PAYBRIDGE_TEST_BOOL", true))

	assert.False(t, GetBoolEnv("PAYBRIDGE_TEST_BOOL_UNSET", false))
}

func TestGetIntEnv(t *testing.T) {
	t.Setenv("PAYBRIDGE_TEST_INT", "42")
	assert.Equal(t, 42, GetIntEnv("PAYBRIDGE_TEST_INT", 7))

	t.Setenv("PAYBRIDGE_TEST_INT", "nope")
	assert.Equal(t, 7, GetIntEnv("PAYBRIDGE_TEST_INT", 7))
}

func TestGatewayConfig_Validate(t *testing.T) {
	valid := func() *GatewayConfig {
		return &GatewayConfig{
			APIBaseURL:           "https://api.example.com",
			StripePublishableKey: "pk_test_abc",
			Environment:          "sandbox",
		}
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("minimal", func(t *testing.T) {
		cfg := &GatewayConfig{APIBaseURL: "https://api.example.com"}
		assert.NoError(t, cfg.Validate())
	})

	tests := []struct {
		name   string
		mutate func(cfg *GatewayConfig)
	}{
		{"missing base url", func(cfg *GatewayConfig) { cfg.APIBaseURL = "" }},
		{"base url not a url", func(cfg *GatewayConfig) { cfg.APIBaseURL = "not a url" }},
		{"wrong stripe key prefix", func(cfg *GatewayConfig) { cfg.StripePublishableKey = "sk_live_abc" }},
		{"bad environment", func(cfg *GatewayConfig) { cfg.Environment = "staging" }},
		{"bad token url", func(cfg *GatewayConfig) { cfg.BraintreeTokenURL = "::::" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("PAYBRIDGE_API_BASE_URL", "https://api.example.com")
	t.Setenv("STRIPE_PUBLISHABLE_KEY", "pk_test_env")
	t.Setenv("AUTHORIZENET_CLIENT_KEY", "ck_env")
	t.Setenv("AUTHORIZENET_LOGIN_ID", "login_env")

	cfg := FromEnv()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "https://api.example.com", cfg.APIBaseURL)
	assert.Equal(t, "pk_test_env", cfg.StripePublishableKey)
	assert.Equal(t, "ck_env", cfg.AuthorizeNetClientKey)
	assert.Equal(t, "login_env", cfg.AuthorizeNetLoginID)
	assert.Equal(t, "sandbox", cfg.Environment, "environment defaults to sandbox")
}
