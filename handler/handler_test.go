package handler

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paybridge/paybridge/gateway"
)

func newTestServer(t *testing.T, cfg Config) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	New(cfg).Routes(r)
	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return server
}

func devConfig(baseURL string) Config {
	return Config{
		BaseURL:              baseURL,
		DevMode:              true,
		DetectGatewayName:    "Braintree",
		DetectPaymentThrough: "Edge Checkout",
	}
}

func getJSON(t *testing.T, url string, out any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func postJSON(t *testing.T, url, body string, out any) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func TestHealth(t *testing.T) {
	server := newTestServer(t, devConfig(""))

	var body map[string]any
	resp := getJSON(t, server.URL+"/health", &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, true, body["devMode"])
}

func TestDetectGateway(t *testing.T) {
	server := newTestServer(t, Config{
		DevMode:              true,
		DetectGatewayName:    "Stripe",
		DetectPaymentThrough: "Stripe",
		DetectRedirectURL:    "https://pay.example.com/checkout",
	})

	var resp gateway.DetectionResponse
	getJSON(t, server.URL+"/api/integration/getDefaultSubscriptionType", &resp)

	require.True(t, resp.Status)
	assert.Equal(t, "Stripe", resp.Data.GatewayName)
	assert.Equal(t, "Stripe", resp.Data.PaymentThrough)
	assert.True(t, resp.Data.RedirectURL.IsAvailable)

	// The envelope must resolve through the client's scenario table.
	cfg, err := gateway.DeterminePaymentScenario(resp)
	require.NoError(t, err)
	assert.Equal(t, gateway.ScenarioStripeRedirect, cfg.Scenario)
}

func TestBraintreeClientToken(t *testing.T) {
	t.Run("dev mode fabricates a decodable token", func(t *testing.T) {
		server := newTestServer(t, devConfig("http://devserver.test"))

		var body map[string]string
		resp := getJSON(t, server.URL+"/api/braintree/token", &body)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		raw, err := base64.StdEncoding.DecodeString(body["clientToken"])
		require.NoError(t, err)

		var decoded map[string]string
		require.NoError(t, json.Unmarshal(raw, &decoded))
		assert.Equal(t, "http://devserver.test/dev/braintree", decoded["clientApiUrl"])
		assert.NotEmpty(t, decoded["authorizationFingerprint"])
	})

	t.Run("disabled outside dev mode", func(t *testing.T) {
		server := newTestServer(t, Config{})
		resp := getJSON(t, server.URL+"/api/braintree/token", nil)
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})
}

func TestDevBraintreeTokenize(t *testing.T) {
	server := newTestServer(t, devConfig(""))

	var body struct {
		CreditCards []struct {
			Nonce string `json:"nonce"`
		} `json:"creditCards"`
	}
	resp := postJSON(t, server.URL+"/dev/braintree/v1/payment_methods/credit_cards", `{}`, &body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, body.CreditCards, 1)
	assert.True(t, strings.HasPrefix(body.CreditCards[0].Nonce, "dev-nonce-"))
}

func TestCreatePaymentMethod(t *testing.T) {
	t.Run("dev mode fabricates an id", func(t *testing.T) {
		server := newTestServer(t, devConfig(""))

		var body map[string]string
		resp := postJSON(t, server.URL+"/api/payments/stripe/create-payment-method",
			`{"cardNumber":"4242424242424242","expMonth":"12","expYear":"2030","cvc":"123"}`, &body)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.True(t, strings.HasPrefix(body["paymentMethodId"], "pm_dev_"))
	})

	t.Run("malformed body", func(t *testing.T) {
		server := newTestServer(t, devConfig(""))
		resp := postJSON(t, server.URL+"/api/payments/stripe/create-payment-method", `{not json`, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("unconfigured outside dev mode", func(t *testing.T) {
		server := newTestServer(t, Config{})
		resp := postJSON(t, server.URL+"/api/payments/stripe/create-payment-method", `{}`, nil)
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})
}

func TestCreateCheckoutSession(t *testing.T) {
	validBody := `{
		"amount": 2500,
		"currency": "usd",
		"successUrl": "https://shop.example.com/success",
		"cancelUrl": "https://shop.example.com/cancel"
	}`

	t.Run("dev mode fabricates a session", func(t *testing.T) {
		server := newTestServer(t, devConfig("http://devserver.test"))

		var session gateway.CheckoutSession
		resp := postJSON(t, server.URL+"/api/payments/stripe/create-session", validBody, &session)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.True(t, strings.HasPrefix(session.SessionID, "cs_dev_"))
		assert.Equal(t, "http://devserver.test/dev/checkout", session.URL)
	})

	t.Run("rejects invalid request", func(t *testing.T) {
		server := newTestServer(t, devConfig(""))
		resp := postJSON(t, server.URL+"/api/payments/stripe/create-session", `{"amount": 0}`, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("DEVSERVER_DEV_MODE", "true")
	t.Setenv("DEVSERVER_BASE_URL", "http://localhost:8080")
	t.Setenv("DETECT_GATEWAY_NAME", "Authorize.Net")
	t.Setenv("DETECT_PAYMENT_THROUGH", "Edge Checkout")

	cfg := ConfigFromEnv()
	assert.True(t, cfg.DevMode)
	assert.Equal(t, "http://localhost:8080", cfg.BaseURL)
	assert.Equal(t, "Authorize.Net", cfg.DetectGatewayName)
	assert.Equal(t, "Edge Checkout", cfg.DetectPaymentThrough)
}
