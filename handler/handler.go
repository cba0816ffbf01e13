// Package handler implements the reference backend surface the paybridge
// library calls: gateway detection, Braintree client tokens and Stripe
// payment methods/sessions. With a Stripe secret key configured the Stripe
// endpoints call Stripe; with DevMode enabled they return fabricated
// identifiers instead. Mock responses never happen silently: DevMode is an
// explicit switch and endpoints without a real backing reply 503 when it is
// off.
package handler

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/stripe/stripe-go/v82"
	checkoutsession "github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/paymentmethod"

	"github.com/paybridge/paybridge/gateway"
	"github.com/paybridge/paybridge/infra/config"
	"github.com/paybridge/paybridge/infra/logger"
)

// Config controls the reference backend behavior.
type Config struct {
	// BaseURL is the externally visible address of this server, used in
	// fabricated Braintree client tokens.
	BaseURL string

	// DevMode allows fabricated tokens when no real gateway is configured.
	DevMode bool

	// StripeSecretKey enables real Stripe calls when present.
	StripeSecretKey string

	// Detection settings returned by the detection endpoint.
	DetectGatewayName    string
	DetectPaymentThrough string
	DetectRedirectURL    string
}

// ConfigFromEnv reads the backend settings from the environment.
func ConfigFromEnv() Config {
	return Config{
		BaseURL:              config.GetEnv("DEVSERVER_BASE_URL", "http://localhost:9999"),
		DevMode:              config.GetBoolEnv("DEVSERVER_DEV_MODE", false),
		StripeSecretKey:      config.GetEnv("STRIPE_SECRET_KEY", ""),
		DetectGatewayName:    config.GetEnv("DETECT_GATEWAY_NAME", "Stripe"),
		DetectPaymentThrough: config.GetEnv("DETECT_PAYMENT_THROUGH", "Stripe"),
		DetectRedirectURL:    config.GetEnv("DETECT_REDIRECT_URL", ""),
	}
}

// Handler serves the reference backend endpoints.
type Handler struct {
	cfg       Config
	startTime time.Time
}

// New creates a Handler.
func New(cfg Config) *Handler {
	if cfg.StripeSecretKey != "" {
		stripe.Key = cfg.StripeSecretKey
	}
	return &Handler{cfg: cfg, startTime: time.Now()}
}

// Routes mounts every endpoint on the router.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/health", h.Health)
	r.Get("/api/integration/getDefaultSubscriptionType", h.DetectGateway)
	r.Get("/api/braintree/token", h.BraintreeClientToken)
	r.Post("/api/payments/stripe/create-payment-method", h.CreatePaymentMethod)
	r.Post("/api/payments/stripe/create-session", h.CreateCheckoutSession)
	r.Get("/api/payments/stripe/session/{sessionID}", h.RetrieveCheckoutSession)
	r.Post("/dev/braintree/v1/payment_methods/credit_cards", h.DevBraintreeTokenize)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// Health reports liveness and uptime.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"uptime":  time.Since(h.startTime).String(),
		"devMode": h.cfg.DevMode,
	})
}

// DetectGateway returns the configured gateway detection envelope.
func (h *Handler) DetectGateway(w http.ResponseWriter, r *http.Request) {
	resp := gateway.DetectionResponse{
		Status: true,
		Data: gateway.DetectionData{
			GatewayName:    h.cfg.DetectGatewayName,
			PaymentThrough: h.cfg.DetectPaymentThrough,
			RedirectURL: gateway.RedirectInfo{
				IsAvailable: h.cfg.DetectRedirectURL != "",
				URL:         h.cfg.DetectRedirectURL,
			},
		},
	}
	writeJSON(w, http.StatusOK, resp)
}

// BraintreeClientToken issues a client token. Without real Braintree
// credentials only DevMode can answer, with a fabricated token pointing the
// client API at this server's dev tokenizer.
func (h *Handler) BraintreeClientToken(w http.ResponseWriter, r *http.Request) {
	if !h.cfg.DevMode {
		writeError(w, http.StatusServiceUnavailable, "braintree is not configured; enable DEVSERVER_DEV_MODE for fabricated tokens")
		return
	}

	payload := map[string]string{
		"authorizationFingerprint": "dev-" + uuid.New().String(),
		"clientApiUrl":             h.cfg.BaseURL + "/dev/braintree",
	}
	raw, _ := json.Marshal(payload)
	token := base64.StdEncoding.EncodeToString(raw)

	logger.Debug("issued dev braintree client token", logger.LogContext{Gateway: "Braintree"})
	writeJSON(w, http.StatusOK, map[string]string{"clientToken": token})
}

// DevBraintreeTokenize fabricates a nonce for the dev client token flow.
func (h *Handler) DevBraintreeTokenize(w http.ResponseWriter, r *http.Request) {
	if !h.cfg.DevMode {
		writeError(w, http.StatusServiceUnavailable, "dev tokenizer is disabled")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"creditCards": []map[string]string{
			{"nonce": "dev-nonce-" + uuid.New().String()},
		},
	})
}

type createPaymentMethodRequest struct {
	CardNumber string `json:"cardNumber"`
	ExpMonth   string `json:"expMonth"`
	ExpYear    string `json:"expYear"`
	CVC        string `json:"cvc"`
}

// CreatePaymentMethod exchanges card fields for a Stripe payment method id.
func (h *Handler) CreatePaymentMethod(w http.ResponseWriter, r *http.Request) {
	var req createPaymentMethodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed request body", "code": "bad_request"})
		return
	}

	if h.cfg.StripeSecretKey == "" {
		if h.cfg.DevMode {
			writeJSON(w, http.StatusOK, map[string]string{"paymentMethodId": "pm_dev_" + uuid.New().String()})
			return
		}
		writeError(w, http.StatusServiceUnavailable, "stripe is not configured")
		return
	}

	params := &stripe.PaymentMethodParams{
		Type: stripe.String("card"),
		Card: &stripe.PaymentMethodCardParams{
			Number:   stripe.String(req.CardNumber),
			ExpMonth: stripe.Int64(parseInt64(req.ExpMonth)),
			ExpYear:  stripe.Int64(parseInt64(req.ExpYear)),
			CVC:      stripe.String(req.CVC),
		},
	}

	pm, err := paymentmethod.New(params)
	if err != nil {
		logger.Error("stripe payment method creation failed", err, logger.LogContext{Gateway: "Stripe"})
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error(), "code": "card_error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"paymentMethodId": pm.ID})
}

// CreateCheckoutSession creates a Stripe-hosted checkout session.
func (h *Handler) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	var req gateway.CheckoutSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if h.cfg.StripeSecretKey == "" {
		if h.cfg.DevMode {
			writeJSON(w, http.StatusOK, gateway.CheckoutSession{
				SessionID: "cs_dev_" + uuid.New().String(),
				URL:       h.cfg.BaseURL + "/dev/checkout",
			})
			return
		}
		writeError(w, http.StatusServiceUnavailable, "stripe is not configured")
		return
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(req.Currency),
					UnitAmount: stripe.Int64(req.Amount),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String("Checkout"),
					},
				},
			},
		},
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	session, err := checkoutsession.New(params)
	if err != nil {
		logger.Error("stripe session creation failed", err, logger.LogContext{Gateway: "Stripe"})
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, gateway.CheckoutSession{SessionID: session.ID, URL: session.URL})
}

// RetrieveCheckoutSession returns session details including payment_status.
func (h *Handler) RetrieveCheckoutSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "session id is required")
		return
	}

	if h.cfg.StripeSecretKey == "" {
		if h.cfg.DevMode {
			writeJSON(w, http.StatusOK, gateway.CheckoutSession{
				SessionID:     sessionID,
				PaymentStatus: "paid",
			})
			return
		}
		writeError(w, http.StatusServiceUnavailable, "stripe is not configured")
		return
	}

	session, err := checkoutsession.Get(sessionID, nil)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, gateway.CheckoutSession{
		SessionID:     session.ID,
		URL:           session.URL,
		PaymentStatus: string(session.PaymentStatus),
	})
}

func parseInt64(s string) int64 {
	var n int64
	_, _ = fmt.Sscan(s, &n)
	return n
}
