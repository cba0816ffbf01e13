package gateway

import (
	"context"
	"strings"
	"sync"

	"github.com/paybridge/paybridge/infra/logger"
	"github.com/paybridge/paybridge/infra/storage"
)

// activeGatewayStorageKey is the fixed key the active gateway persists under.
const activeGatewayStorageKey = "paybridge:active-gateway"

// ReadyResult is the positive outcome of EnsureGatewayReady. Failure is
// always a returned error, never a negative result value.
type ReadyResult struct {
	Ready       bool        `json:"ready"`
	GatewayName GatewayName `json:"gatewayName"`
}

// initFuture is one shared gateway initialization: concurrent callers wait
// on done and observe the same err.
type initFuture struct {
	done chan struct{}
	err  error
}

// Manager orchestrates gateway detection, SDK readiness and tokenization.
// It owns one adapter instance per gateway, so two managers in the same
// process never corrupt each other's readiness state; only script loading
// stays process-wide through the shared SDKLoader.
type Manager struct {
	env      EnvironmentAdapter
	registry *Registry
	store    storage.Storage
	emitter  *Emitter

	validateCards bool
	enableRetry   bool
	retryOpts     RetryOptions

	mu            sync.Mutex
	adapters      map[GatewayName]PaymentGateway
	readiness     map[GatewayName]*initFuture
	configuration *PaymentConfiguration
}

// ManagerOption customizes a Manager.
type ManagerOption func(*Manager)

// WithRegistry overrides the default adapter registry.
func WithRegistry(r *Registry) ManagerOption {
	return func(m *Manager) { m.registry = r }
}

// WithStorage overrides the active-gateway storage collaborator.
func WithStorage(s storage.Storage) ManagerOption {
	return func(m *Manager) { m.store = s }
}

// WithEmitter overrides the lifecycle event emitter.
func WithEmitter(e *Emitter) ManagerOption {
	return func(m *Manager) { m.emitter = e }
}

// WithCardValidation toggles local card validation before tokenization.
func WithCardValidation(enabled bool) ManagerOption {
	return func(m *Manager) { m.validateCards = enabled }
}

// WithRetryEnabled toggles retry-with-backoff around SDK initialization.
func WithRetryEnabled(enabled bool) ManagerOption {
	return func(m *Manager) { m.enableRetry = enabled }
}

// WithRetryOptions overrides the initialization retry policy.
func WithRetryOptions(opts RetryOptions) ManagerOption {
	return func(m *Manager) { m.retryOpts = opts }
}

// NewManager builds a Manager around an environment adapter. The typed
// configuration is validated here so malformed values surface as
// ConfigMissing at construction, not at first use.
func NewManager(env EnvironmentAdapter, opts ...ManagerOption) (*Manager, error) {
	cfg := env.Config()
	if cfg == nil {
		return nil, NewError(ErrConfigMissing, "environment adapter has no configuration")
	}
	if err := cfg.Validate(); err != nil {
		return nil, NewError(ErrConfigMissing, "gateway configuration is invalid", WithCause(err))
	}

	m := &Manager{
		env:           env,
		registry:      DefaultRegistry,
		store:         storage.NewMemoryStorage(),
		emitter:       NewEmitter(),
		validateCards: true,
		enableRetry:   true,
		retryOpts:     DefaultRetryOptions(),
		adapters:      make(map[GatewayName]PaymentGateway),
		readiness:     make(map[GatewayName]*initFuture),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Events exposes the lifecycle emitter for subscriptions.
func (m *Manager) Events() *Emitter {
	return m.emitter
}

// gatewayFor returns the manager-owned adapter instance for a gateway,
// creating it on first use.
func (m *Manager) gatewayFor(name GatewayName) (PaymentGateway, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if adapter, ok := m.adapters[name]; ok {
		return adapter, nil
	}

	adapter, err := m.registry.CreateGateway(name)
	if err != nil {
		return nil, err
	}
	m.adapters[name] = adapter
	return adapter, nil
}

// initializeGatewaySDK is single-flight per gateway name: the stored future
// is returned to every caller and is never cleared on its own, neither on
// success (repeat calls are cheap) nor on failure (recovery goes through
// ClearPaymentContext, which prevents hot-looping against a broken SDK).
func (m *Manager) initializeGatewaySDK(ctx context.Context, name GatewayName) *initFuture {
	m.mu.Lock()
	if fut, ok := m.readiness[name]; ok {
		m.mu.Unlock()
		return fut
	}
	fut := &initFuture{done: make(chan struct{})}
	m.readiness[name] = fut
	m.mu.Unlock()

	go func() {
		defer close(fut.done)

		m.emitter.Emit(EventGatewayInitializing, name, nil)

		adapter, err := m.gatewayFor(name)
		if err != nil {
			fut.err = err
			m.emitter.Emit(EventGatewayFailed, name, map[string]any{"error": err.Error()})
			return
		}

		operation := func(ctx context.Context) (struct{}, error) {
			return struct{}{}, adapter.Initialize(ctx, m.env)
		}

		if m.enableRetry {
			opts := m.retryOpts
			userOnRetry := opts.OnRetry
			opts.OnRetry = func(attempt int, err error) {
				logger.Warn("gateway initialization retrying", logger.LogContext{
					Gateway: string(name),
					Fields: map[string]any{
						"attempt": attempt,
						"error":   err.Error(),
					},
				})
				if userOnRetry != nil {
					userOnRetry(attempt, err)
				}
			}
			_, err = WithRetry(ctx, operation, opts)
		} else {
			_, err = operation(ctx)
		}

		fut.err = err
		if err != nil {
			m.emitter.Emit(EventGatewayFailed, name, map[string]any{"error": err.Error()})
			return
		}
		m.emitter.Emit(EventGatewayInitialized, name, nil)
	}()

	return fut
}

// EnsureGatewayReady initializes the gateway SDK if needed and waits for the
// shared outcome. Failure propagates as an error, never as a negative
// ReadyResult.
func (m *Manager) EnsureGatewayReady(ctx context.Context, name GatewayName) (ReadyResult, error) {
	if !name.Valid() {
		return ReadyResult{}, Errorf(ErrNotSupported, "unknown gateway '%s'", name)
	}

	fut := m.initializeGatewaySDK(ctx, name)
	select {
	case <-fut.done:
		if fut.err != nil {
			return ReadyResult{}, fut.err
		}
		return ReadyResult{Ready: true, GatewayName: name}, nil
	case <-ctx.Done():
		return ReadyResult{}, NewError(ErrNetworkError, "wait for gateway readiness canceled", WithCause(ctx.Err()))
	}
}

// IsGatewayReady is a pure read of the adapter's readiness state.
func (m *Manager) IsGatewayReady(name GatewayName) bool {
	m.mu.Lock()
	adapter, ok := m.adapters[name]
	m.mu.Unlock()
	return ok && adapter.IsReady()
}

// SetActiveGateway persists the chosen gateway under the fixed storage key.
// The name is not validated against the resolved configuration.
func (m *Manager) SetActiveGateway(name GatewayName) error {
	return m.store.Set(activeGatewayStorageKey, string(name))
}

// ActiveGateway reads the persisted active gateway, "" when unset.
func (m *Manager) ActiveGateway() GatewayName {
	value, _ := m.store.Get(activeGatewayStorageKey)
	return GatewayName(value)
}

// CreatePaymentToken validates the card (when enabled), ensures the gateway
// is ready and dispatches tokenization to the matching adapter.
func (m *Manager) CreatePaymentToken(ctx context.Context, card Card, name GatewayName) (*TokenResult, error) {
	if m.validateCards {
		if msgs := ValidateCard(card); len(msgs) > 0 {
			err := NewError(ErrValidationError, strings.Join(msgs, "; "), WithGateway(name))
			m.emitter.Emit(EventValidationFailed, name, map[string]any{"messages": msgs})
			return nil, err
		}
	}

	if _, err := m.EnsureGatewayReady(ctx, name); err != nil {
		return nil, err
	}

	m.emitter.Emit(EventTokenizationStarted, name, map[string]any{
		"brand": string(DetectCardBrand(card.Number)),
	})

	adapter, err := m.gatewayFor(name)
	if err != nil {
		return nil, err
	}

	token, err := adapter.CreateToken(ctx, card, m.env)
	if err != nil {
		m.emitter.Emit(EventTokenizationFailed, name, map[string]any{"error": err.Error()})
		if _, ok := AsPaymentError(err); ok {
			return nil, err
		}
		return nil, NewError(ErrTokenizationFailed, "tokenization failed", WithGateway(name), WithCause(err))
	}

	m.emitter.Emit(EventTokenizationSuccess, name, map[string]any{
		"token": logger.TokenPreview(token),
	})

	return &TokenResult{Token: token, GatewayName: name}, nil
}

// ClearPaymentContext removes the persisted active gateway, resets every
// instantiated adapter and empties the readiness map. This is the only
// supported recovery from a previously failed initialization.
func (m *Manager) ClearPaymentContext() {
	_ = m.store.Remove(activeGatewayStorageKey)

	m.mu.Lock()
	adapters := make([]PaymentGateway, 0, len(m.adapters))
	for _, adapter := range m.adapters {
		adapters = append(adapters, adapter)
	}
	m.readiness = make(map[GatewayName]*initFuture)
	m.configuration = nil
	m.mu.Unlock()

	for _, adapter := range adapters {
		adapter.Reset()
	}
}

// DetectGateway runs backend detection, stores the resolved configuration
// and sets the active gateway. Detection errors propagate unchanged.
func (m *Manager) DetectGateway(ctx context.Context) (*PaymentConfiguration, error) {
	configuration, err := DetectActiveGateway(ctx, m.env)
	if err != nil {
		return nil, err
	}
	return m.applyConfiguration(configuration)
}

// SetPaymentConfiguration resolves a scenario from an already-fetched
// detection response and applies the same side effects as DetectGateway.
func (m *Manager) SetPaymentConfiguration(resp DetectionResponse) (*PaymentConfiguration, error) {
	configuration, err := DeterminePaymentScenario(resp)
	if err != nil {
		return nil, err
	}
	return m.applyConfiguration(configuration)
}

func (m *Manager) applyConfiguration(configuration *PaymentConfiguration) (*PaymentConfiguration, error) {
	if err := ValidatePaymentConfiguration(configuration); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.configuration = configuration
	m.mu.Unlock()

	if err := m.SetActiveGateway(configuration.GatewayName); err != nil {
		logger.Warn("failed to persist active gateway", logger.LogContext{
			Gateway: string(configuration.GatewayName),
			Fields:  map[string]any{"error": err.Error()},
		})
	}

	m.emitter.Emit(EventGatewayInitialized, configuration.GatewayName, map[string]any{
		"scenario": string(configuration.Scenario),
	})

	return configuration, nil
}

// PaymentConfiguration returns the current resolved configuration, nil when
// detection has not run.
func (m *Manager) PaymentConfiguration() *PaymentConfiguration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.configuration
}

// CreateStripeCheckoutSession creates a hosted checkout session. Requires a
// prior successful detection that resolved to Stripe. When the resolved
// configuration wants a redirect and the backend returned a URL, the
// environment is redirected before the session is returned.
func (m *Manager) CreateStripeCheckoutSession(ctx context.Context, request CheckoutSessionRequest) (*CheckoutSession, error) {
	configuration := m.PaymentConfiguration()
	if configuration == nil {
		return nil, NewError(ErrNotReady, "no payment configuration: run gateway detection first")
	}
	if configuration.GatewayName != Stripe {
		return nil, Errorf(ErrNotSupported, "checkout sessions require Stripe, active gateway is '%s'", configuration.GatewayName)
	}

	session, err := CreateCheckoutSession(ctx, m.env, request)
	if err != nil {
		return nil, err
	}

	if configuration.RequiresRedirect && session.URL != "" {
		if err := m.env.Redirect(session.URL); err != nil {
			return nil, err
		}
	}

	return session, nil
}

// GetPaymentMethodToken dispatches tokenization by the resolved scenario and
// produces a uniform token/tokenType/gateway result.
func (m *Manager) GetPaymentMethodToken(ctx context.Context, input TokenInput) (*ScenarioTokenResult, error) {
	configuration := m.PaymentConfiguration()
	if configuration == nil {
		return nil, NewError(ErrNotReady, "no payment configuration: run gateway detection first")
	}

	switch configuration.Scenario {
	case ScenarioStripeSession:
		if input.SessionRequest == nil {
			return nil, NewError(ErrValidationError, "stripe-session scenario requires a session request")
		}
		session, err := m.CreateStripeCheckoutSession(ctx, *input.SessionRequest)
		if err != nil {
			return nil, err
		}
		return &ScenarioTokenResult{Token: session.SessionID, TokenType: TokenSessionID, GatewayName: Stripe}, nil

	case ScenarioStripeRedirect:
		sessionID := ExtractStripeSessionID(m.env.CurrentURL())
		if sessionID == "" {
			return nil, NewError(ErrTokenizationFailed, "no checkout session id in current url: checkout was not completed")
		}
		return &ScenarioTokenResult{Token: sessionID, TokenType: TokenSessionID, GatewayName: Stripe}, nil

	case ScenarioBraintreeEdge, ScenarioAuthorizeNetEdge:
		if input.Card == nil {
			return nil, Errorf(ErrValidationError, "%s scenario requires card input", configuration.Scenario)
		}
		result, err := m.CreatePaymentToken(ctx, *input.Card, configuration.GatewayName)
		if err != nil {
			return nil, err
		}
		return &ScenarioTokenResult{
			Token:       result.Token,
			TokenType:   configuration.TokenType,
			GatewayName: result.GatewayName,
		}, nil
	}

	return nil, Errorf(ErrNotSupported, "unsupported payment scenario '%s'", configuration.Scenario)
}

// RequiresEdgeCheckout reports whether the resolved scenario collects card
// data client-side. False when no configuration is set.
func (m *Manager) RequiresEdgeCheckout() bool {
	configuration := m.PaymentConfiguration()
	if configuration == nil {
		return false
	}
	return configuration.Scenario == ScenarioBraintreeEdge || configuration.Scenario == ScenarioAuthorizeNetEdge
}

// RequiresStripeRedirect reports whether the resolved scenario is the hosted
// redirect flow. False when no configuration is set.
func (m *Manager) RequiresStripeRedirect() bool {
	configuration := m.PaymentConfiguration()
	if configuration == nil {
		return false
	}
	return configuration.Scenario == ScenarioStripeRedirect
}
