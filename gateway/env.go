package gateway

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/paybridge/paybridge/infra/config"
)

// EnvironmentAdapter abstracts the embedding runtime: configuration access,
// HTTP transport, whether vendor scripts can be hosted, and navigation side
// effects. Adapters consult it instead of probing the environment
// themselves, so environment detection lives in exactly one place.
type EnvironmentAdapter interface {
	// Config returns the typed gateway configuration.
	Config() *config.GatewayConfig

	// IsBrowser reports whether the embedding runtime can host vendor
	// browser SDKs (a wasm page, a WebView, an embedded browser frame).
	IsBrowser() bool

	// HTTPClient returns the client used for all backend and vendor calls.
	HTTPClient() *http.Client

	// LoadScript fetches and hands a vendor script to the script host.
	LoadScript(ctx context.Context, url string) error

	// CurrentURL returns the current page/location URL, or "" when the
	// runtime has no notion of one.
	CurrentURL() string

	// Redirect navigates the embedding runtime to the given URL.
	Redirect(url string) error
}

// ScriptHost receives fetched vendor scripts for execution. Embedders supply
// one (for example a wasm/js bridge); without a host the runtime is not
// browser-capable and SDK loading fails with SdkLoadFailed.
type ScriptHost func(url string, body []byte) error

const defaultHTTPTimeout = 30 * time.Second

// RuntimeEnvironment is the default EnvironmentAdapter. Zero hooks make it a
// pure server-side environment: IsBrowser is false and Redirect is rejected.
type RuntimeEnvironment struct {
	cfg        *config.GatewayConfig
	client     *http.Client
	scriptHost ScriptHost
	currentURL func() string
	redirect   func(url string) error
}

// RuntimeOption customizes a RuntimeEnvironment.
type RuntimeOption func(*RuntimeEnvironment)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) RuntimeOption {
	return func(e *RuntimeEnvironment) {
		e.client = client
	}
}

// WithScriptHost attaches a script host, marking the runtime browser-capable.
func WithScriptHost(host ScriptHost) RuntimeOption {
	return func(e *RuntimeEnvironment) {
		e.scriptHost = host
	}
}

// WithCurrentURL supplies the current-location callback used by the
// stripe-redirect scenario.
func WithCurrentURL(fn func() string) RuntimeOption {
	return func(e *RuntimeEnvironment) {
		e.currentURL = fn
	}
}

// WithRedirect supplies the navigation callback used after creating a
// redirect checkout session.
func WithRedirect(fn func(url string) error) RuntimeOption {
	return func(e *RuntimeEnvironment) {
		e.redirect = fn
	}
}

// NewRuntimeEnvironment builds the default environment adapter around a
// validated configuration.
func NewRuntimeEnvironment(cfg *config.GatewayConfig, opts ...RuntimeOption) *RuntimeEnvironment {
	env := &RuntimeEnvironment{
		cfg:    cfg,
		client: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(env)
	}
	return env
}

func (e *RuntimeEnvironment) Config() *config.GatewayConfig { return e.cfg }

func (e *RuntimeEnvironment) IsBrowser() bool { return e.scriptHost != nil }

func (e *RuntimeEnvironment) HTTPClient() *http.Client { return e.client }

// LoadScript fetches the script body and hands it to the script host. The
// caller (SDKLoader) is responsible for de-duplication; this always performs
// one fetch.
func (e *RuntimeEnvironment) LoadScript(ctx context.Context, url string) error {
	if e.scriptHost == nil {
		return NewError(ErrSdkLoadFailed, "script loading requires a browser-capable environment")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return NewError(ErrSdkLoadFailed, fmt.Sprintf("invalid script url %q", url), WithCause(err))
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return NewError(ErrSdkLoadFailed, fmt.Sprintf("failed to fetch script %q", url), WithCause(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Errorf(ErrSdkLoadFailed, "script fetch %q returned status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return NewError(ErrSdkLoadFailed, fmt.Sprintf("failed to read script %q", url), WithCause(err))
	}

	if err := e.scriptHost(url, body); err != nil {
		return NewError(ErrSdkLoadFailed, fmt.Sprintf("script host rejected %q", url), WithCause(err))
	}
	return nil
}

func (e *RuntimeEnvironment) CurrentURL() string {
	if e.currentURL == nil {
		return ""
	}
	return e.currentURL()
}

func (e *RuntimeEnvironment) Redirect(url string) error {
	if e.redirect == nil {
		return NewError(ErrNotSupported, "redirect requires a navigation-capable environment")
	}
	return e.redirect(url)
}
