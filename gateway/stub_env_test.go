package gateway

import (
	"context"
	"net/http"
	"sync/atomic"

	"github.com/paybridge/paybridge/infra/config"
)

// stubEnv is a controllable EnvironmentAdapter for tests. The zero value is a
// browser-capable environment whose script loads always succeed.
type stubEnv struct {
	cfg        *config.GatewayConfig
	client     *http.Client
	notBrowser bool

	loadScript func(ctx context.Context, url string) error
	loadCalls  atomic.Int64

	currentURL string
	redirects  []string
}

func newStubEnv(cfg *config.GatewayConfig) *stubEnv {
	if cfg == nil {
		cfg = &config.GatewayConfig{APIBaseURL: "http://backend.test"}
	}
	return &stubEnv{cfg: cfg, client: http.DefaultClient}
}

func (e *stubEnv) Config() *config.GatewayConfig { return e.cfg }

func (e *stubEnv) IsBrowser() bool { return !e.notBrowser }

func (e *stubEnv) HTTPClient() *http.Client { return e.client }

func (e *stubEnv) LoadScript(ctx context.Context, url string) error {
	e.loadCalls.Add(1)
	if e.loadScript != nil {
		return e.loadScript(ctx, url)
	}
	return nil
}

func (e *stubEnv) CurrentURL() string { return e.currentURL }

func (e *stubEnv) Redirect(url string) error {
	e.redirects = append(e.redirects, url)
	return nil
}
