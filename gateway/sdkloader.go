package gateway

import (
	"context"
	"sync"
)

// loadCall is one in-flight script load shared by every concurrent caller.
type loadCall struct {
	done chan struct{}
	err  error
}

// SDKLoader performs de-duplicated loading of external vendor scripts. Loads
// are single-flight per URL: concurrent callers for the same URL share one
// underlying fetch and observe the same outcome. Successful URLs are cached
// for the loader's lifetime; failed loads clear their in-flight slot so a
// later call retries from scratch.
type SDKLoader struct {
	mu       sync.Mutex
	loaded   map[string]bool
	inflight map[string]*loadCall
}

// NewSDKLoader creates an empty loader.
func NewSDKLoader() *SDKLoader {
	return &SDKLoader{
		loaded:   make(map[string]bool),
		inflight: make(map[string]*loadCall),
	}
}

// Load ensures the script at url has been loaded into the environment's
// script host. Returns immediately when the URL was already loaded.
func (l *SDKLoader) Load(ctx context.Context, env EnvironmentAdapter, url string) error {
	if !env.IsBrowser() {
		return NewError(ErrSdkLoadFailed, "script loading requires a browser-capable environment")
	}

	l.mu.Lock()
	if l.loaded[url] {
		l.mu.Unlock()
		return nil
	}
	if call, ok := l.inflight[url]; ok {
		l.mu.Unlock()
		select {
		case <-call.done:
			return call.err
		case <-ctx.Done():
			return NewError(ErrNetworkError, "script load wait canceled", WithCause(ctx.Err()))
		}
	}

	call := &loadCall{done: make(chan struct{})}
	l.inflight[url] = call
	l.mu.Unlock()

	err := env.LoadScript(ctx, url)
	if err != nil && KindOf(err) == "" {
		err = NewError(ErrSdkLoadFailed, "script load failed", WithCause(err), WithDetail("url", url))
	}

	l.mu.Lock()
	delete(l.inflight, url)
	if err == nil {
		l.loaded[url] = true
	}
	l.mu.Unlock()

	call.err = err
	close(call.done)
	return err
}

// IsLoaded reports whether url completed a successful load.
func (l *SDKLoader) IsLoaded(url string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loaded[url]
}

// Reset forgets every loaded URL. In-flight loads are left to finish; their
// outcome is recorded against the fresh state.
func (l *SDKLoader) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loaded = make(map[string]bool)
}

// DefaultSDKLoader is the process-wide loader shared by the adapters, so a
// script requested by two managers is still fetched once.
var DefaultSDKLoader = NewSDKLoader()
