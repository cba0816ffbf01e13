package gateway

import (
	"context"
	"sync"
)

// InitGuard provides idempotent, single-flight initialization for gateway
// adapters: the first caller runs the function, concurrent callers share its
// outcome, and a failure clears the in-flight slot so a later call starts
// over. Once the function succeeds, Do returns immediately until Reset.
type InitGuard struct {
	mu       sync.Mutex
	ready    bool
	inflight *loadCall
}

// Do runs fn under the guard.
func (g *InitGuard) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	g.mu.Lock()
	if g.ready {
		g.mu.Unlock()
		return nil
	}
	if call := g.inflight; call != nil {
		g.mu.Unlock()
		select {
		case <-call.done:
			return call.err
		case <-ctx.Done():
			return NewError(ErrNetworkError, "initialization wait canceled", WithCause(ctx.Err()))
		}
	}

	call := &loadCall{done: make(chan struct{})}
	g.inflight = call
	g.mu.Unlock()

	err := fn(ctx)

	g.mu.Lock()
	if g.inflight == call {
		g.inflight = nil
		if err == nil {
			g.ready = true
		}
	}
	g.mu.Unlock()

	call.err = err
	close(call.done)
	return err
}

// Ready reports whether a Do call has succeeded since the last Reset.
func (g *InitGuard) Ready() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ready
}

// Reset returns the guard to unstarted. An in-flight initialization still
// completes for its waiters, but its success is not recorded.
func (g *InitGuard) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ready = false
	g.inflight = nil
}
