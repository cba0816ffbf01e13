package gateway

import (
	"context"
	"strings"
	"time"
)

// RetryOptions controls WithRetry behavior.
type RetryOptions struct {
	// MaxAttempts bounds total invocations of the operation, including the
	// first one.
	MaxAttempts int

	// Delay is the wait before the first retry.
	Delay time.Duration

	// BackoffMultiplier scales the delay after each retry.
	BackoffMultiplier float64

	// MaxDelay caps the grown delay.
	MaxDelay time.Duration

	// RetryableKinds is the allow-list of error kinds worth retrying. A
	// failure outside the list propagates immediately without consuming
	// retry budget.
	RetryableKinds []ErrorKind

	// OnRetry, when set, is invoked before each wait with the attempt
	// number that just failed (1-based) and its error.
	OnRetry func(attempt int, err error)
}

// DefaultRetryOptions mirrors the documented defaults: 3 attempts, 1s
// initial delay doubling up to 10s, retrying only transport and SDK-load
// failures.
func DefaultRetryOptions() RetryOptions {
	return RetryOptions{
		MaxAttempts:       3,
		Delay:             time.Second,
		BackoffMultiplier: 2,
		MaxDelay:          10 * time.Second,
		RetryableKinds:    []ErrorKind{ErrNetworkError, ErrSdkLoadFailed},
	}
}

func (o RetryOptions) withDefaults() RetryOptions {
	def := DefaultRetryOptions()
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = def.MaxAttempts
	}
	if o.Delay <= 0 {
		o.Delay = def.Delay
	}
	if o.BackoffMultiplier <= 0 {
		o.BackoffMultiplier = def.BackoffMultiplier
	}
	if o.MaxDelay <= 0 {
		o.MaxDelay = def.MaxDelay
	}
	if o.RetryableKinds == nil {
		o.RetryableKinds = def.RetryableKinds
	}
	return o
}

// IsRetryable classifies an error against the allow-list. Untyped errors
// surfacing from vendor SDKs are recognized heuristically by message
// content, not just the structured kind.
func (o RetryOptions) IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if kind := KindOf(err); kind != "" {
		for _, k := range o.RetryableKinds {
			if kind == k {
				return true
			}
		}
		return false
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"network", "timeout", "timed out", "connection", "fetch", "script"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// WithRetry runs operation until it succeeds, a non-retryable failure
// occurs, or MaxAttempts is exhausted. The final rejection is always the
// last attempt's error.
func WithRetry[T any](ctx context.Context, operation func(ctx context.Context) (T, error), opts RetryOptions) (T, error) {
	opts = opts.withDefaults()

	var zero T
	var lastErr error
	delay := opts.Delay

	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		result, err := operation(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !opts.IsRetryable(err) || attempt == opts.MaxAttempts {
			return zero, err
		}

		if opts.OnRetry != nil {
			opts.OnRetry(attempt, err)
		}

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return zero, NewError(ErrNetworkError, "retry wait canceled", WithCause(ctx.Err()))
		}

		delay = time.Duration(float64(delay) * opts.BackoffMultiplier)
		if delay > opts.MaxDelay {
			delay = opts.MaxDelay
		}
	}

	return zero, lastErr
}

// WithTimeout races operation against a timer. A fired timer abandons the
// attempt's result and rejects with a network-error kind; the underlying
// call is not forcibly stopped beyond context cancellation.
func WithTimeout[T any](ctx context.Context, operation func(ctx context.Context) (T, error), timeout time.Duration) (T, error) {
	type outcome struct {
		result T
		err    error
	}

	attemptCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	ch := make(chan outcome, 1)
	go func() {
		result, err := operation(attemptCtx)
		ch <- outcome{result: result, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var zero T
	select {
	case out := <-ch:
		return out.result, out.err
	case <-timer.C:
		cancel()
		return zero, Errorf(ErrNetworkError, "operation timed out after %s", timeout)
	case <-ctx.Done():
		return zero, NewError(ErrNetworkError, "operation canceled", WithCause(ctx.Err()))
	}
}

// WithRetryAndTimeout composes both helpers: retry wraps timeout, so every
// attempt gets its own timeout budget.
func WithRetryAndTimeout[T any](ctx context.Context, operation func(ctx context.Context) (T, error), opts RetryOptions, timeout time.Duration) (T, error) {
	return WithRetry(ctx, func(ctx context.Context) (T, error) {
		return WithTimeout(ctx, operation, timeout)
	}, opts)
}
