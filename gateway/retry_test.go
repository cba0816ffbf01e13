package gateway

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetryOptions() RetryOptions {
	return RetryOptions{
		MaxAttempts:       3,
		Delay:             time.Millisecond,
		BackoffMultiplier: 2,
		MaxDelay:          5 * time.Millisecond,
		RetryableKinds:    []ErrorKind{ErrNetworkError, ErrSdkLoadFailed},
	}
}

func TestWithRetry_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	result, err := WithRetry(context.Background(), func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", NewError(ErrNetworkError, "connection reset")
		}
		return "ok", nil
	}, fastRetryOptions())

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, calls)
}

func TestWithRetry_AttemptBound(t *testing.T) {
	calls := 0
	var retried []int
	opts := fastRetryOptions()
	opts.OnRetry = func(attempt int, err error) {
		retried = append(retried, attempt)
	}

	_, err := WithRetry(context.Background(), func(ctx context.Context) (int, error) {
		calls++
		return 0, NewError(ErrSdkLoadFailed, "script unreachable")
	}, opts)

	require.Error(t, err)
	assert.True(t, IsKind(err, ErrSdkLoadFailed))
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retried)
}

func TestWithRetry_NonRetryableShortCircuits(t *testing.T) {
	calls := 0
	_, err := WithRetry(context.Background(), func(ctx context.Context) (int, error) {
		calls++
		return 0, NewError(ErrInvalidCard, "card declined")
	}, fastRetryOptions())

	require.Error(t, err)
	assert.True(t, IsKind(err, ErrInvalidCard))
	assert.Equal(t, 1, calls, "non-retryable error must not consume retry budget")
}

func TestWithRetry_ContextCancelDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	opts := fastRetryOptions()
	opts.Delay = time.Second
	opts.OnRetry = func(int, error) { cancel() }

	_, err := WithRetry(ctx, func(ctx context.Context) (int, error) {
		return 0, NewError(ErrNetworkError, "unreachable")
	}, opts)

	require.Error(t, err)
	assert.True(t, IsKind(err, ErrNetworkError))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRetryOptions_IsRetryable(t *testing.T) {
	opts := DefaultRetryOptions()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"network kind", NewError(ErrNetworkError, "down"), true},
		{"sdk load kind", NewError(ErrSdkLoadFailed, "blocked"), true},
		{"invalid card kind", NewError(ErrInvalidCard, "network glitch"), false},
		{"untyped network message", errors.New("Network request failed"), true},
		{"untyped timeout message", errors.New("request timed out"), true},
		{"untyped script message", errors.New("failed to load script"), true},
		{"untyped unrelated", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, opts.IsRetryable(tt.err))
		})
	}
}

func TestWithTimeout(t *testing.T) {
	t.Run("completes in time", func(t *testing.T) {
		result, err := WithTimeout(context.Background(), func(ctx context.Context) (string, error) {
			return "done", nil
		}, 50*time.Millisecond)
		require.NoError(t, err)
		assert.Equal(t, "done", result)
	})

	t.Run("fires timer", func(t *testing.T) {
		_, err := WithTimeout(context.Background(), func(ctx context.Context) (string, error) {
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
			}
			return "late", nil
		}, 5*time.Millisecond)
		require.Error(t, err)
		assert.True(t, IsKind(err, ErrNetworkError))
		assert.Contains(t, err.Error(), "timed out")
	})
}

func TestWithRetryAndTimeout_EachAttemptGetsOwnBudget(t *testing.T) {
	calls := 0
	result, err := WithRetryAndTimeout(context.Background(), func(ctx context.Context) (string, error) {
		calls++
		if calls < 2 {
			<-ctx.Done()
			return "", ctx.Err()
		}
		return "ok", nil
	}, fastRetryOptions(), 10*time.Millisecond)

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 2, calls)
}
