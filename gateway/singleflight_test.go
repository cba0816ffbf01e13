package gateway

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitGuard_ConcurrentCallersShareOneRun(t *testing.T) {
	var guard InitGuard
	var runs atomic.Int64
	release := make(chan struct{})

	const callers = 20
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = guard.Do(context.Background(), func(ctx context.Context) error {
				runs.Add(1)
				<-release
				return nil
			})
		}(i)
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int64(1), runs.Load())
	assert.True(t, guard.Ready())
}

func TestInitGuard_SuccessIsSticky(t *testing.T) {
	var guard InitGuard
	runs := 0

	for i := 0; i < 3; i++ {
		require.NoError(t, guard.Do(context.Background(), func(ctx context.Context) error {
			runs++
			return nil
		}))
	}
	assert.Equal(t, 1, runs)
}

func TestInitGuard_FailureClearsSlot(t *testing.T) {
	var guard InitGuard

	err := guard.Do(context.Background(), func(ctx context.Context) error {
		return NewError(ErrConfigMissing, "no key")
	})
	require.Error(t, err)
	assert.False(t, guard.Ready())

	require.NoError(t, guard.Do(context.Background(), func(ctx context.Context) error {
		return nil
	}))
	assert.True(t, guard.Ready())
}

func TestInitGuard_ResetDuringInflightIsNotRecorded(t *testing.T) {
	var guard InitGuard
	started := make(chan struct{})
	release := make(chan struct{})

	done := make(chan error, 1)
	go func() {
		done <- guard.Do(context.Background(), func(ctx context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()

	<-started
	guard.Reset()
	close(release)
	require.NoError(t, <-done)

	assert.False(t, guard.Ready(), "success from before Reset must not mark the guard ready")
}
