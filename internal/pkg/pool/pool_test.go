package pool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitAll(t *testing.T, handles []*Handle, timeout time.Duration) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	for _, h := range handles {
		select {
		case <-h.Done():
		case <-ctx.Done():
			t.Fatal("timed out waiting for task completion")
		}
	}
}

func TestConcurrencyNeverExceedsLimit(t *testing.T) {
	p, err := New(Config{Concurrency: 2, RatePerMinute: 100})
	require.NoError(t, err)
	defer p.Close()

	var running, maxRunning, completed int64
	handles := make([]*Handle, 0, 10)
	for i := 0; i < 10; i++ {
		h, err := p.SubmitWait(func(ctx context.Context) error {
			cur := atomic.AddInt64(&running, 1)
			for {
				prev := atomic.LoadInt64(&maxRunning)
				if cur <= prev || atomic.CompareAndSwapInt64(&maxRunning, prev, cur) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			atomic.AddInt64(&running, -1)
			atomic.AddInt64(&completed, 1)
			return nil
		})
		require.NoError(t, err)
		handles = append(handles, h)
	}

	waitAll(t, handles, 5*time.Second)

	assert.EqualValues(t, 10, atomic.LoadInt64(&completed))
	assert.LessOrEqual(t, atomic.LoadInt64(&maxRunning), int64(2))
	for _, h := range handles {
		assert.NoError(t, h.Err())
	}
}

func TestRateLimitHoldsCompletionsPerWindow(t *testing.T) {
	window := 150 * time.Millisecond
	p, err := New(
		Config{Concurrency: 10, RatePerMinute: 3},
		WithWindow(window),
		WithBackoff(10*time.Millisecond),
	)
	require.NoError(t, err)
	defer p.Close()

	start := time.Now()
	handles := make([]*Handle, 0, 9)
	for i := 0; i < 9; i++ {
		h, err := p.SubmitWait(func(ctx context.Context) error { return nil })
		require.NoError(t, err)
		handles = append(handles, h)
	}

	waitAll(t, handles, 5*time.Second)

	// 9 instant tasks at 3 completions per window need at least two
	// window resets before the last batch can be admitted.
	assert.GreaterOrEqual(t, time.Since(start), 2*window)
}

func TestFailedTaskDoesNotBlockOthers(t *testing.T) {
	p, err := New(Config{Concurrency: 2, RatePerMinute: 100})
	require.NoError(t, err)
	defer p.Close()

	boom := errors.New("boom")
	handles := make([]*Handle, 0, 5)
	for i := 0; i < 5; i++ {
		i := i
		h, err := p.SubmitWait(func(ctx context.Context) error {
			if i == 2 {
				return boom
			}
			return nil
		})
		require.NoError(t, err)
		handles = append(handles, h)
	}

	waitAll(t, handles, 5*time.Second)

	for i, h := range handles {
		if i == 2 {
			assert.ErrorIs(t, h.Err(), boom)
		} else {
			assert.NoError(t, h.Err())
		}
	}
}

func TestTasksRunInSubmissionOrder(t *testing.T) {
	p, err := New(Config{Concurrency: 1, RatePerMinute: 100})
	require.NoError(t, err)
	defer p.Close()

	var mu sync.Mutex
	var order []int
	handles := make([]*Handle, 0, 6)
	for i := 0; i < 6; i++ {
		i := i
		h, err := p.SubmitWait(func(ctx context.Context) error {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			return nil
		})
		require.NoError(t, err)
		handles = append(handles, h)
	}

	waitAll(t, handles, 5*time.Second)

	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, order)
}

func TestMemoryGateHoldsQueueUntilUsageDrops(t *testing.T) {
	var usage atomic.Int64
	usage.Store(900)

	p, err := New(
		Config{Concurrency: 4, RatePerMinute: 100, MemoryLimitMB: 512},
		WithMemorySampler(func() float64 { return float64(usage.Load()) }),
		WithBackoff(10*time.Millisecond),
	)
	require.NoError(t, err)
	defer p.Close()

	handles := make([]*Handle, 0, 3)
	for i := 0; i < 3; i++ {
		h, err := p.SubmitWait(func(ctx context.Context) error { return nil })
		require.NoError(t, err)
		handles = append(handles, h)
	}

	// Gate closed: nothing may start.
	time.Sleep(100 * time.Millisecond)
	stats := p.Stats()
	assert.Equal(t, 3, stats.Queued)
	assert.Equal(t, 0, stats.Active)

	usage.Store(100)
	waitAll(t, handles, 5*time.Second)
}

func TestPanicIsReportedAsTaskFailure(t *testing.T) {
	p, err := New(Config{Concurrency: 1, RatePerMinute: 100})
	require.NoError(t, err)
	defer p.Close()

	h, err := p.SubmitWait(func(ctx context.Context) error {
		panic("kaboom")
	})
	require.NoError(t, err)

	waitAll(t, []*Handle{h}, 5*time.Second)
	require.Error(t, h.Err())
	assert.Contains(t, h.Err().Error(), "panicked")

	// The scheduler must survive the panic.
	h2, err := p.SubmitWait(func(ctx context.Context) error { return nil })
	require.NoError(t, err)
	waitAll(t, []*Handle{h2}, 5*time.Second)
	assert.NoError(t, h2.Err())
}

func TestTaskTimeoutReleasesTheSlot(t *testing.T) {
	p, err := New(Config{Concurrency: 1, RatePerMinute: 100, TaskTimeout: 50 * time.Millisecond})
	require.NoError(t, err)
	defer p.Close()

	h, err := p.SubmitWait(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	require.NoError(t, err)

	waitAll(t, []*Handle{h}, 5*time.Second)
	assert.ErrorIs(t, h.Err(), context.DeadlineExceeded)

	h2, err := p.SubmitWait(func(ctx context.Context) error { return nil })
	require.NoError(t, err)
	waitAll(t, []*Handle{h2}, 5*time.Second)
	assert.NoError(t, h2.Err())
}

func TestCloseFailsQueuedTasks(t *testing.T) {
	var usage atomic.Int64
	usage.Store(900)

	// Memory gate pinned shut so submissions stay queued.
	p, err := New(
		Config{Concurrency: 1, RatePerMinute: 100, MemoryLimitMB: 512},
		WithMemorySampler(func() float64 { return float64(usage.Load()) }),
	)
	require.NoError(t, err)

	h, err := p.SubmitWait(func(ctx context.Context) error { return nil })
	require.NoError(t, err)

	p.Close()

	waitAll(t, []*Handle{h}, 5*time.Second)
	assert.ErrorIs(t, h.Err(), ErrClosed)

	err = p.Submit(func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrClosed)
}

func TestInvalidConfigRejected(t *testing.T) {
	_, err := New(Config{Concurrency: 0, RatePerMinute: 10})
	assert.Error(t, err)

	_, err = New(Config{Concurrency: 1, RatePerMinute: 0})
	assert.Error(t, err)
}
