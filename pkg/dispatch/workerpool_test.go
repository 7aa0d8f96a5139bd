package dispatch

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

func TestWorkerPoolRunsJobs(t *testing.T) {
	p := NewWorkerPool(4, 16)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)
	var ran int32
	jobs := 100
	for i := 0; i < jobs; i++ {
		err := p.Submit(func(ctx context.Context) error {
			atomic.AddInt32(&ran, 1)
			return nil
		})
		require.NoError(t, err)
	}
	// close and wait
	p.Close()

	assert.Equal(t, int32(jobs), atomic.LoadInt32(&ran))
}

func TestSingleWorkerPreservesOrder(t *testing.T) {
	p := NewWorkerPool(1, 4)
	p.Start(context.Background())

	var mu sync.Mutex
	var order []int
	for i := 0; i < 50; i++ {
		require.NoError(t, p.Submit(func(ctx context.Context) error {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			return nil
		}))
	}
	p.Close()

	require.Len(t, order, 50)
	for i, v := range order {
		require.Equal(t, i, v)
	}
}

func TestSubmitAfterClose(t *testing.T) {
	p := NewWorkerPool(1, 2)
	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)
	p.Close()
	cancel()
	err := p.Submit(func(ctx context.Context) error { return nil })
	require.ErrorIs(t, err, ErrPoolClosed)

	// Closing twice is fine.
	p.Close()
}

func TestSubmitRecoversFromCloseRace(t *testing.T) {
	p := NewWorkerPool(1, 1) // capacity 1
	// don't start workers so the second Submit blocks when queue is full
	require.NoError(t, p.Submit(func(ctx context.Context) error { return nil }))

	done := make(chan error, 1)
	go func() {
		done <- p.Submit(func(ctx context.Context) error { return nil })
	}()

	// give the goroutine time to block on the full queue
	time.Sleep(10 * time.Millisecond)

	// close the pool which should cause the blocked Submit to return ErrPoolClosed
	p.Close()

	select {
	case err := <-done:
		require.ErrorIs(t, err, ErrPoolClosed)
	case <-time.After(time.Second):
		t.Fatal("blocked Submit did not return after Close")
	}
}

func TestSubmitCtxGivesUp(t *testing.T) {
	p := NewWorkerPool(1, 1)
	require.NoError(t, p.Submit(func(ctx context.Context) error { return nil }))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := p.SubmitCtx(ctx, func(ctx context.Context) error { return nil })
	require.ErrorIs(t, err, context.DeadlineExceeded)
	p.Close()
}

func TestContextCancellationStopsWorkers(t *testing.T) {
	p := NewWorkerPool(2, 16)
	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)

	// Cancel the context while workers are idle and ensure Close() returns promptly
	cancel()
	done := make(chan struct{}, 1)
	go func() {
		p.Close()
		done <- struct{}{}
	}()

	select {
	case <-done:
	case <-time.After(100 * time.Millisecond):
		t.Fatalf("Close blocked after context cancellation")
	}
}

func TestJobErrorsAndPanicsAreReported(t *testing.T) {
	p := NewWorkerPool(1, 4)
	var mu sync.Mutex
	var errs []error
	p.OnError = func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}
	p.Start(context.Background())

	boom := errors.New("boom")
	require.NoError(t, p.Submit(func(ctx context.Context) error { return boom }))
	require.NoError(t, p.Submit(func(ctx context.Context) error { panic("kaboom") }))
	var ran atomic.Bool
	require.NoError(t, p.Submit(func(ctx context.Context) error { ran.Store(true); return nil }))
	p.Close()

	require.Len(t, errs, 2)
	assert.ErrorIs(t, errs[0], boom)
	var pe *PanicError
	require.ErrorAs(t, errs[1], &pe)
	assert.Equal(t, "kaboom", pe.Value)
	assert.True(t, ran.Load(), "worker must survive a panicking job")
}
