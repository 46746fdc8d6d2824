package llm

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func blockingModel(started chan<- struct{}, release <-chan struct{}) Model {
	return ModelFunc(func(ctx context.Context, prompt string, _ Params) (Result, error) {
		started <- struct{}{}
		select {
		case <-release:
			return Result{Text: "ok:" + prompt}, nil
		case <-ctx.Done():
			return Result{}, ctx.Err()
		}
	})
}

func TestGate_QueueFullIsTooBusy(t *testing.T) {
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	g := NewGate(blockingModel(started, release), 1, 20*time.Millisecond)

	done := make(chan error, 1)
	go func() {
		_, err := g.Complete(context.Background(), "a", Params{})
		done <- err
	}()
	<-started

	_, err := g.Complete(context.Background(), "b", Params{})
	assert.True(t, IsTooBusy(err), "expected tooBusyError, got %v", err)
	close(release)
	require.NoError(t, <-done, "first completion")
}

func TestGate_GenWaitTimeout(t *testing.T) {
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	g := NewGate(blockingModel(started, release), 2, 20*time.Millisecond)
	go func() { _, _ = g.Complete(context.Background(), "a", Params{}) }()
	<-started
	defer close(release)

	// Queue slot is free but the in-flight slot is not.
	_, err := g.Complete(context.Background(), "b", Params{})
	assert.True(t, IsTooBusy(err), "expected tooBusyError on gen wait, got %v", err)
}

func TestGate_Serializes(t *testing.T) {
	var inFlight, peak int32
	m := ModelFunc(func(ctx context.Context, prompt string, _ Params) (Result, error) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return Result{Text: prompt}, nil
	})
	g := NewGate(m, 8, time.Second)
	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := g.Complete(context.Background(), "x", Params{})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, peak, "at most one in-flight completion")
	assert.Zero(t, g.Pending())
	assert.False(t, g.Busy())
}

func TestGate_CanceledContext(t *testing.T) {
	called := false
	g := NewGate(ModelFunc(func(context.Context, string, Params) (Result, error) {
		called = true
		return Result{}, nil
	}), 1, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := g.Complete(ctx, "x", Params{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called, "model should not be called")
}

type closeCounter struct {
	ModelFunc
	closed int32
}

func (c *closeCounter) Close() error { atomic.AddInt32(&c.closed, 1); return nil }

func TestGate_CloseRejectsNewWork(t *testing.T) {
	m := &closeCounter{ModelFunc: func(context.Context, string, Params) (Result, error) { return Result{}, nil }}
	g := NewGate(m, 1, time.Second)
	require.NoError(t, g.Close())
	require.NoError(t, g.Close(), "second close")
	assert.EqualValues(t, 1, m.closed, "model closed once")
	_, err := g.Complete(context.Background(), "x", Params{})
	assert.ErrorIs(t, err, ErrClosed)
}
