package llm

import (
	"context"
	"sync"
	"time"
)

// Gate serializes access to a Model. At most one completion runs at a time
// and at most queueDepth callers wait (including the running one). A caller
// that cannot reserve a slot within maxWait gets a TooBusy error.
type Gate struct {
	model   Model
	queueCh chan struct{}
	genCh   chan struct{}
	maxWait time.Duration

	mu     sync.RWMutex
	closed bool
}

// NewGate wraps m. queueDepth <= 0 means 1; maxWait <= 0 means 30s.
func NewGate(m Model, queueDepth int, maxWait time.Duration) *Gate {
	if queueDepth <= 0 {
		queueDepth = 1
	}
	if maxWait <= 0 {
		maxWait = 30 * time.Second
	}
	return &Gate{
		model:   m,
		queueCh: make(chan struct{}, queueDepth),
		genCh:   make(chan struct{}, 1),
		maxWait: maxWait,
	}
}

// Complete runs one completion once the single in-flight slot is free.
func (g *Gate) Complete(ctx context.Context, prompt string, params Params) (Result, error) {
	release, err := g.acquire(ctx)
	if err != nil {
		return Result{}, err
	}
	defer release()
	return g.model.Complete(ctx, prompt, params)
}

// acquire reserves a queue slot and then the single in-flight slot.
// Returns a release func to be deferred.
func (g *Gate) acquire(ctx context.Context) (func(), error) {
	g.mu.RLock()
	closed := g.closed
	g.mu.RUnlock()
	if closed {
		return func() {}, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return func() {}, err
	}
	start := time.Now()

	timer := time.NewTimer(g.maxWait)
	defer timer.Stop()
	select {
	case g.queueCh <- struct{}{}:
	case <-ctx.Done():
		return func() {}, ctx.Err()
	case <-timer.C:
		return func() {}, tooBusyError{}
	}

	acquired := false
	defer func() {
		if !acquired {
			<-g.queueCh
		}
	}()
	if err := ctx.Err(); err != nil {
		return func() {}, err
	}
	remaining := g.maxWait - time.Since(start)
	if remaining <= 0 {
		return func() {}, tooBusyError{waited: time.Since(start)}
	}
	timer2 := time.NewTimer(remaining)
	defer timer2.Stop()
	select {
	case g.genCh <- struct{}{}:
		g.mu.RLock()
		closed = g.closed
		g.mu.RUnlock()
		if closed {
			<-g.genCh
			return func() {}, ErrClosed
		}
		acquired = true
		return func() { <-g.genCh; <-g.queueCh }, nil
	case <-ctx.Done():
		return func() {}, ctx.Err()
	case <-timer2.C:
		return func() {}, tooBusyError{waited: time.Since(start)}
	}
}

// Pending reports callers holding a queue slot, including the running one.
func (g *Gate) Pending() int { return len(g.queueCh) }

// Capacity is the queue depth.
func (g *Gate) Capacity() int { return cap(g.queueCh) }

// Busy reports whether a completion is running.
func (g *Gate) Busy() bool { return len(g.genCh) > 0 }

// Close rejects new work, waits for the running completion, and closes the
// wrapped model.
func (g *Gate) Close() error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return nil
	}
	g.closed = true
	g.mu.Unlock()
	g.genCh <- struct{}{}
	defer func() { <-g.genCh }()
	return g.model.Close()
}
