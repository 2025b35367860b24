// Package executor runs partition loads concurrently and merges their results.
package executor

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/arrestview/arrestview/internal/observability"
)

// DefaultPoolSize is the number of partition loads that may run at once.
const DefaultPoolSize = 8

// Pool bounds the number of concurrently running tasks. A single Pool is
// shared by all requests so the bound holds process-wide.
// It is safe for concurrent use.
type Pool struct {
	sem      *semaphore.Weighted
	size     int
	inFlight atomic.Int64
	metrics  *observability.Metrics
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithMetrics reports in-flight tasks to m.
func WithMetrics(m *observability.Metrics) PoolOption {
	return func(p *Pool) { p.metrics = m }
}

// NewPool creates a pool running at most size tasks at once.
// A size of zero or less means DefaultPoolSize.
func NewPool(size int, opts ...PoolOption) *Pool {
	if size <= 0 {
		size = DefaultPoolSize
	}
	p := &Pool{
		sem:  semaphore.NewWeighted(int64(size)),
		size: size,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Go waits for a free slot and runs task in a new goroutine.
// If ctx is done before a slot frees up, task is not run and the context
// error is returned.
func (p *Pool) Go(ctx context.Context, task func()) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("pool: acquire failed: %w", err)
	}

	p.inFlight.Add(1)
	p.metrics.TaskStarted()
	go func() {
		defer p.sem.Release(1)
		defer p.metrics.TaskFinished()
		defer p.inFlight.Add(-1)
		task()
	}()
	return nil
}

// Size returns the maximum number of concurrent tasks.
func (p *Pool) Size() int { return p.size }

// InFlight returns the number of tasks currently running.
func (p *Pool) InFlight() int { return int(p.inFlight.Load()) }
