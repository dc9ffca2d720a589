package catalog

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// DefaultMaxConcurrent bounds a Runner created without an explicit size.
const DefaultMaxConcurrent = 8

// Runner executes provider calls on a bounded pool of goroutines.
type Runner struct {
	sem *semaphore.Weighted
	wg  sync.WaitGroup
}

// NewRunner creates a runner allowing n concurrent jobs.
func NewRunner(n int) *Runner {
	if n <= 0 {
		n = DefaultMaxConcurrent
	}
	return &Runner{sem: semaphore.NewWeighted(int64(n))}
}

// Go runs job on its own goroutine once a slot is free. If ctx ends while
// waiting for a slot, job still runs (without a slot) so it can observe
// the cancellation and settle its handle.
func (r *Runner) Go(ctx context.Context, job func(ctx context.Context)) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := r.sem.Acquire(ctx, 1); err != nil {
			job(ctx)
			return
		}
		defer r.sem.Release(1)
		job(ctx)
	}()
}

// Wait blocks until every submitted job has returned.
func (r *Runner) Wait() {
	r.wg.Wait()
}
