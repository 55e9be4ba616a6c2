// Package semaphoreexec implements objclient.Executor with a bounded
// concurrency limit, in the same style as tusd's uploadSemaphore: a
// golang.org/x/sync/semaphore.Weighted gates how many submitted functions
// run at once, with everything past the limit queued on Acquire.
package semaphoreexec

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Executor runs submitted functions on their own goroutine, never more
// than n at a time.
type Executor struct {
	sem *semaphore.Weighted
	ctx context.Context
}

// New returns an Executor that runs at most n submitted functions
// concurrently. ctx bounds the semaphore acquire itself; a cancelled ctx
// makes Submit run fn inline rather than silently dropping it, since the
// engine's scheduler bookkeeping requires every submitted task to finish.
func New(ctx context.Context, n int64) *Executor {
	return &Executor{sem: semaphore.NewWeighted(n), ctx: ctx}
}

// Submit implements objclient.Executor.
func (e *Executor) Submit(fn func()) {
	if err := e.sem.Acquire(e.ctx, 1); err != nil {
		fn()
		return
	}
	go func() {
		defer e.sem.Release(1)
		fn()
	}()
}
