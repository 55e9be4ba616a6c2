package semaphoreexec

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExecutorBoundsConcurrency(t *testing.T) {
	e := New(context.Background(), 2)
	var inFlight, maxInFlight int32
	var wg sync.WaitGroup
	block := make(chan struct{})

	// Submit blocks on Acquire once the limit is reached, so block must be
	// released from another goroutine for the loop below to finish.
	go func() {
		time.Sleep(10 * time.Millisecond)
		close(block)
	}()

	const n = 5
	wg.Add(n)
	for i := 0; i < n; i++ {
		e.Submit(func() {
			defer wg.Done()
			cur := atomic.AddInt32(&inFlight, 1)
			for {
				max := atomic.LoadInt32(&maxInFlight)
				if cur <= max || atomic.CompareAndSwapInt32(&maxInFlight, max, cur) {
					break
				}
			}
			<-block
			atomic.AddInt32(&inFlight, -1)
		})
	}
	wg.Wait()
	assert.LessOrEqual(t, atomic.LoadInt32(&maxInFlight), int32(2))
}

func TestExecutorRunsEverySubmission(t *testing.T) {
	e := New(context.Background(), 3)
	var count atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		e.Submit(func() {
			defer wg.Done()
			count.Add(1)
		})
	}
	wg.Wait()
	assert.Equal(t, int32(10), count.Load())
}
