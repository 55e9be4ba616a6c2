package engine

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleInlineWithoutExecutor(t *testing.T) {
	client := newFakeClient()
	session := NewSession(client, "bucket", "key", nil)
	require.NoError(t, session.Create(context.Background(), nil, ""))
	sched := NewScheduler(session, nil)

	for i := 1; i <= 5; i++ {
		partNumber := i
		err := sched.Schedule(partNumber,
			func() (any, error) { return partNumber, nil },
			func(req any) (string, error) { return fmt.Sprintf("etag-%d", req), nil })
		require.NoError(t, err)
	}
	require.NoError(t, sched.WaitAll(context.Background()))
	assert.Equal(t, 5, session.PartCount())
}

// TestTagOrderIsPermutationInvariantOfCompletionOrder covers spec.md §8
// invariant 3: shuffling executor completion order must not change the
// resulting tag list.
func TestTagOrderIsPermutationInvariantOfCompletionOrder(t *testing.T) {
	client := newFakeClient()
	session := NewSession(client, "bucket", "key", nil)
	require.NoError(t, session.Create(context.Background(), nil, ""))
	exec := &inlineExecutor{}
	sched := NewScheduler(session, exec)

	const n = 50
	var gate sync.WaitGroup
	gate.Add(1)
	for i := 1; i <= n; i++ {
		partNumber := i
		err := sched.Schedule(partNumber,
			func() (any, error) { return partNumber, nil },
			func(req any) (string, error) {
				gate.Wait() // force all submits to race past their "build" step first
				time.Sleep(time.Duration(rand.Intn(2)) * time.Millisecond)
				return fmt.Sprintf("etag-%d", req), nil
			})
		require.NoError(t, err)
	}
	gate.Done()

	require.NoError(t, sched.WaitAll(context.Background()))
	exec.wg.Wait()

	session.mu.Lock()
	tags := append([]string(nil), session.tags...)
	session.mu.Unlock()
	require.Len(t, tags, n)
	for i, tag := range tags {
		assert.Equal(t, fmt.Sprintf("etag-%d", i+1), tag)
	}
}

func TestMidUploadFailureAbortsAndDiscardsLaterParts(t *testing.T) {
	client := newFakeClient()
	client.failUploadPart[3] = fmt.Errorf("boom")
	session := NewSession(client, "bucket", "key", nil)
	require.NoError(t, session.Create(context.Background(), nil, ""))
	exec := &inlineExecutor{}
	sched := NewScheduler(session, exec)

	for i := 1; i <= 5; i++ {
		partNumber := i
		err := sched.Schedule(partNumber,
			func() (any, error) { return partNumber, nil },
			func(req any) (string, error) {
				if client.failUploadPart[req.(int)] != nil {
					return "", client.failUploadPart[req.(int)]
				}
				return fmt.Sprintf("etag-%d", req), nil
			})
		require.NoError(t, err)
	}

	err := sched.WaitAll(context.Background())
	require.Error(t, err)
	exec.wg.Wait()
	assert.GreaterOrEqual(t, client.abortCalls, int32(1))
	assert.Equal(t, 2, session.PartCount()) // parts 4 and 5 are never recorded
}

func TestDrainReadyRecordsFinishedHeadsAndStopsAtPending(t *testing.T) {
	client := newFakeClient()
	session := NewSession(client, "bucket", "key", nil)
	require.NoError(t, session.Create(context.Background(), nil, ""))
	sched := NewScheduler(session, nil) // inline: everything finishes synchronously

	for i := 1; i <= 3; i++ {
		partNumber := i
		require.NoError(t, sched.Schedule(partNumber,
			func() (any, error) { return partNumber, nil },
			func(req any) (string, error) { return fmt.Sprintf("etag-%d", req), nil }))
	}
	require.NoError(t, sched.DrainReady(context.Background()))
	assert.Equal(t, 3, session.PartCount())

	// With a held third task, the drain records parts 1 and 2 and stops.
	pendingSession := NewSession(client, "bucket", "key", nil)
	require.NoError(t, pendingSession.Create(context.Background(), nil, ""))
	held := &heldExecutor{}
	pendingSched := NewScheduler(pendingSession, held)
	for i := 1; i <= 3; i++ {
		partNumber := i
		require.NoError(t, pendingSched.Schedule(partNumber,
			func() (any, error) { return partNumber, nil },
			func(req any) (string, error) { return fmt.Sprintf("etag-%d", req), nil }))
	}
	held.fns[0]()
	held.fns[1]()
	require.NoError(t, pendingSched.DrainReady(context.Background()))
	assert.Equal(t, 2, pendingSession.PartCount())
	held.fns[2]()
	require.NoError(t, pendingSched.WaitAll(context.Background()))
	assert.Equal(t, 3, pendingSession.PartCount())
}

// heldExecutor keeps submitted functions until the test runs them.
type heldExecutor struct {
	fns []func()
}

func (e *heldExecutor) Submit(fn func()) {
	e.fns = append(e.fns, fn)
}

func TestAbortIsIdempotent(t *testing.T) {
	client := newFakeClient()
	session := NewSession(client, "bucket", "key", nil)
	require.NoError(t, session.Create(context.Background(), nil, ""))
	session.Abort(context.Background())
	session.Abort(context.Background())
	assert.True(t, session.Aborted())
	assert.Equal(t, int32(2), client.abortCalls)
}
