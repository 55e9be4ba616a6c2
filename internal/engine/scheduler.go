package engine

import (
	"context"
	"sync"

	"github.com/nimbusdb/objstore/internal/objclient"
	"github.com/nimbusdb/objstore/internal/objerr"
)

// PartBuilder runs synchronously on the caller's goroutine when passed to
// Schedule: it may touch caller-owned buffers or reader state and must
// not be offloaded (spec.md §4.C). It returns an opaque request value
// that PartSubmitter will later receive, possibly on another goroutine.
type PartBuilder func() (request any, err error)

// PartSubmitter sends request to the remote store and returns the part's
// tag. It runs on the Scheduler's executor if one was supplied, else
// inline (spec.md §4.C, §5).
type PartSubmitter func(request any) (tag string, err error)

type task struct {
	partNumber int
	tag        string
	err        error
	done       bool // guarded by Scheduler.mu
}

// Scheduler dispatches part operations either inline or onto a caller-
// supplied Executor, bounds nothing itself (the executor's own
// concurrency bounds it), and collects results in part-number order
// regardless of completion order (spec.md §4.C).
//
// It is the "coordinator over a caller-supplied executor" of spec.md §5:
// not a thread pool, just bookkeeping plus a mutex and condition
// variable. When executor is nil every task runs inline and the condvar
// path is never exercised.
type Scheduler struct {
	session  *Session
	executor objclient.Executor

	mu      sync.Mutex
	cond    *sync.Cond
	queue   []*task
	added   int
	finished int
}

// NewScheduler returns a Scheduler bound to session. executor may be nil.
func NewScheduler(session *Session, executor objclient.Executor) *Scheduler {
	s := &Scheduler{session: session, executor: executor}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Schedule runs build synchronously now, then submits the resulting
// request — on the executor if one was supplied, else immediately,
// inline — and records the outcome for later collection. If the session
// is already aborted, Schedule still runs build (so caller buffers are
// consumed consistently) but skips submit and records the abort as the
// task's error, so a caller draining the queue sees a consistent failure
// instead of silently losing the part (spec.md §3 invariant 3).
func (s *Scheduler) Schedule(partNumber int, build PartBuilder, submit PartSubmitter) error {
	req, err := build()
	if err != nil {
		return objerr.Remotef(err, "building part %d request failed", partNumber)
	}

	t := &task{partNumber: partNumber}
	s.mu.Lock()
	s.queue = append(s.queue, t)
	s.added++
	s.mu.Unlock()

	run := func() {
		var tag string
		var runErr error
		if s.session.Aborted() {
			runErr = objerr.Remotef(nil, "part %d not submitted: session already aborted", partNumber)
		} else {
			tag, runErr = submit(req)
		}
		s.mu.Lock()
		t.tag, t.err, t.done = tag, runErr, true
		s.finished++
		s.cond.Broadcast() // notify while holding the lock (spec.md §5 lifetime hazard)
		s.mu.Unlock()
	}

	if s.executor != nil {
		s.executor.Submit(run)
	} else {
		run()
	}
	return nil
}

// DrainReady is the non-blocking "ready-drain" of spec.md §4.C: while the
// head of the queue is finished, pop it and record its tag on the
// session. If a popped task carries an error, DrainReady blocks on the
// remaining tasks (via WaitAll's counter wait) and returns that error
// after aborting the session. It lets producers pipeline new parts
// against finished-but-not-yet-collected ones without unbounded buffer
// growth.
func (s *Scheduler) DrainReady(ctx context.Context) error {
	for {
		s.mu.Lock()
		if len(s.queue) == 0 || !s.queue[0].done {
			s.mu.Unlock()
			return nil
		}
		t := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		if t.err != nil {
			return s.failAndWait(ctx, t.err)
		}
		s.session.RecordPart(t.partNumber, t.tag)
	}
}

// WaitAll blocks until every scheduled part has finished or failed
// (added == finished), then collects tags in part-number order and
// re-raises the first error found, after aborting the session
// (spec.md §4.C).
func (s *Scheduler) WaitAll(ctx context.Context) error {
	s.mu.Lock()
	for s.added != s.finished {
		s.cond.Wait()
	}
	queue := s.queue
	s.queue = nil
	s.mu.Unlock()

	for _, t := range queue {
		if t.err != nil {
			s.session.Abort(ctx)
			return t.err
		}
		s.session.RecordPart(t.partNumber, t.tag)
	}
	return nil
}

// failAndWait aborts the session, waits for every in-flight task to
// finish (so WaitAll never races a still-running submit), discards their
// results, and returns firstErr.
func (s *Scheduler) failAndWait(ctx context.Context, firstErr error) error {
	s.session.Abort(ctx)
	s.mu.Lock()
	for s.added != s.finished {
		s.cond.Wait()
	}
	s.queue = nil
	s.mu.Unlock()
	return firstErr
}
