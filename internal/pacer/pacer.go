// Package pacer implements the truncated exponential attack-and-decay
// retry used internally for the phantom-NoSuchKey retry budget (spec.md
// §4.B, §7); the caller's Paced function decides what is retried. It is a
// trimmed, logrus-based adaptation of the teacher's own pacer
// (pacer/pacer.go, fs/pacer.go): same attack/decay sleep calculation,
// no connection-limiting token bucket (concurrency is the caller-
// supplied Executor's job here, not this package's).
package pacer

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Paced is called by Call. It returns whether the operation should be
// retried and the error to propagate if it is not (or if retries are
// exhausted), mirroring the teacher's Paced type.
type Paced func(attempt int) (retry bool, err error)

// Pacer retries a Paced function up to MaxRetries times with truncated
// exponential backoff.
type Pacer struct {
	MinSleep      time.Duration
	MaxSleep      time.Duration
	DecayConstant uint
	MaxRetries    int
	Log           logrus.FieldLogger

	sleepTime time.Duration
}

// New returns a Pacer with the teacher's defaults (10ms..2s, decay 2).
func New(maxRetries int) *Pacer {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &Pacer{
		MinSleep:      10 * time.Millisecond,
		MaxSleep:      2 * time.Second,
		DecayConstant: 2,
		MaxRetries:    maxRetries,
		Log:           logrus.StandardLogger(),
		sleepTime:     10 * time.Millisecond,
	}
}

// Call runs fn, sleeping with exponential backoff between retries, up to
// MaxRetries attempts. It returns the error from the last attempt once
// retries are exhausted, or nil on the first non-retry outcome. It never
// swallows an error-less success or return an error on success: fn's own
// return value decides. ctx cancellation aborts the wait between
// attempts immediately.
func (p *Pacer) Call(ctx context.Context, fn Paced) error {
	var lastErr error
	for attempt := 1; attempt <= p.MaxRetries; attempt++ {
		retry, err := fn(attempt)
		if !retry {
			p.decay()
			return err
		}
		lastErr = err
		p.grow()
		if attempt == p.MaxRetries {
			break
		}
		select {
		case <-time.After(p.sleepTime):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}

// grow doubles the sleep time up to MaxSleep, the teacher's
// "attack" half of the attack-and-decay algorithm.
func (p *Pacer) grow() {
	old := p.sleepTime
	p.sleepTime *= 2
	if p.sleepTime > p.MaxSleep {
		p.sleepTime = p.MaxSleep
	}
	if p.sleepTime != old && p.Log != nil {
		p.Log.Debugf("pacer: rate limited, increasing sleep to %v", p.sleepTime)
	}
}

// decay shrinks the sleep time back towards MinSleep, the teacher's
// "decay" half, called after a successful attempt so a subsequent burst
// of failures doesn't inherit a stale long sleep.
func (p *Pacer) decay() {
	old := p.sleepTime
	p.sleepTime = (p.sleepTime<<p.DecayConstant - p.sleepTime) >> p.DecayConstant
	if p.sleepTime < p.MinSleep {
		p.sleepTime = p.MinSleep
	}
	if p.sleepTime != old && p.Log != nil {
		p.Log.Debugf("pacer: reducing sleep to %v", p.sleepTime)
	}
}
