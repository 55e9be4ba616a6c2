// Package throttle implements objclient.Throttler with a token bucket,
// adapted from the teacher's fs/accounting/token_bucket.go: a
// golang.org/x/time/rate.Limiter sized to the configured bandwidth, with
// the burst capped so no single wait blocks far longer than necessary.
// Unlike the teacher's version this is an instance, not process-global
// state, and it reports every wait back through the engine's metrics
// counters rather than logging.
package throttle

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/nimbusdb/objstore/internal/objclient"
)

// maxBurstSize is the limiter's burst. Add calls larger than this are
// waited for in burst-sized steps, since WaitN rejects any n above it.
const maxBurstSize = 64 << 20

// RateThrottler limits outbound bytes/sec to a fixed rate.
type RateThrottler struct {
	limiter *rate.Limiter
}

// New returns a RateThrottler capped at bytesPerSecond. A zero or
// negative bytesPerSecond disables limiting (Add becomes a no-op).
func New(bytesPerSecond int64) *RateThrottler {
	if bytesPerSecond <= 0 {
		return &RateThrottler{}
	}
	return &RateThrottler{limiter: rate.NewLimiter(rate.Limit(bytesPerSecond), maxBurstSize)}
}

// Add implements objclient.Throttler: it blocks until nBytes worth of
// bandwidth is available, then reports the bytes moved and the
// nanoseconds spent waiting.
func (t *RateThrottler) Add(ctx context.Context, nBytes int64, bytesCounter, sleepCounter objclient.Counter) {
	if bytesCounter != nil {
		bytesCounter.Add(nBytes)
	}
	if t.limiter == nil {
		return
	}
	start := time.Now()
	for remaining := nBytes; remaining > 0; {
		n := remaining
		if n > maxBurstSize {
			n = maxBurstSize
		}
		if err := t.limiter.WaitN(ctx, int(n)); err != nil {
			return
		}
		remaining -= n
	}
	if sleepCounter != nil {
		sleepCounter.Add(int64(time.Since(start)))
	}
}

var _ objclient.Throttler = (*RateThrottler)(nil)
