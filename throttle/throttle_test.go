package throttle

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingCounter struct{ total int64 }

func (c *countingCounter) Add(n int64) { c.total += n }

func TestUnlimitedThrottlerNeverBlocksAndStillCounts(t *testing.T) {
	th := New(0)
	bytes, sleep := &countingCounter{}, &countingCounter{}
	th.Add(context.Background(), 1024, bytes, sleep)
	assert.Equal(t, int64(1024), bytes.total)
	assert.Equal(t, int64(0), sleep.total)
}

func TestLimitedThrottlerReportsBytesMoved(t *testing.T) {
	th := New(1 << 20) // 1 MiB/s, comfortably above the burst used here
	bytes, sleep := &countingCounter{}, &countingCounter{}
	th.Add(context.Background(), 512, bytes, sleep)
	assert.Equal(t, int64(512), bytes.total)
	assert.GreaterOrEqual(t, sleep.total, int64(0))
}

func TestLimitedThrottlerRespectsCancellation(t *testing.T) {
	th := New(1) // 1 byte/sec; the ctx is cancelled before Add, so WaitN returns at once
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	bytes, sleep := &countingCounter{}, &countingCounter{}
	th.Add(ctx, 1<<20, bytes, sleep)
	require.Equal(t, int64(1<<20), bytes.total) // bytes are always counted
	assert.Equal(t, int64(0), sleep.total)       // wait aborted, no sleep credited
}
