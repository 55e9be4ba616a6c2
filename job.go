package objstore

import "io"

// ReaderFactory returns a fresh, seekable reader positioned at the start
// of the source, once per attempt (spec.md §6). The read-buffer
// abstraction that actually produces bytes is an external collaborator;
// this module only ever calls the factory it is handed.
type ReaderFactory func() (io.ReadSeeker, error)

// CopySource identifies a byte range of an existing object to be
// server-side copied (spec.md §3).
type CopySource struct {
	Bucket string
	Key    string
	Offset int64
	Size   int64
}

// Destination is the (bucket, key) pair every job writes to.
type Destination struct {
	Bucket string
	Key    string
}

// Job is the spec.md §3 Job data model shared by the streaming-write and
// range-copy entry points. IsDiskObject selects only which metrics
// counters are bumped (SPEC_FULL.md §4.3); it has no effect on control
// flow.
type Job struct {
	Destination Destination
	Metadata    map[string]string
	Policy      Policy
	Executor    Executor
	Throttler   Throttler
	Metrics     Metrics
	IsDiskObject bool
}
