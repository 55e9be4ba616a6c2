package objstore

import "github.com/nimbusdb/objstore/internal/objclient"

// ContentTypeOctetStream is forced onto every create/put/copy request the
// engine issues. At least one widely used SDK defaults to
// "application/xml" when a caller leaves Content-Type unset, and some
// object stores reject that for binary payloads (spec.md §6).
const ContentTypeOctetStream = objclient.ContentTypeOctetStream

// ErrKind distinguishes the handful of remote error shapes the engine
// treats specially. Everything else is an opaque remote failure.
type ErrKind = objclient.ErrKind

const (
	ErrKindOther          = objclient.ErrKindOther
	ErrKindNoSuchKey      = objclient.ErrKindNoSuchKey
	ErrKindEntityTooLarge = objclient.ErrKindEntityTooLarge
	ErrKindInvalidRequest = objclient.ErrKindInvalidRequest
)

// ClientError is the error shape every Client method must return on
// failure so the engine can classify it (spec.md §6).
type ClientError = objclient.ClientError

// ByteRange is the inclusive-end byte range used for UploadPartCopy's
// source range (spec.md §6: "bytes=<start>-<end_inclusive>").
type ByteRange = objclient.ByteRange

// CreateMultipartUploadOutput is the server's response to opening a session.
type CreateMultipartUploadOutput = objclient.CreateMultipartUploadOutput

// UploadPartOutput carries the ETag a part upload must record.
type UploadPartOutput = objclient.UploadPartOutput

// CompletedPart is one entry of the CompleteMultipartUpload payload.
type CompletedPart = objclient.CompletedPart

// HeadObjectOutput is the result of a successful HEAD.
type HeadObjectOutput = objclient.HeadObjectOutput

// Client is the object-store capability the engine consumes (spec.md §6).
// Implementations live outside the core: this module never performs its
// own signing, connection pooling, or individual-request retries — it
// only classifies the (result, error) outcomes this interface returns.
// See client/s3client and client/minioclient for concrete adapters.
type Client = objclient.Client

// Executor is the fire-and-forget background task submitter the engine
// consumes (spec.md §6). nil means "run everything inline on the caller's
// goroutine" — the engine must be correct both ways (spec.md §5).
type Executor = objclient.Executor

// Throttler is the optional outbound-bandwidth limiter the engine
// consumes (spec.md §6). See throttle.RateThrottler for a concrete
// implementation built on golang.org/x/time/rate.
type Throttler = objclient.Throttler

// Counter is a named, increment-by-amount metric sink. Metrics.Counter
// returns one of these per event name; Throttler.Add uses it for both
// the bytes-moved and time-slept counters.
type Counter = objclient.Counter

// Metrics is the increment-by-name counter facility the engine consumes
// (spec.md §6). A nil Metrics is treated as a no-op. See objmetrics for
// a Prometheus-backed implementation.
type Metrics = objclient.Metrics
