// Package objclient holds the external-collaborator types and
// interfaces of spec.md §6 (Client, Executor, Throttler, Metrics) in a
// package with no dependency on the engine or the root objstore
// package, so internal/engine can depend on it without creating an
// import cycle. The root package re-exports everything here verbatim.
package objclient

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// ContentTypeOctetStream is forced onto every create/put/copy request the
// engine issues (spec.md §6).
const ContentTypeOctetStream = "binary/octet-stream"

// ErrKind distinguishes the handful of remote error shapes the engine
// treats specially.
type ErrKind int

const (
	ErrKindOther ErrKind = iota
	ErrKindNoSuchKey
	ErrKindEntityTooLarge
	ErrKindInvalidRequest
)

// ClientError is the error shape every Client method must return on
// failure so the engine can classify it.
type ClientError struct {
	Kind    ErrKind
	Message string
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("object store: %s", e.Message)
}

// ByteRange is the inclusive-end byte range used for UploadPartCopy's
// source range (spec.md §6: "bytes=<start>-<end_inclusive>").
type ByteRange struct {
	Start, EndInclusive int64
}

func (r ByteRange) String() string {
	return fmt.Sprintf("bytes=%d-%d", r.Start, r.EndInclusive)
}

// CreateMultipartUploadOutput is the server's response to opening a session.
type CreateMultipartUploadOutput struct {
	UploadID string
}

// UploadPartOutput carries the ETag a part upload must record.
type UploadPartOutput struct {
	ETag string
}

// CompletedPart is one entry of the CompleteMultipartUpload payload.
type CompletedPart struct {
	PartNumber int
	ETag       string
}

// HeadObjectOutput is the result of a successful HEAD.
type HeadObjectOutput struct {
	ContentLength int64
	ETag          string
}

// Client is the object-store capability the engine consumes (spec.md §6).
type Client interface {
	CreateMultipartUpload(ctx context.Context, bucket, key, contentType string, metadata map[string]string, storageClass string) (*CreateMultipartUploadOutput, error)
	UploadPart(ctx context.Context, bucket, key, uploadID string, partNumber int, contentLength int64, body io.ReadSeeker) (*UploadPartOutput, error)
	UploadPartCopy(ctx context.Context, bucket, key, uploadID string, partNumber int, srcBucket, srcKey string, r ByteRange) (*UploadPartOutput, error)
	CompleteMultipartUpload(ctx context.Context, bucket, key, uploadID string, parts []CompletedPart) error
	AbortMultipartUpload(ctx context.Context, bucket, key, uploadID string) error
	PutObject(ctx context.Context, bucket, key string, contentLength int64, body io.ReadSeeker, metadata map[string]string, storageClass string) (etag string, err error)
	CopyObject(ctx context.Context, srcBucket, srcKey, dstBucket, dstKey string, metadataDirectiveReplace bool, metadata map[string]string, storageClass string) (etag string, err error)
	HeadObject(ctx context.Context, bucket, key string) (*HeadObjectOutput, error)
}

// Executor is the fire-and-forget background task submitter the engine
// consumes. nil means "run everything inline" (spec.md §5).
type Executor interface {
	Submit(fn func())
}

// Throttler is the optional outbound-bandwidth limiter the engine consumes.
type Throttler interface {
	Add(ctx context.Context, nBytes int64, bytesCounter, sleepCounter Counter)
}

// Counter is a named, increment-by-amount metric sink.
type Counter interface {
	Add(n int64)
}

// Metrics is the increment-by-name counter facility the engine consumes.
type Metrics interface {
	Counter(name string) Counter
}

type noopCounter struct{}

func (noopCounter) Add(int64) {}

type noopMetrics struct{}

func (noopMetrics) Counter(string) Counter { return noopCounter{} }

// MetricsOrNoop returns m, or a no-op Metrics if m is nil.
func MetricsOrNoop(m Metrics) Metrics {
	if m == nil {
		return noopMetrics{}
	}
	return m
}

// EventName picks between the plain and "disk" variants of a counter
// name based on the job's disk-object flag (spec.md §3).
func EventName(base string, isDiskObject bool) string {
	if isDiskObject {
		return "disk_" + base
	}
	return base
}

// ClassifyErrKind extracts the ErrKind from err if it is (or wraps) a
// *ClientError, otherwise ErrKindOther.
func ClassifyErrKind(err error) ErrKind {
	var ce *ClientError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ErrKindOther
}
