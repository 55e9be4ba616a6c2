// Package engine implements the multipart-session and part-scheduler
// machinery of spec.md §4.B/§4.C — the "MultipartEngine" of the source's
// design notes (spec.md §9): a value-typed coordinator parameterized by
// the two capability closures a caller supplies to build and submit a
// part request, rather than a base class with two subclasses.
package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/nimbusdb/objstore/internal/objclient"
	"github.com/nimbusdb/objstore/internal/objerr"
	"github.com/nimbusdb/objstore/internal/pacer"
	"github.com/sirupsen/logrus"
)

// Session owns one server-side multipart upload's lifecycle: create,
// ordered part-tag bookkeeping, complete, abort (spec.md §3, §4.B).
type Session struct {
	client objclient.Client
	log    logrus.FieldLogger

	Bucket, Key string
	UploadID    string

	mu   sync.Mutex
	tags []string // tags[i] is the ETag of part i+1; filled in part-number order

	aborted atomic.Bool

	abortCounter objclient.Counter
}

// NewSession returns a Session bound to client; Create must be called
// before any other method.
func NewSession(client objclient.Client, bucket, key string, log logrus.FieldLogger) *Session {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Session{client: client, Bucket: bucket, Key: key, log: log}
}

// SetAbortCounter wires the counter Abort bumps when it actually issues
// AbortMultipartUpload (SPEC_FULL.md §4.3: every remote call increments a
// counter). engine cannot import the root objstore package to resolve its
// own event name without an import cycle, so the caller (objstore.Writer /
// objstore.copyMultipart) resolves the disk_-prefixed name and passes the
// bound Counter in. A nil counter, the zero value, makes Abort a no-op here.
func (s *Session) SetAbortCounter(c objclient.Counter) {
	s.abortCounter = c
}

// Create opens the server-side multipart upload (spec.md §4.B). Content
// type is always forced to objclient.ContentTypeOctetStream (spec.md §6).
func (s *Session) Create(ctx context.Context, metadata map[string]string, storageClass string) error {
	out, err := s.client.CreateMultipartUpload(ctx, s.Bucket, s.Key, objclient.ContentTypeOctetStream, metadata, storageClass)
	if err != nil {
		return objerr.Remotef(err, "CreateMultipartUpload failed for %s/%s", s.Bucket, s.Key)
	}
	if out == nil || out.UploadID == "" {
		return objerr.Remotef(nil, "CreateMultipartUpload for %s/%s returned no upload id", s.Bucket, s.Key)
	}
	s.UploadID = out.UploadID
	s.log.WithFields(logrus.Fields{"bucket": s.Bucket, "key": s.Key, "upload_id": s.UploadID}).Debug("opened multipart upload")
	return nil
}

// Aborted reports whether Abort has been called (spec.md §3 invariant 3).
func (s *Session) Aborted() bool {
	return s.aborted.Load()
}

// RecordPart appends tag at position partNumber-1. Callers (the
// scheduler's waitAll / ready-drain) must call this in strictly
// increasing part-number order (spec.md §3 invariant 1); a violation is
// a programming error and panics rather than silently producing a
// sparse or reordered tag list.
func (s *Session) RecordPart(partNumber int, tag string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if partNumber != len(s.tags)+1 {
		panic(fmt.Sprintf("engine: RecordPart called out of order: got part %d, expected %d", partNumber, len(s.tags)+1))
	}
	s.tags = append(s.tags, tag)
}

// PartCount returns how many parts have been recorded so far.
func (s *Session) PartCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tags)
}

// Complete assembles the CompletedMultipartUpload payload from the
// recorded tags, in part-number order, and submits it (spec.md §4.B). It
// retries the phantom-NoSuchKey error class up to maxRetries (minimum 1,
// enforced by objstore.Policy.Validate), and throws Remote with the last
// observed error once the budget is exhausted — spec.md §9 flags the
// source's fall-through-without-throwing here as a bug; this does not
// reproduce it. allowPhantomRetry lets range-copy jobs opt out per the
// open question in spec.md §9 about whether the phantom retry applies to
// copies (SPEC_FULL.md §4.6: retried by default).
func (s *Session) Complete(ctx context.Context, maxRetries int, allowPhantomRetry bool) error {
	s.mu.Lock()
	tags := make([]string, len(s.tags))
	copy(tags, s.tags)
	s.mu.Unlock()

	if len(tags) == 0 {
		return objerr.Remotef(nil, "CompleteMultipartUpload for %s/%s: no parts were uploaded", s.Bucket, s.Key)
	}

	parts := make([]objclient.CompletedPart, len(tags))
	for i, tag := range tags {
		parts[i] = objclient.CompletedPart{PartNumber: i + 1, ETag: tag}
	}
	sort.Slice(parts, func(i, j int) bool { return parts[i].PartNumber < parts[j].PartNumber })

	p := pacer.New(maxRetries)
	p.Log = s.log
	return p.Call(ctx, func(attempt int) (bool, error) {
		err := s.client.CompleteMultipartUpload(ctx, s.Bucket, s.Key, s.UploadID, parts)
		if err == nil {
			return false, nil
		}
		if allowPhantomRetry && objclient.ClassifyErrKind(err) == objclient.ErrKindNoSuchKey {
			return true, objerr.Remotef(err, "CompleteMultipartUpload for %s/%s: phantom NoSuchKey on attempt %d", s.Bucket, s.Key, attempt)
		}
		return false, objerr.Remotef(err, "CompleteMultipartUpload failed for %s/%s", s.Bucket, s.Key)
	})
}

// Abort is best-effort and idempotent: it sets the aborted flag and
// issues AbortMultipartUpload, ignoring the response (spec.md §4.B). It
// is safe, and expected, to call more than once when concurrently
// running parts race with a first abort (spec.md §8 invariant 4).
func (s *Session) Abort(ctx context.Context) {
	s.aborted.Store(true)
	if s.UploadID == "" {
		return
	}
	if s.abortCounter != nil {
		s.abortCounter.Add(1)
	}
	if err := s.client.AbortMultipartUpload(ctx, s.Bucket, s.Key, s.UploadID); err != nil {
		s.log.WithFields(logrus.Fields{"bucket": s.Bucket, "key": s.Key, "upload_id": s.UploadID}).
			Warnf("AbortMultipartUpload failed (best-effort, ignored): %v", err)
	}
}
