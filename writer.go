package objstore

import (
	"bytes"
	"context"
	"io"
	"runtime"
	"sync"

	"github.com/nimbusdb/objstore/internal/engine"
	"github.com/nimbusdb/objstore/internal/objclient"
	"github.com/nimbusdb/objstore/partsize"
	"github.com/sirupsen/logrus"
)

// Writer is the Streaming Write Front-end of spec.md §4.E: it
// accumulates producer bytes into a part buffer, drains the buffer to
// the scheduler when a part boundary is crossed, grows the part size
// adaptively, and requires PreFinalize/Finalize exactly once
// (spec.md §3 invariant 5). One Writer serves one instance, one
// goroutine: like the teacher's own streaming front-end, it is not
// itself safe for concurrent Write calls.
type Writer struct {
	ctx    context.Context
	client objclient.Client
	job    Job
	log    logrus.FieldLogger

	buf            bytes.Buffer
	uploadPartSize int64
	partNumber     int
	totalWritten   int64

	session   *engine.Session
	scheduler *engine.Scheduler

	preFinalized bool
	finalized    bool

	mu sync.Mutex // guards the finalizer's read of `finalized` against Finalize
}

// NewWriter validates job.Policy and returns a Writer that will deposit
// bytes at job.Destination as they are written. ctx bounds every
// background and foreground remote call the Writer makes; cancelling it
// does not itself abort an open session (spec.md §5: the core exposes no
// cancel token), but a cancelled ctx will fail the next remote call,
// which does trigger an abort.
func NewWriter(ctx context.Context, client objclient.Client, job Job) (*Writer, error) {
	if err := job.Policy.Validate(); err != nil {
		return nil, err
	}
	log := logrus.StandardLogger().WithFields(logrus.Fields{
		"bucket": job.Destination.Bucket,
		"key":    job.Destination.Key,
	})
	w := &Writer{
		ctx:            ctx,
		client:         client,
		job:            job,
		log:            log,
		uploadPartSize: job.Policy.MinUploadPartSize,
	}
	// Abort-on-destruction safety net (SPEC_FULL.md §4.4): Go has no
	// destructor, so a finalizer is the closest faithful analogue to the
	// original's debug-build assertion that Finalize was called.
	runtime.SetFinalizer(w, func(w *Writer) {
		w.mu.Lock()
		defer w.mu.Unlock()
		if !w.finalized {
			w.log.Error("objstore.Writer finalized without Finalize (or Abort) ever being called; the server may retain an orphan incomplete upload")
		}
	})
	return w, nil
}

// Write implements io.Writer (spec.md §4.E next_impl). It never blocks
// for the duration of part uploads when job.Executor is set (spec.md §5):
// the synchronous work is the buffer copy, the throttle wait, the single
// CreateMultipartUpload call that opens the session, and draining
// already-finished background tasks (which, when one of them failed,
// waits for the remaining tasks before returning the error).
func (w *Writer) Write(p []byte) (int, error) {
	if w.preFinalized {
		return 0, logicf("Write called after PreFinalize")
	}
	if len(p) == 0 {
		return 0, nil
	}

	w.buf.Write(p)
	w.totalWritten += int64(len(p))

	if w.job.Throttler != nil {
		w.job.Throttler.Add(w.ctx, int64(len(p)),
			objclient.MetricsOrNoop(w.job.Metrics).Counter(objclient.EventName(eventBytesWritten, w.job.IsDiskObject)),
			objclient.MetricsOrNoop(w.job.Metrics).Counter(objclient.EventName(eventThrottleSleepNanos, w.job.IsDiskObject)))
	}

	if w.session == nil && int64(w.buf.Len()) > w.job.Policy.MaxSinglePartUploadSize {
		if err := w.openSession(); err != nil {
			return 0, err
		}
	}

	// A loop, not a single check: one Write call can hand over many
	// multiples of the current part size (e.g. a producer that buffers
	// its own large chunks), and every excess part must still be emitted
	// at a valid part size rather than accumulating into an oversized
	// final part at Finalize time.
	for w.session != nil && int64(w.buf.Len()) > w.uploadPartSize {
		if err := w.emitPart(); err != nil {
			return 0, err
		}
	}

	if w.scheduler != nil {
		if err := w.scheduler.DrainReady(w.ctx); err != nil {
			return 0, remotef(err, "background part upload failed")
		}
	}

	return len(p), nil
}

func (w *Writer) openSession() error {
	w.session = engine.NewSession(w.client, w.job.Destination.Bucket, w.job.Destination.Key, w.log)
	w.session.SetAbortCounter(objclient.MetricsOrNoop(w.job.Metrics).Counter(objclient.EventName(eventAbortMultipartUpload, w.job.IsDiskObject)))
	bump(w.job.Metrics, w.job.IsDiskObject, eventCreateMultipartUpload)
	if err := w.session.Create(w.ctx, w.job.Metadata, w.job.Policy.StorageClassName); err != nil {
		return err
	}
	w.scheduler = engine.NewScheduler(w.session, w.job.Executor)
	return nil
}

// emitPart sends up to w.uploadPartSize bytes from the front of the
// buffer as the next part (leaving any excess for the next emission —
// a single Write call may hand over several multiples of the part size
// at once) and grows uploadPartSize geometrically every
// UploadPartSizeMultiplyPartsCountThreshold parts, capped at
// MaxUploadPartSize (spec.md §4.E).
func (w *Writer) emitPart() error {
	nextPartNumber := w.partNumber + 1
	if nextPartNumber > w.job.Policy.MaxPartNumber {
		return configInvalidf(
			"writing part %d would exceed max_part_number (%d); the policy's part-size growth cannot keep up with the data rate",
			nextPartNumber, w.job.Policy.MaxPartNumber)
	}

	n := int64(w.buf.Len())
	if n > w.uploadPartSize {
		n = w.uploadPartSize
	}
	chunk := make([]byte, n)
	copy(chunk, w.buf.Bytes()[:n])
	w.buf.Next(int(n))

	body := bytes.NewReader(chunk)
	size := n
	w.partNumber = nextPartNumber

	bucket, key, uploadID := w.job.Destination.Bucket, w.job.Destination.Key, w.session.UploadID
	err := w.scheduler.Schedule(nextPartNumber,
		func() (any, error) { return body, nil },
		func(req any) (string, error) {
			bump(w.job.Metrics, w.job.IsDiskObject, eventUploadPart)
			out, err := w.client.UploadPart(w.ctx, bucket, key, uploadID, nextPartNumber, size, req.(io.ReadSeeker))
			if err != nil {
				return "", remotef(err, "UploadPart %d failed for %s/%s", nextPartNumber, bucket, key)
			}
			return out.ETag, nil
		})
	if err != nil {
		w.session.Abort(w.ctx)
		return err
	}

	if w.partNumber%w.job.Policy.UploadPartSizeMultiplyPartsCountThreshold == 0 {
		grown := float64(w.uploadPartSize) * w.job.Policy.UploadPartSizeMultiplyFactor
		if grown > float64(w.job.Policy.MaxUploadPartSize) {
			grown = float64(w.job.Policy.MaxUploadPartSize)
		}
		w.uploadPartSize = int64(grown)
	}
	return nil
}

// PreFinalize flushes the remaining buffered bytes, either as a single
// PutObject (no multipart session was ever opened) or as the last part
// of an open session (spec.md §4.E). It is safe to call more than once;
// Finalize calls it implicitly if the caller did not.
func (w *Writer) PreFinalize() error {
	if w.preFinalized {
		return nil
	}
	w.preFinalized = true

	if w.session == nil {
		return w.putSingleShotOrFallback()
	}
	if w.buf.Len() > 0 {
		return w.emitPart()
	}
	return nil
}

// putSingleShotOrFallback implements the streaming half of the Strategy
// Selector (spec.md §4.D): a single PutObject unless/until the server
// rejects it with EntityTooLarge or InvalidRequest, in which case the
// buffered bytes (already fully in memory, since the session was never
// opened) are re-submitted as a multipart upload with no re-read needed.
func (w *Writer) putSingleShotOrFallback() error {
	bucket, key := w.job.Destination.Bucket, w.job.Destination.Key
	bump(w.job.Metrics, w.job.IsDiskObject, eventPutObject)
	_, err := w.client.PutObject(w.ctx, bucket, key, int64(w.buf.Len()), bytes.NewReader(w.buf.Bytes()), w.job.Metadata, w.job.Policy.StorageClassName)
	if err == nil {
		return nil
	}
	switch objclient.ClassifyErrKind(err) {
	case objclient.ErrKindEntityTooLarge, objclient.ErrKindInvalidRequest:
		w.log.WithField("error", err).Info("PutObject rejected for size; falling back to multipart upload")
	default:
		return remotef(err, "PutObject failed for %s/%s", bucket, key)
	}

	if err := w.openSession(); err != nil {
		return err
	}
	partSize, perr := partsize.Calculate(int64(w.buf.Len()), partsize.Limits{
		MinUploadPartSize: w.job.Policy.MinUploadPartSize,
		MaxUploadPartSize: w.job.Policy.MaxUploadPartSize,
		MaxPartNumber:     w.job.Policy.MaxPartNumber,
	})
	if perr != nil {
		w.session.Abort(w.ctx)
		return perr
	}
	w.uploadPartSize = partSize

	all := w.buf.Bytes()
	w.buf = bytes.Buffer{}
	for len(all) > 0 {
		n := partSize
		if n > int64(len(all)) {
			n = int64(len(all))
		}
		w.buf.Write(all[:n])
		all = all[n:]
		if err := w.emitPart(); err != nil {
			return err
		}
	}
	return nil
}

// Finalize waits for all background part uploads, completes the
// multipart session if one was opened, and optionally verifies the
// result with a HEAD (spec.md §4.E). Calling it more than once is a
// no-op after the first successful call.
func (w *Writer) Finalize() error {
	w.mu.Lock()
	finalized := w.finalized
	w.mu.Unlock()
	if finalized {
		return nil
	}
	if err := w.PreFinalize(); err != nil {
		return err
	}

	if w.scheduler != nil {
		if err := w.scheduler.WaitAll(w.ctx); err != nil {
			return remotef(err, "waiting for background part uploads failed")
		}
	}
	if w.session != nil {
		bump(w.job.Metrics, w.job.IsDiskObject, eventCompleteMultipartUpload)
		if err := w.session.Complete(w.ctx, w.job.Policy.MaxUnexpectedWriteErrorRetries, true); err != nil {
			return err
		}
	}
	if w.job.Policy.CheckObjectsAfterUpload {
		if err := w.headCheck(); err != nil {
			return err
		}
	}

	w.mu.Lock()
	w.finalized = true
	w.mu.Unlock()
	runtime.SetFinalizer(w, nil)
	return nil
}

func (w *Writer) headCheck() error {
	bump(w.job.Metrics, w.job.IsDiskObject, eventHeadObject)
	if _, err := w.client.HeadObject(w.ctx, w.job.Destination.Bucket, w.job.Destination.Key); err != nil {
		return remotef(err, "post-upload HeadObject check failed for %s/%s", w.job.Destination.Bucket, w.job.Destination.Key)
	}
	return nil
}

// Abort cancels the write: if a multipart session was opened it is
// aborted best-effort, and Finalize becomes a no-op (it is treated as
// already terminal, matching spec.md §3 invariant 4: a session is in
// exactly one terminal state).
func (w *Writer) Abort() {
	w.mu.Lock()
	w.finalized = true
	w.mu.Unlock()
	runtime.SetFinalizer(w, nil)
	if w.session != nil {
		w.session.Abort(w.ctx)
	}
}

// TotalWritten returns the number of bytes handed to Write so far.
func (w *Writer) TotalWritten() int64 {
	return w.totalWritten
}

var _ io.Writer = (*Writer)(nil)
