package objstore

import (
	"context"

	"github.com/nimbusdb/objstore/internal/engine"
	"github.com/nimbusdb/objstore/internal/objclient"
	"github.com/nimbusdb/objstore/internal/pacer"
	"github.com/nimbusdb/objstore/partsize"
	"github.com/sirupsen/logrus"
)

// CopyJob is the range-copy half of Job: it adds the source range to copy
// from (spec.md §3, §4.D).
type CopyJob struct {
	Job
	Source CopySource
}

// Copy implements the server-side range-copy Strategy Selector (spec.md
// §4.D): a single CopyObject when the source fits under
// MaxSingleOperationCopySize, else a multipart session driven with
// UploadPartCopy ranges sized by the same planner the streaming writer
// uses. It blocks until the copy is complete or has failed terminally.
func Copy(ctx context.Context, client objclient.Client, job CopyJob) error {
	if err := job.Policy.Validate(); err != nil {
		return err
	}
	log := logrus.StandardLogger().WithFields(logrus.Fields{
		"src_bucket": job.Source.Bucket,
		"src_key":    job.Source.Key,
		"dst_bucket": job.Destination.Bucket,
		"dst_key":    job.Destination.Key,
	})

	if job.Source.Size <= job.Policy.MaxSingleOperationCopySize {
		if err := copySingleShotOrFallback(ctx, client, job, log); err != nil {
			return err
		}
	} else if err := copyMultipart(ctx, client, job, log); err != nil {
		return err
	}

	if job.Policy.CheckObjectsAfterUpload {
		bump(job.Metrics, job.IsDiskObject, eventHeadObject)
		if _, err := client.HeadObject(ctx, job.Destination.Bucket, job.Destination.Key); err != nil {
			return remotef(err, "post-copy HeadObject check failed for %s/%s", job.Destination.Bucket, job.Destination.Key)
		}
	}
	return nil
}

// copySingleShotOrFallback attempts a single CopyObject and falls back to
// a multipart UploadPartCopy session on EntityTooLarge/InvalidRequest,
// mirroring the streaming writer's single-shot fallback (spec.md §4.D).
// A phantom NoSuchKey is retried up to MaxUnexpectedWriteErrorRetries
// attempts unless Policy.DisableCopyPhantomRetry is set.
func copySingleShotOrFallback(ctx context.Context, client objclient.Client, job CopyJob, log logrus.FieldLogger) error {
	p := pacer.New(job.Policy.MaxUnexpectedWriteErrorRetries)
	p.Log = log
	err := p.Call(ctx, func(attempt int) (bool, error) {
		bump(job.Metrics, job.IsDiskObject, eventCopyObject)
		_, err := client.CopyObject(ctx, job.Source.Bucket, job.Source.Key, job.Destination.Bucket, job.Destination.Key, len(job.Metadata) > 0, job.Metadata, job.Policy.StorageClassName)
		retry := err != nil && !job.Policy.DisableCopyPhantomRetry && objclient.ClassifyErrKind(err) == objclient.ErrKindNoSuchKey
		return retry, err
	})
	if err == nil {
		return nil
	}
	switch objclient.ClassifyErrKind(err) {
	case objclient.ErrKindEntityTooLarge, objclient.ErrKindInvalidRequest:
		log.WithField("error", err).Info("CopyObject rejected for size; falling back to multipart range copy")
	default:
		return remotef(err, "CopyObject failed for %s/%s -> %s/%s", job.Source.Bucket, job.Source.Key, job.Destination.Bucket, job.Destination.Key)
	}
	return copyMultipart(ctx, client, job, log)
}

// copyMultipart opens a session and issues one UploadPartCopy per planned
// range (spec.md §4.D). Ranges are built upfront from partsize.Calculate
// since, unlike the streaming writer, the total size is known before the
// first remote call.
func copyMultipart(ctx context.Context, client objclient.Client, job CopyJob, log logrus.FieldLogger) error {
	partSize, err := partsize.Calculate(job.Source.Size, partsize.Limits{
		MinUploadPartSize: job.Policy.MinUploadPartSize,
		MaxUploadPartSize: job.Policy.MaxUploadPartSize,
		MaxPartNumber:     job.Policy.MaxPartNumber,
	})
	if err != nil {
		return err
	}

	session := engine.NewSession(client, job.Destination.Bucket, job.Destination.Key, log)
	session.SetAbortCounter(objclient.MetricsOrNoop(job.Metrics).Counter(objclient.EventName(eventAbortMultipartUpload, job.IsDiskObject)))
	bump(job.Metrics, job.IsDiskObject, eventCreateMultipartUpload)
	if err := session.Create(ctx, job.Metadata, job.Policy.StorageClassName); err != nil {
		return err
	}
	scheduler := engine.NewScheduler(session, job.Executor)

	srcBucket, srcKey := job.Source.Bucket, job.Source.Key
	dstBucket, dstKey := job.Destination.Bucket, job.Destination.Key
	uploadID := session.UploadID

	partNumber := 0
	for offset := int64(0); offset < job.Source.Size; offset += partSize {
		partNumber++
		size := partSize
		if offset+size > job.Source.Size {
			size = job.Source.Size - offset
		}
		r := objclient.ByteRange{Start: job.Source.Offset + offset, EndInclusive: job.Source.Offset + offset + size - 1}
		pn := partNumber

		err := scheduler.Schedule(pn,
			func() (any, error) { return r, nil },
			func(req any) (string, error) {
				bump(job.Metrics, job.IsDiskObject, eventUploadPartCopy)
				out, err := client.UploadPartCopy(ctx, dstBucket, dstKey, uploadID, pn, srcBucket, srcKey, req.(objclient.ByteRange))
				if err != nil {
					return "", remotef(err, "UploadPartCopy %d failed for %s/%s -> %s/%s", pn, srcBucket, srcKey, dstBucket, dstKey)
				}
				return out.ETag, nil
			})
		if err != nil {
			session.Abort(ctx)
			return err
		}
	}

	if err := scheduler.WaitAll(ctx); err != nil {
		return remotef(err, "waiting for background range copies failed")
	}

	bump(job.Metrics, job.IsDiskObject, eventCompleteMultipartUpload)
	return session.Complete(ctx, job.Policy.MaxUnexpectedWriteErrorRetries, !job.Policy.DisableCopyPhantomRetry)
}
