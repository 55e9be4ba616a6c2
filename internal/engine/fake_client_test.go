package engine

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/nimbusdb/objstore/internal/objclient"
)

// fakeClient is a minimal in-memory stand-in for objclient.Client used
// across this package's tests, in the teacher's own stub-client style
// (backend/s3/s3_test.go's shouldRetry tests use similar hand-rolled stubs).
type fakeClient struct {
	mu sync.Mutex

	createCalls   int32
	uploadCalls   int32
	completeCalls int32
	abortCalls    int32

	failUploadPart map[int]error // partNumber -> error to return on every UploadPart of that part
	completeErrSeq []error       // errors to return on successive CompleteMultipartUpload calls; last repeats
}

func newFakeClient() *fakeClient {
	return &fakeClient{failUploadPart: map[int]error{}}
}

func (f *fakeClient) CreateMultipartUpload(ctx context.Context, bucket, key, contentType string, metadata map[string]string, storageClass string) (*objclient.CreateMultipartUploadOutput, error) {
	atomic.AddInt32(&f.createCalls, 1)
	return &objclient.CreateMultipartUploadOutput{UploadID: "upload-1"}, nil
}

func (f *fakeClient) UploadPart(ctx context.Context, bucket, key, uploadID string, partNumber int, contentLength int64, body io.ReadSeeker) (*objclient.UploadPartOutput, error) {
	atomic.AddInt32(&f.uploadCalls, 1)
	f.mu.Lock()
	err, ok := f.failUploadPart[partNumber]
	f.mu.Unlock()
	if ok {
		return nil, err
	}
	return &objclient.UploadPartOutput{ETag: fmt.Sprintf("etag-%d", partNumber)}, nil
}

func (f *fakeClient) UploadPartCopy(ctx context.Context, bucket, key, uploadID string, partNumber int, srcBucket, srcKey string, r objclient.ByteRange) (*objclient.UploadPartOutput, error) {
	atomic.AddInt32(&f.uploadCalls, 1)
	return &objclient.UploadPartOutput{ETag: fmt.Sprintf("copy-etag-%d", partNumber)}, nil
}

func (f *fakeClient) CompleteMultipartUpload(ctx context.Context, bucket, key, uploadID string, parts []objclient.CompletedPart) error {
	n := atomic.AddInt32(&f.completeCalls, 1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.completeErrSeq) == 0 {
		return nil
	}
	idx := int(n) - 1
	if idx >= len(f.completeErrSeq) {
		idx = len(f.completeErrSeq) - 1
	}
	return f.completeErrSeq[idx]
}

func (f *fakeClient) AbortMultipartUpload(ctx context.Context, bucket, key, uploadID string) error {
	atomic.AddInt32(&f.abortCalls, 1)
	return nil
}

func (f *fakeClient) PutObject(ctx context.Context, bucket, key string, contentLength int64, body io.ReadSeeker, metadata map[string]string, storageClass string) (string, error) {
	return "put-etag", nil
}

func (f *fakeClient) CopyObject(ctx context.Context, srcBucket, srcKey, dstBucket, dstKey string, metadataDirectiveReplace bool, metadata map[string]string, storageClass string) (string, error) {
	return "copy-etag", nil
}

func (f *fakeClient) HeadObject(ctx context.Context, bucket, key string) (*objclient.HeadObjectOutput, error) {
	return &objclient.HeadObjectOutput{ContentLength: 1}, nil
}

// inlineExecutor runs submissions on a fresh goroutine but does not
// control ordering, used to exercise out-of-order completion.
type inlineExecutor struct {
	wg sync.WaitGroup
}

func (e *inlineExecutor) Submit(fn func()) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		fn()
	}()
}
