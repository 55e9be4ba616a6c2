package objstore

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/nimbusdb/objstore/internal/objclient"
)

// fakeClient is an in-memory stand-in for objclient.Client used by this
// package's own tests, in the same hand-rolled-stub style as
// internal/engine's fakeClient.
type fakeClient struct {
	mu sync.Mutex

	putObjectCalls   int32
	copyObjectCalls  int32
	createCalls      int32
	uploadCalls      int32
	uploadCopyCalls  int32
	completeCalls    int32
	abortCalls       int32
	headCalls        int32

	putObjectErr   error
	copyObjectErr  error
	failUploadPart map[int]error

	maxPutObjectSize int64 // 0 means unlimited

	uploadedPartSizes []int64 // contentLength of each successful UploadPart call, in call order
	uploadCopyRanges  []objclient.ByteRange // source range of each UploadPartCopy call, in call order
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
	if !ok {
		f.uploadedPartSizes = append(f.uploadedPartSizes, contentLength)
	}
	f.mu.Unlock()
	if ok {
		return nil, err
	}
	return &objclient.UploadPartOutput{ETag: fmt.Sprintf("etag-%d", partNumber)}, nil
}

func (f *fakeClient) UploadPartCopy(ctx context.Context, bucket, key, uploadID string, partNumber int, srcBucket, srcKey string, r objclient.ByteRange) (*objclient.UploadPartOutput, error) {
	atomic.AddInt32(&f.uploadCopyCalls, 1)
	f.mu.Lock()
	f.uploadCopyRanges = append(f.uploadCopyRanges, r)
	f.mu.Unlock()
	return &objclient.UploadPartOutput{ETag: fmt.Sprintf("copy-etag-%d", partNumber)}, nil
}

func (f *fakeClient) CompleteMultipartUpload(ctx context.Context, bucket, key, uploadID string, parts []objclient.CompletedPart) error {
	atomic.AddInt32(&f.completeCalls, 1)
	return nil
}

func (f *fakeClient) AbortMultipartUpload(ctx context.Context, bucket, key, uploadID string) error {
	atomic.AddInt32(&f.abortCalls, 1)
	return nil
}

func (f *fakeClient) PutObject(ctx context.Context, bucket, key string, contentLength int64, body io.ReadSeeker, metadata map[string]string, storageClass string) (string, error) {
	atomic.AddInt32(&f.putObjectCalls, 1)
	if f.maxPutObjectSize > 0 && contentLength > f.maxPutObjectSize {
		return "", &objclient.ClientError{Kind: objclient.ErrKindEntityTooLarge, Message: "object too large for a single PUT"}
	}
	if f.putObjectErr != nil {
		return "", f.putObjectErr
	}
	return "put-etag", nil
}

func (f *fakeClient) CopyObject(ctx context.Context, srcBucket, srcKey, dstBucket, dstKey string, metadataDirectiveReplace bool, metadata map[string]string, storageClass string) (string, error) {
	atomic.AddInt32(&f.copyObjectCalls, 1)
	if f.copyObjectErr != nil {
		return "", f.copyObjectErr
	}
	return "copy-etag", nil
}

func (f *fakeClient) HeadObject(ctx context.Context, bucket, key string) (*objclient.HeadObjectOutput, error) {
	atomic.AddInt32(&f.headCalls, 1)
	return &objclient.HeadObjectOutput{ContentLength: 1}, nil
}

var _ objclient.Client = (*fakeClient)(nil)
