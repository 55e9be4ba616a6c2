package objstore

import (
	"context"
	"testing"

	"github.com/nimbusdb/objstore/internal/objclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopySmallSourceUsesSingleCopyObject(t *testing.T) {
	client := newFakeClient()
	policy := smallPartsPolicy() // MaxSingleOperationCopySize == 20

	err := Copy(context.Background(), client, CopyJob{
		Job:    Job{Destination: Destination{Bucket: "dst", Key: "k"}, Policy: policy},
		Source: CopySource{Bucket: "src", Key: "k", Size: 20},
	})
	require.NoError(t, err)
	assert.Equal(t, int32(1), client.copyObjectCalls)
	assert.Equal(t, int32(0), client.createCalls)
}

func TestCopyLargeSourceUsesMultipartRangeCopy(t *testing.T) {
	client := newFakeClient()
	policy := smallPartsPolicy()

	err := Copy(context.Background(), client, CopyJob{
		Job:    Job{Destination: Destination{Bucket: "dst", Key: "k"}, Policy: policy},
		Source: CopySource{Bucket: "src", Key: "k", Size: 45}, // > MaxSingleOperationCopySize
	})
	require.NoError(t, err)
	assert.Equal(t, int32(0), client.copyObjectCalls)
	assert.Equal(t, int32(1), client.createCalls)
	assert.Greater(t, client.uploadCopyCalls, int32(0))
	assert.Equal(t, int32(1), client.completeCalls)
}

func TestCopyFallsBackToMultipartOnEntityTooLarge(t *testing.T) {
	client := newFakeClient()
	client.copyObjectErr = &objclient.ClientError{Kind: objclient.ErrKindEntityTooLarge, Message: "too big"}
	policy := smallPartsPolicy()

	err := Copy(context.Background(), client, CopyJob{
		Job:    Job{Destination: Destination{Bucket: "dst", Key: "k"}, Policy: policy},
		Source: CopySource{Bucket: "src", Key: "k", Size: 15}, // small enough for a single shot attempt
	})
	require.NoError(t, err)
	assert.Equal(t, int32(1), client.copyObjectCalls)
	assert.Equal(t, int32(1), client.createCalls)
	assert.Greater(t, client.uploadCopyCalls, int32(0))
}

func TestCopyPropagatesOtherErrorsWithoutFallback(t *testing.T) {
	client := newFakeClient()
	client.copyObjectErr = assert.AnError
	policy := smallPartsPolicy()

	err := Copy(context.Background(), client, CopyJob{
		Job:    Job{Destination: Destination{Bucket: "dst", Key: "k"}, Policy: policy},
		Source: CopySource{Bucket: "src", Key: "k", Size: 15},
	})
	require.Error(t, err)
	assert.True(t, IsKind(err, KindRemote))
	assert.Equal(t, int32(0), client.createCalls)
}

func TestCopyRangesCoverWholeSourceContiguously(t *testing.T) {
	client := newFakeClient()
	policy := smallPartsPolicy()

	err := Copy(context.Background(), client, CopyJob{
		Job:    Job{Destination: Destination{Bucket: "dst", Key: "k"}, Policy: policy},
		Source: CopySource{Bucket: "src", Key: "k", Offset: 100, Size: 45},
	})
	require.NoError(t, err)
	// partsize.Calculate(45, {10, 40, 1000}) starts at 10 and needs 5 parts,
	// well under MaxPartNumber, so it stays at 10 — 4 full parts + a
	// 5-byte remainder, all offset by the source's own 100-byte start.
	assert.Equal(t, int32(5), client.uploadCopyCalls)
	assert.Equal(t, []objclient.ByteRange{
		{Start: 100, EndInclusive: 109},
		{Start: 110, EndInclusive: 119},
		{Start: 120, EndInclusive: 129},
		{Start: 130, EndInclusive: 139},
		{Start: 140, EndInclusive: 144},
	}, client.uploadCopyRanges)
}

func TestCopyHeadCheckAfterSuccessWhenEnabled(t *testing.T) {
	client := newFakeClient()
	policy := smallPartsPolicy()
	policy.CheckObjectsAfterUpload = true

	err := Copy(context.Background(), client, CopyJob{
		Job:    Job{Destination: Destination{Bucket: "dst", Key: "k"}, Policy: policy},
		Source: CopySource{Bucket: "src", Key: "k", Size: 20},
	})
	require.NoError(t, err)
	assert.Equal(t, int32(1), client.headCalls)
}
