// Package minioclient adapts minio-go/v7's low-level Core client to
// objclient.Client, for object stores where the minio SDK is the better
// fit than aws-sdk-go (e.g. MinIO itself, or any strictly
// S3-API-compatible store without AWS-specific quirks).
package minioclient

import (
	"context"
	"io"

	"github.com/minio/minio-go/v7"

	"github.com/nimbusdb/objstore/internal/objclient"
)

// Client adapts a *minio.Core (and the *minio.Client it wraps, for the
// single-shot PutObject/CopyObject/StatObject calls Core does not expose)
// to objclient.Client.
type Client struct {
	Core  *minio.Core
	Plain *minio.Client
}

// New returns a Client backed by core and the plain client it was built from.
func New(core *minio.Core, plain *minio.Client) *Client {
	return &Client{Core: core, Plain: plain}
}

func classify(err error) error {
	if err == nil {
		return nil
	}
	resp := minio.ToErrorResponse(err)
	switch resp.Code {
	case "NoSuchKey":
		return &objclient.ClientError{Kind: objclient.ErrKindNoSuchKey, Message: resp.Message}
	case "EntityTooLarge":
		return &objclient.ClientError{Kind: objclient.ErrKindEntityTooLarge, Message: resp.Message}
	case "InvalidArgument", "InvalidRequest":
		return &objclient.ClientError{Kind: objclient.ErrKindInvalidRequest, Message: resp.Message}
	default:
		return &objclient.ClientError{Kind: objclient.ErrKindOther, Message: err.Error()}
	}
}

func (c *Client) CreateMultipartUpload(ctx context.Context, bucket, key, contentType string, metadata map[string]string, storageClass string) (*objclient.CreateMultipartUploadOutput, error) {
	opts := minio.PutObjectOptions{ContentType: contentType, UserMetadata: metadata, StorageClass: storageClass}
	uploadID, err := c.Core.NewMultipartUpload(ctx, bucket, key, opts)
	if err != nil {
		return nil, classify(err)
	}
	return &objclient.CreateMultipartUploadOutput{UploadID: uploadID}, nil
}

func (c *Client) UploadPart(ctx context.Context, bucket, key, uploadID string, partNumber int, contentLength int64, body io.ReadSeeker) (*objclient.UploadPartOutput, error) {
	part, err := c.Core.PutObjectPart(ctx, bucket, key, uploadID, partNumber, body, contentLength, minio.PutObjectPartOptions{})
	if err != nil {
		return nil, classify(err)
	}
	return &objclient.UploadPartOutput{ETag: part.ETag}, nil
}

func (c *Client) UploadPartCopy(ctx context.Context, bucket, key, uploadID string, partNumber int, srcBucket, srcKey string, r objclient.ByteRange) (*objclient.UploadPartOutput, error) {
	part, err := c.Core.CopyObjectPart(ctx, srcBucket, srcKey, bucket, key, uploadID, partNumber, r.Start, r.EndInclusive-r.Start+1, nil)
	if err != nil {
		return nil, classify(err)
	}
	return &objclient.UploadPartOutput{ETag: part.ETag}, nil
}

func (c *Client) CompleteMultipartUpload(ctx context.Context, bucket, key, uploadID string, parts []objclient.CompletedPart) error {
	completed := make([]minio.CompletePart, len(parts))
	for i, p := range parts {
		completed[i] = minio.CompletePart{PartNumber: p.PartNumber, ETag: p.ETag}
	}
	_, err := c.Core.CompleteMultipartUpload(ctx, bucket, key, uploadID, completed, minio.PutObjectOptions{})
	return classify(err)
}

func (c *Client) AbortMultipartUpload(ctx context.Context, bucket, key, uploadID string) error {
	return classify(c.Core.AbortMultipartUpload(ctx, bucket, key, uploadID))
}

func (c *Client) PutObject(ctx context.Context, bucket, key string, contentLength int64, body io.ReadSeeker, metadata map[string]string, storageClass string) (string, error) {
	info, err := c.Plain.PutObject(ctx, bucket, key, body, contentLength, minio.PutObjectOptions{
		ContentType:  objclient.ContentTypeOctetStream,
		UserMetadata: metadata,
		StorageClass: storageClass,
	})
	if err != nil {
		return "", classify(err)
	}
	return info.ETag, nil
}

func (c *Client) CopyObject(ctx context.Context, srcBucket, srcKey, dstBucket, dstKey string, metadataDirectiveReplace bool, metadata map[string]string, storageClass string) (string, error) {
	src := minio.CopySrcOptions{Bucket: srcBucket, Object: srcKey}
	dst := minio.CopyDestOptions{Bucket: dstBucket, Object: dstKey, StorageClass: storageClass}
	if metadataDirectiveReplace {
		dst.UserMetadata = metadata
		dst.ReplaceMetadata = true
	}
	info, err := c.Plain.CopyObject(ctx, dst, src)
	if err != nil {
		return "", classify(err)
	}
	return info.ETag, nil
}

func (c *Client) HeadObject(ctx context.Context, bucket, key string) (*objclient.HeadObjectOutput, error) {
	info, err := c.Plain.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return nil, classify(err)
	}
	return &objclient.HeadObjectOutput{ContentLength: info.Size, ETag: info.ETag}, nil
}

var _ objclient.Client = (*Client)(nil)
