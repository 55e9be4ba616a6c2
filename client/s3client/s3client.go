// Package s3client adapts aws-sdk-go v1's S3 client to objclient.Client,
// in the same request-shape style as backend/s3/s3.go's
// multiPartUpload/copyMultipart: plain *s3.XInput structs built per call,
// awserr.RequestFailure used to classify the handful of error codes the
// engine treats specially.
package s3client

import (
	"context"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/s3"

	"github.com/nimbusdb/objstore/internal/objclient"
)

// Client adapts *s3.S3 to objclient.Client.
type Client struct {
	S3 *s3.S3
}

// New returns a Client backed by svc.
func New(svc *s3.S3) *Client {
	return &Client{S3: svc}
}

func classify(err error) error {
	if err == nil {
		return nil
	}
	reqErr, ok := err.(awserr.RequestFailure)
	if !ok {
		return err
	}
	switch reqErr.Code() {
	case s3.ErrCodeNoSuchKey, "NotFound":
		return &objclient.ClientError{Kind: objclient.ErrKindNoSuchKey, Message: reqErr.Message()}
	case "EntityTooLarge":
		return &objclient.ClientError{Kind: objclient.ErrKindEntityTooLarge, Message: reqErr.Message()}
	case "InvalidRequest", "InvalidArgument":
		return &objclient.ClientError{Kind: objclient.ErrKindInvalidRequest, Message: reqErr.Message()}
	default:
		return &objclient.ClientError{Kind: objclient.ErrKindOther, Message: reqErr.Message()}
	}
}

func metadataPtrMap(metadata map[string]string) map[string]*string {
	if len(metadata) == 0 {
		return nil
	}
	out := make(map[string]*string, len(metadata))
	for k, v := range metadata {
		out[k] = aws.String(v)
	}
	return out
}

func (c *Client) CreateMultipartUpload(ctx context.Context, bucket, key, contentType string, metadata map[string]string, storageClass string) (*objclient.CreateMultipartUploadOutput, error) {
	req := &s3.CreateMultipartUploadInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
		Metadata:    metadataPtrMap(metadata),
	}
	if storageClass != "" {
		req.StorageClass = aws.String(storageClass)
	}
	resp, err := c.S3.CreateMultipartUploadWithContext(ctx, req)
	if err != nil {
		return nil, classify(err)
	}
	return &objclient.CreateMultipartUploadOutput{UploadID: aws.StringValue(resp.UploadId)}, nil
}

func (c *Client) UploadPart(ctx context.Context, bucket, key, uploadID string, partNumber int, contentLength int64, body io.ReadSeeker) (*objclient.UploadPartOutput, error) {
	resp, err := c.S3.UploadPartWithContext(ctx, &s3.UploadPartInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		UploadId:      aws.String(uploadID),
		PartNumber:    aws.Int64(int64(partNumber)),
		ContentLength: aws.Int64(contentLength),
		Body:          body,
	})
	if err != nil {
		return nil, classify(err)
	}
	return &objclient.UploadPartOutput{ETag: aws.StringValue(resp.ETag)}, nil
}

func (c *Client) UploadPartCopy(ctx context.Context, bucket, key, uploadID string, partNumber int, srcBucket, srcKey string, r objclient.ByteRange) (*objclient.UploadPartOutput, error) {
	resp, err := c.S3.UploadPartCopyWithContext(ctx, &s3.UploadPartCopyInput{
		Bucket:          aws.String(bucket),
		Key:             aws.String(key),
		UploadId:        aws.String(uploadID),
		PartNumber:      aws.Int64(int64(partNumber)),
		CopySource:      aws.String(srcBucket + "/" + srcKey),
		CopySourceRange: aws.String(r.String()),
	})
	if err != nil {
		return nil, classify(err)
	}
	if resp.CopyPartResult == nil {
		return nil, &objclient.ClientError{Kind: objclient.ErrKindOther, Message: "UploadPartCopy returned no CopyPartResult"}
	}
	return &objclient.UploadPartOutput{ETag: aws.StringValue(resp.CopyPartResult.ETag)}, nil
}

func (c *Client) CompleteMultipartUpload(ctx context.Context, bucket, key, uploadID string, parts []objclient.CompletedPart) error {
	completed := make([]*s3.CompletedPart, len(parts))
	for i, p := range parts {
		completed[i] = &s3.CompletedPart{PartNumber: aws.Int64(int64(p.PartNumber)), ETag: aws.String(p.ETag)}
	}
	_, err := c.S3.CompleteMultipartUploadWithContext(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:          aws.String(bucket),
		Key:             aws.String(key),
		UploadId:        aws.String(uploadID),
		MultipartUpload: &s3.CompletedMultipartUpload{Parts: completed},
	})
	return classify(err)
}

func (c *Client) AbortMultipartUpload(ctx context.Context, bucket, key, uploadID string) error {
	_, err := c.S3.AbortMultipartUploadWithContext(ctx, &s3.AbortMultipartUploadInput{
		Bucket:   aws.String(bucket),
		Key:      aws.String(key),
		UploadId: aws.String(uploadID),
	})
	return classify(err)
}

func (c *Client) PutObject(ctx context.Context, bucket, key string, contentLength int64, body io.ReadSeeker, metadata map[string]string, storageClass string) (string, error) {
	req := &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		ContentType:   aws.String(objclient.ContentTypeOctetStream),
		ContentLength: aws.Int64(contentLength),
		Body:          body,
		Metadata:      metadataPtrMap(metadata),
	}
	if storageClass != "" {
		req.StorageClass = aws.String(storageClass)
	}
	resp, err := c.S3.PutObjectWithContext(ctx, req)
	if err != nil {
		return "", classify(err)
	}
	return aws.StringValue(resp.ETag), nil
}

func (c *Client) CopyObject(ctx context.Context, srcBucket, srcKey, dstBucket, dstKey string, metadataDirectiveReplace bool, metadata map[string]string, storageClass string) (string, error) {
	req := &s3.CopyObjectInput{
		Bucket:      aws.String(dstBucket),
		Key:         aws.String(dstKey),
		CopySource:  aws.String(srcBucket + "/" + srcKey),
		ContentType: aws.String(objclient.ContentTypeOctetStream),
	}
	if metadataDirectiveReplace {
		req.MetadataDirective = aws.String(s3.MetadataDirectiveReplace)
		req.Metadata = metadataPtrMap(metadata)
	}
	if storageClass != "" {
		req.StorageClass = aws.String(storageClass)
	}
	resp, err := c.S3.CopyObjectWithContext(ctx, req)
	if err != nil {
		return "", classify(err)
	}
	if resp.CopyObjectResult == nil {
		return "", &objclient.ClientError{Kind: objclient.ErrKindOther, Message: "CopyObject returned no CopyObjectResult"}
	}
	return aws.StringValue(resp.CopyObjectResult.ETag), nil
}

func (c *Client) HeadObject(ctx context.Context, bucket, key string) (*objclient.HeadObjectOutput, error) {
	resp, err := c.S3.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, classify(err)
	}
	return &objclient.HeadObjectOutput{ContentLength: aws.Int64Value(resp.ContentLength), ETag: aws.StringValue(resp.ETag)}, nil
}

var _ objclient.Client = (*Client)(nil)
