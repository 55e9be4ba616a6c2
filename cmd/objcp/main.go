// Command objcp is a thin CLI front-end over the objstore engine,
// structured the way the teacher's cmd/ commands are: one cobra.Command
// per verb, flags bound directly onto a Policy with pflag, a Run func
// that builds the job and calls straight into the library.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nimbusdb/objstore"
	"github.com/nimbusdb/objstore/client/s3client"
	"github.com/nimbusdb/objstore/exec/semaphoreexec"
	"github.com/nimbusdb/objstore/objmetrics"
	"github.com/nimbusdb/objstore/throttle"

	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	policy         = objstore.DefaultPolicy()
	concurrency    int64
	bandwidthLimit int64
	verbose        bool
)

func main() {
	root := &cobra.Command{
		Use:   "objcp",
		Short: "Stream an upload or a server-side range-copy into an S3-compatible bucket",
	}
	root.PersistentFlags().Int64Var(&policy.MinUploadPartSize, "min-upload-part-size", policy.MinUploadPartSize, "smallest part size the engine will ever choose")
	root.PersistentFlags().Int64Var(&policy.MaxUploadPartSize, "max-upload-part-size", policy.MaxUploadPartSize, "largest part size the engine will ever choose")
	root.PersistentFlags().IntVar(&policy.MaxPartNumber, "max-part-number", policy.MaxPartNumber, "maximum parts per multipart upload")
	root.PersistentFlags().Int64Var(&policy.MaxSinglePartUploadSize, "max-single-part-upload-size", policy.MaxSinglePartUploadSize, "largest payload sent as a single PutObject")
	root.PersistentFlags().Int64Var(&policy.MaxSingleOperationCopySize, "max-single-operation-copy-size", policy.MaxSingleOperationCopySize, "largest source sent as a single CopyObject")
	root.PersistentFlags().Float64Var(&policy.UploadPartSizeMultiplyFactor, "upload-part-size-multiply-factor", policy.UploadPartSizeMultiplyFactor, "geometric growth factor applied to the part size")
	root.PersistentFlags().IntVar(&policy.UploadPartSizeMultiplyPartsCountThreshold, "upload-part-size-multiply-parts-count-threshold", policy.UploadPartSizeMultiplyPartsCountThreshold, "grow the part size every N parts")
	root.PersistentFlags().StringVar(&policy.StorageClassName, "storage-class", policy.StorageClassName, "storage class to request on write")
	root.PersistentFlags().BoolVar(&policy.CheckObjectsAfterUpload, "check-objects-after-upload", policy.CheckObjectsAfterUpload, "HEAD the destination after a successful write")
	root.PersistentFlags().IntVar(&policy.MaxUnexpectedWriteErrorRetries, "max-unexpected-write-error-retries", policy.MaxUnexpectedWriteErrorRetries, "retry budget for a phantom NoSuchKey on CompleteMultipartUpload and CopyObject")
	root.PersistentFlags().Int64Var(&concurrency, "concurrency", 4, "maximum number of parts in flight at once")
	root.PersistentFlags().Int64Var(&bandwidthLimit, "bwlimit", 0, "bandwidth limit in bytes/sec, 0 for unlimited")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(putCommand(), copyCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setup() {
	if verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}
}

func newClient() *s3client.Client {
	sess := session.Must(session.NewSession())
	return s3client.New(s3.New(sess))
}

func newJob(ctx context.Context, bucket, key string) objstore.Job {
	reg := prometheus.NewRegistry()
	return objstore.Job{
		Destination: objstore.Destination{Bucket: bucket, Key: key},
		Policy:      policy,
		Executor:    semaphoreexec.New(ctx, concurrency),
		Throttler:   throttle.New(bandwidthLimit),
		Metrics:     objmetrics.New(reg),
	}
}

func putCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "put src-file dest-bucket dest-key",
		Short: "Stream a local file's contents into an object, growing part sizes as it goes",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			setup()
			src, bucket, key := args[0], args[1], args[2]

			f, err := os.Open(src)
			if err != nil {
				return err
			}
			defer f.Close()

			ctx := context.Background()
			client := newClient()
			w, err := objstore.NewWriter(ctx, client, newJob(ctx, bucket, key))
			if err != nil {
				return err
			}
			buf := make([]byte, 1<<20)
			for {
				n, readErr := f.Read(buf)
				if n > 0 {
					if _, err := w.Write(buf[:n]); err != nil {
						return err
					}
				}
				if readErr != nil {
					break
				}
			}
			return w.Finalize()
		},
	}
}

func copyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "copy src-bucket src-key dest-bucket dest-key",
		Short: "Server-side copy an object (or a range of it) without downloading it",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			setup()
			srcBucket, srcKey, dstBucket, dstKey := args[0], args[1], args[2], args[3]

			ctx := context.Background()
			client := newClient()
			head, err := client.HeadObject(ctx, srcBucket, srcKey)
			if err != nil {
				return err
			}
			return objstore.Copy(ctx, client, objstore.CopyJob{
				Job:    newJob(ctx, dstBucket, dstKey),
				Source: objstore.CopySource{Bucket: srcBucket, Key: srcKey, Size: head.ContentLength},
			})
		},
	}
}
