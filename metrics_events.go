package objstore

import "github.com/nimbusdb/objstore/internal/objclient"

// Event names bumped around each remote call (SPEC_FULL.md §4.3). Each is
// resolved through objclient.EventName so disk-backed jobs increment a parallel
// "disk_"-prefixed counter instead, mirroring the ProfileEvents::S3... vs
// ProfileEvents::DiskS3... pairs in the system this engine was distilled
// from.
const (
	eventCreateMultipartUpload   = "objstore_create_multipart_upload"
	eventUploadPart               = "objstore_upload_part"
	eventUploadPartCopy           = "objstore_upload_part_copy"
	eventCompleteMultipartUpload = "objstore_complete_multipart_upload"
	eventAbortMultipartUpload    = "objstore_abort_multipart_upload"
	eventPutObject                = "objstore_put_object"
	eventCopyObject                = "objstore_copy_object"
	eventHeadObject                = "objstore_head_object"
	eventBytesWritten              = "objstore_bytes_written"
	eventThrottleSleepNanos        = "objstore_throttle_sleep_nanos"
)

func bump(m Metrics, isDiskObject bool, name string) {
	objclient.MetricsOrNoop(m).Counter(objclient.EventName(name, isDiskObject)).Add(1)
}
