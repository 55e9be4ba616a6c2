package objstore

// maxPartNumberCeiling is the protocol ceiling on parts per multipart
// upload (spec.md §3). Implementations may configure a lower value; a
// higher one is not rejected outright, matching real S3-compatible
// stores that raise it.
const maxPartNumberCeiling = 10000

// Policy is the Request Policy of spec.md §3. Every field maps directly
// to a named limit in the spec; there is deliberately no sub-struct or
// builder — the teacher binds flags directly onto a struct like this one
// (see cmd/objcp).
type Policy struct {
	MinUploadPartSize    int64
	MaxUploadPartSize    int64
	MaxPartNumber        int
	MaxSinglePartUploadSize    int64
	MaxSingleOperationCopySize int64

	UploadPartSizeMultiplyFactor              float64
	UploadPartSizeMultiplyPartsCountThreshold int

	StorageClassName string

	CheckObjectsAfterUpload bool

	MaxUnexpectedWriteErrorRetries int

	// DisableCopyPhantomRetry turns off the phantom-NoSuchKey retry on a
	// copy job's single CopyObject and on its CompleteMultipartUpload.
	// SPEC_FULL.md §4.6 decides the open question in spec.md §9 ("is it
	// true for copy requests?") as "retried by default"; this is the
	// documented test hook to disable it.
	DisableCopyPhantomRetry bool
}

// DefaultPolicy returns the policy the teacher's S3 backend ships as
// defaults for the equivalent settings (5 MiB minimum part, 5 GiB
// maximum, 10000 parts, doubling every 500 parts).
func DefaultPolicy() Policy {
	return Policy{
		MinUploadPartSize:                         5 << 20,
		MaxUploadPartSize:                         5 << 30,
		MaxPartNumber:                              maxPartNumberCeiling,
		MaxSinglePartUploadSize:                    32 << 20,
		MaxSingleOperationCopySize:                 5 << 30,
		UploadPartSizeMultiplyFactor:               2,
		UploadPartSizeMultiplyPartsCountThreshold:  500,
		MaxUnexpectedWriteErrorRetries:              4,
	}
}

// Validate checks the invariants spec.md §4.A and §4.B require before any
// network call is made. It does not depend on a total size; size-specific
// checks live in partsize.Calculate.
func (p Policy) Validate() error {
	if p.MinUploadPartSize <= 0 {
		return configInvalidf("min_upload_part_size must be > 0, got %d", p.MinUploadPartSize)
	}
	if p.MaxPartNumber <= 0 {
		return configInvalidf("max_part_number must be > 0, got %d", p.MaxPartNumber)
	}
	if p.MaxUploadPartSize < p.MinUploadPartSize {
		return configInvalidf("max_upload_part_size (%d) must be >= min_upload_part_size (%d)", p.MaxUploadPartSize, p.MinUploadPartSize)
	}
	if p.MaxUnexpectedWriteErrorRetries < 1 {
		return configInvalidf("max_unexpected_write_error_retries must be >= 1, got %d", p.MaxUnexpectedWriteErrorRetries)
	}
	if p.UploadPartSizeMultiplyFactor < 1 {
		return configInvalidf("upload_part_size_multiply_factor must be >= 1, got %f", p.UploadPartSizeMultiplyFactor)
	}
	if p.UploadPartSizeMultiplyPartsCountThreshold < 1 {
		return configInvalidf("upload_part_size_multiply_parts_count_threshold must be >= 1, got %d", p.UploadPartSizeMultiplyPartsCountThreshold)
	}
	return nil
}
