// Package partsize implements the part-size planner of SPEC_FULL.md §1:
// given a total byte count and a policy's size limits, pick the single
// part size used for every non-final part of a multipart upload.
package partsize

import (
	"fmt"

	"github.com/nimbusdb/objstore/internal/objerr"
)

// Limits is the subset of objstore.Policy the planner needs. It is a
// separate, minimal type so this package has no import-cycle dependency
// on the root package.
type Limits struct {
	MinUploadPartSize int64
	MaxUploadPartSize int64
	MaxPartNumber     int
}

func ceilDiv(a, b int64) int64 {
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}

// Calculate returns the uniform part size to use for totalSize bytes
// under lim, following spec.md §4.A exactly:
//
//  1. start at MinUploadPartSize
//  2. if that needs more than MaxPartNumber parts, grow the part size to
//     the smallest value that fits within MaxPartNumber parts
//  3. if that now exceeds MaxUploadPartSize, clamp to MaxUploadPartSize
//     and recompute the part count
//  4. verify both bounds hold; report which one is violated if not
func Calculate(totalSize int64, lim Limits) (int64, error) {
	if totalSize == 0 {
		return 0, objerr.Logicf("cannot plan parts for an empty upload (total_size == 0)")
	}
	if totalSize < 0 {
		return 0, objerr.Logicf("total_size must be > 0, got %d", totalSize)
	}
	if lim.MinUploadPartSize <= 0 {
		return 0, objerr.ConfigInvalidf("min_upload_part_size must be > 0, got %d", lim.MinUploadPartSize)
	}
	if lim.MaxPartNumber <= 0 {
		return 0, objerr.ConfigInvalidf("max_part_number must be > 0, got %d", lim.MaxPartNumber)
	}
	if lim.MaxUploadPartSize < lim.MinUploadPartSize {
		return 0, objerr.ConfigInvalidf("max_upload_part_size (%d) must be >= min_upload_part_size (%d)", lim.MaxUploadPartSize, lim.MinUploadPartSize)
	}

	partSize := lim.MinUploadPartSize
	numParts := ceilDiv(totalSize, partSize)

	if numParts > int64(lim.MaxPartNumber) {
		partSize = ceilDiv(totalSize, int64(lim.MaxPartNumber))
		numParts = ceilDiv(totalSize, partSize)
	}

	if partSize > lim.MaxUploadPartSize {
		partSize = lim.MaxUploadPartSize
		numParts = ceilDiv(totalSize, partSize)
	}

	if numParts < 1 || numParts > int64(lim.MaxPartNumber) {
		return 0, objerr.ConfigInvalidf(
			"computed part count %d violates max_part_number bound %d for total_size %d",
			numParts, lim.MaxPartNumber, totalSize)
	}
	if partSize < lim.MinUploadPartSize {
		return 0, objerr.ConfigInvalidf(
			"computed part_size %d is below min_upload_part_size bound %d for total_size %d",
			partSize, lim.MinUploadPartSize, totalSize)
	}
	if partSize > lim.MaxUploadPartSize {
		return 0, objerr.ConfigInvalidf(
			"computed part_size %d exceeds max_upload_part_size bound %d for total_size %d",
			partSize, lim.MaxUploadPartSize, totalSize)
	}

	return partSize, nil
}

// FinalPartSize returns the size of the last part given a uniform
// partSize and totalSize, for callers planning ranges. It is always in
// (0, partSize].
func FinalPartSize(totalSize, partSize int64) (int64, error) {
	if partSize <= 0 {
		return 0, fmt.Errorf("partsize: part size must be > 0, got %d", partSize)
	}
	n := ceilDiv(totalSize, partSize)
	final := totalSize - (n-1)*partSize
	if final <= 0 || final > partSize {
		return 0, fmt.Errorf("partsize: final part size %d out of (0, %d]", final, partSize)
	}
	return final, nil
}

// NumParts returns ceil(totalSize / partSize).
func NumParts(totalSize, partSize int64) int {
	return int(ceilDiv(totalSize, partSize))
}
