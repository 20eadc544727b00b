package tile

import (
	"fmt"

	"tilequery/datatype"
)

// Errors converting storage-format byte offsets into element offsets.
var (
	// ErrUnalignedOffsets reports an offsets buffer whose byte length is
	// not a multiple of the 8-byte offset width.
	ErrUnalignedOffsets = fmt.Errorf("offsets buffer size is not a multiple of 8 bytes")

	// ErrNonIntegralOffsets reports a byte offset which does not fall on a
	// value boundary.
	ErrNonIntegralOffsets = fmt.Errorf("byte offset is not a multiple of the value size")

	// ErrNegativeOffset reports an offsets buffer which begins below zero.
	ErrNegativeOffset = fmt.Errorf("first offset is negative")
)

// DescendingOffsetsError reports the first adjacent pair of offsets which
// is out of order.
type DescendingOffsetsError struct {
	Index int
	Prev  int64
	Next  int64
}

func (e *DescendingOffsetsError) Error() string {
	return fmt.Sprintf("offsets are not non-decreasing at index %d: %d > %d", e.Index, e.Prev, e.Next)
}

// OffsetsFromBytesAndNumValues converts a storage-format offsets buffer into
// canonical element offsets. The raw buffer holds one 8-byte byte offset per
// cell; the returned slice holds one element offset per cell plus a final
// offset equal to numValues.
func OffsetsFromBytesAndNumValues(valueSize int, raw []byte, numValues int) ([]int64, error) {
	offsets, err := decodeOffsets(valueSize, raw, 1)
	if err != nil {
		return nil, err
	}
	offsets = append(offsets, int64(numValues))
	return validateOffsets(offsets)
}

// OffsetsFromBytes converts a storage-format offsets buffer which already
// carries the trailing offset. The raw buffer holds N+1 byte offsets for N
// cells.
func OffsetsFromBytes(valueSize int, raw []byte) ([]int64, error) {
	offsets, err := decodeOffsets(valueSize, raw, 0)
	if err != nil {
		return nil, err
	}
	return validateOffsets(offsets)
}

// decodeOffsets reinterprets raw as 8-byte integers and divides each by the
// value size. The extra argument reserves capacity for an appended offset.
func decodeOffsets(valueSize int, raw []byte, extra int) ([]int64, error) {
	if len(raw)%8 != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrUnalignedOffsets, len(raw))
	}
	if valueSize <= 0 {
		return nil, fmt.Errorf("invalid value size: %d", valueSize)
	}

	offsets := make([]int64, 0, len(raw)/8+extra)
	for pos := 0; pos < len(raw); pos += 8 {
		byteOffset := int64(datatype.ByteOrder.Uint64(raw[pos : pos+8]))
		if byteOffset%int64(valueSize) != 0 {
			return nil, fmt.Errorf("%w: offset %d, value size %d", ErrNonIntegralOffsets, byteOffset, valueSize)
		}
		offsets = append(offsets, byteOffset/int64(valueSize))
	}
	return offsets, nil
}

// validateOffsets verifies that the sequence starts at or above zero and is
// non-decreasing.
func validateOffsets(offsets []int64) ([]int64, error) {
	if len(offsets) > 0 && offsets[0] < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeOffset, offsets[0])
	}
	for i := 1; i < len(offsets); i++ {
		if offsets[i] < offsets[i-1] {
			return nil, &DescendingOffsetsError{Index: i - 1, Prev: offsets[i-1], Next: offsets[i]}
		}
	}
	return offsets, nil
}
