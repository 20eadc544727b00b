package tile

import (
	"errors"
	"testing"

	"tilequery/datatype"
)

func encodeByteOffsets(offsets ...uint64) []byte {
	raw := make([]byte, 0, len(offsets)*8)
	for _, o := range offsets {
		buf := make([]byte, 8)
		datatype.ByteOrder.PutUint64(buf, o)
		raw = append(raw, buf...)
	}
	return raw
}

func TestOffsetsRoundTrip(t *testing.T) {
	// Byte offsets for 4-byte values: elements 0, 2, 2, 5.
	raw := encodeByteOffsets(0, 8, 8, 20)

	offsets, err := OffsetsFromBytesAndNumValues(4, raw, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := []int64{0, 2, 2, 5, 7}
	if len(offsets) != len(expected) {
		t.Fatalf("expected %d offsets, got %d", len(expected), len(offsets))
	}
	for i := range expected {
		if offsets[i] != expected[i] {
			t.Errorf("offset %d: expected %d, got %d", i, expected[i], offsets[i])
		}
	}
}

func TestOffsetsAppendedTerminator(t *testing.T) {
	raw := encodeByteOffsets(0, 16, 24)

	offsets, err := OffsetsFromBytesAndNumValues(8, raw, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(offsets) != 4 {
		t.Fatalf("expected N+1 offsets, got %d", len(offsets))
	}
	if offsets[len(offsets)-1] != 10 {
		t.Errorf("expected trailing offset 10, got %d", offsets[len(offsets)-1])
	}
}

func TestOffsetsValidateOnly(t *testing.T) {
	raw := encodeByteOffsets(0, 4, 12, 12)

	offsets, err := OffsetsFromBytes(2, raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := []int64{0, 2, 6, 6}
	for i := range expected {
		if offsets[i] != expected[i] {
			t.Errorf("offset %d: expected %d, got %d", i, expected[i], offsets[i])
		}
	}
}

func TestOffsetsUnaligned(t *testing.T) {
	raw := append(encodeByteOffsets(0, 8), 0xFF)

	_, err := OffsetsFromBytesAndNumValues(4, raw, 3)
	if !errors.Is(err, ErrUnalignedOffsets) {
		t.Fatalf("expected ErrUnalignedOffsets, got %v", err)
	}
}

func TestOffsetsNonIntegral(t *testing.T) {
	raw := encodeByteOffsets(0, 6)

	_, err := OffsetsFromBytesAndNumValues(4, raw, 3)
	if !errors.Is(err, ErrNonIntegralOffsets) {
		t.Fatalf("expected ErrNonIntegralOffsets, got %v", err)
	}
}

func TestOffsetsNegative(t *testing.T) {
	// -8 reinterpreted through the unsigned wire format.
	raw := encodeByteOffsets(uint64(0xFFFFFFFFFFFFFFF8), 8)

	_, err := OffsetsFromBytesAndNumValues(4, raw, 3)
	if !errors.Is(err, ErrNegativeOffset) {
		t.Fatalf("expected ErrNegativeOffset, got %v", err)
	}
}

func TestOffsetsDescending(t *testing.T) {
	raw := encodeByteOffsets(0, 16, 8, 24)

	_, err := OffsetsFromBytes(4, raw)
	var descending *DescendingOffsetsError
	if !errors.As(err, &descending) {
		t.Fatalf("expected DescendingOffsetsError, got %v", err)
	}
	if descending.Index != 1 {
		t.Errorf("expected violating index 1, got %d", descending.Index)
	}
	if descending.Prev != 4 || descending.Next != 2 {
		t.Errorf("expected pair (4, 2), got (%d, %d)", descending.Prev, descending.Next)
	}
}

func TestOffsetsDescendingReportsFirstViolation(t *testing.T) {
	raw := encodeByteOffsets(0, 24, 16, 8)

	_, err := OffsetsFromBytes(8, raw)
	var descending *DescendingOffsetsError
	if !errors.As(err, &descending) {
		t.Fatalf("expected DescendingOffsetsError, got %v", err)
	}
	if descending.Index != 1 {
		t.Errorf("expected first violating index 1, got %d", descending.Index)
	}
}

func TestOffsetsEmpty(t *testing.T) {
	offsets, err := OffsetsFromBytesAndNumValues(4, nil, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(offsets) != 1 || offsets[0] != 0 {
		t.Errorf("expected [0], got %v", offsets)
	}
}
