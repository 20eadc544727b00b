// Package vectorized materializes tile buffers into columnar batches and
// evaluates compiled predicates over them, producing per-row selection
// bitmaps.
package vectorized

import (
	"fmt"

	"tilequery/datatype"
	"tilequery/schema"
)

// NullMask tracks which rows of a vector are null. A set bit means the
// row is null.
type NullMask struct {
	Bits      []uint64
	Length    int
	NullCount int
}

// NewNullMask creates an all-valid mask for the given row count.
func NewNullMask(length int) *NullMask {
	return &NullMask{
		Bits:   make([]uint64, (length+63)/64),
		Length: length,
	}
}

// NewAllNullMask creates a mask with every row null.
func NewAllNullMask(length int) *NullMask {
	mask := NewNullMask(length)
	for i := 0; i < length; i++ {
		mask.SetNull(i)
	}
	return mask
}

// SetNull marks row i as null.
func (m *NullMask) SetNull(i int) {
	word := i / 64
	bit := uint64(1) << uint(i%64)
	if m.Bits[word]&bit == 0 {
		m.Bits[word] |= bit
		m.NullCount++
	}
}

// IsNull reports whether row i is null. A nil mask has no nulls.
func (m *NullMask) IsNull(i int) bool {
	if m == nil {
		return false
	}
	return m.Bits[i/64]&(uint64(1)<<uint(i%64)) != 0
}

// HasNulls reports whether any row is null.
func (m *NullMask) HasNulls() bool {
	return m != nil && m.NullCount > 0
}

// Vector is one materialized column of a batch.
//
// For primitive columns Data holds the value slice typed by the element
// datatype. Large strings keep the raw value bytes in Data with Offsets
// delimiting rows. List columns hold their elements in the Values child
// vector; variable-size lists additionally carry Offsets, fixed-size
// lists slice Values by the type's width.
type Vector struct {
	Type schema.ColumnType

	// Data is the primitive value slice, or the raw bytes of a large
	// string column.
	Data interface{}

	// Values holds the flattened elements of a list column.
	Values *Vector

	// Offsets has Length+1 entries delimiting variable-size rows.
	Offsets []int64

	// Nulls is nil when the column has no null rows.
	Nulls *NullMask

	Length int
}

// ListBounds returns the element range [lo, hi) of list or string row i.
func (v *Vector) ListBounds(i int) (lo, hi int64) {
	if v.Type.Kind == schema.KindFixedList {
		w := int64(v.Type.Width)
		return int64(i) * w, int64(i+1) * w
	}
	return v.Offsets[i], v.Offsets[i+1]
}

// BytesAt returns the raw bytes of large string row i.
func (v *Vector) BytesAt(i int) []byte {
	lo, hi := v.Offsets[i], v.Offsets[i+1]
	size := int64(v.Type.Elem.ValueSize())
	return v.Data.([]byte)[lo*size : hi*size]
}

// Int64At returns primitive row i widened to int64.
func (v *Vector) Int64At(i int) int64 {
	switch data := v.Data.(type) {
	case []int8:
		return int64(data[i])
	case []int16:
		return int64(data[i])
	case []int32:
		return int64(data[i])
	case []int64:
		return data[i]
	default:
		panic(fmt.Sprintf("Int64At on %T vector", v.Data))
	}
}

// UInt64At returns primitive row i widened to uint64.
func (v *Vector) UInt64At(i int) uint64 {
	switch data := v.Data.(type) {
	case []byte:
		return uint64(data[i])
	case []uint16:
		return uint64(data[i])
	case []uint32:
		return uint64(data[i])
	case []uint64:
		return data[i]
	default:
		panic(fmt.Sprintf("UInt64At on %T vector", v.Data))
	}
}

// Float64At returns primitive row i widened to float64.
func (v *Vector) Float64At(i int) float64 {
	switch data := v.Data.(type) {
	case []float32:
		return float64(data[i])
	case []float64:
		return data[i]
	default:
		panic(fmt.Sprintf("Float64At on %T vector", v.Data))
	}
}

// BoolAt returns boolean primitive row i.
func (v *Vector) BoolAt(i int) bool {
	return v.Data.([]bool)[i]
}

// Batch is a set of equal-length column vectors forming one batch of rows.
type Batch struct {
	Fields   []schema.ColumnField
	Columns  []*Vector
	RowCount int

	columnIndex map[string]int
}

// NewBatch assembles columns into a batch. Every column must match the
// row count; a mismatch means buffer handover corruption and panics
// rather than producing silently misaligned results.
func NewBatch(fields []schema.ColumnField, columns []*Vector, rowCount int) *Batch {
	if len(fields) != len(columns) {
		panic(fmt.Sprintf("batch has %d fields but %d columns", len(fields), len(columns)))
	}
	index := make(map[string]int, len(fields))
	for i, col := range columns {
		if col.Length != rowCount {
			panic(fmt.Sprintf("column %q has %d rows, batch has %d", fields[i].Name, col.Length, rowCount))
		}
		index[fields[i].Name] = i
	}
	return &Batch{
		Fields:      fields,
		Columns:     columns,
		RowCount:    rowCount,
		columnIndex: index,
	}
}

// Column returns the vector for a field name, or nil if absent.
func (b *Batch) Column(name string) *Vector {
	i, ok := b.columnIndex[name]
	if !ok {
		return nil
	}
	return b.Columns[i]
}

func newPrimitiveData(dt datatype.Datatype, count int) interface{} {
	switch dt {
	case datatype.Int8:
		return make([]int8, count)
	case datatype.Int16:
		return make([]int16, count)
	case datatype.Int32:
		return make([]int32, count)
	case datatype.Int64:
		return make([]int64, count)
	case datatype.UInt16:
		return make([]uint16, count)
	case datatype.UInt32:
		return make([]uint32, count)
	case datatype.UInt64:
		return make([]uint64, count)
	case datatype.Float32:
		return make([]float32, count)
	case datatype.Float64:
		return make([]float64, count)
	case datatype.Bool:
		return make([]bool, count)
	default:
		// UInt8, Blob and the text types all store one byte per value.
		return make([]byte, count)
	}
}
