package vectorized

import (
	"fmt"
	"math"

	"tilequery/common"
	"tilequery/datatype"
	"tilequery/schema"
	"tilequery/tile"
)

// UnalignedValuesError reports a value buffer whose size is not a whole
// number of values of the column's element datatype.
type UnalignedValuesError struct {
	Field string
	Type  datatype.Datatype
	Size  int
}

func (e *UnalignedValuesError) Error() string {
	return fmt.Sprintf("field %q: buffer of %d bytes is not a whole number of %s values", e.Field, e.Size, e.Type)
}

// ExpectedVarTileError reports a variable-length column whose tile carries
// no var buffer.
type ExpectedVarTileError struct {
	Field string
}

func (e *ExpectedVarTileError) Error() string {
	return fmt.Sprintf("field %q: expected a var buffer for a variable-length column", e.Field)
}

// MaterializeTiles decodes a tile set into a columnar batch shaped by the
// projection. Fields without a tile predate the tile set and materialize
// as all-null columns. The batch borrows nothing from the tiles except
// large string bytes; those stay alive through the tile set's buffers.
func MaterializeTiles(proj *schema.Projection, tiles *tile.Set) (*Batch, error) {
	rows := tiles.CellCount()
	columns := make([]*Vector, 0, len(proj.Fields))

	for i := range proj.Fields {
		field := &proj.Fields[i]
		t := tiles.Get(field.Name)
		if t == nil {
			columns = append(columns, allNullVector(field.Type, rows))
			continue
		}
		col, err := materializeColumn(field, t, rows)
		if err != nil {
			return nil, err
		}
		columns = append(columns, col)
	}

	common.GetTracer().Debug(common.TraceComponentMaterialize, "Materialized batch", common.TraceContext(
		"rows", rows,
		"columns", len(columns),
	))
	return NewBatch(proj.Fields, columns, rows), nil
}

func materializeColumn(field *schema.ColumnField, t *tile.Tile, rows int) (*Vector, error) {
	fixed, varData, validity, err := t.Buffers()
	if err != nil {
		return nil, fmt.Errorf("field %q: %w", field.Name, err)
	}

	// The validity buffer is authoritative when present. A non-nullable
	// descriptor with a validity buffer still yields nulls; the storage
	// engine owns validity, the descriptor only predicts it.
	nulls := nullsFromValidity(validity, rows)

	switch field.Type.Kind {
	case schema.KindPrimitive:
		data, count, err := decodeFixedBuffer(field.Name, field.Type.Elem, fixed)
		if err != nil {
			return nil, err
		}
		return &Vector{Type: field.Type, Data: data, Nulls: nulls, Length: count}, nil

	case schema.KindFixedList:
		data, count, err := decodeFixedBuffer(field.Name, field.Type.Elem, fixed)
		if err != nil {
			return nil, err
		}
		width := int(field.Type.Width)
		if width == 0 || count%width != 0 {
			return nil, &UnalignedValuesError{Field: field.Name, Type: field.Type.Elem, Size: len(fixed)}
		}
		elems := &Vector{
			Type:   schema.ColumnType{Kind: schema.KindPrimitive, Elem: field.Type.Elem},
			Data:   data,
			Length: count,
		}
		return &Vector{Type: field.Type, Values: elems, Nulls: nulls, Length: count / width}, nil

	case schema.KindVarList, schema.KindLargeString:
		if t.Var == nil {
			return nil, &ExpectedVarTileError{Field: field.Name}
		}
		valueSize := field.Type.Elem.ValueSize()
		if len(varData)%valueSize != 0 {
			return nil, &UnalignedValuesError{Field: field.Name, Type: field.Type.Elem, Size: len(varData)}
		}
		elemCount := len(varData) / valueSize
		offsets, err := tile.OffsetsFromBytesAndNumValues(valueSize, fixed, elemCount)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", field.Name, err)
		}
		length := len(offsets) - 1

		if field.Type.Kind == schema.KindLargeString {
			return &Vector{
				Type:    field.Type,
				Data:    varData,
				Offsets: offsets,
				Nulls:   nulls,
				Length:  length,
			}, nil
		}
		data, count, err := decodeFixedBuffer(field.Name, field.Type.Elem, varData)
		if err != nil {
			return nil, err
		}
		elems := &Vector{
			Type:   schema.ColumnType{Kind: schema.KindPrimitive, Elem: field.Type.Elem},
			Data:   data,
			Length: count,
		}
		return &Vector{
			Type:    field.Type,
			Values:  elems,
			Offsets: offsets,
			Nulls:   nulls,
			Length:  length,
		}, nil

	default:
		return nil, fmt.Errorf("field %q: cannot materialize %s column", field.Name, field.Type.Kind)
	}
}

// decodeFixedBuffer decodes a raw value buffer into the typed slice of
// the element datatype.
func decodeFixedBuffer(field string, dt datatype.Datatype, buf []byte) (interface{}, int, error) {
	valueSize := dt.ValueSize()
	if valueSize == 0 {
		return nil, 0, fmt.Errorf("field %q: invalid datatype %d", field, int(dt))
	}
	if len(buf)%valueSize != 0 {
		return nil, 0, &UnalignedValuesError{Field: field, Type: dt, Size: len(buf)}
	}
	count := len(buf) / valueSize
	data := newPrimitiveData(dt, count)

	switch out := data.(type) {
	case []int8:
		for i := 0; i < count; i++ {
			out[i] = int8(buf[i])
		}
	case []int16:
		for i := 0; i < count; i++ {
			out[i] = int16(datatype.ByteOrder.Uint16(buf[i*2:]))
		}
	case []int32:
		for i := 0; i < count; i++ {
			out[i] = int32(datatype.ByteOrder.Uint32(buf[i*4:]))
		}
	case []int64:
		for i := 0; i < count; i++ {
			out[i] = int64(datatype.ByteOrder.Uint64(buf[i*8:]))
		}
	case []uint16:
		for i := 0; i < count; i++ {
			out[i] = datatype.ByteOrder.Uint16(buf[i*2:])
		}
	case []uint32:
		for i := 0; i < count; i++ {
			out[i] = datatype.ByteOrder.Uint32(buf[i*4:])
		}
	case []uint64:
		for i := 0; i < count; i++ {
			out[i] = datatype.ByteOrder.Uint64(buf[i*8:])
		}
	case []float32:
		for i := 0; i < count; i++ {
			out[i] = float32frombytes(buf[i*4:])
		}
	case []float64:
		for i := 0; i < count; i++ {
			out[i] = float64frombytes(buf[i*8:])
		}
	case []bool:
		for i := 0; i < count; i++ {
			out[i] = buf[i] != 0
		}
	case []byte:
		copy(out, buf)
	}
	return data, count, nil
}

func float32frombytes(b []byte) float32 {
	return math.Float32frombits(datatype.ByteOrder.Uint32(b))
}

func float64frombytes(b []byte) float64 {
	return math.Float64frombits(datatype.ByteOrder.Uint64(b))
}

func nullsFromValidity(validity []byte, rows int) *NullMask {
	if validity == nil {
		return nil
	}
	mask := NewNullMask(rows)
	for i := 0; i < rows && i < len(validity); i++ {
		if validity[i] == 0 {
			mask.SetNull(i)
		}
	}
	if mask.NullCount == 0 {
		return nil
	}
	return mask
}

func allNullVector(ct schema.ColumnType, rows int) *Vector {
	nulls := NewAllNullMask(rows)
	switch ct.Kind {
	case schema.KindFixedList:
		elems := &Vector{
			Type:   schema.ColumnType{Kind: schema.KindPrimitive, Elem: ct.Elem},
			Data:   newPrimitiveData(ct.Elem, rows*int(ct.Width)),
			Length: rows * int(ct.Width),
		}
		return &Vector{Type: ct, Values: elems, Nulls: nulls, Length: rows}
	case schema.KindVarList:
		elems := &Vector{
			Type: schema.ColumnType{Kind: schema.KindPrimitive, Elem: ct.Elem},
			Data: newPrimitiveData(ct.Elem, 0),
		}
		return &Vector{Type: ct, Values: elems, Offsets: make([]int64, rows+1), Nulls: nulls, Length: rows}
	case schema.KindLargeString:
		return &Vector{Type: ct, Data: []byte{}, Offsets: make([]int64, rows+1), Nulls: nulls, Length: rows}
	default:
		return &Vector{Type: ct, Data: newPrimitiveData(ct.Elem, rows), Nulls: nulls, Length: rows}
	}
}
