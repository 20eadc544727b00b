package condition

import (
	"math"

	"tilequery/datatype"
)

// decodeValues decodes a raw payload into the widened values of the given
// datatype. Returns one of []int64, []uint64, []float64, []bool or []byte
// (for text datatypes) plus the decoded value count.
func decodeValues(dt datatype.Datatype, data []byte) (interface{}, int, error) {
	valueSize := dt.ValueSize()
	if !dt.Valid() || valueSize == 0 {
		return nil, 0, internalError(&InvalidDatatypeError{Discriminant: uint64(dt)})
	}
	if len(data)%valueSize != 0 {
		return nil, 0, userError(&DatatypeMismatchError{Type: dt, Size: len(data)})
	}
	count := len(data) / valueSize

	switch {
	case dt.IsString():
		out := make([]byte, count)
		copy(out, data)
		return out, count, nil

	case dt == datatype.Bool:
		out := make([]bool, count)
		for i := 0; i < count; i++ {
			out[i] = data[i] != 0
		}
		return out, count, nil

	case dt.IsSignedInt():
		out := make([]int64, count)
		for i := 0; i < count; i++ {
			pos := i * valueSize
			switch dt {
			case datatype.Int8:
				out[i] = int64(int8(data[pos]))
			case datatype.Int16:
				out[i] = int64(int16(datatype.ByteOrder.Uint16(data[pos : pos+2])))
			case datatype.Int32:
				out[i] = int64(int32(datatype.ByteOrder.Uint32(data[pos : pos+4])))
			case datatype.Int64:
				out[i] = int64(datatype.ByteOrder.Uint64(data[pos : pos+8]))
			}
		}
		return out, count, nil

	case dt.IsUnsignedInt():
		out := make([]uint64, count)
		for i := 0; i < count; i++ {
			pos := i * valueSize
			switch dt {
			case datatype.UInt8, datatype.Blob:
				out[i] = uint64(data[pos])
			case datatype.UInt16:
				out[i] = uint64(datatype.ByteOrder.Uint16(data[pos : pos+2]))
			case datatype.UInt32:
				out[i] = uint64(datatype.ByteOrder.Uint32(data[pos : pos+4]))
			case datatype.UInt64:
				out[i] = datatype.ByteOrder.Uint64(data[pos : pos+8])
			}
		}
		return out, count, nil

	case dt.IsFloat():
		out := make([]float64, count)
		for i := 0; i < count; i++ {
			pos := i * valueSize
			if dt == datatype.Float32 {
				out[i] = float64(math.Float32frombits(datatype.ByteOrder.Uint32(data[pos : pos+4])))
			} else {
				out[i] = math.Float64frombits(datatype.ByteOrder.Uint64(data[pos : pos+8]))
			}
		}
		return out, count, nil

	default:
		return nil, 0, internalError(&InvalidDatatypeError{Discriminant: uint64(dt)})
	}
}

// sliceValues returns values[lo:hi] preserving the widened element type.
func sliceValues(values interface{}, lo, hi int64) interface{} {
	switch v := values.(type) {
	case []int64:
		return v[lo:hi]
	case []uint64:
		return v[lo:hi]
	case []float64:
		return v[lo:hi]
	case []bool:
		return v[lo:hi]
	case []byte:
		return v[lo:hi]
	default:
		return nil
	}
}

// valueAt returns the single widened value at index i.
func valueAt(values interface{}, i int) interface{} {
	switch v := values.(type) {
	case []int64:
		return v[i]
	case []uint64:
		return v[i]
	case []float64:
		return v[i]
	case []bool:
		return v[i]
	case []byte:
		// Single text values compare as their byte value.
		return uint64(v[i])
	default:
		return nil
	}
}
