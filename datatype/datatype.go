// Package datatype defines the closed set of physical datatypes carried by
// tile buffers and condition payloads, plus the per-field cell arity.
package datatype

import (
	"encoding/binary"
	"fmt"
	"math"
)

// ByteOrder is the wire byte order for all raw tile and payload buffers.
var ByteOrder = binary.LittleEndian

// Datatype is the physical datatype tag of a field.
type Datatype uint8

const (
	Int8 Datatype = iota
	Int16
	Int32
	Int64
	UInt8
	UInt16
	UInt32
	UInt64
	Float32
	Float64
	Bool
	Blob
	Char
	StringASCII
	StringUTF8

	numDatatypes
)

// Valid reports whether dt is a member of the closed datatype set.
// Schema and AST structs carry typed tags, but discriminants arriving from
// collaborators may drift ahead of this package.
func (dt Datatype) Valid() bool {
	return dt < numDatatypes
}

// ValueSize returns the width in bytes of a single value of this datatype.
func (dt Datatype) ValueSize() int {
	switch dt {
	case Int8, UInt8, Bool, Blob, Char, StringASCII, StringUTF8:
		return 1
	case Int16, UInt16:
		return 2
	case Int32, UInt32, Float32:
		return 4
	case Int64, UInt64, Float64:
		return 8
	default:
		return 0
	}
}

// IsString reports whether the datatype holds text cells. Variable-length
// fields of these datatypes materialize as large-string columns rather than
// lists of single characters.
func (dt Datatype) IsString() bool {
	switch dt {
	case Char, StringASCII, StringUTF8:
		return true
	default:
		return false
	}
}

// IsSignedInt reports whether the datatype is a signed integer.
func (dt Datatype) IsSignedInt() bool {
	switch dt {
	case Int8, Int16, Int32, Int64:
		return true
	default:
		return false
	}
}

// IsUnsignedInt reports whether the datatype is an unsigned integer.
// Blob cells are opaque bytes and compare as unsigned values.
func (dt Datatype) IsUnsignedInt() bool {
	switch dt {
	case UInt8, UInt16, UInt32, UInt64, Blob:
		return true
	default:
		return false
	}
}

// IsFloat reports whether the datatype is a floating point type.
func (dt Datatype) IsFloat() bool {
	return dt == Float32 || dt == Float64
}

// String returns the string representation of the datatype
func (dt Datatype) String() string {
	switch dt {
	case Int8:
		return "INT8"
	case Int16:
		return "INT16"
	case Int32:
		return "INT32"
	case Int64:
		return "INT64"
	case UInt8:
		return "UINT8"
	case UInt16:
		return "UINT16"
	case UInt32:
		return "UINT32"
	case UInt64:
		return "UINT64"
	case Float32:
		return "FLOAT32"
	case Float64:
		return "FLOAT64"
	case Bool:
		return "BOOL"
	case Blob:
		return "BLOB"
	case Char:
		return "CHAR"
	case StringASCII:
		return "STRING_ASCII"
	case StringUTF8:
		return "STRING_UTF8"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint8(dt))
	}
}

// CellValNum is the number of raw values per cell of a field.
// The maximum value marks variable-length cells.
type CellValNum uint32

// CellValNumVar marks a field whose cells hold a variable number of values.
const CellValNumVar = CellValNum(math.MaxUint32)

// CellValNumSingle is the arity of single-value cells.
const CellValNumSingle = CellValNum(1)

// IsVar reports whether cells are variable-length.
func (c CellValNum) IsVar() bool {
	return c == CellValNumVar
}

// IsSingle reports whether cells hold exactly one value.
func (c CellValNum) IsSingle() bool {
	return c == CellValNumSingle
}

// Fixed returns the fixed per-cell value count. Only meaningful when the
// arity is neither single nor variable.
func (c CellValNum) Fixed() uint32 {
	return uint32(c)
}

// String returns the string representation of the cell arity
func (c CellValNum) String() string {
	if c.IsVar() {
		return "VAR"
	}
	return fmt.Sprintf("%d", uint32(c))
}
