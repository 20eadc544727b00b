package logical

import (
	"fmt"

	"tilequery/datatype"
)

// Scalar is a literal value carried by an expression tree. Primitive
// values are widened to the machine-wide type of their sign class: signed
// integers to int64, unsigned integers to uint64, floats to float64.
// Variable-length text holds a string; list literals hold the widened
// slice of their elements.
type Scalar struct {
	Type  datatype.Datatype
	Arity datatype.CellValNum

	// Value is nil for a NULL literal. Otherwise one of: bool, int64,
	// uint64, float64, string, []bool, []int64, []uint64, []float64, or
	// []byte for fixed-arity text.
	Value interface{}
}

// BoolScalar creates a single boolean literal.
func BoolScalar(v bool) Scalar {
	return Scalar{Type: datatype.Bool, Arity: datatype.CellValNumSingle, Value: v}
}

// SingleScalar creates a single-value literal of the given datatype.
func SingleScalar(dt datatype.Datatype, value interface{}) Scalar {
	return Scalar{Type: dt, Arity: datatype.CellValNumSingle, Value: value}
}

// FixedListScalar creates a fixed-size list literal of width len(values).
func FixedListScalar(dt datatype.Datatype, width uint32, values interface{}) Scalar {
	return Scalar{Type: dt, Arity: datatype.CellValNum(width), Value: values}
}

// VarListScalar creates a variable-length list literal.
func VarListScalar(dt datatype.Datatype, values interface{}) Scalar {
	return Scalar{Type: dt, Arity: datatype.CellValNumVar, Value: values}
}

// StringScalar creates a variable-length text literal.
func StringScalar(dt datatype.Datatype, value string) Scalar {
	return Scalar{Type: dt, Arity: datatype.CellValNumVar, Value: value}
}

// NullScalar creates a NULL literal of the given type.
func NullScalar(dt datatype.Datatype, arity datatype.CellValNum) Scalar {
	return Scalar{Type: dt, Arity: arity}
}

// IsNull reports whether the scalar is a NULL literal.
func (s Scalar) IsNull() bool {
	return s.Value == nil
}

// String renders the scalar for diagnostics.
func (s Scalar) String() string {
	if s.IsNull() {
		return "NULL"
	}
	switch v := s.Value.(type) {
	case string:
		return fmt.Sprintf("%q", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
