package logical

import (
	"testing"

	"tilequery/datatype"
)

func TestHasAggregateFunctions(t *testing.T) {
	plain := NewBinary(And,
		NewBinary(Lt, NewColumn("a"), NewLiteral(SingleScalar(datatype.Int64, int64(5)))),
		NewIsNotNull(NewColumn("b")),
	)
	if HasAggregateFunctions(plain) {
		t.Error("a row-wise predicate has no aggregates")
	}

	nested := NewNot(NewBinary(Or,
		NewColumn("flag"),
		NewBinary(Gt, NewFunction("count"), NewLiteral(SingleScalar(datatype.Int64, int64(0)))),
	))
	if !HasAggregateFunctions(nested) {
		t.Error("expected the nested COUNT to be found")
	}

	scalarFn := NewFunction("LOWER", NewColumn("name"))
	if HasAggregateFunctions(scalarFn) {
		t.Error("LOWER is not an aggregate")
	}
}

func TestExprString(t *testing.T) {
	expr := NewBinary(And,
		NewBinary(GtEq, NewColumn("d"), NewLiteral(SingleScalar(datatype.Int64, int64(4)))),
		NewInList(NewColumn("name"), []Scalar{
			StringScalar(datatype.StringUTF8, "red"),
			StringScalar(datatype.StringUTF8, "blue"),
		}, true),
	)
	want := `((d >= 4) AND (name NOT IN ("red", "blue")))`
	if got := expr.String(); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestNullScalar(t *testing.T) {
	s := NullScalar(datatype.Float64, datatype.CellValNumSingle)
	if !s.IsNull() {
		t.Error("expected a null literal")
	}
	if s.String() != "NULL" {
		t.Errorf("expected NULL, got %s", s.String())
	}
}
