package condition

import (
	"testing"

	"tilequery/datatype"
	"tilequery/logical"
	"tilequery/schema"
)

func sqlSchema() *schema.Schema {
	return schema.NewSchema(
		&schema.Field{Name: "id", Type: datatype.Int64, CellValNum: datatype.CellValNumSingle},
		&schema.Field{Name: "score", Type: datatype.Float64, CellValNum: datatype.CellValNumSingle},
		&schema.Field{Name: "name", Type: datatype.StringUTF8, CellValNum: datatype.CellValNumVar, Nullable: true},
		&schema.Field{Name: "active", Type: datatype.Bool, CellValNum: datatype.CellValNumSingle},
	)
}

func TestParseWhereComparison(t *testing.T) {
	s := sqlSchema()
	node, err := ParseWhere(s, "id < 100")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if node.IsExpr() || node.Op != OpLT || node.FieldName != "id" {
		t.Fatalf("expected a less-than leaf on id, got op %s on %q", node.Op, node.FieldName)
	}

	expr, err := Translate(s, node)
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if expr.String() != "(id < 100)" {
		t.Errorf("unexpected expression: %s", expr)
	}
}

func TestParseWhereConjunction(t *testing.T) {
	s := sqlSchema()
	node, err := ParseWhere(s, "id >= 4 AND id <= 8")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !node.IsExpr() || node.CombinationOp != CombinationAnd || len(node.Children) != 2 {
		t.Fatalf("expected a two-child conjunction, got %+v", node)
	}

	expr, err := Translate(s, node)
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if expr.String() != "((id >= 4) AND (id <= 8))" {
		t.Errorf("unexpected expression: %s", expr)
	}
}

func TestParseWhereStringEquality(t *testing.T) {
	s := sqlSchema()
	node, err := ParseWhere(s, "name = 'alice'")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(node.Data) != "alice" {
		t.Errorf("expected the raw payload alice, got %q", node.Data)
	}

	expr, err := Translate(s, node)
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if expr.Right.Value.Value != "alice" {
		t.Errorf("expected the string literal alice, got %v", expr.Right.Value.Value)
	}
}

func TestParseWhereFloatAndBool(t *testing.T) {
	s := sqlSchema()

	node, err := ParseWhere(s, "score > 9.5")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expr, err := Translate(s, node)
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if expr.Right.Value.Value != float64(9.5) {
		t.Errorf("expected 9.5, got %v", expr.Right.Value.Value)
	}

	node, err = ParseWhere(s, "active = true")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expr, err = Translate(s, node)
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if expr.Right.Value.Value != true {
		t.Errorf("expected true, got %v", expr.Right.Value.Value)
	}
}

func TestParseWhereNullTest(t *testing.T) {
	s := sqlSchema()

	node, err := ParseWhere(s, "name IS NULL")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if node.Op != OpEQ || len(node.Data) != 0 {
		t.Errorf("IS NULL must encode as an empty-payload EQ, got %s with %d bytes", node.Op, len(node.Data))
	}

	node, err = ParseWhere(s, "name IS NOT NULL")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if node.Op != OpNE {
		t.Errorf("IS NOT NULL must encode as an empty-payload NE, got %s", node.Op)
	}
}

func TestParseWhereInList(t *testing.T) {
	s := sqlSchema()
	node, err := ParseWhere(s, "name IN ('red', 'green', 'blue')")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if node.Op != OpIn {
		t.Fatalf("expected a set-membership leaf, got %s", node.Op)
	}
	if string(node.Data) != "redgreenblue" {
		t.Errorf("expected the concatenated payload, got %q", node.Data)
	}
	if len(node.Offsets) != 3*8 {
		t.Errorf("expected one 8-byte offset per member, got %d bytes", len(node.Offsets))
	}

	expr, err := Translate(s, node)
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if expr.Type != logical.ExprInList || len(expr.List) != 3 {
		t.Fatalf("expected a 3-member set, got %s", expr)
	}
	if expr.List[1].Value != "green" {
		t.Errorf("expected member green, got %v", expr.List[1].Value)
	}
}

func TestParseWhereNotAndOr(t *testing.T) {
	s := sqlSchema()
	node, err := ParseWhere(s, "NOT (id = 1 OR id = 2)")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !node.IsExpr() || node.CombinationOp != CombinationNot || len(node.Children) != 1 {
		t.Fatalf("expected a single-child negation, got %+v", node)
	}
	inner := node.Children[0]
	if inner.CombinationOp != CombinationOr || len(inner.Children) != 2 {
		t.Fatalf("expected a two-child disjunction inside, got %+v", inner)
	}
}

func TestParseWhereErrors(t *testing.T) {
	s := sqlSchema()

	if _, err := ParseWhere(s, "ghost = 1"); !IsUserError(err) {
		t.Errorf("expected a user error for an unknown column, got %v", err)
	}
	if _, err := ParseWhere(s, "id === 1"); !IsUserError(err) {
		t.Errorf("expected a user error for an unsupported operator, got %v", err)
	}
	if _, err := ParseWhere(s, "id = score"); !IsUserError(err) {
		t.Errorf("expected a user error for a non-constant right side, got %v", err)
	}
}
