package condition

import (
	"fmt"
	"math"
	"strconv"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"tilequery/common"
	"tilequery/datatype"
	"tilequery/schema"
)

// ParseWhere builds a condition tree from a SQL WHERE clause. Literal
// values are encoded into raw payload bytes per the referenced field's
// datatype, producing the same tree shape the storage engine's condition
// API would.
func ParseWhere(s *schema.Schema, where string) (*ASTNode, error) {
	result, err := pg_query.Parse("SELECT * FROM t WHERE " + where)
	if err != nil {
		return nil, userError(fmt.Errorf("failed to parse WHERE clause: %w", err))
	}
	if len(result.Stmts) == 0 {
		return nil, userError(fmt.Errorf("empty WHERE clause"))
	}
	selectStmt := result.Stmts[0].Stmt.GetSelectStmt()
	if selectStmt == nil || selectStmt.WhereClause == nil {
		return nil, userError(fmt.Errorf("empty WHERE clause"))
	}

	node, err := convertSQLNode(s, selectStmt.WhereClause)
	if err != nil {
		return nil, err
	}

	common.GetTracer().Debug(common.TraceComponentCondition, "Parsed WHERE clause", common.TraceContext(
		"where", where,
	))
	return node, nil
}

func convertSQLNode(s *schema.Schema, node *pg_query.Node) (*ASTNode, error) {
	if boolExpr := node.GetBoolExpr(); boolExpr != nil {
		return convertBoolExpr(s, boolExpr)
	}
	if nullTest := node.GetNullTest(); nullTest != nil {
		return convertNullTest(s, nullTest)
	}
	if aExpr := node.GetAExpr(); aExpr != nil {
		return convertAExpr(s, aExpr)
	}
	return nil, userError(fmt.Errorf("unsupported WHERE clause construct"))
}

func convertBoolExpr(s *schema.Schema, boolExpr *pg_query.BoolExpr) (*ASTNode, error) {
	var op CombinationOp
	switch boolExpr.Boolop {
	case pg_query.BoolExprType_AND_EXPR:
		op = CombinationAnd
	case pg_query.BoolExprType_OR_EXPR:
		op = CombinationOr
	case pg_query.BoolExprType_NOT_EXPR:
		op = CombinationNot
	default:
		return nil, userError(fmt.Errorf("unsupported boolean operator: %v", boolExpr.Boolop))
	}

	children := make([]*ASTNode, 0, len(boolExpr.Args))
	for _, arg := range boolExpr.Args {
		child, err := convertSQLNode(s, arg)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	return NewCombination(op, children...), nil
}

func convertNullTest(s *schema.Schema, nullTest *pg_query.NullTest) (*ASTNode, error) {
	name, err := columnName(nullTest.Arg)
	if err != nil {
		return nil, err
	}
	if s.Field(name) == nil {
		return nil, userError(&UnknownFieldError{Field: name})
	}
	if nullTest.Nulltesttype == pg_query.NullTestType_IS_NOT_NULL {
		return NewLeaf(name, OpNE, nil, nil), nil
	}
	return NewLeaf(name, OpEQ, nil, nil), nil
}

func convertAExpr(s *schema.Schema, aExpr *pg_query.A_Expr) (*ASTNode, error) {
	opName := ""
	if len(aExpr.Name) > 0 {
		if str := aExpr.Name[0].GetString_(); str != nil {
			opName = str.Sval
		}
	}

	name, err := columnName(aExpr.Lexpr)
	if err != nil {
		return nil, err
	}
	field := s.Field(name)
	if field == nil {
		return nil, userError(&UnknownFieldError{Field: name})
	}

	if aExpr.Kind == pg_query.A_Expr_Kind_AEXPR_IN {
		op := OpIn
		if opName == "<>" || opName == "!=" {
			op = OpNotIn
		}
		return convertInList(field, op, aExpr.Rexpr)
	}

	if aExpr.Kind != pg_query.A_Expr_Kind_AEXPR_OP {
		return nil, userError(fmt.Errorf("unsupported WHERE operator kind: %v", aExpr.Kind))
	}

	var op Op
	switch opName {
	case "<":
		op = OpLT
	case "<=":
		op = OpLE
	case ">":
		op = OpGT
	case ">=":
		op = OpGE
	case "=":
		op = OpEQ
	case "<>", "!=":
		op = OpNE
	default:
		return nil, userError(fmt.Errorf("unsupported comparison operator: %q", opName))
	}

	aConst := aExpr.Rexpr.GetAConst()
	if aConst == nil {
		return nil, userError(fmt.Errorf("right side of %q must be a constant", opName))
	}
	data, err := encodeConstant(field, aConst)
	if err != nil {
		return nil, err
	}
	return NewLeaf(name, op, data, nil), nil
}

func convertInList(field *schema.Field, op Op, rexpr *pg_query.Node) (*ASTNode, error) {
	aList := rexpr.GetList()
	if aList == nil {
		return nil, userError(fmt.Errorf("IN requires a literal value list"))
	}

	var data []byte
	var offsets []byte
	for _, item := range aList.Items {
		aConst := item.GetAConst()
		if aConst == nil {
			return nil, userError(fmt.Errorf("IN list members must be constants"))
		}
		member, err := encodeConstant(field, aConst)
		if err != nil {
			return nil, err
		}
		if field.CellValNum.IsVar() {
			// Storage-format byte offsets, one per member.
			pos := make([]byte, 8)
			datatype.ByteOrder.PutUint64(pos, uint64(len(data)))
			offsets = append(offsets, pos...)
		}
		data = append(data, member...)
	}
	return NewLeaf(field.Name, op, data, offsets), nil
}

// encodeConstant encodes a SQL literal into raw payload bytes of the
// field's datatype.
func encodeConstant(field *schema.Field, aConst *pg_query.A_Const) ([]byte, error) {
	if aConst.Isnull {
		return nil, nil
	}

	dt := field.Type
	if dt.IsString() {
		sval := aConst.GetSval()
		if sval == nil {
			return nil, userError(fmt.Errorf("field %q requires a string literal", field.Name))
		}
		return []byte(sval.Sval), nil
	}

	switch {
	case dt == datatype.Bool:
		bval := aConst.GetBoolval()
		if bval == nil {
			return nil, userError(fmt.Errorf("field %q requires a boolean literal", field.Name))
		}
		if bval.Boolval {
			return []byte{1}, nil
		}
		return []byte{0}, nil

	case dt.IsFloat():
		value, err := constantFloat(aConst)
		if err != nil {
			return nil, userError(fmt.Errorf("field %q: %w", field.Name, err))
		}
		return encodeFloat(dt, value), nil

	default:
		value, err := constantInt(aConst)
		if err != nil {
			return nil, userError(fmt.Errorf("field %q: %w", field.Name, err))
		}
		return encodeInt(dt, value), nil
	}
}

func constantInt(aConst *pg_query.A_Const) (int64, error) {
	if ival := aConst.GetIval(); ival != nil {
		return int64(ival.Ival), nil
	}
	if fval := aConst.GetFval(); fval != nil {
		return strconv.ParseInt(fval.Fval, 10, 64)
	}
	return 0, fmt.Errorf("requires an integer literal")
}

func constantFloat(aConst *pg_query.A_Const) (float64, error) {
	if fval := aConst.GetFval(); fval != nil {
		return strconv.ParseFloat(fval.Fval, 64)
	}
	if ival := aConst.GetIval(); ival != nil {
		return float64(ival.Ival), nil
	}
	return 0, fmt.Errorf("requires a numeric literal")
}

func encodeInt(dt datatype.Datatype, value int64) []byte {
	switch dt.ValueSize() {
	case 1:
		return []byte{byte(value)}
	case 2:
		buf := make([]byte, 2)
		datatype.ByteOrder.PutUint16(buf, uint16(value))
		return buf
	case 4:
		buf := make([]byte, 4)
		datatype.ByteOrder.PutUint32(buf, uint32(value))
		return buf
	default:
		buf := make([]byte, 8)
		datatype.ByteOrder.PutUint64(buf, uint64(value))
		return buf
	}
}

func encodeFloat(dt datatype.Datatype, value float64) []byte {
	if dt == datatype.Float32 {
		buf := make([]byte, 4)
		datatype.ByteOrder.PutUint32(buf, math.Float32bits(float32(value)))
		return buf
	}
	buf := make([]byte, 8)
	datatype.ByteOrder.PutUint64(buf, math.Float64bits(value))
	return buf
}

func columnName(node *pg_query.Node) (string, error) {
	if node == nil {
		return "", userError(fmt.Errorf("expected a column reference"))
	}
	columnRef := node.GetColumnRef()
	if columnRef == nil || len(columnRef.Fields) == 0 {
		return "", userError(fmt.Errorf("expected a column reference"))
	}
	// Use the last path element so qualified names like t.a resolve to a.
	if str := columnRef.Fields[len(columnRef.Fields)-1].GetString_(); str != nil {
		return str.Sval, nil
	}
	return "", userError(fmt.Errorf("expected a column reference"))
}
