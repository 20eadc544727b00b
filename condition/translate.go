package condition

import (
	"errors"
	"math"
	"unicode/utf8"

	"tilequery/common"
	"tilequery/logical"
	"tilequery/schema"
	"tilequery/tile"
)

// Translate converts a query condition tree into an owned logical
// expression against the schema. Translation is pure bottom-up recursion;
// a failed translation produces no partial expression.
//
// Children of an AND/OR combination fold pairwise left-to-right in their
// original order: [c0, c1, c2] becomes ((c0 AND c1) AND c2).
func Translate(s *schema.Schema, node *ASTNode) (*logical.Expr, error) {
	expr, err := translateNode(s, node)
	if err != nil {
		return nil, err
	}

	common.GetTracer().Debug(common.TraceComponentCondition, "Translated query condition", common.TraceContext(
		"expr", expr.String(),
	))
	return expr, nil
}

func translateNode(s *schema.Schema, node *ASTNode) (*logical.Expr, error) {
	if node.IsExpr() {
		return translateCombination(s, node)
	}
	if node.IsNullTest() {
		field, err := lookupField(s, node.FieldName)
		if err != nil {
			return nil, err
		}
		return translateNullTest(field, node)
	}

	switch node.Op {
	case OpLT:
		return translateBinaryLeaf(s, node, logical.Lt)
	case OpLE:
		return translateBinaryLeaf(s, node, logical.LtEq)
	case OpGT:
		return translateBinaryLeaf(s, node, logical.Gt)
	case OpGE:
		return translateBinaryLeaf(s, node, logical.GtEq)
	case OpEQ:
		return translateBinaryLeaf(s, node, logical.Eq)
	case OpNE:
		return translateBinaryLeaf(s, node, logical.NotEq)
	case OpIn:
		return translateInListLeaf(s, node, false)
	case OpNotIn:
		return translateInListLeaf(s, node, true)
	case OpAlwaysTrue:
		field, err := lookupField(s, node.FieldName)
		if err != nil {
			return nil, err
		}
		return alwaysTrueExpr(field), nil
	case OpAlwaysFalse:
		return logical.NewLiteral(logical.BoolScalar(false)), nil
	default:
		return nil, internalError(&InvalidOpError{Discriminant: uint64(node.Op)})
	}
}

func translateCombination(s *schema.Schema, node *ASTNode) (*logical.Expr, error) {
	switch node.CombinationOp {
	case CombinationAnd, CombinationOr:
		if len(node.Children) == 0 {
			return nil, internalError(errNoChildren)
		}
		op := logical.And
		if node.CombinationOp == CombinationOr {
			op = logical.Or
		}

		result, err := translateNode(s, node.Children[0])
		if err != nil {
			return nil, err
		}
		for _, child := range node.Children[1:] {
			next, err := translateNode(s, child)
			if err != nil {
				return nil, err
			}
			result = logical.NewBinary(op, result, next)
		}
		return result, nil

	case CombinationNot:
		if len(node.Children) != 1 {
			return nil, internalError(&NotTreeError{Children: len(node.Children)})
		}
		negated, err := translateNode(s, node.Children[0])
		if err != nil {
			return nil, err
		}
		return logical.NewNot(negated), nil

	default:
		return nil, internalError(&InvalidCombinationOpError{Discriminant: uint64(node.CombinationOp)})
	}
}

// translateNullTest translates a leaf with an empty payload. The upstream
// convention is that ALWAYS_TRUE on a nullable field still carries a
// validity check, so it translates to IS NOT NULL rather than TRUE.
func translateNullTest(field *schema.Field, node *ASTNode) (*logical.Expr, error) {
	column := logical.NewColumn(field.Name)
	switch node.Op {
	case OpEQ:
		return logical.NewIsNull(column), nil
	case OpNE:
		return logical.NewIsNotNull(column), nil
	case OpAlwaysTrue:
		return alwaysTrueExpr(field), nil
	case OpAlwaysFalse:
		return logical.NewLiteral(logical.BoolScalar(false)), nil
	case OpLT, OpLE, OpGT, OpGE:
		// An ordering comparison against an empty payload never matches.
		return logical.NewLiteral(logical.BoolScalar(false)), nil
	default:
		return nil, internalError(&InvalidOpError{Discriminant: uint64(node.Op)})
	}
}

func alwaysTrueExpr(field *schema.Field) *logical.Expr {
	if field.Nullable {
		return logical.NewIsNotNull(logical.NewColumn(field.Name))
	}
	return logical.NewLiteral(logical.BoolScalar(true))
}

func translateBinaryLeaf(s *schema.Schema, node *ASTNode, op logical.Operator) (*logical.Expr, error) {
	field, err := lookupField(s, node.FieldName)
	if err != nil {
		return nil, err
	}

	values, count, err := decodeValues(field.Type, node.Data)
	if err != nil {
		return nil, &FieldError{Field: field.Name, Err: err}
	}

	var literal logical.Scalar
	switch {
	case field.CellValNum.IsSingle():
		if count != 1 {
			return nil, &FieldError{Field: field.Name, Err: userError(
				&CellValNumMismatchError{Expected: field.CellValNum, Found: count})}
		}
		literal = logical.SingleScalar(field.Type, valueAt(values, 0))

	case field.CellValNum.IsVar():
		if field.Type.IsString() {
			literal = logical.StringScalar(field.Type, string(node.Data))
		} else {
			literal = logical.VarListScalar(field.Type, values)
		}

	default:
		width := field.CellValNum.Fixed()
		if width > math.MaxInt32 {
			return nil, &FieldError{Field: field.Name, Err: userError(
				&schema.InvalidCellValNumError{Field: field.Name, CellValNum: field.CellValNum})}
		}
		if count != int(width) {
			return nil, &FieldError{Field: field.Name, Err: userError(
				&CellValNumMismatchError{Expected: field.CellValNum, Found: count})}
		}
		literal = logical.FixedListScalar(field.Type, width, values)
	}

	return logical.NewBinary(op, logical.NewColumn(field.Name), logical.NewLiteral(literal)), nil
}

func translateInListLeaf(s *schema.Schema, node *ASTNode, negated bool) (*logical.Expr, error) {
	field, err := lookupField(s, node.FieldName)
	if err != nil {
		return nil, err
	}

	values, count, err := decodeValues(field.Type, node.Data)
	if err != nil {
		return nil, &FieldError{Field: field.Name, Err: err}
	}

	column := logical.NewColumn(field.Name)
	var list []logical.Scalar

	switch {
	case field.CellValNum.IsSingle():
		list = make([]logical.Scalar, 0, count)
		for i := 0; i < count; i++ {
			list = append(list, logical.SingleScalar(field.Type, valueAt(values, i)))
		}

	case field.CellValNum.IsVar():
		// The companion offsets buffer delimits the payload into one list
		// element per set member.
		valueSize := field.Type.ValueSize()
		offsets, err := tile.OffsetsFromBytesAndNumValues(valueSize, node.Offsets, count)
		if err != nil {
			return nil, &FieldError{Field: field.Name, Err: userError(err)}
		}
		list = make([]logical.Scalar, 0, len(offsets)-1)
		for i := 0; i+1 < len(offsets); i++ {
			lo, hi := offsets[i], offsets[i+1]
			if hi > int64(count) {
				return nil, &FieldError{Field: field.Name, Err: userError(
					&InListCellValNumMismatchError{Expected: field.CellValNum, Found: count})}
			}
			if field.Type.IsString() {
				member := string(node.Data[lo*int64(valueSize) : hi*int64(valueSize)])
				list = append(list, logical.StringScalar(field.Type, member))
			} else {
				list = append(list, logical.VarListScalar(field.Type, sliceValues(values, lo, hi)))
			}
		}

	default:
		// Fixed-arity set membership is unsupported pending explicit
		// requirements upstream.
		return nil, &FieldError{Field: field.Name, Err: userError(
			&FixedInListUnsupportedError{CellValNum: field.CellValNum})}
	}

	return logical.NewInList(column, list, negated), nil
}

func lookupField(s *schema.Schema, name string) (*schema.Field, error) {
	if !utf8.ValidString(name) {
		return nil, userError(&FieldNameNotUTF8Error{Field: name})
	}
	field := s.Field(name)
	if field == nil {
		return nil, userError(&UnknownFieldError{Field: name})
	}
	if !field.Type.Valid() {
		return nil, internalError(&InvalidDatatypeError{Discriminant: uint64(field.Type)})
	}
	return field, nil
}

var errNoChildren = errors.New("combination node has no children")
