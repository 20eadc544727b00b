package vectorized

import (
	"bytes"
	"fmt"

	"tilequery/common"
	"tilequery/datatype"
	"tilequery/logical"
	"tilequery/schema"
)

// TriBool is a three-valued truth value. Comparisons involving null rows
// or null literals produce TriNull, which combines under SQL semantics:
// null AND false is false, null OR true is true, everything else
// involving null stays null.
type TriBool uint8

const (
	TriFalse TriBool = iota
	TriTrue
	TriNull
)

// String returns the string representation of the truth value
func (t TriBool) String() string {
	switch t {
	case TriFalse:
		return "FALSE"
	case TriTrue:
		return "TRUE"
	case TriNull:
		return "NULL"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int(t))
	}
}

// EvaluateError wraps a failure during predicate evaluation.
type EvaluateError struct {
	Err error
}

func (e *EvaluateError) Error() string {
	return fmt.Sprintf("failed to evaluate predicate: %v", e.Err)
}

func (e *EvaluateError) Unwrap() error {
	return e.Err
}

// EvalResult is the truth value of a predicate over one batch: either one
// uniform value shared by every row, or a per-row array with a null mask.
type EvalResult struct {
	Uniform bool
	Scalar  TriBool

	Values  []bool
	Nulls   *NullMask
	NumRows int
}

// At returns the truth value of row i.
func (r *EvalResult) At(i int) TriBool {
	if r.Uniform {
		return r.Scalar
	}
	if r.Nulls.IsNull(i) {
		return TriNull
	}
	if r.Values[i] {
		return TriTrue
	}
	return TriFalse
}

func uniformResult(t TriBool, rows int) *EvalResult {
	return &EvalResult{Uniform: true, Scalar: t, NumRows: rows}
}

func arrayResult(rows int) *EvalResult {
	return &EvalResult{Values: make([]bool, rows), NumRows: rows}
}

func (r *EvalResult) setNull(i int) {
	if r.Nulls == nil {
		r.Nulls = NewNullMask(r.NumRows)
	}
	r.Nulls.SetNull(i)
}

// Evaluate computes the predicate's truth value for every row of the
// batch. The batch must carry every column the predicate references;
// evaluation mutates nothing and may run concurrently over different
// batches.
func (p *CompiledPredicate) Evaluate(batch *Batch) (*EvalResult, error) {
	result, err := evalExpr(p.expr, batch)
	if err != nil {
		return nil, err
	}

	common.GetTracer().Debug(common.TraceComponentFilter, "Evaluated predicate", common.TraceContext(
		"rows", batch.RowCount,
		"uniform", result.Uniform,
	))
	return result, nil
}

func evalExpr(expr *logical.Expr, batch *Batch) (*EvalResult, error) {
	switch expr.Type {
	case logical.ExprLiteral:
		return evalLiteral(expr.Value, batch.RowCount)

	case logical.ExprColumn:
		return evalBoolColumn(expr.Name, batch)

	case logical.ExprBinary:
		if expr.Op.IsComparison() {
			return evalComparison(expr, batch)
		}
		left, err := evalExpr(expr.Left, batch)
		if err != nil {
			return nil, err
		}
		right, err := evalExpr(expr.Right, batch)
		if err != nil {
			return nil, err
		}
		return combineKleene(expr.Op, left, right, batch.RowCount), nil

	case logical.ExprNot:
		inner, err := evalExpr(expr.Input, batch)
		if err != nil {
			return nil, err
		}
		return negate(inner), nil

	case logical.ExprNullTest:
		return evalNullTest(expr, batch)

	case logical.ExprInList:
		return evalInList(expr, batch)

	default:
		return nil, &EvaluateError{Err: fmt.Errorf("unsupported expression: %s", expr)}
	}
}

func evalLiteral(lit logical.Scalar, rows int) (*EvalResult, error) {
	if lit.IsNull() {
		return uniformResult(TriNull, rows), nil
	}
	value, ok := lit.Value.(bool)
	if !ok {
		return nil, &EvaluateError{Err: fmt.Errorf("predicate literal must be boolean, got %s", lit)}
	}
	if value {
		return uniformResult(TriTrue, rows), nil
	}
	return uniformResult(TriFalse, rows), nil
}

func evalBoolColumn(name string, batch *Batch) (*EvalResult, error) {
	col := batch.Column(name)
	if col == nil {
		return nil, &EvaluateError{Err: fmt.Errorf("batch has no column %q", name)}
	}
	if col.Type.Kind != schema.KindPrimitive || col.Type.Elem != datatype.Bool {
		return nil, &EvaluateError{Err: fmt.Errorf("column %q is not boolean", name)}
	}
	result := arrayResult(batch.RowCount)
	for i := 0; i < batch.RowCount; i++ {
		if col.Nulls.IsNull(i) {
			result.setNull(i)
			continue
		}
		result.Values[i] = col.BoolAt(i)
	}
	return result, nil
}

func evalNullTest(expr *logical.Expr, batch *Batch) (*EvalResult, error) {
	col := batch.Column(expr.Input.Name)
	if col == nil {
		return nil, &EvaluateError{Err: fmt.Errorf("batch has no column %q", expr.Input.Name)}
	}
	result := arrayResult(batch.RowCount)
	for i := 0; i < batch.RowCount; i++ {
		result.Values[i] = col.Nulls.IsNull(i) != expr.Negated
	}
	return result, nil
}

func evalComparison(expr *logical.Expr, batch *Batch) (*EvalResult, error) {
	op := expr.Op
	column, literal := expr.Left, expr.Right
	if column.Type == logical.ExprLiteral {
		column, literal = literal, column
		op = flipComparison(op)
	}

	col := batch.Column(column.Name)
	if col == nil {
		return nil, &EvaluateError{Err: fmt.Errorf("batch has no column %q", column.Name)}
	}
	lit := literal.Value
	if lit.IsNull() {
		// Comparing against NULL is NULL for every row.
		return uniformResult(TriNull, batch.RowCount), nil
	}

	result := arrayResult(batch.RowCount)
	match, err := rowMatcher(col, op, lit)
	if err != nil {
		return nil, err
	}
	for i := 0; i < batch.RowCount; i++ {
		if col.Nulls.IsNull(i) {
			result.setNull(i)
			continue
		}
		result.Values[i] = match(i)
	}
	return result, nil
}

// flipComparison mirrors an operator across its operands, so that
// literal-op-column evaluates as column-op'-literal.
func flipComparison(op logical.Operator) logical.Operator {
	switch op {
	case logical.Lt:
		return logical.Gt
	case logical.LtEq:
		return logical.GtEq
	case logical.Gt:
		return logical.Lt
	case logical.GtEq:
		return logical.LtEq
	default:
		return op
	}
}

// rowMatcher builds the per-row comparison closure for a column against a
// non-null literal.
func rowMatcher(col *Vector, op logical.Operator, lit logical.Scalar) (func(i int) bool, error) {
	switch col.Type.Kind {
	case schema.KindPrimitive:
		return primitiveMatcher(col, op, lit)

	case schema.KindLargeString:
		s, ok := lit.Value.(string)
		if !ok {
			return nil, &EvaluateError{Err: fmt.Errorf("string column compared against %T literal", lit.Value)}
		}
		needle := []byte(s)
		return func(i int) bool {
			return cmpSatisfies(op, bytes.Compare(col.BytesAt(i), needle))
		}, nil

	case schema.KindFixedList, schema.KindVarList:
		if op != logical.Eq && op != logical.NotEq {
			return nil, &EvaluateError{Err: fmt.Errorf("ordering comparison on list column")}
		}
		return func(i int) bool {
			return listEquals(col, i, lit) == (op == logical.Eq)
		}, nil

	default:
		return nil, &EvaluateError{Err: fmt.Errorf("cannot evaluate against %s column", col.Type.Kind)}
	}
}

func primitiveMatcher(col *Vector, op logical.Operator, lit logical.Scalar) (func(i int) bool, error) {
	elem := col.Type.Elem
	switch {
	case elem.IsSignedInt():
		v, ok := lit.Value.(int64)
		if !ok {
			return nil, litTypeError(elem, lit)
		}
		return func(i int) bool { return compareOrdered(op, col.Int64At(i), v) }, nil

	case elem.IsUnsignedInt() || elem.IsString():
		// Single-value text compares by its byte value.
		v, ok := lit.Value.(uint64)
		if !ok {
			return nil, litTypeError(elem, lit)
		}
		return func(i int) bool { return compareOrdered(op, col.UInt64At(i), v) }, nil

	case elem.IsFloat():
		v, ok := lit.Value.(float64)
		if !ok {
			return nil, litTypeError(elem, lit)
		}
		return func(i int) bool { return compareOrdered(op, col.Float64At(i), v) }, nil

	case elem == datatype.Bool:
		v, ok := lit.Value.(bool)
		if !ok {
			return nil, litTypeError(elem, lit)
		}
		if op != logical.Eq && op != logical.NotEq {
			return nil, &EvaluateError{Err: fmt.Errorf("ordering comparison on boolean column")}
		}
		return func(i int) bool { return (col.BoolAt(i) == v) == (op == logical.Eq) }, nil

	default:
		return nil, &EvaluateError{Err: fmt.Errorf("cannot compare %s column", elem)}
	}
}

func litTypeError(elem datatype.Datatype, lit logical.Scalar) error {
	return &EvaluateError{Err: fmt.Errorf("%s column compared against %T literal", elem, lit.Value)}
}

func compareOrdered[T int64 | uint64 | float64](op logical.Operator, a, b T) bool {
	switch op {
	case logical.Lt:
		return a < b
	case logical.LtEq:
		return a <= b
	case logical.Gt:
		return a > b
	case logical.GtEq:
		return a >= b
	case logical.Eq:
		return a == b
	case logical.NotEq:
		return a != b
	default:
		return false
	}
}

func cmpSatisfies(op logical.Operator, c int) bool {
	switch op {
	case logical.Lt:
		return c < 0
	case logical.LtEq:
		return c <= 0
	case logical.Gt:
		return c > 0
	case logical.GtEq:
		return c >= 0
	case logical.Eq:
		return c == 0
	case logical.NotEq:
		return c != 0
	default:
		return false
	}
}

// listEquals compares list row i against a list literal, element-wise
// after widening.
func listEquals(col *Vector, i int, lit logical.Scalar) bool {
	lo, hi := col.ListBounds(i)
	n := int(hi - lo)

	switch want := lit.Value.(type) {
	case []int64:
		if len(want) != n {
			return false
		}
		for k := 0; k < n; k++ {
			if col.Values.Int64At(int(lo)+k) != want[k] {
				return false
			}
		}
	case []uint64:
		if len(want) != n {
			return false
		}
		for k := 0; k < n; k++ {
			if col.Values.UInt64At(int(lo)+k) != want[k] {
				return false
			}
		}
	case []float64:
		if len(want) != n {
			return false
		}
		for k := 0; k < n; k++ {
			if col.Values.Float64At(int(lo)+k) != want[k] {
				return false
			}
		}
	case []bool:
		if len(want) != n {
			return false
		}
		for k := 0; k < n; k++ {
			if col.Values.BoolAt(int(lo)+k) != want[k] {
				return false
			}
		}
	case []byte:
		data, ok := col.Values.Data.([]byte)
		if !ok {
			return false
		}
		return bytes.Equal(data[lo:hi], want)
	default:
		return false
	}
	return true
}

func evalInList(expr *logical.Expr, batch *Batch) (*EvalResult, error) {
	col := batch.Column(expr.Input.Name)
	if col == nil {
		return nil, &EvaluateError{Err: fmt.Errorf("batch has no column %q", expr.Input.Name)}
	}

	matchers := make([]func(i int) bool, 0, len(expr.List))
	for _, member := range expr.List {
		if member.IsNull() {
			continue
		}
		match, err := rowMatcher(col, logical.Eq, member)
		if err != nil {
			return nil, err
		}
		matchers = append(matchers, match)
	}

	result := arrayResult(batch.RowCount)
	for i := 0; i < batch.RowCount; i++ {
		if col.Nulls.IsNull(i) {
			result.setNull(i)
			continue
		}
		found := false
		for _, match := range matchers {
			if match(i) {
				found = true
				break
			}
		}
		result.Values[i] = found != expr.Negated
	}
	return result, nil
}

func negate(r *EvalResult) *EvalResult {
	if r.Uniform {
		return uniformResult(kleeneNot(r.Scalar), r.NumRows)
	}
	out := arrayResult(r.NumRows)
	out.Nulls = r.Nulls
	for i := range r.Values {
		out.Values[i] = !r.Values[i]
	}
	return out
}

func combineKleene(op logical.Operator, left, right *EvalResult, rows int) *EvalResult {
	if left.Uniform && right.Uniform {
		return uniformResult(kleeneCombine(op, left.Scalar, right.Scalar), rows)
	}
	// A dominating uniform side short-circuits the whole batch.
	if left.Uniform {
		if short, ok := shortCircuit(op, left.Scalar, rows); ok {
			return short
		}
	}
	if right.Uniform {
		if short, ok := shortCircuit(op, right.Scalar, rows); ok {
			return short
		}
	}

	out := arrayResult(rows)
	for i := 0; i < rows; i++ {
		switch kleeneCombine(op, left.At(i), right.At(i)) {
		case TriTrue:
			out.Values[i] = true
		case TriNull:
			out.setNull(i)
		}
	}
	return out
}

func shortCircuit(op logical.Operator, t TriBool, rows int) (*EvalResult, bool) {
	if op == logical.And && t == TriFalse {
		return uniformResult(TriFalse, rows), true
	}
	if op == logical.Or && t == TriTrue {
		return uniformResult(TriTrue, rows), true
	}
	return nil, false
}

func kleeneCombine(op logical.Operator, a, b TriBool) TriBool {
	if op == logical.And {
		if a == TriFalse || b == TriFalse {
			return TriFalse
		}
		if a == TriNull || b == TriNull {
			return TriNull
		}
		return TriTrue
	}
	if a == TriTrue || b == TriTrue {
		return TriTrue
	}
	if a == TriNull || b == TriNull {
		return TriNull
	}
	return TriFalse
}

func kleeneNot(t TriBool) TriBool {
	switch t {
	case TriTrue:
		return TriFalse
	case TriFalse:
		return TriTrue
	default:
		return TriNull
	}
}

// CastTo renders the result as a numeric vector, 1 for true rows and 0
// for false rows, preserving nulls.
func (r *EvalResult) CastTo(dt datatype.Datatype) (*Vector, error) {
	if !dt.IsSignedInt() && !dt.IsUnsignedInt() && !dt.IsFloat() && dt != datatype.Bool {
		return nil, fmt.Errorf("cannot cast a truth value to %s", dt)
	}

	data := newPrimitiveData(dt, r.NumRows)
	var nulls *NullMask
	set := func(i int, truth bool) {
		switch out := data.(type) {
		case []int8:
			if truth {
				out[i] = 1
			}
		case []int16:
			if truth {
				out[i] = 1
			}
		case []int32:
			if truth {
				out[i] = 1
			}
		case []int64:
			if truth {
				out[i] = 1
			}
		case []uint16:
			if truth {
				out[i] = 1
			}
		case []uint32:
			if truth {
				out[i] = 1
			}
		case []uint64:
			if truth {
				out[i] = 1
			}
		case []float32:
			if truth {
				out[i] = 1
			}
		case []float64:
			if truth {
				out[i] = 1
			}
		case []bool:
			out[i] = truth
		case []byte:
			if truth {
				out[i] = 1
			}
		}
	}

	for i := 0; i < r.NumRows; i++ {
		switch r.At(i) {
		case TriNull:
			if nulls == nil {
				nulls = NewNullMask(r.NumRows)
			}
			nulls.SetNull(i)
		case TriTrue:
			set(i, true)
		}
	}

	ct := schema.ColumnType{Kind: schema.KindPrimitive, Elem: dt}
	return &Vector{Type: ct, Data: data, Nulls: nulls, Length: r.NumRows}, nil
}
