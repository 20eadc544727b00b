package vectorized

import (
	"fmt"

	"tilequery/common"
	"tilequery/datatype"
	"tilequery/logical"
	"tilequery/schema"
)

// CompileError wraps a failure to bind a logical expression against a
// projection.
type CompileError struct {
	Err error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("failed to create physical expression: %v", e.Err)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// ColumnNotProjectedError reports a predicate referencing a column the
// projection does not carry.
type ColumnNotProjectedError struct {
	Field string
}

func (e *ColumnNotProjectedError) Error() string {
	return fmt.Sprintf("column %q is not projected", e.Field)
}

// UnresolvedColumnError reports a predicate touching an enumeration
// column whose dictionary was never loaded.
type UnresolvedColumnError struct {
	Field string
}

func (e *UnresolvedColumnError) Error() string {
	return fmt.Sprintf("column %q: enumeration values are not loaded", e.Field)
}

// TypeMismatchError reports a literal whose datatype cannot compare
// against its column.
type TypeMismatchError struct {
	Field   string
	Column  schema.ColumnType
	Literal datatype.Datatype
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("column %q: cannot compare %s against %s literal", e.Field, e.Column, e.Literal)
}

// CompiledPredicate is a logical expression bound to a projection, ready
// to evaluate against batches materialized from it.
type CompiledPredicate struct {
	expr *logical.Expr
	proj *schema.Projection
}

// Expr returns the bound expression tree.
func (p *CompiledPredicate) Expr() *logical.Expr {
	return p.expr
}

// Compile binds a logical expression to a projection. Every referenced
// column must be projected with a resolved type, every literal must be
// comparable against its column, and the expression must be purely
// row-wise. Compilation never partially succeeds.
func Compile(expr *logical.Expr, proj *schema.Projection) (*CompiledPredicate, error) {
	if expr == nil {
		return nil, &CompileError{Err: fmt.Errorf("empty expression")}
	}
	if logical.HasAggregateFunctions(expr) {
		return nil, &CompileError{Err: fmt.Errorf("aggregate functions are not allowed in predicates")}
	}
	if err := checkExpr(expr, proj); err != nil {
		return nil, &CompileError{Err: err}
	}

	common.GetTracer().Debug(common.TraceComponentCompile, "Compiled predicate", common.TraceContext(
		"expr", expr.String(),
	))
	return &CompiledPredicate{expr: expr, proj: proj}, nil
}

func checkExpr(expr *logical.Expr, proj *schema.Projection) error {
	switch expr.Type {
	case logical.ExprColumn:
		_, err := resolveColumn(expr, proj)
		return err

	case logical.ExprLiteral:
		return nil

	case logical.ExprBinary:
		if !expr.Op.IsComparison() {
			if err := checkExpr(expr.Left, proj); err != nil {
				return err
			}
			return checkExpr(expr.Right, proj)
		}
		return checkComparison(expr, proj)

	case logical.ExprInList:
		field, err := resolveColumn(expr.Input, proj)
		if err != nil {
			return err
		}
		for _, member := range expr.List {
			if err := checkLiteral(field, member); err != nil {
				return err
			}
		}
		return nil

	case logical.ExprNullTest:
		_, err := resolveColumn(expr.Input, proj)
		return err

	case logical.ExprNot:
		return checkExpr(expr.Input, proj)

	default:
		return fmt.Errorf("unsupported expression: %s", expr)
	}
}

func checkComparison(expr *logical.Expr, proj *schema.Projection) error {
	column, literal := expr.Left, expr.Right
	if column.Type == logical.ExprLiteral && literal.Type == logical.ExprColumn {
		column, literal = literal, column
	}
	if column.Type != logical.ExprColumn || literal.Type != logical.ExprLiteral {
		return fmt.Errorf("comparison must be between a column and a literal: %s", expr)
	}
	field, err := resolveColumn(column, proj)
	if err != nil {
		return err
	}
	return checkLiteral(field, literal.Value)
}

func resolveColumn(expr *logical.Expr, proj *schema.Projection) (*schema.ColumnField, error) {
	if expr == nil || expr.Type != logical.ExprColumn {
		return nil, fmt.Errorf("expected a column reference: %s", expr)
	}
	field := proj.Field(expr.Name)
	if field == nil {
		return nil, &ColumnNotProjectedError{Field: expr.Name}
	}
	if field.Type.Kind == schema.KindUnresolved {
		return nil, &UnresolvedColumnError{Field: expr.Name}
	}
	return field, nil
}

func checkLiteral(field *schema.ColumnField, lit logical.Scalar) error {
	if lit.IsNull() {
		return nil
	}
	if !sameClass(field.Type.Elem, lit.Type) {
		return &TypeMismatchError{Field: field.Name, Column: field.Type, Literal: lit.Type}
	}

	switch field.Type.Kind {
	case schema.KindPrimitive:
		if !lit.Arity.IsSingle() {
			return &TypeMismatchError{Field: field.Name, Column: field.Type, Literal: lit.Type}
		}
	case schema.KindLargeString:
		if _, ok := lit.Value.(string); !ok {
			return &TypeMismatchError{Field: field.Name, Column: field.Type, Literal: lit.Type}
		}
	case schema.KindFixedList:
		if lit.Arity.IsVar() || lit.Arity.IsSingle() || int32(lit.Arity.Fixed()) != field.Type.Width {
			return &TypeMismatchError{Field: field.Name, Column: field.Type, Literal: lit.Type}
		}
	case schema.KindVarList:
		if !lit.Arity.IsVar() {
			return &TypeMismatchError{Field: field.Name, Column: field.Type, Literal: lit.Type}
		}
	}
	return nil
}

// sameClass reports whether two datatypes compare against each other:
// same sign class for integers, both floats, both booleans, or both text.
func sameClass(a, b datatype.Datatype) bool {
	switch {
	case a.IsSignedInt():
		return b.IsSignedInt()
	case a.IsUnsignedInt():
		return b.IsUnsignedInt()
	case a.IsFloat():
		return b.IsFloat()
	case a.IsString():
		return b.IsString()
	case a == datatype.Bool:
		return b == datatype.Bool
	default:
		return false
	}
}

// FilterBuilder accumulates predicate conjuncts and compiles their
// conjunction in insertion order.
type FilterBuilder struct {
	conjuncts []*logical.Expr
}

// NewFilterBuilder creates an empty builder. With no conjuncts added the
// resulting predicate selects every row.
func NewFilterBuilder() *FilterBuilder {
	return &FilterBuilder{}
}

// Add appends a conjunct.
func (b *FilterBuilder) Add(expr *logical.Expr) *FilterBuilder {
	b.conjuncts = append(b.conjuncts, expr)
	return b
}

// Expr folds the conjuncts left to right into a single expression.
func (b *FilterBuilder) Expr() *logical.Expr {
	if len(b.conjuncts) == 0 {
		return logical.NewLiteral(logical.BoolScalar(true))
	}
	result := b.conjuncts[0]
	for _, next := range b.conjuncts[1:] {
		result = logical.NewBinary(logical.And, result, next)
	}
	return result
}

// Compile binds the folded conjunction against a projection.
func (b *FilterBuilder) Compile(proj *schema.Projection) (*CompiledPredicate, error) {
	return Compile(b.Expr(), proj)
}
