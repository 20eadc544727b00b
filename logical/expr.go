// Package logical defines the owned, engine-independent predicate
// expression tree built from query conditions and compiled against a
// projected schema for evaluation.
package logical

import (
	"fmt"
	"strings"
)

// Operator is a binary expression operator.
type Operator int

const (
	Lt Operator = iota
	LtEq
	Gt
	GtEq
	Eq
	NotEq
	And
	Or
)

// String returns the string representation of the operator
func (op Operator) String() string {
	switch op {
	case Lt:
		return "<"
	case LtEq:
		return "<="
	case Gt:
		return ">"
	case GtEq:
		return ">="
	case Eq:
		return "="
	case NotEq:
		return "!="
	case And:
		return "AND"
	case Or:
		return "OR"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int(op))
	}
}

// IsComparison reports whether the operator compares values rather than
// combining boolean results.
func (op Operator) IsComparison() bool {
	return op != And && op != Or
}

// ExprType discriminates expression tree nodes.
type ExprType int

const (
	ExprColumn ExprType = iota
	ExprLiteral
	ExprBinary
	ExprInList
	ExprNullTest
	ExprNot
	ExprFunction
)

// Aggregate function names. Query predicates must be purely row-wise, so
// compilation rejects expressions containing any of these.
const (
	CountFunc = "COUNT"
	SumFunc   = "SUM"
	AvgFunc   = "AVG"
	MinFunc   = "MIN"
	MaxFunc   = "MAX"
)

// Expr is one node of an owned predicate expression tree. The tree is
// immutable once built, acyclic, and holds no references back into the
// condition AST it was translated from.
type Expr struct {
	Type ExprType

	// Name is the column name for ExprColumn and the function name for
	// ExprFunction.
	Name string

	// Value is the literal for ExprLiteral.
	Value Scalar

	// Op, Left and Right describe ExprBinary nodes.
	Op    Operator
	Left  *Expr
	Right *Expr

	// Input is the operand of ExprInList, ExprNullTest and ExprNot.
	Input *Expr

	// List holds the member literals of ExprInList.
	List []Scalar

	// Negated turns ExprInList into NOT IN and ExprNullTest into
	// IS NOT NULL.
	Negated bool

	// Args are the arguments of ExprFunction.
	Args []*Expr
}

// NewColumn creates a reference to a named column.
func NewColumn(name string) *Expr {
	return &Expr{Type: ExprColumn, Name: name}
}

// NewLiteral creates a literal value expression.
func NewLiteral(value Scalar) *Expr {
	return &Expr{Type: ExprLiteral, Value: value}
}

// NewBinary creates a binary expression.
func NewBinary(op Operator, left, right *Expr) *Expr {
	return &Expr{Type: ExprBinary, Op: op, Left: left, Right: right}
}

// NewInList creates a set-membership expression.
func NewInList(input *Expr, list []Scalar, negated bool) *Expr {
	return &Expr{Type: ExprInList, Input: input, List: list, Negated: negated}
}

// NewIsNull creates an IS NULL test.
func NewIsNull(input *Expr) *Expr {
	return &Expr{Type: ExprNullTest, Input: input}
}

// NewIsNotNull creates an IS NOT NULL test.
func NewIsNotNull(input *Expr) *Expr {
	return &Expr{Type: ExprNullTest, Input: input, Negated: true}
}

// NewNot creates a logical negation.
func NewNot(input *Expr) *Expr {
	return &Expr{Type: ExprNot, Input: input}
}

// NewFunction creates a function call expression.
func NewFunction(name string, args ...*Expr) *Expr {
	return &Expr{Type: ExprFunction, Name: name, Args: args}
}

// HasAggregateFunctions walks the tree top-down and reports whether any
// node is an aggregate function call, stopping at the first one found.
func HasAggregateFunctions(e *Expr) bool {
	if e == nil {
		return false
	}
	if e.Type == ExprFunction {
		switch strings.ToUpper(e.Name) {
		case CountFunc, SumFunc, AvgFunc, MinFunc, MaxFunc:
			return true
		}
	}
	for _, child := range e.children() {
		if HasAggregateFunctions(child) {
			return true
		}
	}
	return false
}

func (e *Expr) children() []*Expr {
	switch e.Type {
	case ExprBinary:
		return []*Expr{e.Left, e.Right}
	case ExprInList, ExprNullTest, ExprNot:
		return []*Expr{e.Input}
	case ExprFunction:
		return e.Args
	default:
		return nil
	}
}

// String renders the expression for diagnostics.
func (e *Expr) String() string {
	if e == nil {
		return "<nil>"
	}
	switch e.Type {
	case ExprColumn:
		return e.Name
	case ExprLiteral:
		return e.Value.String()
	case ExprBinary:
		return fmt.Sprintf("(%s %s %s)", e.Left, e.Op, e.Right)
	case ExprInList:
		members := make([]string, len(e.List))
		for i, s := range e.List {
			members[i] = s.String()
		}
		if e.Negated {
			return fmt.Sprintf("(%s NOT IN (%s))", e.Input, strings.Join(members, ", "))
		}
		return fmt.Sprintf("(%s IN (%s))", e.Input, strings.Join(members, ", "))
	case ExprNullTest:
		if e.Negated {
			return fmt.Sprintf("(%s IS NOT NULL)", e.Input)
		}
		return fmt.Sprintf("(%s IS NULL)", e.Input)
	case ExprNot:
		return fmt.Sprintf("(NOT %s)", e.Input)
	case ExprFunction:
		args := make([]string, len(e.Args))
		for i, a := range e.Args {
			args[i] = a.String()
		}
		return fmt.Sprintf("%s(%s)", e.Name, strings.Join(args, ", "))
	default:
		return fmt.Sprintf("<invalid expr %d>", int(e.Type))
	}
}
