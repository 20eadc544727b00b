// Package condition translates a query-condition syntax tree into a typed
// logical predicate expression against a schema.
package condition

import (
	"fmt"
)

// Op is a leaf comparison, set-membership or constant operator.
type Op uint8

const (
	OpLT Op = iota
	OpLE
	OpGT
	OpGE
	OpEQ
	OpNE
	OpIn
	OpNotIn
	OpAlwaysTrue
	OpAlwaysFalse

	numOps
)

// Valid reports whether the operator is a member of the known closed set.
func (op Op) Valid() bool {
	return op < numOps
}

// IsSetMembership reports whether the operator tests list membership.
func (op Op) IsSetMembership() bool {
	return op == OpIn || op == OpNotIn
}

// String returns the string representation of the operator
func (op Op) String() string {
	switch op {
	case OpLT:
		return "LT"
	case OpLE:
		return "LE"
	case OpGT:
		return "GT"
	case OpGE:
		return "GE"
	case OpEQ:
		return "EQ"
	case OpNE:
		return "NE"
	case OpIn:
		return "IN"
	case OpNotIn:
		return "NOT_IN"
	case OpAlwaysTrue:
		return "ALWAYS_TRUE"
	case OpAlwaysFalse:
		return "ALWAYS_FALSE"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint8(op))
	}
}

// CombinationOp combines the results of a node's children.
type CombinationOp uint8

const (
	CombinationAnd CombinationOp = iota
	CombinationOr
	CombinationNot

	numCombinationOps
)

// Valid reports whether the operator is a member of the known closed set.
func (op CombinationOp) Valid() bool {
	return op < numCombinationOps
}

// String returns the string representation of the operator
func (op CombinationOp) String() string {
	switch op {
	case CombinationAnd:
		return "AND"
	case CombinationOr:
		return "OR"
	case CombinationNot:
		return "NOT"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint8(op))
	}
}

// ASTNode is one node of the externally-owned query condition tree. The
// tree is read-only to this package; translation builds a new owned
// expression tree and keeps no references into it.
//
// A node is either a combination of children under a CombinationOp, or a
// leaf naming a field, an operator, a raw value payload, and (for
// variable-length set membership) a raw offsets payload.
type ASTNode struct {
	FieldName     string
	Op            Op
	Data          []byte
	Offsets       []byte
	CombinationOp CombinationOp
	Children      []*ASTNode

	combination bool
}

// NewLeaf creates a leaf condition node.
func NewLeaf(field string, op Op, data, offsets []byte) *ASTNode {
	return &ASTNode{FieldName: field, Op: op, Data: data, Offsets: offsets}
}

// NewCombination creates a combination node over the given children. A
// combination stays a combination even with no children; translation
// reports the shape violation instead of reinterpreting the node.
func NewCombination(op CombinationOp, children ...*ASTNode) *ASTNode {
	return &ASTNode{CombinationOp: op, Children: children, combination: true}
}

// IsExpr reports whether the node combines children rather than testing a
// field.
func (n *ASTNode) IsExpr() bool {
	return n.combination
}

// IsNullTest reports whether the leaf tests for cell presence. A leaf with
// an empty payload under a non-set operator is a null test; set-membership
// with an empty payload is an empty list instead.
func (n *ASTNode) IsNullTest() bool {
	return !n.IsExpr() && len(n.Data) == 0 && !n.Op.IsSetMembership()
}
