package condition

import (
	"errors"
	"fmt"

	"tilequery/datatype"
)

// UserError wraps a failure caused by an invalid query condition for the
// schema: fixable by correcting the query.
type UserError struct {
	Err error
}

func (e *UserError) Error() string {
	return fmt.Sprintf("query condition error: %v", e.Err)
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// InternalError wraps a failure that should not be reachable from a
// validated condition tree: unrecognized discriminants, shape violations,
// schema type-derivation failures. Returned rather than panicked so the
// pipeline stays robust against upstream format drift.
type InternalError struct {
	Err error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("query condition internal error: %v", e.Err)
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

// IsUserError reports whether err is classified as a user error.
func IsUserError(err error) bool {
	var ue *UserError
	return errors.As(err, &ue)
}

// IsInternalError reports whether err is classified as an internal error.
func IsInternalError(err error) bool {
	var ie *InternalError
	return errors.As(err, &ie)
}

func userError(err error) error {
	return &UserError{Err: err}
}

func internalError(err error) error {
	return &InternalError{Err: err}
}

// FieldError wraps a leaf-level failure with the offending field name.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("error in field %q: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// UnknownFieldError reports a condition referencing a field the schema
// does not define.
type UnknownFieldError struct {
	Field string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("unknown dimension or attribute: %q", e.Field)
}

// FieldNameNotUTF8Error reports a field name which is not valid UTF-8.
type FieldNameNotUTF8Error struct {
	Field string
}

func (e *FieldNameNotUTF8Error) Error() string {
	return fmt.Sprintf("field name is not UTF-8: %q", e.Field)
}

// DatatypeMismatchError reports a payload whose size does not divide into
// values of the field's datatype.
type DatatypeMismatchError struct {
	Type datatype.Datatype
	Size int
}

func (e *DatatypeMismatchError) Error() string {
	return fmt.Sprintf("value cannot be coerced to datatype %s: invalid value size %d", e.Type, e.Size)
}

// CellValNumMismatchError reports a payload holding a different number of
// values than the field's cell arity requires.
type CellValNumMismatchError struct {
	Expected datatype.CellValNum
	Found    int
}

func (e *CellValNumMismatchError) Error() string {
	return fmt.Sprintf("cell val num mismatch: expected %s, found %d", e.Expected, e.Found)
}

// InListCellValNumMismatchError reports a set-membership payload which is
// not a whole number of fixed-arity members.
type InListCellValNumMismatchError struct {
	Expected datatype.CellValNum
	Found    int
}

func (e *InListCellValNumMismatchError) Error() string {
	return fmt.Sprintf("in list values mismatch: expected a multiple of %s values, found %d values", e.Expected, e.Found)
}

// FixedInListUnsupportedError reports set membership over a fixed-arity
// field, which is unsupported pending explicit requirements.
type FixedInListUnsupportedError struct {
	CellValNum datatype.CellValNum
}

func (e *FixedInListUnsupportedError) Error() string {
	return fmt.Sprintf("set membership over fixed cell val num %s is not supported", e.CellValNum)
}

// NotTreeError reports a NOT combination with other than one child.
type NotTreeError struct {
	Children int
}

func (e *NotTreeError) Error() string {
	return fmt.Sprintf("invalid number of arguments to NOT expression: expected 1, found %d", e.Children)
}

// InvalidDatatypeError reports a field datatype discriminant outside the
// known closed set.
type InvalidDatatypeError struct {
	Discriminant uint64
}

func (e *InvalidDatatypeError) Error() string {
	return fmt.Sprintf("invalid discriminant for field datatype: %d", e.Discriminant)
}

// InvalidOpError reports an operator discriminant outside the known
// closed set.
type InvalidOpError struct {
	Discriminant uint64
}

func (e *InvalidOpError) Error() string {
	return fmt.Sprintf("invalid discriminant for query condition operator: %d", e.Discriminant)
}

// InvalidCombinationOpError reports a combination operator discriminant
// outside the known closed set.
type InvalidCombinationOpError struct {
	Discriminant uint64
}

func (e *InvalidCombinationOpError) Error() string {
	return fmt.Sprintf("invalid discriminant for query condition combination operator: %d", e.Discriminant)
}
