package schema

import (
	"fmt"
	"math"

	"tilequery/common"
	"tilequery/datatype"
)

// View selects which shape of an attribute a projection exposes.
type View int

const (
	// ViewStorage projects every field as its physical stored type.
	ViewStorage View = iota
	// ViewEnumeration projects enumeration attributes against their
	// dictionary, resolving variant values when loaded.
	ViewEnumeration
)

// ColumnKind is the shape of a materialized column.
type ColumnKind int

const (
	KindPrimitive ColumnKind = iota
	KindFixedList
	KindVarList
	KindLargeString

	// KindUnresolved marks an enumeration attribute whose dictionary has
	// not been loaded. The field may go unused by the predicate, so
	// projection does not force a load; compiling a predicate against an
	// unresolved column fails instead.
	KindUnresolved
)

// String returns the string representation of ColumnKind
func (k ColumnKind) String() string {
	switch k {
	case KindPrimitive:
		return "PRIMITIVE"
	case KindFixedList:
		return "FIXED_LIST"
	case KindVarList:
		return "VAR_LIST"
	case KindLargeString:
		return "LARGE_STRING"
	case KindUnresolved:
		return "UNRESOLVED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int(k))
	}
}

// ColumnType is the physical type of a materialized column.
type ColumnType struct {
	Kind ColumnKind
	Elem datatype.Datatype
	// Width is the per-cell element count for fixed-size lists.
	Width int32
}

// String returns the string representation of the column type
func (ct ColumnType) String() string {
	switch ct.Kind {
	case KindPrimitive:
		return ct.Elem.String()
	case KindFixedList:
		return fmt.Sprintf("FIXED_LIST(%s, %d)", ct.Elem, ct.Width)
	case KindVarList:
		return fmt.Sprintf("VAR_LIST(%s)", ct.Elem)
	case KindLargeString:
		return fmt.Sprintf("LARGE_STRING(%s)", ct.Elem)
	default:
		return ct.Kind.String()
	}
}

// ColumnField is one projected column: a name, its materialized type, and
// the enumeration it resolves through, if any.
type ColumnField struct {
	Name        string
	Type        ColumnType
	CellValNum  datatype.CellValNum
	Nullable    bool
	Enumeration string
}

// Projection is an ordered list of projected columns plus the enumerations
// resolved for them.
type Projection struct {
	Fields       []ColumnField
	Enumerations map[string]*Enumeration
}

// Field returns the projected column for a name, or nil if not projected.
func (p *Projection) Field(name string) *ColumnField {
	for i := range p.Fields {
		if p.Fields[i].Name == name {
			return &p.Fields[i]
		}
	}
	return nil
}

// InvalidCellValNumError reports a fixed cell arity too wide for a
// fixed-size list column.
type InvalidCellValNumError struct {
	Field      string
	CellValNum datatype.CellValNum
}

func (e *InvalidCellValNumError) Error() string {
	return fmt.Sprintf("field %q: cell val num out of range: %s", e.Field, e.CellValNum)
}

// EnumerationNotFoundError reports an attribute referencing an enumeration
// the schema does not define. This signals schema corruption rather than
// bad user input.
type EnumerationNotFoundError struct {
	Field       string
	Enumeration string
}

func (e *EnumerationNotFoundError) Error() string {
	return fmt.Sprintf("field %q: internal error: enumeration %q not found in schema", e.Field, e.Enumeration)
}

// ColumnTypeOf maps a (datatype, cell arity) pair onto the physical type of
// the column it materializes as.
func ColumnTypeOf(field string, dt datatype.Datatype, cvn datatype.CellValNum) (ColumnType, error) {
	switch {
	case cvn.IsSingle():
		return ColumnType{Kind: KindPrimitive, Elem: dt}, nil
	case cvn.IsVar():
		if dt.IsString() {
			return ColumnType{Kind: KindLargeString, Elem: dt}, nil
		}
		return ColumnType{Kind: KindVarList, Elem: dt}, nil
	default:
		if cvn.Fixed() > math.MaxInt32 {
			return ColumnType{}, &InvalidCellValNumError{Field: field, CellValNum: cvn}
		}
		return ColumnType{Kind: KindFixedList, Elem: dt, Width: int32(cvn.Fixed())}, nil
	}
}

// Project maps the schema's field descriptors onto columnar field types for
// the requested view. When names is empty every field is projected,
// otherwise only the named fields in schema order.
//
// Every projected column is nullable regardless of the source descriptor:
// schema evolution may omit any field from any historical tile, and absent
// fields materialize as all-null columns.
func (s *Schema) Project(view View, names ...string) (*Projection, error) {
	tracer := common.GetTracer()

	wanted := func(string) bool { return true }
	if len(names) > 0 {
		set := make(map[string]bool, len(names))
		for _, n := range names {
			set[n] = true
		}
		wanted = func(n string) bool { return set[n] }
	}

	proj := &Projection{Enumerations: make(map[string]*Enumeration)}
	for _, f := range s.fields {
		if !wanted(f.Name) {
			continue
		}

		cf := ColumnField{
			Name:        f.Name,
			CellValNum:  f.CellValNum,
			Nullable:    true,
			Enumeration: f.Enumeration,
		}

		if view == ViewEnumeration && f.Enumeration != "" {
			enum := s.EnumerationByName(f.Enumeration)
			if enum == nil {
				return nil, &EnumerationNotFoundError{Field: f.Name, Enumeration: f.Enumeration}
			}
			if !enum.Loaded() {
				// The predicate may never touch this field; defer the
				// dictionary load instead of failing the projection.
				cf.Type = ColumnType{Kind: KindUnresolved, Elem: f.Type}
				proj.Fields = append(proj.Fields, cf)
				continue
			}
			proj.Enumerations[enum.Name] = enum
			valueType, err := ColumnTypeOf(f.Name, enum.Type, enum.CellValNum)
			if err != nil {
				return nil, err
			}
			cf.Type = valueType
			cf.CellValNum = enum.CellValNum
			proj.Fields = append(proj.Fields, cf)
			continue
		}

		storageType, err := ColumnTypeOf(f.Name, f.Type, f.CellValNum)
		if err != nil {
			return nil, err
		}
		cf.Type = storageType
		proj.Fields = append(proj.Fields, cf)
	}

	tracer.Debug(common.TraceComponentSchema, "Projected schema", common.TraceContext(
		"fields", len(proj.Fields),
		"enumerations", len(proj.Enumerations),
	))
	return proj, nil
}
