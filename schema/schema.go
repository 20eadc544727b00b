// Package schema models the storage engine's read-only field descriptors
// and projects them into columnar field types for batch materialization.
package schema

import (
	"fmt"

	"tilequery/datatype"
	"tilequery/tile"
)

// Field is one dimension or attribute descriptor. Owned by the storage
// engine's schema; read-only here.
type Field struct {
	Name       string
	Type       datatype.Datatype
	CellValNum datatype.CellValNum
	Nullable   bool

	// Enumeration names the dictionary an attribute's stored keys index
	// into, empty for plain fields.
	Enumeration string
}

// Enumeration is a named dictionary of variant values referenced by an
// attribute's stored keys. Data may be nil when the enumeration exists in
// the schema but its variants have not been loaded.
type Enumeration struct {
	Name       string
	Type       datatype.Datatype
	CellValNum datatype.CellValNum
	Data       []byte
	Offsets    []byte
}

// Loaded reports whether the enumeration's variant values are in memory.
func (e *Enumeration) Loaded() bool {
	return e.Data != nil
}

// Values splits the variant-value buffer into one raw value per variant.
func (e *Enumeration) Values() ([][]byte, error) {
	if !e.Loaded() {
		return nil, fmt.Errorf("enumeration %q is not loaded", e.Name)
	}

	valueSize := e.Type.ValueSize()
	if e.CellValNum.IsVar() {
		offsets, err := tile.OffsetsFromBytesAndNumValues(valueSize, e.Offsets, len(e.Data)/valueSize)
		if err != nil {
			return nil, fmt.Errorf("enumeration %q offsets: %w", e.Name, err)
		}
		values := make([][]byte, 0, len(offsets)-1)
		for i := 0; i+1 < len(offsets); i++ {
			values = append(values, e.Data[offsets[i]*int64(valueSize):offsets[i+1]*int64(valueSize)])
		}
		return values, nil
	}

	width := valueSize * int(e.CellValNum.Fixed())
	if width == 0 || len(e.Data)%width != 0 {
		return nil, fmt.Errorf("enumeration %q data size %d is not a multiple of the variant width %d",
			e.Name, len(e.Data), width)
	}
	values := make([][]byte, 0, len(e.Data)/width)
	for pos := 0; pos < len(e.Data); pos += width {
		values = append(values, e.Data[pos:pos+width])
	}
	return values, nil
}

// Schema is an ordered set of field descriptors plus the enumeration
// registry they reference.
type Schema struct {
	fields       []*Field
	byName       map[string]*Field
	enumerations map[string]*Enumeration
}

// NewSchema creates a schema from ordered dimension and attribute
// descriptors.
func NewSchema(fields ...*Field) *Schema {
	s := &Schema{
		byName:       make(map[string]*Field, len(fields)),
		enumerations: make(map[string]*Enumeration),
	}
	for _, f := range fields {
		s.fields = append(s.fields, f)
		s.byName[f.Name] = f
	}
	return s
}

// AddEnumeration registers an enumeration in the schema.
func (s *Schema) AddEnumeration(e *Enumeration) {
	s.enumerations[e.Name] = e
}

// Fields returns the ordered field descriptors.
func (s *Schema) Fields() []*Field {
	return s.fields
}

// Field returns the descriptor for a field name, or nil if unknown.
func (s *Schema) Field(name string) *Field {
	return s.byName[name]
}

// EnumerationByName returns the named enumeration, or nil if absent.
func (s *Schema) EnumerationByName(name string) *Enumeration {
	return s.enumerations[name]
}
