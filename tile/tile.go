// Package tile models the borrowed per-field tile buffers handed over by
// the storage engine, and the conversion of their storage-format offsets
// into canonical element offsets.
package tile

// Tile is the buffer triple the storage engine holds for one field across
// one batch of cells. Fixed holds values, or byte offsets when the field is
// variable-length. Var holds values for variable-length fields. Validity
// holds one byte per cell, nonzero meaning the cell is present.
//
// All three buffers are borrowed from the storage engine. They must stay
// alive for at least as long as any batch materialized from them.
type Tile struct {
	Fixed    []byte
	Var      []byte
	Validity []byte

	// Codec is the compression applied to the buffers, CompressionNone
	// for raw tiles.
	Codec CompressionType
}

// Set is a name-indexed lookup of tile triples sharing one cell count.
type Set struct {
	tiles     map[string]*Tile
	cellCount int
}

// NewSet creates an empty tile set for the given cell count.
func NewSet(cellCount int) *Set {
	return &Set{
		tiles:     make(map[string]*Tile),
		cellCount: cellCount,
	}
}

// Put registers the tile triple for a field name.
func (s *Set) Put(name string, t *Tile) {
	s.tiles[name] = t
}

// Get returns the tile triple for a field name, or nil when the tile set
// predates the field (schema evolution).
func (s *Set) Get(name string) *Tile {
	return s.tiles[name]
}

// CellCount returns the number of cells every tile in the set covers.
func (s *Set) CellCount() int {
	return s.cellCount
}

// Buffers returns the tile's buffers with the codec undone. Raw tiles are
// returned as-is without copying.
func (t *Tile) Buffers() (fixed, varData, validity []byte, err error) {
	if fixed, err = Decompress(t.Codec, t.Fixed); err != nil {
		return nil, nil, nil, err
	}
	if varData, err = Decompress(t.Codec, t.Var); err != nil {
		return nil, nil, nil, err
	}
	if validity, err = Decompress(t.Codec, t.Validity); err != nil {
		return nil, nil, nil, err
	}
	return fixed, varData, validity, nil
}
