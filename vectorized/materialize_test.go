package vectorized

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tilequery/datatype"
	"tilequery/schema"
	"tilequery/tile"
)

func encodeInt64s(values ...int64) []byte {
	buf := make([]byte, 0, len(values)*8)
	for _, v := range values {
		word := make([]byte, 8)
		datatype.ByteOrder.PutUint64(word, uint64(v))
		buf = append(buf, word...)
	}
	return buf
}

func encodeInt32s(values ...int32) []byte {
	buf := make([]byte, 0, len(values)*4)
	for _, v := range values {
		word := make([]byte, 4)
		datatype.ByteOrder.PutUint32(word, uint32(v))
		buf = append(buf, word...)
	}
	return buf
}

func encodeFloat32s(values ...float32) []byte {
	buf := make([]byte, 0, len(values)*4)
	for _, v := range values {
		word := make([]byte, 4)
		datatype.ByteOrder.PutUint32(word, math.Float32bits(v))
		buf = append(buf, word...)
	}
	return buf
}

func encodeByteOffsets(offsets ...uint64) []byte {
	buf := make([]byte, 0, len(offsets)*8)
	for _, o := range offsets {
		word := make([]byte, 8)
		datatype.ByteOrder.PutUint64(word, o)
		buf = append(buf, word...)
	}
	return buf
}

func mustProject(t *testing.T, s *schema.Schema, names ...string) *schema.Projection {
	t.Helper()
	proj, err := s.Project(schema.ViewStorage, names...)
	require.NoError(t, err)
	return proj
}

func TestMaterializePrimitive(t *testing.T) {
	s := schema.NewSchema(&schema.Field{Name: "a", Type: datatype.Int64, CellValNum: datatype.CellValNumSingle})
	tiles := tile.NewSet(4)
	tiles.Put("a", &tile.Tile{Fixed: encodeInt64s(10, 20, 30, 40)})

	batch, err := MaterializeTiles(mustProject(t, s), tiles)
	require.NoError(t, err)
	require.Equal(t, 4, batch.RowCount)

	col := batch.Column("a")
	require.NotNil(t, col)
	assert.Equal(t, []int64{10, 20, 30, 40}, col.Data)
	assert.False(t, col.Nulls.HasNulls())
}

func TestMaterializeValidity(t *testing.T) {
	s := schema.NewSchema(&schema.Field{
		Name: "a", Type: datatype.Int32, CellValNum: datatype.CellValNumSingle, Nullable: true,
	})
	tiles := tile.NewSet(3)
	tiles.Put("a", &tile.Tile{
		Fixed:    encodeInt32s(1, 2, 3),
		Validity: []byte{1, 0, 1},
	})

	batch, err := MaterializeTiles(mustProject(t, s), tiles)
	require.NoError(t, err)

	col := batch.Column("a")
	assert.False(t, col.Nulls.IsNull(0))
	assert.True(t, col.Nulls.IsNull(1))
	assert.False(t, col.Nulls.IsNull(2))
}

func TestMaterializeMissingTileAllNull(t *testing.T) {
	// A field absent from the tile set predates the tiles; that is a
	// schema evolution gap, not an error.
	s := schema.NewSchema(
		&schema.Field{Name: "a", Type: datatype.Int64, CellValNum: datatype.CellValNumSingle},
		&schema.Field{Name: "added_later", Type: datatype.Float32, CellValNum: datatype.CellValNumSingle},
	)
	tiles := tile.NewSet(3)
	tiles.Put("a", &tile.Tile{Fixed: encodeInt64s(1, 2, 3)})

	batch, err := MaterializeTiles(mustProject(t, s), tiles)
	require.NoError(t, err)

	col := batch.Column("added_later")
	require.NotNil(t, col)
	require.Equal(t, 3, col.Length)
	for i := 0; i < 3; i++ {
		assert.True(t, col.Nulls.IsNull(i), "row %d must be null", i)
	}
}

func TestMaterializeLargeString(t *testing.T) {
	s := schema.NewSchema(&schema.Field{
		Name: "name", Type: datatype.StringUTF8, CellValNum: datatype.CellValNumVar,
	})
	tiles := tile.NewSet(3)
	tiles.Put("name", &tile.Tile{
		Fixed: encodeByteOffsets(0, 3, 3),
		Var:   []byte("fooquux"),
	})

	batch, err := MaterializeTiles(mustProject(t, s), tiles)
	require.NoError(t, err)

	col := batch.Column("name")
	require.Equal(t, 3, col.Length)
	assert.Equal(t, "foo", string(col.BytesAt(0)))
	assert.Equal(t, "", string(col.BytesAt(1)))
	assert.Equal(t, "quux", string(col.BytesAt(2)))
}

func TestMaterializeFixedList(t *testing.T) {
	s := schema.NewSchema(&schema.Field{
		Name: "pos", Type: datatype.Float32, CellValNum: datatype.CellValNum(2),
	})
	tiles := tile.NewSet(2)
	tiles.Put("pos", &tile.Tile{Fixed: encodeFloat32s(1, 2, 3, 4)})

	batch, err := MaterializeTiles(mustProject(t, s), tiles)
	require.NoError(t, err)

	col := batch.Column("pos")
	require.Equal(t, 2, col.Length)
	lo, hi := col.ListBounds(1)
	assert.Equal(t, int64(2), lo)
	assert.Equal(t, int64(4), hi)
	assert.Equal(t, 3.0, col.Values.Float64At(2))
}

func TestMaterializeVarList(t *testing.T) {
	s := schema.NewSchema(&schema.Field{
		Name: "samples", Type: datatype.Int32, CellValNum: datatype.CellValNumVar,
	})
	tiles := tile.NewSet(2)
	tiles.Put("samples", &tile.Tile{
		Fixed: encodeByteOffsets(0, 12),
		Var:   encodeInt32s(7, 8, 9, 10),
	})

	batch, err := MaterializeTiles(mustProject(t, s), tiles)
	require.NoError(t, err)

	col := batch.Column("samples")
	require.Equal(t, 2, col.Length)
	lo, hi := col.ListBounds(0)
	assert.Equal(t, int64(0), lo)
	assert.Equal(t, int64(3), hi)
	assert.Equal(t, int64(10), col.Values.Int64At(3))
}

func TestMaterializeUnalignedBuffer(t *testing.T) {
	s := schema.NewSchema(&schema.Field{Name: "a", Type: datatype.Int64, CellValNum: datatype.CellValNumSingle})
	tiles := tile.NewSet(1)
	tiles.Put("a", &tile.Tile{Fixed: []byte{1, 2, 3}})

	_, err := MaterializeTiles(mustProject(t, s), tiles)
	var unaligned *UnalignedValuesError
	require.ErrorAs(t, err, &unaligned)
	assert.Equal(t, "a", unaligned.Field)
	assert.Equal(t, 3, unaligned.Size)
}

func TestMaterializeExpectedVarTile(t *testing.T) {
	s := schema.NewSchema(&schema.Field{
		Name: "name", Type: datatype.StringUTF8, CellValNum: datatype.CellValNumVar,
	})
	tiles := tile.NewSet(1)
	tiles.Put("name", &tile.Tile{Fixed: encodeByteOffsets(0)})

	_, err := MaterializeTiles(mustProject(t, s), tiles)
	var expectedVar *ExpectedVarTileError
	require.ErrorAs(t, err, &expectedVar)
	assert.Equal(t, "name", expectedVar.Field)
}

func TestMaterializeCompressedTile(t *testing.T) {
	raw := encodeInt64s(5, 6, 7)
	compressed, err := tile.Compress(tile.CompressionZstd, raw)
	require.NoError(t, err)

	s := schema.NewSchema(&schema.Field{Name: "a", Type: datatype.Int64, CellValNum: datatype.CellValNumSingle})
	tiles := tile.NewSet(3)
	tiles.Put("a", &tile.Tile{Fixed: compressed, Codec: tile.CompressionZstd})

	batch, err := MaterializeTiles(mustProject(t, s), tiles)
	require.NoError(t, err)
	assert.Equal(t, []int64{5, 6, 7}, batch.Column("a").Data)
}

func TestBatchRowCountMismatchPanics(t *testing.T) {
	fields := []schema.ColumnField{{
		Name: "a",
		Type: schema.ColumnType{Kind: schema.KindPrimitive, Elem: datatype.Int64},
	}}
	short := &Vector{Type: fields[0].Type, Data: []int64{1, 2}, Length: 2}

	require.Panics(t, func() {
		NewBatch(fields, []*Vector{short}, 3)
	})
}
