package vectorized

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tilequery/datatype"
	"tilequery/logical"
	"tilequery/schema"
)

type parquetRow struct {
	ID    int64   `parquet:"id"`
	Name  string  `parquet:"name"`
	Score float64 `parquet:"score"`
}

func writeParquetFixture(t *testing.T, rows []parquetRow) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.parquet")
	f, err := os.Create(path)
	require.NoError(t, err)

	w := parquet.NewGenericWriter[parquetRow](f)
	_, err = w.Write(rows)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())
	return path
}

func TestParquetBatchSource(t *testing.T) {
	rows := []parquetRow{
		{1, "alice", 9.5},
		{2, "bob", 3.25},
		{3, "carol", 7.0},
		{4, "dave", 1.5},
		{5, "erin", 8.0},
		{6, "frank", 2.0},
		{7, "grace", 6.5},
	}
	path := writeParquetFixture(t, rows)

	src, err := NewParquetBatchSource(path, 4)
	require.NoError(t, err)
	defer src.Close()

	require.Equal(t, int64(len(rows)), src.RowCount())

	var fieldNames []string
	for _, f := range src.Fields() {
		fieldNames = append(fieldNames, f.Name)
	}
	assert.ElementsMatch(t, []string{"id", "name", "score"}, fieldNames)

	var got []parquetRow
	for {
		batch, err := src.Next()
		require.NoError(t, err)
		if batch == nil {
			break
		}
		require.LessOrEqual(t, batch.RowCount, 4)
		id := batch.Column("id")
		name := batch.Column("name")
		score := batch.Column("score")
		require.NotNil(t, id)
		require.NotNil(t, name)
		require.NotNil(t, score)
		for i := 0; i < batch.RowCount; i++ {
			got = append(got, parquetRow{
				ID:    id.Int64At(i),
				Name:  string(name.BytesAt(i)),
				Score: score.Float64At(i),
			})
		}
	}
	assert.Equal(t, rows, got)
}

func TestParquetBatchPredicate(t *testing.T) {
	rows := []parquetRow{
		{1, "alice", 9.5},
		{2, "bob", 3.25},
		{3, "carol", 7.0},
		{4, "dave", 1.5},
	}
	path := writeParquetFixture(t, rows)

	src, err := NewParquetBatchSource(path, len(rows))
	require.NoError(t, err)
	defer src.Close()

	proj := &schema.Projection{Fields: src.Fields()}
	expr := logical.NewBinary(logical.GtEq,
		logical.NewColumn("score"),
		logical.NewLiteral(logical.SingleScalar(datatype.Float64, float64(5))),
	)
	pred, err := Compile(expr, proj)
	require.NoError(t, err)

	batch, err := src.Next()
	require.NoError(t, err)
	require.NotNil(t, batch)

	result, err := pred.Evaluate(batch)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, true, false}, truthVector(result))
}
