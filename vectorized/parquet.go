package vectorized

import (
	"fmt"
	"io"
	"net/url"
	"os"

	"github.com/parquet-go/parquet-go"
	"howett.net/ranger"

	"tilequery/common"
	"tilequery/datatype"
	"tilequery/schema"
)

// DefaultBatchSize is the row count of batches read from parquet sources.
const DefaultBatchSize = 1024

// ParquetBatchSource streams a parquet file as columnar batches, so
// compiled predicates can run against file-backed data the same way they
// run against materialized tiles. Local paths and HTTP(S) URLs are both
// supported; remote files are read with range requests.
type ParquetBatchSource struct {
	path      string
	file      *parquet.File
	rows      *parquet.Reader
	fields    []schema.ColumnField
	batchSize int
	closer    io.Closer
	buf       []parquet.Row
}

// NewParquetBatchSource opens a parquet file or URL for batch reading.
func NewParquetBatchSource(path string, batchSize int) (*ParquetBatchSource, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	var file *parquet.File
	var closer io.Closer
	var err error
	if isHTTPURL(path) {
		file, err = openHTTPParquet(path)
	} else {
		file, closer, err = openLocalParquet(path)
	}
	if err != nil {
		return nil, err
	}

	fields, err := fieldsFromParquetSchema(file.Schema())
	if err != nil {
		if closer != nil {
			closer.Close()
		}
		return nil, err
	}

	common.GetTracer().Info(common.TraceComponentParquet, "Opened parquet batch source", common.TraceContext(
		"path", path,
		"rows", file.NumRows(),
		"row_groups", len(file.RowGroups()),
		"fields", len(fields),
	))

	return &ParquetBatchSource{
		path:      path,
		file:      file,
		rows:      parquet.NewReader(file),
		fields:    fields,
		batchSize: batchSize,
		closer:    closer,
		buf:       make([]parquet.Row, batchSize),
	}, nil
}

func isHTTPURL(path string) bool {
	u, err := url.Parse(path)
	if err != nil {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

func openLocalParquet(path string) (*parquet.File, io.Closer, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}
	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, nil, fmt.Errorf("failed to get file stats: %w", err)
	}
	reader, err := parquet.OpenFile(file, stat.Size())
	if err != nil {
		file.Close()
		return nil, nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	return reader, file, nil
}

func openHTTPParquet(urlStr string) (*parquet.File, error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	httpRanger := &ranger.HTTPRanger{URL: parsedURL}
	reader, err := ranger.NewReader(httpRanger)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP reader: %w", err)
	}
	length, err := reader.Length()
	if err != nil {
		return nil, fmt.Errorf("failed to get HTTP content length: %w", err)
	}
	file, err := parquet.OpenFile(reader, length)
	if err != nil {
		return nil, fmt.Errorf("failed to open remote parquet file: %w", err)
	}
	return file, nil
}

// Fields returns the columnar shape of the file's schema.
func (s *ParquetBatchSource) Fields() []schema.ColumnField {
	return s.fields
}

// RowCount returns the total number of rows in the file.
func (s *ParquetBatchSource) RowCount() int64 {
	return s.file.NumRows()
}

// Next reads the next batch, or returns nil at end of file.
func (s *ParquetBatchSource) Next() (*Batch, error) {
	n, err := s.rows.ReadRows(s.buf)
	if n == 0 {
		if err == io.EOF || err == nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read rows from %s: %w", s.path, err)
	}
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read rows from %s: %w", s.path, err)
	}

	builders := make([]*columnBuilder, len(s.fields))
	for i := range s.fields {
		builders[i] = newColumnBuilder(s.fields[i].Type, n)
	}
	for rowIdx, row := range s.buf[:n] {
		for _, value := range row {
			ci := value.Column()
			if ci < 0 || ci >= len(builders) {
				return nil, fmt.Errorf("row %d references column %d outside schema", rowIdx, ci)
			}
			builders[ci].append(value)
		}
	}

	columns := make([]*Vector, len(builders))
	for i, b := range builders {
		columns[i] = b.finish()
	}
	return NewBatch(s.fields, columns, n), nil
}

// Close releases the underlying file handle, if any.
func (s *ParquetBatchSource) Close() error {
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

// fieldsFromParquetSchema maps the file's leaf fields onto columnar field
// types. Byte arrays surface as large strings; every column is nullable
// since optional leaves carry definition levels.
func fieldsFromParquetSchema(ps *parquet.Schema) ([]schema.ColumnField, error) {
	fields := make([]schema.ColumnField, 0, len(ps.Fields()))
	for _, f := range ps.Fields() {
		if !f.Leaf() {
			return nil, fmt.Errorf("nested parquet field %q is not supported", f.Name())
		}
		var ct schema.ColumnType
		switch f.Type().Kind() {
		case parquet.Boolean:
			ct = schema.ColumnType{Kind: schema.KindPrimitive, Elem: datatype.Bool}
		case parquet.Int32:
			ct = schema.ColumnType{Kind: schema.KindPrimitive, Elem: datatype.Int32}
		case parquet.Int64:
			ct = schema.ColumnType{Kind: schema.KindPrimitive, Elem: datatype.Int64}
		case parquet.Float:
			ct = schema.ColumnType{Kind: schema.KindPrimitive, Elem: datatype.Float32}
		case parquet.Double:
			ct = schema.ColumnType{Kind: schema.KindPrimitive, Elem: datatype.Float64}
		case parquet.ByteArray, parquet.FixedLenByteArray:
			ct = schema.ColumnType{Kind: schema.KindLargeString, Elem: datatype.StringUTF8}
		default:
			return nil, fmt.Errorf("parquet field %q: unsupported kind %s", f.Name(), f.Type().Kind())
		}
		cvn := datatype.CellValNumSingle
		if ct.Kind == schema.KindLargeString {
			cvn = datatype.CellValNumVar
		}
		fields = append(fields, schema.ColumnField{
			Name:       f.Name(),
			Type:       ct,
			CellValNum: cvn,
			Nullable:   true,
		})
	}
	return fields, nil
}

// columnBuilder accumulates parquet values into one vector.
type columnBuilder struct {
	ct      schema.ColumnType
	length  int
	nulls   *NullMask
	rows    int
	data    interface{}
	bytes   []byte
	offsets []int64
}

func newColumnBuilder(ct schema.ColumnType, rows int) *columnBuilder {
	b := &columnBuilder{ct: ct, rows: rows}
	if ct.Kind == schema.KindLargeString {
		b.offsets = make([]int64, 1, rows+1)
	} else {
		b.data = newPrimitiveData(ct.Elem, rows)
	}
	return b
}

func (b *columnBuilder) append(v parquet.Value) {
	i := b.length
	b.length++

	if v.IsNull() {
		if b.nulls == nil {
			b.nulls = NewNullMask(b.rows)
		}
		b.nulls.SetNull(i)
		if b.ct.Kind == schema.KindLargeString {
			b.offsets = append(b.offsets, int64(len(b.bytes)))
		}
		return
	}

	switch b.ct.Kind {
	case schema.KindLargeString:
		b.bytes = append(b.bytes, v.ByteArray()...)
		b.offsets = append(b.offsets, int64(len(b.bytes)))
	default:
		switch out := b.data.(type) {
		case []bool:
			out[i] = v.Boolean()
		case []int32:
			out[i] = v.Int32()
		case []int64:
			out[i] = v.Int64()
		case []float32:
			out[i] = v.Float()
		case []float64:
			out[i] = v.Double()
		}
	}
}

func (b *columnBuilder) finish() *Vector {
	if b.ct.Kind == schema.KindLargeString {
		if b.bytes == nil {
			b.bytes = []byte{}
		}
		return &Vector{Type: b.ct, Data: b.bytes, Offsets: b.offsets, Nulls: b.nulls, Length: b.length}
	}
	return &Vector{Type: b.ct, Data: b.data, Nulls: b.nulls, Length: b.length}
}
