package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"tilequery/condition"
	"tilequery/datatype"
	"tilequery/schema"
	"tilequery/vectorized"
)

func main() {
	var (
		file      = flag.String("file", "", "Path or URL of the parquet file to filter")
		where     = flag.String("where", "", "SQL WHERE clause to apply")
		batchSize = flag.Int("batch", vectorized.DefaultBatchSize, "Rows per batch")
		limit     = flag.Int("limit", 20, "Maximum matching rows to print, 0 for all")
	)
	flag.Parse()

	if *file == "" {
		fmt.Println("Usage: tilequery -file <data.parquet> [-where <clause>]")
		fmt.Println("Examples:")
		fmt.Println("  tilequery -file employees.parquet -where \"salary >= 70000 AND department = 'Engineering'\"")
		fmt.Println("  tilequery -file https://example.com/events.parquet -where \"name IN ('click', 'view')\"")
		flag.PrintDefaults()
		os.Exit(1)
	}

	src, err := vectorized.NewParquetBatchSource(*file, *batchSize)
	if err != nil {
		log.Fatalf("Failed to open parquet source: %v", err)
	}
	defer src.Close()

	proj := &schema.Projection{Fields: src.Fields()}
	pred, err := compilePredicate(proj, *where)
	if err != nil {
		log.Fatalf("Failed to compile predicate: %v", err)
	}

	printed := 0
	matched := int64(0)
	scanned := int64(0)
	base := uint32(0)
	for {
		batch, err := src.Next()
		if err != nil {
			log.Fatalf("Failed to read batch: %v", err)
		}
		if batch == nil {
			break
		}
		scanned += int64(batch.RowCount)

		result, err := pred.Evaluate(batch)
		if err != nil {
			log.Fatalf("Failed to evaluate predicate: %v", err)
		}
		selected := result.SelectionBitmap()
		matched += int64(selected.GetCardinality())

		it := selected.Iterator()
		for it.HasNext() {
			row := int(it.Next())
			if *limit == 0 || printed < *limit {
				printRow(batch, base+uint32(row), row)
				printed++
			}
		}
		base += uint32(batch.RowCount)
	}

	fmt.Printf("\n%d of %d rows matched\n", matched, scanned)
}

func compilePredicate(proj *schema.Projection, where string) (*vectorized.CompiledPredicate, error) {
	if where == "" {
		return vectorized.NewFilterBuilder().Compile(proj)
	}

	s := schemaFromProjection(proj)
	node, err := condition.ParseWhere(s, where)
	if err != nil {
		return nil, err
	}
	expr, err := condition.Translate(s, node)
	if err != nil {
		return nil, err
	}
	return vectorized.Compile(expr, proj)
}

// schemaFromProjection rebuilds field descriptors so the WHERE clause can
// be translated against the file's columns.
func schemaFromProjection(proj *schema.Projection) *schema.Schema {
	fields := make([]*schema.Field, 0, len(proj.Fields))
	for _, cf := range proj.Fields {
		fields = append(fields, &schema.Field{
			Name:       cf.Name,
			Type:       cf.Type.Elem,
			CellValNum: cf.CellValNum,
			Nullable:   cf.Nullable,
		})
	}
	return schema.NewSchema(fields...)
}

func printRow(batch *vectorized.Batch, rowNumber uint32, row int) {
	parts := make([]string, 0, len(batch.Fields))
	for i, field := range batch.Fields {
		parts = append(parts, fmt.Sprintf("%s=%s", field.Name, formatValue(batch.Columns[i], row)))
	}
	fmt.Printf("%8d  %s\n", rowNumber, strings.Join(parts, "  "))
}

func formatValue(col *vectorized.Vector, row int) string {
	if col.Nulls.IsNull(row) {
		return "NULL"
	}
	switch col.Type.Kind {
	case schema.KindLargeString:
		return fmt.Sprintf("%q", col.BytesAt(row))
	case schema.KindPrimitive:
		elem := col.Type.Elem
		switch {
		case elem.IsSignedInt():
			return fmt.Sprintf("%d", col.Int64At(row))
		case elem.IsUnsignedInt():
			return fmt.Sprintf("%d", col.UInt64At(row))
		case elem.IsFloat():
			return fmt.Sprintf("%g", col.Float64At(row))
		case elem == datatype.Bool:
			return fmt.Sprintf("%t", col.BoolAt(row))
		case elem.IsString():
			return fmt.Sprintf("%q", rune(col.UInt64At(row)))
		}
	}
	return "?"
}
