package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"

	"github.com/kailas-cloud/prodsearch/internal/domain/item"
)

const parquetBatch = 1000

// readParquet streams rows through the generic row reader. Only top-level
// scalar columns are read; nested columns are skipped.
func readParquet(ctx context.Context, path string, limit int) ([]item.Item, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat: %w", err)
	}
	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("open parquet: %w", err)
	}

	names := columnNames(pf)
	if !hasIDColumn(names) {
		return nil, fmt.Errorf("parquet schema has no product_id column")
	}

	var items []item.Item
	n := 0
	for _, rg := range pf.RowGroups() {
		rows := parquet.NewRowGroupReader(rg)
		buf := make([]parquet.Row, parquetBatch)
		for {
			cnt, readErr := rows.ReadRows(buf)
			for i := 0; i < cnt; i++ {
				n++
				if err := checkContext(ctx, n); err != nil {
					return nil, err
				}
				it, err := rowItem(parquetRow(buf[i], names))
				if err != nil {
					return nil, fmt.Errorf("row %d: %w", n, err)
				}
				items = append(items, it)
				if limit > 0 && len(items) >= limit {
					return items, nil
				}
			}
			if readErr != nil {
				if errors.Is(readErr, io.EOF) {
					break
				}
				return nil, fmt.Errorf("read rows: %w", readErr)
			}
		}
	}
	return items, nil
}

// columnNames maps leaf column indexes to names; nested leaves get "".
func columnNames(pf *parquet.File) []string {
	paths := pf.Schema().Columns()
	names := make([]string, len(paths))
	for i, path := range paths {
		if len(path) == 1 {
			names[i] = path[0]
		}
	}
	return names
}

func parquetRow(row parquet.Row, names []string) map[string]string {
	out := make(map[string]string, len(names))
	for _, v := range row {
		col := v.Column()
		if col < 0 || col >= len(names) || names[col] == "" || v.IsNull() {
			continue
		}
		out[names[col]] = v.String()
	}
	return out
}
