package catalog

import (
	"archive/zip"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/kailas-cloud/prodsearch/internal/domain/item"
)

func readCSVFile(ctx context.Context, path string, limit int) ([]item.Item, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer func() { _ = f.Close() }()
	return readCSV(ctx, f, limit)
}

// readZippedCSV reads the first .csv entry of a zip archive.
func readZippedCSV(ctx context.Context, path string, limit int) ([]item.Item, error) {
	zr, err := zip.OpenReader(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	defer func() { _ = zr.Close() }()

	for _, zf := range zr.File {
		if zf.FileInfo().IsDir() || !strings.HasSuffix(strings.ToLower(zf.Name), ".csv") {
			continue
		}
		if strings.HasPrefix(filepath.Base(zf.Name), "._") {
			continue // macOS resource fork
		}
		rc, err := zf.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s in zip: %w", zf.Name, err)
		}
		defer func() { _ = rc.Close() }()
		return readCSV(ctx, rc, limit)
	}
	return nil, fmt.Errorf("no .csv entry in %s", path)
}

// readCSV parses a header row followed by item rows. A leading unnamed index column is ignored.
func readCSV(ctx context.Context, r io.Reader, limit int) ([]item.Item, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty csv: missing header")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := make([]string, len(header))
	for i, h := range header {
		cols[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	if !hasIDColumn(cols) {
		return nil, fmt.Errorf("csv header has no product_id column: %v", cols)
	}

	var items []item.Item
	for n := 1; limit <= 0 || len(items) < limit; n++ {
		if err := checkContext(ctx, n); err != nil {
			return nil, err
		}
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", n, err)
		}

		row := make(map[string]string, len(cols))
		for i, col := range cols {
			if col == "" || i >= len(rec) {
				continue
			}
			row[col] = rec[i]
		}
		it, err := rowItem(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", n, err)
		}
		items = append(items, it)
	}
	return items, nil
}
