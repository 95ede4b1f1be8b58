// Package catalog loads the product catalog from CSV, zipped CSV or Parquet files.
package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/kailas-cloud/prodsearch/internal/domain/item"
)

// ID column names, in lookup order.
var idColumns = []string{"product_id", "id"}

// Option configures Load.
type Option func(*options)

type options struct {
	limit int
}

// WithLimit keeps only the first n rows (n <= 0 keeps all).
func WithLimit(n int) Option {
	return func(o *options) { o.limit = n }
}

// Load reads a catalog file, choosing the format by extension:
// .csv, .csv.zip or .parquet. Row order is preserved; empty cells are absent values.
func Load(ctx context.Context, path string, opts ...Option) (*item.Catalog, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var (
		items []item.Item
		err   error
	)
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".csv.zip"), strings.HasSuffix(lower, ".zip"):
		items, err = readZippedCSV(ctx, path, o.limit)
	case strings.HasSuffix(lower, ".csv"):
		items, err = readCSVFile(ctx, path, o.limit)
	case strings.HasSuffix(lower, ".parquet"):
		items, err = readParquet(ctx, path, o.limit)
	default:
		return nil, fmt.Errorf("unsupported catalog format: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", path, err)
	}

	c, err := item.NewCatalog(items)
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", path, err)
	}
	return c, nil
}

// rowItem builds an item from one row keyed by column name.
// Columns with the "product_" prefix map onto the fixed attributes; others become extras.
func rowItem(row map[string]string) (item.Item, error) {
	var id string
	for _, col := range idColumns {
		if v := row[col]; v != "" {
			id = v
			break
		}
	}

	var attrs item.Attributes
	for col, v := range row {
		if v == "" || isIDColumn(col) {
			continue
		}
		switch strings.TrimPrefix(col, "product_") {
		case item.FieldTitle:
			attrs.Title = item.StringPtr(v)
		case item.FieldDescription:
			attrs.Description = item.StringPtr(v)
		case item.FieldBulletPoint:
			attrs.BulletPoint = item.StringPtr(v)
		case item.FieldBrand:
			attrs.Brand = item.StringPtr(v)
		case item.FieldColor:
			attrs.Color = item.StringPtr(v)
		case item.FieldLocale:
			attrs.Locale = item.StringPtr(v)
		default:
			if attrs.Extra == nil {
				attrs.Extra = make(map[string]string)
			}
			attrs.Extra[col] = v
		}
	}
	return item.New(id, attrs) //nolint:wrapcheck // caller adds row context
}

func isIDColumn(col string) bool {
	for _, c := range idColumns {
		if col == c {
			return true
		}
	}
	return false
}

func hasIDColumn(cols []string) bool {
	for _, c := range cols {
		if isIDColumn(c) {
			return true
		}
	}
	return false
}

func checkContext(ctx context.Context, row int) error {
	if row%4096 != 1 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("cancelled at row %d: %w", row, err)
	}
	return nil
}
