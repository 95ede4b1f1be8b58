package prodsearch

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	catalogPath  string
	catalogLimit int
	items        []Item

	artifactDir string
	spaces      []Weight

	fields                 []Weight
	truncateAfterAggregate bool

	encoder Encoder

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithCatalogFile loads the catalog from a .csv, .csv.zip or .parquet file.
func WithCatalogFile(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.catalogPath = path
	})
}

// WithCatalogLimit keeps only the first n catalog rows. 0 keeps all.
func WithCatalogLimit(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.catalogLimit = n
	})
}

// WithItems uses an in-memory catalog instead of a file.
func WithItems(items ...Item) Option {
	return optionFunc(func(c *clientConfig) {
		c.items = append(c.items, items...)
	})
}

// WithArtifacts loads vector spaces from dir. With no spaces listed, every known
// mode (cls, mean, max) present in dir is loaded at weight 1; listed spaces must exist.
func WithArtifacts(dir string, spaces ...Weight) Option {
	return optionFunc(func(c *clientConfig) {
		c.artifactDir = dir
		c.spaces = spaces
	})
}

// WithFields sets the default sparse field weights, in scan order.
// Defaults: product_title 1.0, product_brand 0.6, product_color 0.4, product_bullet_point 0.2.
func WithFields(fields ...Weight) Option {
	return optionFunc(func(c *clientConfig) {
		c.fields = fields
	})
}

// WithTruncateAfterAggregate makes sparse queries consider every field match
// and truncate only the aggregated list.
func WithTruncateAfterAggregate() Option {
	return optionFunc(func(c *clientConfig) {
		c.truncateAfterAggregate = true
	})
}

// WithEncoder sets the query encoder used for dense text queries.
func WithEncoder(e Encoder) Option {
	return optionFunc(func(c *clientConfig) {
		c.encoder = e
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
