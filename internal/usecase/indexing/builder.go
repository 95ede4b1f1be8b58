// Package indexing encodes catalog items into a vector space artifact.
package indexing

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/prodsearch/internal/domain"
	"github.com/kailas-cloud/prodsearch/internal/domain/item"
	"github.com/kailas-cloud/prodsearch/internal/domain/vectorspace"
	"github.com/kailas-cloud/prodsearch/internal/logger"
)

// Defaults for Options.
const (
	DefaultBatchSize   = 128
	DefaultConcurrency = 4
)

// Options controls a space build.
type Options struct {
	// Field is the item field to encode (default item.FieldTitle).
	Field       string
	BatchSize   int
	Concurrency int
}

// Stats summarizes a build.
type Stats struct {
	Encoded  int
	Skipped  int // items without a value in Field
	Tokens   int
	Duration time.Duration
}

// Build encodes the Field of every item in catalog order and returns the space
// named spaceID. Items without the field are left out of the space.
// Batches run concurrently; any failed batch fails the build.
func Build(
	ctx context.Context, enc domain.Encoder, spaceID string, items []item.Item, opts Options,
) (*vectorspace.Space, Stats, error) {
	start := time.Now()
	opts = withDefaults(opts)

	ids := make([]string, 0, len(items))
	texts := make([]string, 0, len(items))
	for i := range items {
		v, ok := items[i].Field(opts.Field)
		if !ok || v == "" {
			continue
		}
		ids = append(ids, items[i].ID())
		texts = append(texts, v)
	}
	stats := Stats{Skipped: len(items) - len(ids)}

	nBatches := (len(texts) + opts.BatchSize - 1) / opts.BatchSize
	vectors := make([][]float32, len(texts))
	tokens := make([]int, nBatches)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)
	for b := range nBatches {
		lo := b * opts.BatchSize
		hi := min(lo+opts.BatchSize, len(texts))
		g.Go(func() error {
			res, err := enc.Encode(gctx, texts[lo:hi])
			if err != nil {
				return fmt.Errorf("batch %d: %w", b, err)
			}
			if len(res.Vectors) != hi-lo {
				return fmt.Errorf("batch %d: %w: %d vectors for %d texts",
					b, domain.ErrEncoderError, len(res.Vectors), hi-lo)
			}
			copy(vectors[lo:hi], res.Vectors)
			tokens[b] = res.TotalTokens
			logger.FromContext(gctx).Debug("batch encoded", zap.Int("batch", b), zap.Int("texts", hi-lo))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, stats, fmt.Errorf("encode %s: %w", spaceID, err)
	}

	sp, err := vectorspace.New(spaceID, ids, vectors)
	if err != nil {
		return nil, stats, fmt.Errorf("build space %s: %w", spaceID, err)
	}
	stats.Encoded = len(ids)
	for _, t := range tokens {
		stats.Tokens += t
	}
	stats.Duration = time.Since(start)
	return sp, stats, nil
}

func withDefaults(o Options) Options {
	if o.Field == "" {
		o.Field = item.FieldTitle
	}
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	return o
}
