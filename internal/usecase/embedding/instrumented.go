// Package embedding holds the encoder decorators that sit between the search
// service and the provider transport.
package embedding

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/prodsearch/internal/domain"
)

// DefaultMaxBatchSize is the largest number of texts sent in one provider request.
const DefaultMaxBatchSize = 256

// InstrumentedEncoder splits large inputs into provider-sized chunks, checks the
// shape of every response and logs each call.
// Transport metrics (requests, duration, tokens) are recorded in transport/openai.
type InstrumentedEncoder struct {
	inner     domain.Encoder
	provider  string
	model     string
	dim       int
	batchSize int
	logger    *zap.Logger
}

// NewInstrumentedEncoder wraps an encoder. dim > 0 enforces the vector dimension;
// batchSize <= 0 uses DefaultMaxBatchSize.
func NewInstrumentedEncoder(
	inner domain.Encoder, provider, model string, dim, batchSize int, logger *zap.Logger,
) *InstrumentedEncoder {
	if batchSize <= 0 {
		batchSize = DefaultMaxBatchSize
	}
	return &InstrumentedEncoder{
		inner:     inner,
		provider:  provider,
		model:     model,
		dim:       dim,
		batchSize: batchSize,
		logger:    logger,
	}
}

// Encode encodes texts chunk by chunk and concatenates the vectors in input order.
func (e *InstrumentedEncoder) Encode(ctx context.Context, texts []string) (domain.EncodingResult, error) {
	if len(texts) == 0 {
		return domain.EncodingResult{}, nil
	}
	start := time.Now()

	out := domain.EncodingResult{Vectors: make([][]float32, 0, len(texts))}
	for offset := 0; offset < len(texts); offset += e.batchSize {
		end := min(offset+e.batchSize, len(texts))
		chunk := texts[offset:end]

		res, err := e.inner.Encode(ctx, chunk)
		if err != nil {
			e.logger.Error("Encoder request failed",
				zap.String("provider", e.provider),
				zap.String("model", e.model),
				zap.Int("chunk_offset", offset),
				zap.Int("chunk_size", len(chunk)),
				zap.Error(err),
			)
			return domain.EncodingResult{}, fmt.Errorf("encode chunk at %d: %w", offset, err)
		}
		if err := e.check(res, len(chunk)); err != nil {
			return domain.EncodingResult{}, err
		}

		out.Vectors = append(out.Vectors, res.Vectors...)
		out.PromptTokens += res.PromptTokens
		out.TotalTokens += res.TotalTokens
	}

	e.logger.Debug("Encoding completed",
		zap.String("provider", e.provider),
		zap.String("model", e.model),
		zap.Duration("duration", time.Since(start)),
		zap.Int("texts", len(texts)),
		zap.Int("prompt_tokens", out.PromptTokens),
		zap.Int("total_tokens", out.TotalTokens),
	)
	return out, nil
}

func (e *InstrumentedEncoder) check(res domain.EncodingResult, want int) error {
	if len(res.Vectors) != want {
		return fmt.Errorf("%w: provider returned %d vectors for %d texts",
			domain.ErrEncoderError, len(res.Vectors), want)
	}
	if e.dim <= 0 {
		return nil
	}
	for _, v := range res.Vectors {
		if len(v) != e.dim {
			return fmt.Errorf("%w: %w", domain.ErrEncoderError, domain.NewDimensionMismatch(e.model, e.dim, len(v)))
		}
	}
	return nil
}
