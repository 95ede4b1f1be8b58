package prodsearch

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/prodsearch/internal/domain"
)

// Encoder turns query texts into vectors of the dimension of the loaded spaces.
// It must return one vector per text, in input order.
type Encoder interface {
	Encode(ctx context.Context, texts []string) (EncodingResult, error)
}

// EncodingResult carries the vectors and token usage of one Encode call.
type EncodingResult struct {
	Vectors     [][]float32
	TotalTokens int
}

// encoderAdapter wraps the public Encoder to satisfy domain.Encoder.
type encoderAdapter struct {
	inner Encoder
}

func (a *encoderAdapter) Encode(ctx context.Context, texts []string) (domain.EncodingResult, error) {
	r, err := a.inner.Encode(ctx, texts)
	if err != nil {
		return domain.EncodingResult{}, fmt.Errorf("%w: %w", domain.ErrEncoderError, err)
	}
	return domain.EncodingResult{Vectors: r.Vectors, TotalTokens: r.TotalTokens}, nil
}
