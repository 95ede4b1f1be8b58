package domain

import (
	"context"
	"fmt"
)

// Encoder turns texts into fixed-dimension vectors. Deterministic for identical input.
type Encoder interface {
	Encode(ctx context.Context, texts []string) (EncodingResult, error)
}

// HealthChecker verifies encoder provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EncodingResult carries vectors (one per input text, same order) and token usage through the decorator chain.
type EncodingResult struct {
	Vectors      [][]float32
	PromptTokens int
	TotalTokens  int
}

// EncodeOne encodes a single text and returns its vector.
func EncodeOne(ctx context.Context, e Encoder, text string) ([]float32, int, error) {
	res, err := e.Encode(ctx, []string{text})
	if err != nil {
		return nil, 0, err
	}
	if len(res.Vectors) != 1 {
		return nil, 0, fmt.Errorf("expected 1 vector, got %d: %w", len(res.Vectors), ErrEncoderError)
	}
	return res.Vectors[0], res.TotalTokens, nil
}

// InstructionEncoder prepends an instruction prefix to every text before encoding.
type InstructionEncoder struct {
	inner       Encoder
	instruction string
}

// NewInstructionEncoder creates a decorator that prepends instruction text.
func NewInstructionEncoder(inner Encoder, instruction string) *InstructionEncoder {
	return &InstructionEncoder{inner: inner, instruction: instruction}
}

// Encode prepends the instruction and delegates to the inner encoder.
func (e *InstructionEncoder) Encode(ctx context.Context, texts []string) (EncodingResult, error) {
	prefixed := make([]string, len(texts))
	for i, t := range texts {
		prefixed[i] = e.instruction + t
	}
	res, err := e.inner.Encode(ctx, prefixed)
	if err != nil {
		return EncodingResult{}, fmt.Errorf("instruction encode: %w", err)
	}
	return res, nil
}
