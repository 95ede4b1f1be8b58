package embedding

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/prodsearch/internal/domain"
)

type mockEncoder struct {
	dim    int
	err    error
	short  bool // return one vector fewer than asked
	calls  [][]string
	tokens int // per text
}

func (m *mockEncoder) Encode(_ context.Context, texts []string) (domain.EncodingResult, error) {
	m.calls = append(m.calls, texts)
	if m.err != nil {
		return domain.EncodingResult{}, m.err
	}
	n := len(texts)
	if m.short {
		n--
	}
	vecs := make([][]float32, n)
	for i := range vecs {
		vecs[i] = make([]float32, m.dim)
		vecs[i][0] = float32(len(texts[i]))
	}
	return domain.EncodingResult{Vectors: vecs, PromptTokens: m.tokens * len(texts), TotalTokens: m.tokens * len(texts)}, nil
}

func texts(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("text-%d", i)
	}
	return out
}

func TestInstrumentedEncoder_Chunks(t *testing.T) {
	inner := &mockEncoder{dim: 4, tokens: 1}
	e := NewInstrumentedEncoder(inner, "test", "test-model", 4, 3, zap.NewNop())

	res, err := e.Encode(context.Background(), texts(7))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(inner.calls) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(inner.calls))
	}
	if len(inner.calls[2]) != 1 || inner.calls[2][0] != "text-6" {
		t.Errorf("last chunk = %v", inner.calls[2])
	}
	if len(res.Vectors) != 7 || res.TotalTokens != 7 {
		t.Errorf("vectors=%d tokens=%d", len(res.Vectors), res.TotalTokens)
	}
}

func TestInstrumentedEncoder_Empty(t *testing.T) {
	inner := &mockEncoder{dim: 2}
	e := NewInstrumentedEncoder(inner, "test", "m", 0, 0, zap.NewNop())

	res, err := e.Encode(context.Background(), nil)
	if err != nil || len(res.Vectors) != 0 || len(inner.calls) != 0 {
		t.Errorf("Encode(nil) = %+v, %v, calls=%d", res, err, len(inner.calls))
	}
}

func TestInstrumentedEncoder_InnerError(t *testing.T) {
	inner := &mockEncoder{err: fmt.Errorf("rate limited: %w", domain.ErrEncoderError)}
	e := NewInstrumentedEncoder(inner, "test", "m", 0, 0, zap.NewNop())

	if _, err := e.Encode(context.Background(), texts(1)); !errors.Is(err, domain.ErrEncoderError) {
		t.Errorf("expected ErrEncoderError, got %v", err)
	}
}

func TestInstrumentedEncoder_ShapeChecks(t *testing.T) {
	t.Run("missing vectors", func(t *testing.T) {
		e := NewInstrumentedEncoder(&mockEncoder{dim: 2, short: true}, "test", "m", 0, 0, zap.NewNop())
		if _, err := e.Encode(context.Background(), texts(2)); !errors.Is(err, domain.ErrEncoderError) {
			t.Errorf("expected ErrEncoderError, got %v", err)
		}
	})
	t.Run("wrong dimension", func(t *testing.T) {
		e := NewInstrumentedEncoder(&mockEncoder{dim: 3}, "test", "m", 4, 0, zap.NewNop())
		_, err := e.Encode(context.Background(), texts(1))
		if !errors.Is(err, domain.ErrEncoderError) || !errors.Is(err, domain.ErrDimensionMismatch) {
			t.Errorf("expected encoder + dimension errors, got %v", err)
		}
	})
}

func TestCachedEncoder_HitsSkipInner(t *testing.T) {
	inner := &mockEncoder{dim: 2, tokens: 5}
	c, err := NewCachedEncoder(inner, "m", 8, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first, err := c.Encode(context.Background(), []string{"red shoes"})
	if err != nil || first.TotalTokens != 5 {
		t.Fatalf("first = %+v, %v", first, err)
	}
	second, err := c.Encode(context.Background(), []string{"red shoes"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(inner.calls) != 1 {
		t.Errorf("expected 1 inner call, got %d", len(inner.calls))
	}
	if second.TotalTokens != 0 || second.Vectors[0][0] != 9 {
		t.Errorf("second = %+v", second)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d", c.Len())
	}
}

func TestCachedEncoder_MixedBatchKeepsOrder(t *testing.T) {
	inner := &mockEncoder{dim: 1}
	c, _ := NewCachedEncoder(inner, "m", 8, nil)

	_, _ = c.Encode(context.Background(), []string{"bb"})
	res, err := c.Encode(context.Background(), []string{"a", "bb", "cccc"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := inner.calls[1]; len(got) != 2 || got[0] != "a" || got[1] != "cccc" {
		t.Fatalf("second inner call = %v", got)
	}
	for i, want := range []float32{1, 2, 4} {
		if res.Vectors[i][0] != want {
			t.Errorf("vector %d = %v, want %v", i, res.Vectors[i][0], want)
		}
	}
}

func TestCachedEncoder_Evicts(t *testing.T) {
	inner := &mockEncoder{dim: 1}
	c, _ := NewCachedEncoder(inner, "m", 2, nil)

	for _, txt := range []string{"a", "b", "c"} {
		_, _ = c.Encode(context.Background(), []string{txt})
	}
	_, _ = c.Encode(context.Background(), []string{"a"})
	if len(inner.calls) != 4 {
		t.Errorf("expected evicted entry to be re-encoded, calls=%d", len(inner.calls))
	}
}

func TestCachedEncoder_ErrorNotCached(t *testing.T) {
	inner := &mockEncoder{err: domain.ErrEncoderError}
	c, _ := NewCachedEncoder(inner, "m", 0, nil)

	if _, err := c.Encode(context.Background(), []string{"x"}); !errors.Is(err, domain.ErrEncoderError) {
		t.Fatalf("expected ErrEncoderError, got %v", err)
	}
	if c.Len() != 0 {
		t.Error("failed encodes must not be cached")
	}
}
