package domain

import (
	"context"
	"errors"
	"testing"
)

type stubEncoder struct {
	result EncodingResult
	err    error
	got    []string
}

func (s *stubEncoder) Encode(_ context.Context, texts []string) (EncodingResult, error) {
	s.got = texts
	return s.result, s.err
}

func TestInstructionEncoder_PrependsInstruction(t *testing.T) {
	inner := &stubEncoder{result: EncodingResult{Vectors: [][]float32{{0.1}, {0.2}}}}
	enc := NewInstructionEncoder(inner, "query: ")

	res, err := enc.Encode(context.Background(), []string{"red shoes", "blue shoes"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.got[0] != "query: red shoes" || inner.got[1] != "query: blue shoes" {
		t.Errorf("expected prefixed texts, got %q", inner.got)
	}
	if len(res.Vectors) != 2 {
		t.Errorf("expected 2 vectors, got %d", len(res.Vectors))
	}
}

func TestInstructionEncoder_ErrorPropagation(t *testing.T) {
	innerErr := errors.New("provider down")
	enc := NewInstructionEncoder(&stubEncoder{err: innerErr}, "query: ")

	_, err := enc.Encode(context.Background(), []string{"hello"})
	if !errors.Is(err, innerErr) {
		t.Errorf("expected wrapped inner error, got %v", err)
	}
}

func TestEncodeOne(t *testing.T) {
	t.Run("single vector", func(t *testing.T) {
		inner := &stubEncoder{result: EncodingResult{Vectors: [][]float32{{1, 0}}, TotalTokens: 3}}
		vec, tokens, err := EncodeOne(context.Background(), inner, "shoes")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(vec) != 2 || tokens != 3 {
			t.Errorf("got vec=%v tokens=%d", vec, tokens)
		}
	})

	t.Run("wrong vector count", func(t *testing.T) {
		inner := &stubEncoder{result: EncodingResult{}}
		_, _, err := EncodeOne(context.Background(), inner, "shoes")
		if !errors.Is(err, ErrEncoderError) {
			t.Errorf("expected ErrEncoderError, got %v", err)
		}
	})
}

func TestDimensionError(t *testing.T) {
	err := NewDimensionMismatch("cls", 768, 3)
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Fatal("expected errors.Is ErrDimensionMismatch")
	}
	var de *DimensionError
	if !errors.As(err, &de) {
		t.Fatal("expected *DimensionError")
	}
	if de.Expected != 768 || de.Actual != 3 {
		t.Errorf("unexpected dims: %+v", de)
	}
	want := `vector dimension mismatch: space "cls" expects 768, got 3`
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}
