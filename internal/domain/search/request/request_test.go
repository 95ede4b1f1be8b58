package request

import (
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/prodsearch/internal/domain"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/mode"
)

func TestNew_Defaults(t *testing.T) {
	r, err := New(Params{Query: "red shoes"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Mode() != mode.Sparse {
		t.Errorf("Mode() = %q, want sparse (default)", r.Mode())
	}
	if r.TopK() != DefaultTopK {
		t.Errorf("TopK() = %d, want %d", r.TopK(), DefaultTopK)
	}
	if r.PerFieldLimit() != DefaultTopK {
		t.Errorf("PerFieldLimit() = %d, want topK", r.PerFieldLimit())
	}
	if !r.Aggregate() {
		t.Error("Aggregate() = false, want true")
	}
	if r.TruncateAfterAggregate() {
		t.Error("TruncateAfterAggregate() = true, want false")
	}
	if r.FieldWeights() != nil || r.SpaceWeights() != nil {
		t.Error("expected nil weight overrides")
	}
}

func TestNew_VectorImpliesDense(t *testing.T) {
	r, err := New(Params{Vector: []float32{1, 0}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Mode() != mode.Dense {
		t.Errorf("Mode() = %q, want dense", r.Mode())
	}
}

func TestNew_Validation(t *testing.T) {
	off := false
	tests := []struct {
		name    string
		params  Params
		wantErr bool
	}{
		{"empty query is valid", Params{}, false},
		{"query too long", Params{Query: strings.Repeat("a", MaxQueryLength+1)}, true},
		{"invalid mode", Params{Query: "x", Mode: "hybrid"}, true},
		{"vector in sparse mode", Params{Vector: []float32{1}, Mode: mode.Sparse}, true},
		{"negative topK", Params{Query: "x", TopK: -1}, true},
		{"negative per field limit", Params{Query: "x", PerFieldLimit: -3}, true},
		{"aggregate off", Params{Query: "x", Aggregate: &off}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.params)
			if (err != nil) != tc.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestNew_NegativeTopKIsInvalidTopK(t *testing.T) {
	_, err := New(Params{Query: "x", TopK: -5})
	if !errors.Is(err, domain.ErrInvalidTopK) {
		t.Errorf("expected ErrInvalidTopK, got %v", err)
	}
}

func TestNew_ClampsTopK(t *testing.T) {
	r, err := New(Params{Query: "x", TopK: MaxTopK + 100, PerFieldLimit: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.TopK() != MaxTopK {
		t.Errorf("TopK() = %d, want %d", r.TopK(), MaxTopK)
	}
	if r.PerFieldLimit() != 3 {
		t.Errorf("PerFieldLimit() = %d, want 3", r.PerFieldLimit())
	}
}

func TestTokens(t *testing.T) {
	tests := []struct {
		query string
		want  []string
	}{
		{"shoes Acme", []string{"shoes", "Acme"}},
		{"  red \t shoes\n", []string{"red", "shoes"}},
		{"", nil},
		{"   ", nil},
	}
	for _, tc := range tests {
		r, _ := New(Params{Query: tc.query})
		got := r.Tokens()
		if len(got) != len(tc.want) {
			t.Fatalf("Tokens(%q) = %q, want %q", tc.query, got, tc.want)
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("Tokens(%q)[%d] = %q, want %q", tc.query, i, got[i], tc.want[i])
			}
		}
	}
}
