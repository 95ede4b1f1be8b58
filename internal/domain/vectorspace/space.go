// Package vectorspace holds immutable in-memory embedding spaces and exact
// dot-product scoring over them.
//
// Vectors are not normalized here. For cosine similarity the encoder must
// produce unit-length vectors.
package vectorspace

import (
	"fmt"
	"math"
	"regexp"

	"github.com/kailas-cloud/prodsearch/internal/domain"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/ranking"
)

var idRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// Representation modes produced by the encoder pooling strategies.
const (
	ModeCLS  = "cls"
	ModeMean = "mean"
	ModeMax  = "max"
)

// Space is one immutable collection of document vectors for a single representation mode.
// Safe for concurrent reads.
type Space struct {
	id     string
	dim    int
	ids    []string
	matrix []float32 // row-major, len(ids) × dim
}

// New validates and creates a Space. Rows are copied into one contiguous matrix.
// len(ids) != len(vectors) is ErrMalformedArtifact; a row whose length differs from
// the first row is ErrDimensionMismatch.
func New(id string, ids []string, vectors [][]float32) (*Space, error) {
	if !idRegex.MatchString(id) {
		return nil, fmt.Errorf("space ID %q must be 1-64 alphanumeric, underscore or hyphen characters", id)
	}
	if len(ids) != len(vectors) {
		return nil, fmt.Errorf("%w: space %q has %d ids and %d vectors",
			domain.ErrMalformedArtifact, id, len(ids), len(vectors))
	}
	dim := 0
	if len(vectors) > 0 {
		dim = len(vectors[0])
	}
	matrix := make([]float32, 0, len(vectors)*dim)
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("row %d: %w", i, domain.NewDimensionMismatch(id, dim, len(v)))
		}
		matrix = append(matrix, v...)
	}
	return &Space{id: id, dim: dim, ids: cloneIDs(ids), matrix: matrix}, nil
}

// FromMatrix creates a Space from a row-major flat matrix of shape (len(ids), dim).
// The matrix is retained, not copied.
func FromMatrix(id string, ids []string, dim int, matrix []float32) (*Space, error) {
	if !idRegex.MatchString(id) {
		return nil, fmt.Errorf("space ID %q must be 1-64 alphanumeric, underscore or hyphen characters", id)
	}
	if dim < 0 {
		return nil, fmt.Errorf("space %q: negative dimension %d", id, dim)
	}
	if dim > 0 && len(ids) > math.MaxInt/dim {
		return nil, fmt.Errorf("%w: space %q shape (%d, %d) overflows",
			domain.ErrMalformedArtifact, id, len(ids), dim)
	}
	if len(matrix) != len(ids)*dim {
		return nil, fmt.Errorf("%w: space %q has %d ids but %d values for dim %d",
			domain.ErrMalformedArtifact, id, len(ids), len(matrix), dim)
	}
	return &Space{id: id, dim: dim, ids: cloneIDs(ids), matrix: matrix}, nil
}

// ID returns the space identifier (representation mode).
func (s *Space) ID() string { return s.id }

// Dim returns the vector dimensionality.
func (s *Space) Dim() int { return s.dim }

// Len returns the number of documents.
func (s *Space) Len() int { return len(s.ids) }

// IDs returns the document ids in positional order. Callers must not modify the slice.
func (s *Space) IDs() []string { return s.ids }

// Vector returns the i-th document vector. Callers must not modify the slice.
func (s *Space) Vector(i int) []float32 {
	return s.matrix[i*s.dim : (i+1)*s.dim]
}

// CheckQuery returns a DimensionError if len(query) != Dim.
func (s *Space) CheckQuery(query []float32) error {
	if len(query) != s.dim {
		return domain.NewDimensionMismatch(s.id, s.dim, len(query))
	}
	return nil
}

// Scores returns the dot product of query with every document, in positional order.
func (s *Space) Scores(query []float32) ([]float64, error) {
	if err := s.CheckQuery(query); err != nil {
		return nil, err
	}
	out := make([]float64, len(s.ids))
	for i := range s.ids {
		out[i] = dot(query, s.Vector(i))
	}
	return out, nil
}

// SimilarityScores returns the topK documents by dot product, descending,
// ties broken by position in the id list. topK larger than Len returns all documents.
func (s *Space) SimilarityScores(query []float32, topK int) ([]ranking.Ranked, error) {
	if topK < 1 {
		return nil, domain.ErrInvalidTopK
	}
	scores, err := s.Scores(query)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]float64, len(scores))
	for i, id := range s.ids {
		if _, dup := byID[id]; !dup {
			byID[id] = scores[i]
		}
	}
	return ranking.Build(byID, s.ids, topK), nil
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func cloneIDs(ids []string) []string {
	c := make([]string, len(ids))
	copy(c, ids)
	return c
}
