package search

import (
	"fmt"
	"math"

	"github.com/kailas-cloud/prodsearch/internal/domain"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/ranking"
	"github.com/kailas-cloud/prodsearch/internal/domain/vectorspace"
)

// WeightedSpace pairs a vector space with its weight in the merged score.
type WeightedSpace struct {
	Space  *vectorspace.Space
	Weight float64
}

// Retriever merges weighted similarity scores from several spaces that share one dimension.
type Retriever struct {
	spaces []WeightedSpace
}

// NewRetriever validates the configuration once: weights must be finite and >= 0,
// and every space must have the same dimension.
func NewRetriever(spaces []WeightedSpace) (*Retriever, error) {
	if len(spaces) == 0 {
		return nil, domain.ErrNoSpaces
	}
	if err := checkSpaces(spaces); err != nil {
		return nil, err
	}
	dim := spaces[0].Space.Dim()
	for _, ws := range spaces[1:] {
		if ws.Space.Dim() != dim {
			return nil, fmt.Errorf("spaces %q and %q: %w",
				spaces[0].Space.ID(), ws.Space.ID(), domain.NewDimensionMismatch(ws.Space.ID(), dim, ws.Space.Dim()))
		}
	}
	copied := make([]WeightedSpace, len(spaces))
	copy(copied, spaces)
	return &Retriever{spaces: copied}, nil
}

// Dim returns the shared dimension of the configured spaces.
func (r *Retriever) Dim() int { return r.spaces[0].Space.Dim() }

// Retrieve runs Retrieve over the configured spaces.
func (r *Retriever) Retrieve(query []float32, topK int) ([]ranking.Ranked, error) {
	return Retrieve(query, r.spaces, topK)
}

// Retrieve scores query against every document of every space (no per-space truncation),
// sums weight × dot product per document id, and returns the topK.
// A document absent from a space contributes nothing from it. Ties rank by first
// appearance across the space sequence. Every space's dimension is checked against
// the query before any scoring.
func Retrieve(query []float32, spaces []WeightedSpace, topK int) ([]ranking.Ranked, error) {
	if topK < 1 {
		return nil, domain.ErrInvalidTopK
	}
	if err := checkSpaces(spaces); err != nil {
		return nil, err
	}
	for _, ws := range spaces {
		if err := ws.Space.CheckQuery(query); err != nil {
			return nil, err
		}
	}

	n := 0
	for _, ws := range spaces {
		n += ws.Space.Len()
	}
	c := ranking.NewCollector(n)
	for _, ws := range spaces {
		scores, err := ws.Space.Scores(query)
		if err != nil {
			return nil, err
		}
		seen := make(map[string]struct{}, len(scores))
		for i, id := range ws.Space.IDs() {
			// a repeated id inside one space keeps its first row, as in Space.SimilarityScores
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			c.Add(id, ranking.Contribution{Source: ws.Space.ID(), Weight: ws.Weight, Raw: scores[i]})
		}
	}
	return c.Top(topK), nil
}

func checkSpaces(spaces []WeightedSpace) error {
	for i, ws := range spaces {
		if ws.Space == nil {
			return fmt.Errorf("space %d is nil", i)
		}
		if math.IsNaN(ws.Weight) || math.IsInf(ws.Weight, 0) || ws.Weight < 0 {
			return fmt.Errorf("%w: space %q has weight %v", domain.ErrInvalidWeight, ws.Space.ID(), ws.Weight)
		}
	}
	return nil
}
