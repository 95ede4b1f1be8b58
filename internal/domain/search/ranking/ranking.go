// Package ranking holds the scored-candidate types and the stable top-k
// builder shared by the sparse and dense retrieval paths.
package ranking

import (
	"strconv"
	"strings"
)

// Contribution is one source's evidence for one item: weight × raw score.
type Contribution struct {
	Source string  // field name (sparse) or space identifier (dense)
	Weight float64 // source weight
	Raw    float64 // unweighted score: 1.0 for a field match, dot product for a space
}

// Value returns the weighted contribution.
func (c Contribution) Value() float64 { return c.Weight * c.Raw }

// Ranked is an item id with its aggregate score. Never mutated after creation.
type Ranked struct {
	id            string
	score         float64
	contributions []Contribution
}

// New creates a ranked result.
func New(id string, score float64, contributions []Contribution) Ranked {
	return Ranked{id: id, score: score, contributions: contributions}
}

// ID returns the item identifier.
func (r *Ranked) ID() string { return r.id }

// Score returns the aggregate score.
func (r *Ranked) Score() float64 { return r.score }

// Contributions returns the per-source contributions in accumulation order.
func (r *Ranked) Contributions() []Contribution { return r.contributions }

// Breakdown renders the contributions as "1 + 0.6".
func (r *Ranked) Breakdown() string {
	parts := make([]string, len(r.contributions))
	for i, c := range r.contributions {
		parts[i] = strconv.FormatFloat(c.Value(), 'f', -1, 64)
	}
	return strings.Join(parts, " + ")
}
