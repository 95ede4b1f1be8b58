package request

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/prodsearch/internal/domain"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/mode"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/weight"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed query length in bytes.
	MaxQueryLength = 4096
	DefaultTopK    = 10
	MaxTopK        = 500
)

// Params is the raw, unvalidated input of a search.
type Params struct {
	Query  string
	Vector []float32
	Mode   mode.Mode
	TopK   int
	// PerFieldLimit caps the matches kept per field before aggregation (0 = TopK).
	PerFieldLimit int
	// Aggregate sums field contributions into one list (nil = true).
	// When false the sparse path returns one list per field.
	Aggregate *bool
	// TruncateAfterAggregate considers every match of every field and truncates only at the end.
	TruncateAfterAggregate bool
	FieldWeights           []weight.FieldWeight // nil = service defaults
	SpaceWeights           []weight.SpaceWeight // nil = service defaults
}

// Request is a validated search query.
type Request struct {
	query                  string
	vector                 []float32
	searchMode             mode.Mode
	topK                   int
	perFieldLimit          int
	aggregate              bool
	truncateAfterAggregate bool
	fieldWeights           []weight.FieldWeight
	spaceWeights           []weight.SpaceWeight
}

// New validates and normalizes search parameters.
// Defaults: mode=dense when a vector is given, sparse otherwise; topK=10; aggregate=true.
// An empty query is valid: the sparse path returns no results.
func New(p Params) (Request, error) {
	if len(p.Query) > MaxQueryLength {
		return Request{}, fmt.Errorf("query too long (max %d chars)", MaxQueryLength)
	}
	m := p.Mode
	if m == "" {
		m = mode.Sparse
		if p.Vector != nil {
			m = mode.Dense
		}
	}
	if !m.IsValid() {
		return Request{}, fmt.Errorf("invalid search mode: %q", m)
	}
	if p.Vector != nil && m != mode.Dense {
		return Request{}, fmt.Errorf("vector is only accepted in %s mode", mode.Dense)
	}

	topK := p.TopK
	if topK < 0 {
		return Request{}, fmt.Errorf("%w, got %d", domain.ErrInvalidTopK, topK)
	}
	if topK == 0 {
		topK = DefaultTopK
	}
	if topK > MaxTopK {
		topK = MaxTopK
	}
	if p.PerFieldLimit < 0 {
		return Request{}, fmt.Errorf("per_field_limit must not be negative, got %d", p.PerFieldLimit)
	}

	aggregate := true
	if p.Aggregate != nil {
		aggregate = *p.Aggregate
	}

	return Request{
		query:                  p.Query,
		vector:                 p.Vector,
		searchMode:             m,
		topK:                   topK,
		perFieldLimit:          p.PerFieldLimit,
		aggregate:              aggregate,
		truncateAfterAggregate: p.TruncateAfterAggregate,
		fieldWeights:           p.FieldWeights,
		spaceWeights:           p.SpaceWeights,
	}, nil
}

// Query returns the raw query text.
func (r *Request) Query() string { return r.query }

// Tokens splits the query on whitespace. Empty tokens are dropped.
func (r *Request) Tokens() []string { return strings.Fields(r.query) }

// Vector returns the raw query vector (nil when the query text must be encoded).
func (r *Request) Vector() []float32 { return r.vector }

// Mode returns the retrieval strategy.
func (r *Request) Mode() mode.Mode { return r.searchMode }

// TopK returns the number of results to return.
func (r *Request) TopK() int { return r.topK }

// PerFieldLimit returns the per-field match cap, defaulting to TopK.
func (r *Request) PerFieldLimit() int {
	if r.perFieldLimit <= 0 {
		return r.topK
	}
	return r.perFieldLimit
}

// Aggregate reports whether sparse contributions are summed into one list.
func (r *Request) Aggregate() bool { return r.aggregate }

// TruncateAfterAggregate reports whether per-field truncation is deferred to the final list.
func (r *Request) TruncateAfterAggregate() bool { return r.truncateAfterAggregate }

// FieldWeights returns the per-request field weights (nil = defaults).
func (r *Request) FieldWeights() []weight.FieldWeight { return r.fieldWeights }

// SpaceWeights returns the per-request space weights (nil = defaults).
func (r *Request) SpaceWeights() []weight.SpaceWeight { return r.spaceWeights }
