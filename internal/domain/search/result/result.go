package result

import "github.com/kailas-cloud/prodsearch/internal/domain/search/ranking"

// Result is a ranked item hydrated with its catalog attributes.
type Result struct {
	id            string
	score         float64
	contributions []ranking.Contribution
	title         string
	attributes    map[string]string
}

// New creates a search result.
func New(
	id string, score float64, contributions []ranking.Contribution,
	title string, attributes map[string]string,
) Result {
	return Result{
		id: id, score: score, contributions: contributions,
		title: title, attributes: attributes,
	}
}

// ID returns the item identifier.
func (r *Result) ID() string { return r.id }

// Score returns the aggregate relevance score.
func (r *Result) Score() float64 { return r.score }

// Contributions returns the per-source score breakdown.
func (r *Result) Contributions() []ranking.Contribution { return r.contributions }

// Title returns the item title ("" when absent).
func (r *Result) Title() string { return r.title }

// Attributes returns the item attributes keyed by canonical field name.
func (r *Result) Attributes() map[string]string { return r.attributes }

// FieldList is the per-field view of a sparse query: the hits of one field, unaggregated.
type FieldList struct {
	Field   string
	Weight  float64
	Results []Result
}
