package chi

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kailas-cloud/prodsearch/internal/domain/search/mode"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/ranking"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/request"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/result"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/weight"
	searchuc "github.com/kailas-cloud/prodsearch/internal/usecase/search"
)

// WeightEntry names a field or vector space and its weight.
type WeightEntry struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
}

// SearchRequest is the body of POST /search.
type SearchRequest struct {
	Query                  string        `json:"query"`
	Vector                 []float32     `json:"vector,omitempty"`
	Mode                   string        `json:"mode,omitempty"`
	TopK                   int           `json:"top_k,omitempty"`
	PerFieldLimit          int           `json:"per_field_limit,omitempty"`
	Aggregate              *bool         `json:"aggregate,omitempty"`
	TruncateAfterAggregate bool          `json:"truncate_after_aggregate,omitempty"`
	Fields                 []WeightEntry `json:"fields,omitempty"`
	Spaces                 []WeightEntry `json:"spaces,omitempty"`
}

// Contribution is one term of a score breakdown.
type Contribution struct {
	Source string  `json:"source"`
	Weight float64 `json:"weight"`
	Raw    float64 `json:"raw"`
	Value  float64 `json:"value"`
}

// SearchResultItem is one ranked row.
type SearchResultItem struct {
	ID            string            `json:"id"`
	Score         float64           `json:"score"`
	Breakdown     string            `json:"breakdown,omitempty"`
	Contributions []Contribution    `json:"contributions,omitempty"`
	Title         string            `json:"title,omitempty"`
	Attributes    map[string]string `json:"attributes,omitempty"`
}

// FieldResultList is the unaggregated result list of one field.
type FieldResultList struct {
	Field  string             `json:"field"`
	Weight float64            `json:"weight"`
	Items  []SearchResultItem `json:"items"`
}

// SearchResponse is the body of a successful search.
type SearchResponse struct {
	Mode    string             `json:"mode"`
	Items   []SearchResultItem `json:"items"`
	Fields  []FieldResultList  `json:"fields,omitempty"`
	Total   int                `json:"total"`
	Dropped int                `json:"dropped,omitempty"`
}

// SpaceResponse describes one loaded vector space.
type SpaceResponse struct {
	ID            string  `json:"id"`
	Dimensions    int     `json:"dimensions"`
	Documents     int     `json:"documents"`
	Default       bool    `json:"default"`
	DefaultWeight float64 `json:"default_weight,omitempty"`
}

// SpaceListResponse is the body of GET /spaces.
type SpaceListResponse struct {
	Items []SpaceResponse `json:"items"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func (req *SearchRequest) params() (request.Params, error) {
	p := request.Params{
		Query:                  req.Query,
		Vector:                 req.Vector,
		Mode:                   mode.Mode(req.Mode),
		TopK:                   req.TopK,
		PerFieldLimit:          req.PerFieldLimit,
		Aggregate:              req.Aggregate,
		TruncateAfterAggregate: req.TruncateAfterAggregate,
	}
	if req.Fields != nil {
		names, weights := splitEntries(req.Fields)
		fw, err := weight.Fields(names, weights)
		if err != nil {
			return request.Params{}, fmt.Errorf("fields: %w", err)
		}
		p.FieldWeights = fw
	}
	if req.Spaces != nil {
		sw, err := spaceWeights(req.Spaces)
		if err != nil {
			return request.Params{}, err
		}
		p.SpaceWeights = sw
	}
	return p, nil
}

func splitEntries(entries []WeightEntry) ([]string, []float64) {
	names := make([]string, len(entries))
	weights := make([]float64, len(entries))
	for i, e := range entries {
		names[i], weights[i] = e.Name, e.Weight
	}
	return names, weights
}

func spaceWeights(entries []WeightEntry) ([]weight.SpaceWeight, error) {
	out := make([]weight.SpaceWeight, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if _, dup := seen[e.Name]; dup {
			return nil, fmt.Errorf("space %q listed twice", e.Name)
		}
		seen[e.Name] = struct{}{}
		sw, err := weight.NewSpace(e.Name, e.Weight)
		if err != nil {
			return nil, fmt.Errorf("spaces: %w", err)
		}
		out = append(out, sw)
	}
	return out, nil
}

// parseWeightEntries parses "name:weight" pairs. A bare name gets weight 1.
func parseWeightEntries(raw []string) ([]WeightEntry, error) {
	out := make([]WeightEntry, 0, len(raw))
	for _, s := range raw {
		name, w, found := strings.Cut(s, ":")
		entry := WeightEntry{Name: strings.TrimSpace(name), Weight: 1}
		if found {
			v, err := strconv.ParseFloat(strings.TrimSpace(w), 64)
			if err != nil {
				return nil, fmt.Errorf("weight of %q: %w", entry.Name, err)
			}
			entry.Weight = v
		}
		out = append(out, entry)
	}
	return out, nil
}

func resultToDTO(r *result.Result) SearchResultItem {
	contribs := r.Contributions()
	item := SearchResultItem{
		ID:         r.ID(),
		Score:      r.Score(),
		Title:      r.Title(),
		Attributes: r.Attributes(),
	}
	if len(contribs) > 0 {
		ranked := ranking.New(r.ID(), r.Score(), contribs)
		item.Breakdown = ranked.Breakdown()
		item.Contributions = make([]Contribution, len(contribs))
		for i, c := range contribs {
			item.Contributions[i] = Contribution{Source: c.Source, Weight: c.Weight, Raw: c.Raw, Value: c.Value()}
		}
	}
	return item
}

func resultsToDTO(rs []result.Result) []SearchResultItem {
	out := make([]SearchResultItem, len(rs))
	for i := range rs {
		out[i] = resultToDTO(&rs[i])
	}
	return out
}

func responseToDTO(resp *searchuc.Response) SearchResponse {
	out := SearchResponse{
		Mode:    string(resp.Mode),
		Items:   resultsToDTO(resp.Results),
		Dropped: resp.Dropped,
	}
	out.Total = len(out.Items)
	if resp.Fields != nil {
		out.Fields = make([]FieldResultList, len(resp.Fields))
		for i, fl := range resp.Fields {
			out.Fields[i] = FieldResultList{Field: fl.Field, Weight: fl.Weight, Items: resultsToDTO(fl.Results)}
			out.Total += len(fl.Results)
		}
	}
	return out
}

func spaceToDTO(info searchuc.SpaceInfo) SpaceResponse {
	return SpaceResponse{
		ID:            info.ID,
		Dimensions:    info.Dim,
		Documents:     info.Documents,
		Default:       info.Default,
		DefaultWeight: info.DefaultWeight,
	}
}
