package prodsearch

import (
	"fmt"

	"github.com/kailas-cloud/prodsearch/internal/domain/search/mode"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/ranking"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/request"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/result"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/weight"
	searchuc "github.com/kailas-cloud/prodsearch/internal/usecase/search"
)

func defaultFields() []Weight {
	return []Weight{
		{Name: "product_title", Value: 1.0},
		{Name: "product_brand", Value: 0.6},
		{Name: "product_color", Value: 0.4},
		{Name: "product_bullet_point", Value: 0.2},
	}
}

func fieldWeights(ws []Weight) ([]weight.FieldWeight, error) {
	names := make([]string, len(ws))
	values := make([]float64, len(ws))
	for i, w := range ws {
		names[i], values[i] = w.Name, w.Value
	}
	return weight.Fields(names, values) //nolint:wrapcheck // wrapped by caller
}

func spaceWeights(ws []Weight) ([]weight.SpaceWeight, error) {
	out := make([]weight.SpaceWeight, len(ws))
	seen := make(map[string]struct{}, len(ws))
	for i, w := range ws {
		if _, dup := seen[w.Name]; dup {
			return nil, fmt.Errorf("space %q listed twice", w.Name)
		}
		seen[w.Name] = struct{}{}
		sw, err := weight.NewSpace(w.Name, w.Value)
		if err != nil {
			return nil, err //nolint:wrapcheck // wrapped by caller
		}
		out[i] = sw
	}
	return out, nil
}

func toParams(req *SearchRequest) (request.Params, error) {
	aggregate := !req.PerField
	p := request.Params{
		Query:                  req.Query,
		Vector:                 req.Vector,
		Mode:                   mode.Mode(req.Mode),
		TopK:                   req.TopK,
		PerFieldLimit:          req.PerFieldLimit,
		Aggregate:              &aggregate,
		TruncateAfterAggregate: req.TruncateAfterAggregate,
	}
	if req.Fields != nil {
		fw, err := fieldWeights(req.Fields)
		if err != nil {
			return request.Params{}, fmt.Errorf("prodsearch: fields: %w", err)
		}
		p.FieldWeights = fw
	}
	if req.Spaces != nil {
		sw, err := spaceWeights(req.Spaces)
		if err != nil {
			return request.Params{}, fmt.Errorf("prodsearch: spaces: %w", err)
		}
		p.SpaceWeights = sw
	}
	return p, nil
}

func fromResult(r *result.Result) Result {
	out := Result{
		ID:         r.ID(),
		Score:      r.Score(),
		Title:      r.Title(),
		Attributes: r.Attributes(),
	}
	if cs := r.Contributions(); len(cs) > 0 {
		rk := ranking.New(r.ID(), r.Score(), cs)
		out.Breakdown = rk.Breakdown()
		out.Contributions = make([]Contribution, len(cs))
		for i, c := range cs {
			out.Contributions[i] = Contribution{Source: c.Source, Weight: c.Weight, Raw: c.Raw}
		}
	}
	return out
}

func fromResults(rs []result.Result) []Result {
	out := make([]Result, len(rs))
	for i := range rs {
		out[i] = fromResult(&rs[i])
	}
	return out
}

func fromResponse(resp *searchuc.Response) Response {
	out := Response{
		Mode:    Mode(resp.Mode),
		Results: fromResults(resp.Results),
		Dropped: resp.Dropped,
	}
	for _, fl := range resp.Fields {
		out.Fields = append(out.Fields, FieldResults{Field: fl.Field, Weight: fl.Weight, Results: fromResults(fl.Results)})
	}
	return out
}
