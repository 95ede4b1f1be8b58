package search

import (
	"github.com/kailas-cloud/prodsearch/internal/domain"
	"github.com/kailas-cloud/prodsearch/internal/domain/item"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/ranking"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/weight"
)

// fieldMatchScore is the raw score of one field hit before weighting.
const fieldMatchScore = 1.0

// Aggregate scores items by weighted field matches.
//
// Each field keeps only its first perFieldLimit matching items in catalog order,
// before aggregation: a field's contribution is capped by scan position, not relevance.
// perFieldLimit <= 0 means topK. Ties rank by first appearance across the field scans.
// No tokens means no matches and an empty result.
func Aggregate(
	items []item.Item, tokens []string, fields []weight.FieldWeight, perFieldLimit, topK int,
) ([]ranking.Ranked, error) {
	if topK < 1 {
		return nil, domain.ErrInvalidTopK
	}
	if perFieldLimit <= 0 {
		perFieldLimit = topK
	}
	return aggregate(items, tokens, fields, perFieldLimit, topK), nil
}

// AggregateUntruncated is Aggregate without the per-field cap: every match of
// every field contributes, and only the aggregated list is truncated to topK.
func AggregateUntruncated(
	items []item.Item, tokens []string, fields []weight.FieldWeight, topK int,
) ([]ranking.Ranked, error) {
	if topK < 1 {
		return nil, domain.ErrInvalidTopK
	}
	return aggregate(items, tokens, fields, 0, topK), nil
}

// PerField returns one list per field (in field order) holding the field's first
// perFieldLimit matches in catalog order, each scored by the field weight alone.
func PerField(
	items []item.Item, tokens []string, fields []weight.FieldWeight, perFieldLimit int,
) ([][]ranking.Ranked, error) {
	if perFieldLimit < 1 {
		return nil, domain.ErrInvalidTopK
	}
	out := make([][]ranking.Ranked, len(fields))
	for i, fw := range fields {
		c := ranking.NewCollector(perFieldLimit)
		scanField(items, tokens, fw, perFieldLimit, c)
		out[i] = c.Top(perFieldLimit)
	}
	return out, nil
}

// aggregate with limit 0 scans every item of every field.
func aggregate(
	items []item.Item, tokens []string, fields []weight.FieldWeight, limit, topK int,
) []ranking.Ranked {
	if len(tokens) == 0 {
		return []ranking.Ranked{}
	}
	c := ranking.NewCollector(topK * len(fields))
	for _, fw := range fields {
		scanField(items, tokens, fw, limit, c)
	}
	return c.Top(topK)
}

func scanField(items []item.Item, tokens []string, fw weight.FieldWeight, limit int, c *ranking.Collector) {
	if len(tokens) == 0 {
		return
	}
	kept := 0
	for i := range items {
		if limit > 0 && kept >= limit {
			return
		}
		v, ok := items[i].Field(fw.Field())
		if !Matches(tokens, v, ok) {
			continue
		}
		kept++
		c.Add(items[i].ID(), ranking.Contribution{
			Source: fw.Field(),
			Weight: fw.Weight(),
			Raw:    fieldMatchScore,
		})
	}
}
