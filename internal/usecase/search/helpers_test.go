package search

import (
	"testing"

	"github.com/kailas-cloud/prodsearch/internal/domain/item"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/ranking"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/weight"
	"github.com/kailas-cloud/prodsearch/internal/domain/vectorspace"
)

type product struct {
	id, title, brand, color string
}

func makeItems(t *testing.T, ps ...product) []item.Item {
	t.Helper()
	out := make([]item.Item, len(ps))
	for i, p := range ps {
		attrs := item.Attributes{}
		if p.title != "" {
			attrs.Title = item.StringPtr(p.title)
		}
		if p.brand != "" {
			attrs.Brand = item.StringPtr(p.brand)
		}
		if p.color != "" {
			attrs.Color = item.StringPtr(p.color)
		}
		it, err := item.New(p.id, attrs)
		if err != nil {
			t.Fatalf("item.New(%q): %v", p.id, err)
		}
		out[i] = it
	}
	return out
}

func makeCatalog(t *testing.T, ps ...product) *item.Catalog {
	t.Helper()
	c, err := item.NewCatalog(makeItems(t, ps...))
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	return c
}

func fieldWeights(t *testing.T, pairs ...any) []weight.FieldWeight {
	t.Helper()
	var out []weight.FieldWeight
	for i := 0; i < len(pairs); i += 2 {
		fw, err := weight.NewField(pairs[i].(string), pairs[i+1].(float64))
		if err != nil {
			t.Fatalf("NewField: %v", err)
		}
		out = append(out, fw)
	}
	return out
}

func makeSpace(t *testing.T, id string, ids []string, vecs [][]float32) *vectorspace.Space {
	t.Helper()
	s, err := vectorspace.New(id, ids, vecs)
	if err != nil {
		t.Fatalf("vectorspace.New(%q): %v", id, err)
	}
	return s
}

func rankedIDs(rs []ranking.Ranked) []string {
	out := make([]string, len(rs))
	for i := range rs {
		out[i] = rs[i].ID()
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
