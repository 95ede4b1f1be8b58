package search

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/kailas-cloud/prodsearch/internal/domain"
	"github.com/kailas-cloud/prodsearch/internal/domain/item"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/weight"
)

func TestAggregate_Scenario(t *testing.T) {
	items := makeItems(t,
		product{id: "P1", title: "red shoes", brand: "Acme"},
		product{id: "P2", title: "blue shoes", brand: "Acme"},
	)
	fields := fieldWeights(t, "title", 1.0, "brand", 0.5)

	got, err := Aggregate(items, []string{"shoes", "Acme"}, fields, 0, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !equalIDs(rankedIDs(got), []string{"P1", "P2"}) {
		t.Fatalf("got %v, want [P1 P2]", rankedIDs(got))
	}
	for i := range got {
		if math.Abs(got[i].Score()-1.5) > 1e-9 {
			t.Errorf("%s score = %v, want 1.5", got[i].ID(), got[i].Score())
		}
		if len(got[i].Contributions()) != 2 {
			t.Errorf("%s contributions = %v", got[i].ID(), got[i].Contributions())
		}
	}
}

func TestAggregate_EmptyTokens(t *testing.T) {
	items := makeItems(t, product{id: "P1", title: "red shoes"})
	got, err := Aggregate(items, nil, fieldWeights(t, "title", 1.0), 0, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil result, got %v", got)
	}
}

func TestAggregate_EmptyStringTokenMatchesNothing(t *testing.T) {
	items := makeItems(t, product{id: "P1", title: "red shoes"}, product{id: "P2", title: "hat"})
	got, err := Aggregate(items, []string{""}, fieldWeights(t, "title", 1.0), 0, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no results, got %v", rankedIDs(got))
	}
}

func TestAggregate_InvalidTopK(t *testing.T) {
	_, err := Aggregate(nil, []string{"x"}, nil, 0, 0)
	if !errors.Is(err, domain.ErrInvalidTopK) {
		t.Errorf("expected ErrInvalidTopK, got %v", err)
	}
}

func TestAggregate_NonMatchingItemsNeverAppear(t *testing.T) {
	items := makeItems(t,
		product{id: "P1", title: "red shoes"},
		product{id: "P2", title: "green hat"},
	)
	got, _ := Aggregate(items, []string{"shoes"}, fieldWeights(t, "title", 1.0, "brand", 0.6), 0, 10)
	if !equalIDs(rankedIDs(got), []string{"P1"}) {
		t.Errorf("got %v, want [P1]", rankedIDs(got))
	}
}

// Truncation happens per field, by scan position, before aggregation.
func TestAggregate_PerFieldTruncationBeforeAggregation(t *testing.T) {
	items := makeItems(t,
		product{id: "P1", title: "shoes"},
		product{id: "P2", title: "shoes"},
		product{id: "P3", title: "shoes", brand: "shoes-co"},
	)
	fields := fieldWeights(t, "title", 1.0, "brand", 0.6)

	got, err := Aggregate(items, []string{"shoes"}, fields, 2, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// P3 is beyond the title cap, so it only earns the brand weight.
	if !equalIDs(rankedIDs(got), []string{"P1", "P2", "P3"}) {
		t.Fatalf("got %v", rankedIDs(got))
	}
	if math.Abs(got[2].Score()-0.6) > 1e-9 {
		t.Errorf("P3 score = %v, want 0.6", got[2].Score())
	}

	untruncated, err := AggregateUntruncated(items, []string{"shoes"}, fields, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !equalIDs(rankedIDs(untruncated), []string{"P3", "P1", "P2"}) {
		t.Fatalf("untruncated got %v, want [P3 P1 P2]", rankedIDs(untruncated))
	}
	if math.Abs(untruncated[0].Score()-1.6) > 1e-9 {
		t.Errorf("P3 untruncated score = %v, want 1.6", untruncated[0].Score())
	}
}

func TestAggregate_PerFieldLimitDefaultsToTopK(t *testing.T) {
	items := makeItems(t,
		product{id: "P1", title: "shoes"},
		product{id: "P2", title: "shoes"},
		product{id: "P3", title: "shoes", brand: "shoes"},
	)
	fields := fieldWeights(t, "title", 1.0, "brand", 0.5)

	got, _ := Aggregate(items, []string{"shoes"}, fields, 0, 2)
	// title keeps P1, P2; brand keeps P3 -> P3 scores 0.5 and falls out of the top 2.
	if !equalIDs(rankedIDs(got), []string{"P1", "P2"}) {
		t.Errorf("got %v, want [P1 P2]", rankedIDs(got))
	}
}

func TestAggregate_TieBreakFirstSeenAcrossFields(t *testing.T) {
	items := makeItems(t,
		product{id: "P1", brand: "Acme"},
		product{id: "P2", title: "Acme shoes"},
	)
	// title is scanned first, so P2 is seen before P1; both score 1.
	got, _ := Aggregate(items, []string{"Acme"}, fieldWeights(t, "title", 1.0, "brand", 1.0), 0, 10)
	if !equalIDs(rankedIDs(got), []string{"P2", "P1"}) {
		t.Errorf("got %v, want [P2 P1]", rankedIDs(got))
	}
}

// Score equals the sum of weights over fields where the item was among the
// first perFieldLimit matches.
func TestAggregate_ScoreProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	words := []string{"red", "blue", "shoes", "hat", "Acme", "Zeta"}
	pick := func() string {
		if rng.Intn(4) == 0 {
			return ""
		}
		return words[rng.Intn(len(words))] + " " + words[rng.Intn(len(words))]
	}

	for trial := 0; trial < 50; trial++ {
		ps := make([]product, 30)
		for i := range ps {
			ps[i] = product{id: fmt.Sprintf("P%02d", i), title: pick(), brand: pick(), color: pick()}
		}
		items := makeItems(t, ps...)
		fields := fieldWeights(t, "title", rng.Float64(), "brand", rng.Float64(), "color", rng.Float64())
		tokens := []string{words[rng.Intn(len(words))], words[rng.Intn(len(words))]}
		limit := 1 + rng.Intn(8)

		got, err := Aggregate(items, tokens, fields, limit, len(items))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := expectedScores(items, tokens, fields, limit)
		if len(got) != len(want) {
			t.Fatalf("trial %d: got %d results, want %d", trial, len(got), len(want))
		}
		for i := range got {
			if math.Abs(got[i].Score()-want[got[i].ID()]) > 1e-9 {
				t.Errorf("trial %d: %s score = %v, want %v", trial, got[i].ID(), got[i].Score(), want[got[i].ID()])
			}
			if i > 0 && got[i].Score() > got[i-1].Score() {
				t.Errorf("trial %d: not sorted at %d", trial, i)
			}
		}
	}
}

func expectedScores(items []item.Item, tokens []string, fields []weight.FieldWeight, limit int) map[string]float64 {
	out := map[string]float64{}
	for _, fw := range fields {
		kept := 0
		for i := range items {
			if kept == limit {
				break
			}
			v, ok := items[i].Field(fw.Field())
			if ok && Matches(tokens, v, true) {
				kept++
				out[items[i].ID()] += fw.Weight()
			}
		}
	}
	return out
}

func TestAggregate_Deterministic(t *testing.T) {
	items := makeItems(t,
		product{id: "P1", title: "shoes", brand: "Acme"},
		product{id: "P2", title: "shoes", color: "Acme"},
		product{id: "P3", brand: "shoes"},
	)
	fields := fieldWeights(t, "title", 1.0, "brand", 0.6, "color", 0.4)
	a, _ := Aggregate(items, []string{"shoes", "Acme"}, fields, 0, 10)
	b, _ := Aggregate(items, []string{"shoes", "Acme"}, fields, 0, 10)
	if len(a) != len(b) {
		t.Fatal("length differs between runs")
	}
	for i := range a {
		if a[i].ID() != b[i].ID() || a[i].Score() != b[i].Score() {
			t.Errorf("run differs at %d: %s/%v vs %s/%v", i, a[i].ID(), a[i].Score(), b[i].ID(), b[i].Score())
		}
	}
}

func TestPerField(t *testing.T) {
	items := makeItems(t,
		product{id: "P1", title: "red shoes", brand: "Acme"},
		product{id: "P2", title: "blue shoes", brand: "Zeta"},
		product{id: "P3", title: "green shoes", brand: "Acme"},
	)
	fields := fieldWeights(t, "title", 1.0, "brand", 0.6)

	lists, err := PerField(items, []string{"shoes", "Acme"}, fields, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lists) != 2 {
		t.Fatalf("expected 2 lists, got %d", len(lists))
	}
	if !equalIDs(rankedIDs(lists[0]), []string{"P1", "P2"}) {
		t.Errorf("title list = %v, want [P1 P2]", rankedIDs(lists[0]))
	}
	if !equalIDs(rankedIDs(lists[1]), []string{"P1", "P3"}) {
		t.Errorf("brand list = %v, want [P1 P3]", rankedIDs(lists[1]))
	}
	if lists[1][0].Score() != 0.6 {
		t.Errorf("brand score = %v, want 0.6", lists[1][0].Score())
	}

	if _, err := PerField(items, []string{"shoes"}, fields, 0); !errors.Is(err, domain.ErrInvalidTopK) {
		t.Errorf("expected ErrInvalidTopK, got %v", err)
	}
}
