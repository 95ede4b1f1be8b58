package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kailas-cloud/prodsearch/internal/domain/search/mode"
)

func TestSearchRecorder(t *testing.T) {
	rec := NewSearchRecorder()

	beforeUnknown := testutil.ToFloat64(UnknownItemsTotal)
	rec.ObserveSearch(mode.Dense, "ok", 3*time.Millisecond, 7)
	rec.ObserveSearch(mode.Dense, "dimension_mismatch", time.Millisecond, 0)
	rec.UnknownItems(2)

	if n := testutil.CollectAndCount(SearchDuration); n < 2 {
		t.Errorf("expected duration series for both statuses, got %d", n)
	}
	if n := testutil.CollectAndCount(SearchResults); n < 1 {
		t.Errorf("expected a results series, got %d", n)
	}
	if d := testutil.ToFloat64(UnknownItemsTotal) - beforeUnknown; d != 2 {
		t.Errorf("unknown_items_total delta = %v, want 2", d)
	}
}

func TestSetCorpus(t *testing.T) {
	SetCorpus(120, map[string]int{"cls": 100, "mean": 90})

	if v := testutil.ToFloat64(CatalogItems); v != 120 {
		t.Errorf("catalog_items = %v", v)
	}
	if v := testutil.ToFloat64(SpaceDocuments.WithLabelValues("mean")); v != 90 {
		t.Errorf("space_documents{mean} = %v", v)
	}
}
