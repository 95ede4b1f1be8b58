package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/prodsearch/internal/domain/search/mode"
)

const namespace = "prodsearch"

// Search Prometheus metrics.
var (
	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Search duration in seconds, encoder time included",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"mode", "status"},
	)

	SearchResults = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_results",
			Help:      "Number of results returned per search",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250, 500},
		},
		[]string{"mode"},
	)

	UnknownItemsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unknown_items_total",
			Help:      "Ranked ids dropped because they are missing from the catalog",
		},
	)

	CatalogItems = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_items",
			Help:      "Number of items in the loaded catalog",
		},
	)

	SpaceDocuments = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "space_documents",
			Help:      "Number of documents per loaded vector space",
		},
		[]string{"space"},
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers the search metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchDuration, SearchResults, UnknownItemsTotal, CatalogItems, SpaceDocuments)
	searchMetricsRegistered = true
}

// SearchRecorder feeds search outcomes into the Prometheus collectors.
type SearchRecorder struct{}

// NewSearchRecorder creates a recorder.
func NewSearchRecorder() *SearchRecorder { return &SearchRecorder{} }

// ObserveSearch records one finished search.
func (SearchRecorder) ObserveSearch(m mode.Mode, status string, d time.Duration, results int) {
	SearchDuration.WithLabelValues(string(m), status).Observe(d.Seconds())
	if status == "ok" {
		SearchResults.WithLabelValues(string(m)).Observe(float64(results))
	}
}

// UnknownItems counts ranked ids dropped during hydration.
func (SearchRecorder) UnknownItems(n int) {
	UnknownItemsTotal.Add(float64(n))
}

// SetCorpus publishes catalog and space sizes after startup loading.
func SetCorpus(catalogItems int, spaceDocs map[string]int) {
	CatalogItems.Set(float64(catalogItems))
	for id, n := range spaceDocs {
		SpaceDocuments.WithLabelValues(id).Set(float64(n))
	}
}
