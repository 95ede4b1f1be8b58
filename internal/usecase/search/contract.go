package search

import (
	"time"

	"github.com/kailas-cloud/prodsearch/internal/domain/item"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/mode"
)

// CatalogReader reads the immutable item catalog.
type CatalogReader interface {
	Items() []item.Item
	Get(id string) (item.Item, bool)
	Len() int
}

// Recorder observes search outcomes. Implemented by the metrics package.
type Recorder interface {
	ObserveSearch(m mode.Mode, status string, d time.Duration, results int)
	UnknownItems(n int)
}

type nopRecorder struct{}

func (nopRecorder) ObserveSearch(mode.Mode, string, time.Duration, int) {}
func (nopRecorder) UnknownItems(int)                                    {}
