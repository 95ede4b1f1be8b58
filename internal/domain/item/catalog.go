package item

import (
	"fmt"

	"github.com/kailas-cloud/prodsearch/internal/domain"
)

// Catalog is an ordered, immutable collection of items with an id index.
// Built once at startup and shared read-only across requests.
type Catalog struct {
	items []Item
	index map[string]int
}

// NewCatalog creates a catalog preserving the given order. Duplicate ids are rejected.
func NewCatalog(items []Item) (*Catalog, error) {
	index := make(map[string]int, len(items))
	for i := range items {
		id := items[i].ID()
		if prev, ok := index[id]; ok {
			return nil, fmt.Errorf("%w: %q at rows %d and %d", domain.ErrDuplicateItem, id, prev, i)
		}
		index[id] = i
	}
	copied := make([]Item, len(items))
	copy(copied, items)
	return &Catalog{items: copied, index: index}, nil
}

// Items returns the items in catalog order. Callers must not modify the slice.
func (c *Catalog) Items() []Item { return c.items }

// Len returns the number of items.
func (c *Catalog) Len() int { return len(c.items) }

// Get returns the item with the given id.
func (c *Catalog) Get(id string) (Item, bool) {
	i, ok := c.index[id]
	if !ok {
		return Item{}, false
	}
	return c.items[i], true
}

// Head returns the first n items (all when n <= 0 or n > Len).
func (c *Catalog) Head(n int) []Item {
	if n <= 0 || n > len(c.items) {
		return c.items
	}
	return c.items[:n]
}
