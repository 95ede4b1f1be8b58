package ranking

import (
	"math"
	"sort"
)

type entry struct {
	id    string
	score float64
}

// Build sorts the scored ids by score descending and truncates to topK.
// Ties keep the position of the id in order (first-seen order). NaN scores sort last.
// Ids in order without a score are skipped; repeated ids count once, at their first position.
// topK < 1 yields an empty result.
func Build(scored map[string]float64, order []string, topK int) []Ranked {
	entries := make([]entry, 0, len(scored))
	seen := make(map[string]struct{}, len(scored))
	for _, id := range order {
		if _, dup := seen[id]; dup {
			continue
		}
		s, ok := scored[id]
		if !ok {
			continue
		}
		seen[id] = struct{}{}
		entries = append(entries, entry{id: id, score: s})
	}

	top := selectTop(entries, topK)
	out := make([]Ranked, len(top))
	for i, e := range top {
		out[i] = New(e.id, e.score, nil)
	}
	return out
}

func selectTop(entries []entry, topK int) []entry {
	if topK < 1 {
		return nil
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return higher(entries[i].score, entries[j].score)
	})
	if len(entries) > topK {
		entries = entries[:topK]
	}
	return entries
}

// higher orders scores descending with NaN below every number.
func higher(a, b float64) bool {
	if math.IsNaN(a) {
		return false
	}
	if math.IsNaN(b) {
		return true
	}
	return a > b
}

// Collector accumulates contributions per id in first-seen order.
// One collector serves one request; it is not safe for concurrent use.
type Collector struct {
	order    []string
	scores   map[string]float64
	contribs map[string][]Contribution
}

// NewCollector creates a collector sized for roughly n candidates.
func NewCollector(n int) *Collector {
	return &Collector{
		order:    make([]string, 0, n),
		scores:   make(map[string]float64, n),
		contribs: make(map[string][]Contribution, n),
	}
}

// Add records a contribution for id.
func (c *Collector) Add(id string, ctb Contribution) {
	if _, ok := c.scores[id]; !ok {
		c.order = append(c.order, id)
	}
	c.scores[id] += ctb.Value()
	c.contribs[id] = append(c.contribs[id], ctb)
}

// Len returns the number of distinct candidates.
func (c *Collector) Len() int { return len(c.order) }

// Order returns the candidate ids in first-seen order.
func (c *Collector) Order() []string { return c.order }

// Scores returns the aggregate score per candidate id.
func (c *Collector) Scores() map[string]float64 { return c.scores }

// Top returns the topK candidates with their contributions, via Build.
func (c *Collector) Top(topK int) []Ranked {
	ranked := Build(c.scores, c.order, topK)
	for i := range ranked {
		ranked[i].contributions = c.contribs[ranked[i].id]
	}
	return ranked
}
