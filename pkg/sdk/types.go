package prodsearch

// Weight names a field or a vector space with its weight.
type Weight struct {
	Name  string
	Value float64
}

// Item is one catalog product for WithItems. Nil fields are absent.
type Item struct {
	ID          string
	Title       *string
	Description *string
	BulletPoint *string
	Brand       *string
	Color       *string
	Locale      *string
	Extra       map[string]string
}

// Mode selects the retrieval strategy.
type Mode string

// Retrieval modes.
const (
	Sparse Mode = "sparse"
	Dense  Mode = "dense"
)

// SearchRequest describes one query. Zero values fall back to the client defaults.
type SearchRequest struct {
	Query string
	// Vector is a raw dense query; it implies Dense mode.
	Vector        []float32
	Mode          Mode
	TopK          int
	PerFieldLimit int
	// PerField returns one list per field instead of the aggregated ranking.
	PerField               bool
	TruncateAfterAggregate bool
	Fields                 []Weight // nil = client defaults
	Spaces                 []Weight // nil = client defaults
}

// Contribution is one term of a score breakdown.
type Contribution struct {
	Source string
	Weight float64
	Raw    float64
}

// Value returns the weighted contribution.
func (c Contribution) Value() float64 { return c.Weight * c.Raw }

// Result is one ranked item.
type Result struct {
	ID            string
	Score         float64
	Breakdown     string // "1 + 0.6"
	Contributions []Contribution
	Title         string
	Attributes    map[string]string
}

// FieldResults is the unaggregated result list of one field.
type FieldResults struct {
	Field   string
	Weight  float64
	Results []Result
}

// Response is the outcome of Search.
type Response struct {
	Mode    Mode
	Results []Result
	Fields  []FieldResults // set when PerField is requested
	// Dropped counts ranked ids missing from the catalog.
	Dropped int
	// EncodingTokens is the encoder token usage of the query (0 for cache hits).
	EncodingTokens int
}

// SpaceInfo describes a loaded vector space.
type SpaceInfo struct {
	ID            string
	Dimensions    int
	Documents     int
	Default       bool
	DefaultWeight float64
}

// HealthStatus represents the aggregated health.
type HealthStatus struct {
	Status string            // "ok", "degraded", "error"
	Checks map[string]string // component -> "ok"/"error"
}
