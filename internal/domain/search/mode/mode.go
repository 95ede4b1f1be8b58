package mode

// Mode is the retrieval strategy.
type Mode string

// Search mode constants.
const (
	// Sparse ranks by weighted substring matches over text fields.
	Sparse Mode = "sparse"
	// Dense ranks by weighted dot-product similarity over vector spaces.
	Dense Mode = "dense"
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Sparse || m == Dense
}
