package weight

import (
	"fmt"
	"math"

	"github.com/kailas-cloud/prodsearch/internal/domain"
)

// FieldWeight pairs a text field with the weight of a match in that field.
type FieldWeight struct {
	field  string
	weight float64
}

// NewField validates and creates a FieldWeight. Weight must be finite and >= 0.
func NewField(field string, w float64) (FieldWeight, error) {
	if field == "" {
		return FieldWeight{}, fmt.Errorf("field name is required")
	}
	if err := check(field, w); err != nil {
		return FieldWeight{}, err
	}
	return FieldWeight{field: field, weight: w}, nil
}

// Field returns the field name.
func (f FieldWeight) Field() string { return f.field }

// Weight returns the field weight.
func (f FieldWeight) Weight() float64 { return f.weight }

// SpaceWeight pairs a vector space (representation mode) with its weight.
type SpaceWeight struct {
	space  string
	weight float64
}

// NewSpace validates and creates a SpaceWeight. Weight must be finite and >= 0.
func NewSpace(space string, w float64) (SpaceWeight, error) {
	if space == "" {
		return SpaceWeight{}, fmt.Errorf("space name is required")
	}
	if err := check(space, w); err != nil {
		return SpaceWeight{}, err
	}
	return SpaceWeight{space: space, weight: w}, nil
}

// Space returns the space identifier.
func (s SpaceWeight) Space() string { return s.space }

// Weight returns the space weight.
func (s SpaceWeight) Weight() float64 { return s.weight }

// Fields builds an ordered FieldWeight list from parallel name/weight slices.
func Fields(names []string, weights []float64) ([]FieldWeight, error) {
	if len(names) != len(weights) {
		return nil, fmt.Errorf("got %d fields and %d weights", len(names), len(weights))
	}
	out := make([]FieldWeight, len(names))
	seen := make(map[string]struct{}, len(names))
	for i, name := range names {
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("field %q listed twice", name)
		}
		seen[name] = struct{}{}
		fw, err := NewField(name, weights[i])
		if err != nil {
			return nil, err
		}
		out[i] = fw
	}
	return out, nil
}

func check(name string, w float64) error {
	if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
		return fmt.Errorf("%w: %q has weight %v", domain.ErrInvalidWeight, name, w)
	}
	return nil
}
