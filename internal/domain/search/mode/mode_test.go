package mode

import "testing"

func TestIsValid(t *testing.T) {
	for _, m := range []Mode{Sparse, Dense} {
		if !m.IsValid() {
			t.Errorf("%q.IsValid() = false, want true", m)
		}
	}

	for _, m := range []Mode{"", "hybrid", "keyword", "SPARSE"} {
		if m.IsValid() {
			t.Errorf("%q.IsValid() = true, want false", m)
		}
	}
}
