package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrDimensionMismatch signals a query or document vector whose length differs from the space dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	// ErrInvalidWeight signals a negative or non-finite field/space weight.
	ErrInvalidWeight = errors.New("invalid weight")
	// ErrInvalidTopK signals top_k < 1.
	ErrInvalidTopK = errors.New("top_k must be at least 1")
	// ErrMalformedArtifact signals a persisted vector space whose id list and matrix disagree.
	ErrMalformedArtifact = errors.New("malformed persisted artifact")
	// ErrUnknownItem signals a scored id with no catalog entry. Recoverable: the row is dropped.
	ErrUnknownItem = errors.New("unknown item id")
	// ErrDuplicateItem signals two catalog rows with the same id.
	ErrDuplicateItem = errors.New("duplicate item id")
	// ErrUnknownSpace signals a request naming a vector space that is not loaded.
	ErrUnknownSpace = errors.New("unknown vector space")
	// ErrNoSpaces signals a dense query against a service without vector spaces.
	ErrNoSpaces = errors.New("no vector spaces configured")

	// ErrEncoderError signals an encoding provider failure.
	ErrEncoderError = errors.New("encoder error")
	// ErrNotImplemented signals an unimplemented feature.
	ErrNotImplemented = errors.New("not implemented")
)

// DimensionError wraps ErrDimensionMismatch with the dimensions involved.
type DimensionError struct {
	Space    string
	Expected int
	Actual   int
}

func (e *DimensionError) Error() string {
	if e.Space == "" {
		return fmt.Sprintf("%s: expected %d, got %d", ErrDimensionMismatch.Error(), e.Expected, e.Actual)
	}
	return fmt.Sprintf("%s: space %q expects %d, got %d",
		ErrDimensionMismatch.Error(), e.Space, e.Expected, e.Actual)
}

func (e *DimensionError) Unwrap() error { return ErrDimensionMismatch }

// NewDimensionMismatch creates a dimension mismatch error for the named space.
func NewDimensionMismatch(space string, expected, actual int) error {
	return &DimensionError{Space: space, Expected: expected, Actual: actual}
}
