package prodsearch

import "github.com/kailas-cloud/prodsearch/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound          = domain.ErrNotFound
	ErrDimensionMismatch = domain.ErrDimensionMismatch
	ErrInvalidWeight     = domain.ErrInvalidWeight
	ErrInvalidTopK       = domain.ErrInvalidTopK
	ErrMalformedArtifact = domain.ErrMalformedArtifact
	ErrDuplicateItem     = domain.ErrDuplicateItem
	ErrUnknownSpace      = domain.ErrUnknownSpace
	ErrNoSpaces          = domain.ErrNoSpaces
	ErrEncoderError      = domain.ErrEncoderError
	ErrNotImplemented    = domain.ErrNotImplemented
)
