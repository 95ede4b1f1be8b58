package health

import "context"

// Pinger checks cache store availability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// EncoderChecker checks query encoder availability.
type EncoderChecker interface {
	HealthCheck(ctx context.Context) error
}

// Corpus reports what was loaded at startup.
type Corpus interface {
	CatalogSize() int
	SpaceCount() int
}
