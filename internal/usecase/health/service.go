package health

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates an optional component failed; sparse search still works.
	Degraded Status = "degraded"
	// Unhealthy indicates the catalog is unusable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names in Report.Checks.
const (
	CheckCatalog = "catalog"
	CheckSpaces  = "spaces"
	CheckCache   = "cache"
	CheckEncoder = "encoder"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	corpus  Corpus
	cache   Pinger
	encoder EncoderChecker
}

// New creates a Service. cache and encoder can be nil.
func New(corpus Corpus, cache Pinger, encoder EncoderChecker) *Service {
	return &Service{corpus: corpus, cache: cache, encoder: encoder}
}

// Check runs the remote checks concurrently and the in-memory ones inline.
func (s *Service) Check(ctx context.Context) Report {
	checks := map[string]CheckResult{
		CheckCatalog: result(s.corpus.CatalogSize() > 0),
		CheckSpaces:  result(s.corpus.SpaceCount() > 0),
	}

	var cacheOK, encoderOK bool
	g, gctx := errgroup.WithContext(ctx)
	if s.cache != nil {
		g.Go(func() error {
			cacheOK = s.cache.Ping(gctx) == nil
			return nil
		})
	}
	if s.encoder != nil {
		g.Go(func() error {
			encoderOK = s.encoder.HealthCheck(gctx) == nil
			return nil
		})
	}
	_ = g.Wait()

	if s.cache != nil {
		checks[CheckCache] = result(cacheOK)
	}
	if s.encoder != nil {
		checks[CheckEncoder] = result(encoderOK)
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}
	if checks[CheckCatalog] == CheckError {
		status = Unhealthy
	}
	return Report{Status: status, Checks: checks}
}

func result(ok bool) CheckResult {
	if ok {
		return CheckOK
	}
	return CheckError
}
