package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/prodsearch/internal/domain"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/mode"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/ranking"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/request"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/result"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/weight"
	"github.com/kailas-cloud/prodsearch/internal/domain/vectorspace"
	"github.com/kailas-cloud/prodsearch/internal/logger"
)

// Defaults are the ranking settings used when a request does not override them.
type Defaults struct {
	Fields []weight.FieldWeight
	// Spaces lists the spaces queried by default, in merge order. Nil = every loaded space at weight 1.
	Spaces                 []weight.SpaceWeight
	TruncateAfterAggregate bool
}

// Response is the outcome of one query.
type Response struct {
	Mode    mode.Mode
	Results []result.Result
	// Fields holds the per-field lists when the sparse query ran without aggregation.
	Fields []result.FieldList
	// Dropped counts ranked ids missing from the catalog.
	Dropped int
}

// SpaceInfo describes a loaded vector space.
type SpaceInfo struct {
	ID            string
	Dim           int
	Documents     int
	DefaultWeight float64
	Default       bool
}

// Service answers sparse and dense queries over an immutable catalog and immutable spaces.
// All state is read-only after New; Handle is safe for concurrent use.
type Service struct {
	catalog  CatalogReader
	encoder  domain.Encoder
	spaces   map[string]*vectorspace.Space
	order    []string
	defaults Defaults
	recorder Recorder
}

// New creates a search service. encoder may be nil: dense queries then need a raw vector.
// Default space weights must name loaded spaces.
func New(
	catalog CatalogReader, spaces []*vectorspace.Space, encoder domain.Encoder, defaults Defaults,
) (*Service, error) {
	byID := make(map[string]*vectorspace.Space, len(spaces))
	order := make([]string, 0, len(spaces))
	for _, sp := range spaces {
		if _, dup := byID[sp.ID()]; dup {
			return nil, fmt.Errorf("vector space %q loaded twice", sp.ID())
		}
		byID[sp.ID()] = sp
		order = append(order, sp.ID())
	}
	for _, sw := range defaults.Spaces {
		if _, ok := byID[sw.Space()]; !ok {
			return nil, fmt.Errorf("default weights: %w: %q", domain.ErrUnknownSpace, sw.Space())
		}
	}
	s := &Service{
		catalog:  catalog,
		encoder:  encoder,
		spaces:   byID,
		order:    order,
		defaults: defaults,
		recorder: nopRecorder{},
	}
	if len(spaces) > 0 {
		if _, err := s.retriever(nil); err != nil {
			return nil, fmt.Errorf("default spaces: %w", err)
		}
	}
	return s, nil
}

// WithRecorder sets the outcome recorder.
func (s *Service) WithRecorder(r Recorder) *Service {
	if r != nil {
		s.recorder = r
	}
	return s
}

// Handle runs one query to completion. Fatal errors return no partial output.
func (s *Service) Handle(ctx context.Context, req *request.Request) (Response, error) {
	start := time.Now()

	var (
		resp Response
		err  error
	)
	switch req.Mode() {
	case mode.Sparse:
		resp, err = s.handleSparse(ctx, req)
	case mode.Dense:
		resp, err = s.handleDense(ctx, req)
	default:
		return Response{}, fmt.Errorf("unsupported search mode: %s", req.Mode())
	}

	status := "ok"
	if err != nil {
		status = errorStatus(err)
	}
	s.recorder.ObserveSearch(req.Mode(), status, time.Since(start), len(resp.Results))
	if err != nil {
		return Response{}, err
	}
	resp.Mode = req.Mode()
	return resp, nil
}

func (s *Service) handleSparse(ctx context.Context, req *request.Request) (Response, error) {
	fields := req.FieldWeights()
	if fields == nil {
		fields = s.defaults.Fields
	}
	tokens := req.Tokens()
	if len(tokens) == 0 {
		logger.FromContext(ctx).Debug("empty sparse query")
	}
	items := s.catalog.Items()

	if !req.Aggregate() {
		lists, err := PerField(items, tokens, fields, req.PerFieldLimit())
		if err != nil {
			return Response{}, fmt.Errorf("per-field sparse search: %w", err)
		}
		resp := Response{Fields: make([]result.FieldList, len(fields))}
		for i, fw := range fields {
			hits, dropped := s.hydrate(ctx, lists[i])
			resp.Fields[i] = result.FieldList{Field: fw.Field(), Weight: fw.Weight(), Results: hits}
			resp.Dropped += dropped
		}
		return resp, nil
	}

	var (
		ranked []ranking.Ranked
		err    error
	)
	if req.TruncateAfterAggregate() || s.defaults.TruncateAfterAggregate {
		ranked, err = AggregateUntruncated(items, tokens, fields, req.TopK())
	} else {
		ranked, err = Aggregate(items, tokens, fields, req.PerFieldLimit(), req.TopK())
	}
	if err != nil {
		return Response{}, fmt.Errorf("sparse search: %w", err)
	}
	hits, dropped := s.hydrate(ctx, ranked)
	return Response{Results: hits, Dropped: dropped}, nil
}

func (s *Service) handleDense(ctx context.Context, req *request.Request) (Response, error) {
	r, err := s.retriever(req.SpaceWeights())
	if err != nil {
		return Response{}, err
	}

	vec := req.Vector()
	if vec == nil && req.Query() != "" {
		vec, err = s.encodeQuery(ctx, req.Query())
		if err != nil {
			return Response{}, err
		}
	}
	if vec == nil {
		vec = []float32{}
	}

	ranked, err := r.Retrieve(vec, req.TopK())
	if err != nil {
		return Response{}, fmt.Errorf("dense search: %w", err)
	}
	hits, dropped := s.hydrate(ctx, ranked)
	return Response{Results: hits, Dropped: dropped}, nil
}

func (s *Service) encodeQuery(ctx context.Context, query string) ([]float32, error) {
	if s.encoder == nil {
		return nil, fmt.Errorf("no encoder configured, send a query vector: %w", domain.ErrNotImplemented)
	}
	vec, tokens, err := domain.EncodeOne(ctx, s.encoder, query)
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}
	domain.UsageFromContext(ctx).AddTokens(tokens)
	return vec, nil
}

// retriever resolves space weights (nil = defaults) into a validated Retriever.
func (s *Service) retriever(weights []weight.SpaceWeight) (*Retriever, error) {
	if weights == nil {
		weights = s.defaults.Spaces
	}
	if weights == nil {
		weights = make([]weight.SpaceWeight, 0, len(s.order))
		for _, id := range s.order {
			sw, err := weight.NewSpace(id, 1)
			if err != nil {
				return nil, err
			}
			weights = append(weights, sw)
		}
	}
	spaces := make([]WeightedSpace, 0, len(weights))
	for _, sw := range weights {
		sp, ok := s.spaces[sw.Space()]
		if !ok {
			return nil, fmt.Errorf("%w: %q", domain.ErrUnknownSpace, sw.Space())
		}
		spaces = append(spaces, WeightedSpace{Space: sp, Weight: sw.Weight()})
	}
	return NewRetriever(spaces)
}

// hydrate attaches catalog attributes. Ids missing from the catalog are dropped, logged and counted.
func (s *Service) hydrate(ctx context.Context, ranked []ranking.Ranked) ([]result.Result, int) {
	out := make([]result.Result, 0, len(ranked))
	var unknown []string
	for i := range ranked {
		it, ok := s.catalog.Get(ranked[i].ID())
		if !ok {
			unknown = append(unknown, ranked[i].ID())
			continue
		}
		out = append(out, result.New(
			ranked[i].ID(), ranked[i].Score(), ranked[i].Contributions(),
			it.Title(), it.Attributes(),
		))
	}
	if len(unknown) > 0 {
		logger.FromContext(ctx).Warn("dropped ranked ids missing from catalog",
			zap.Strings("ids", unknown),
			zap.Error(domain.ErrUnknownItem),
		)
		s.recorder.UnknownItems(len(unknown))
	}
	return out, len(unknown)
}

// Spaces describes the loaded vector spaces in load order.
func (s *Service) Spaces() []SpaceInfo {
	defaults := make(map[string]float64, len(s.defaults.Spaces))
	for _, sw := range s.defaults.Spaces {
		defaults[sw.Space()] = sw.Weight()
	}
	out := make([]SpaceInfo, 0, len(s.order))
	for _, id := range s.order {
		sp := s.spaces[id]
		info := SpaceInfo{ID: id, Dim: sp.Dim(), Documents: sp.Len()}
		if s.defaults.Spaces == nil {
			info.Default, info.DefaultWeight = true, 1
		} else if w, ok := defaults[id]; ok {
			info.Default, info.DefaultWeight = true, w
		}
		out = append(out, info)
	}
	return out
}

// Item returns one catalog item as a result with zero score.
func (s *Service) Item(id string) (result.Result, error) {
	it, ok := s.catalog.Get(id)
	if !ok {
		return result.Result{}, fmt.Errorf("item %q: %w", id, domain.ErrNotFound)
	}
	return result.New(it.ID(), 0, nil, it.Title(), it.Attributes()), nil
}

// CatalogSize returns the number of catalog items.
func (s *Service) CatalogSize() int { return s.catalog.Len() }

// SpaceCount returns the number of loaded vector spaces.
func (s *Service) SpaceCount() int { return len(s.order) }

func errorStatus(err error) string {
	switch {
	case errors.Is(err, domain.ErrDimensionMismatch):
		return "dimension_mismatch"
	case errors.Is(err, domain.ErrInvalidWeight):
		return "invalid_weight"
	case errors.Is(err, domain.ErrUnknownSpace), errors.Is(err, domain.ErrNoSpaces):
		return "unknown_space"
	case errors.Is(err, domain.ErrEncoderError):
		return "encoder_error"
	default:
		return "error"
	}
}
