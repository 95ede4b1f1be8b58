package prodsearch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/prodsearch/internal/domain"
	"github.com/kailas-cloud/prodsearch/internal/domain/item"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/request"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/result"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/weight"
	"github.com/kailas-cloud/prodsearch/internal/domain/vectorspace"
	"github.com/kailas-cloud/prodsearch/internal/repository/artifact"
	"github.com/kailas-cloud/prodsearch/internal/repository/catalog"
	healthuc "github.com/kailas-cloud/prodsearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/prodsearch/internal/usecase/search"
)

// Internal interfaces, swapped in tests.
type searchUseCase interface {
	Handle(ctx context.Context, req *request.Request) (searchuc.Response, error)
	Item(id string) (result.Result, error)
	Spaces() []searchuc.SpaceInfo
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

// Client is the prodsearch SDK entry point.
type Client struct {
	search searchUseCase
	health healthUseCase
	obs    *observer
}

// New loads the catalog and the vector spaces and creates a Client.
// The context bounds the loading.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{fields: defaultFields()}
	for _, o := range opts {
		o.apply(cfg)
	}

	start := time.Now()
	cat, err := loadCatalog(ctx, cfg)
	if err != nil {
		return nil, err
	}
	spaces, spaceDefaults, err := loadSpaces(ctx, cfg)
	if err != nil {
		return nil, err
	}

	fields, err := fieldWeights(cfg.fields)
	if err != nil {
		return nil, fmt.Errorf("prodsearch: fields: %w", err)
	}
	var enc domain.Encoder
	if cfg.encoder != nil {
		enc = &encoderAdapter{inner: cfg.encoder}
	}
	svc, err := searchuc.New(cat, spaces, enc, searchuc.Defaults{
		Fields:                 fields,
		Spaces:                 spaceDefaults,
		TruncateAfterAggregate: cfg.truncateAfterAggregate,
	})
	if err != nil {
		return nil, fmt.Errorf("prodsearch: %w", err)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}
	obs.observe("load", start, nil, "items", cat.Len(), "spaces", len(spaces))

	return &Client{search: svc, health: healthuc.New(svc, nil, nil), obs: obs}, nil
}

// Search runs one query.
func (c *Client) Search(ctx context.Context, req SearchRequest) (resp Response, err error) {
	start := time.Now()
	defer func() { c.obs.observe("search", start, err, "mode", string(resp.Mode)) }()

	params, err := toParams(&req)
	if err != nil {
		return Response{}, err
	}
	r, err := request.New(params)
	if err != nil {
		return Response{}, fmt.Errorf("prodsearch: %w", err)
	}

	ctx, usage := domain.NewContextWithUsage(ctx)
	out, err := c.search.Handle(ctx, &r)
	if err != nil {
		return Response{}, fmt.Errorf("prodsearch: search: %w", err)
	}
	resp = fromResponse(&out)
	resp.EncodingTokens = usage.TotalTokens
	return resp, nil
}

// Item returns one catalog item with a zero score. Missing ids return ErrNotFound.
func (c *Client) Item(id string) (Result, error) {
	r, err := c.search.Item(id)
	if err != nil {
		return Result{}, fmt.Errorf("prodsearch: %w", err)
	}
	return fromResult(&r), nil
}

// Spaces describes the loaded vector spaces.
func (c *Client) Spaces() []SpaceInfo {
	infos := c.search.Spaces()
	out := make([]SpaceInfo, len(infos))
	for i, s := range infos {
		out[i] = SpaceInfo{
			ID:            s.ID,
			Dimensions:    s.Dim,
			Documents:     s.Documents,
			Default:       s.Default,
			DefaultWeight: s.DefaultWeight,
		}
	}
	return out
}

// Health reports whether the catalog and spaces are usable.
func (c *Client) Health(ctx context.Context) HealthStatus {
	report := c.health.Check(ctx)
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	return HealthStatus{Status: string(report.Status), Checks: checks}
}

func loadCatalog(ctx context.Context, cfg *clientConfig) (*item.Catalog, error) {
	switch {
	case cfg.catalogPath != "" && cfg.items != nil:
		return nil, errors.New("prodsearch: WithCatalogFile and WithItems are exclusive")
	case cfg.catalogPath != "":
		cat, err := catalog.Load(ctx, cfg.catalogPath, catalog.WithLimit(cfg.catalogLimit))
		if err != nil {
			return nil, fmt.Errorf("prodsearch: %w", err)
		}
		return cat, nil
	case cfg.items != nil:
		return itemsCatalog(cfg.items, cfg.catalogLimit)
	default:
		return nil, errors.New("prodsearch: catalog required (use WithCatalogFile or WithItems)")
	}
}

func itemsCatalog(items []Item, limit int) (*item.Catalog, error) {
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	out := make([]item.Item, len(items))
	for i, it := range items {
		d, err := item.New(it.ID, item.Attributes{
			Title:       it.Title,
			Description: it.Description,
			BulletPoint: it.BulletPoint,
			Brand:       it.Brand,
			Color:       it.Color,
			Locale:      it.Locale,
			Extra:       it.Extra,
		})
		if err != nil {
			return nil, fmt.Errorf("prodsearch: item %d: %w", i, err)
		}
		out[i] = d
	}
	cat, err := item.NewCatalog(out)
	if err != nil {
		return nil, fmt.Errorf("prodsearch: %w", err)
	}
	return cat, nil
}

func loadSpaces(ctx context.Context, cfg *clientConfig) ([]*vectorspace.Space, []weight.SpaceWeight, error) {
	if cfg.artifactDir == "" {
		return nil, nil, nil
	}
	var (
		modes    []string
		defaults []weight.SpaceWeight
	)
	if len(cfg.spaces) == 0 {
		for _, m := range []string{vectorspace.ModeCLS, vectorspace.ModeMean, vectorspace.ModeMax} {
			if artifact.Exists(cfg.artifactDir, m) {
				modes = append(modes, m)
			}
		}
	} else {
		var err error
		if defaults, err = spaceWeights(cfg.spaces); err != nil {
			return nil, nil, fmt.Errorf("prodsearch: spaces: %w", err)
		}
		for _, s := range cfg.spaces {
			modes = append(modes, s.Name)
		}
	}
	if len(modes) == 0 {
		return nil, nil, nil
	}
	spaces, err := artifact.LoadAll(ctx, cfg.artifactDir, modes)
	if err != nil {
		return nil, nil, fmt.Errorf("prodsearch: %w", err)
	}
	return spaces, defaults, nil
}
