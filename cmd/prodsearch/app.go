package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/prodsearch/internal/config"
	"github.com/kailas-cloud/prodsearch/internal/db"
	dbValkey "github.com/kailas-cloud/prodsearch/internal/db/valkey"
	"github.com/kailas-cloud/prodsearch/internal/domain"
	"github.com/kailas-cloud/prodsearch/internal/domain/item"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/weight"
	"github.com/kailas-cloud/prodsearch/internal/domain/vectorspace"
	logpkg "github.com/kailas-cloud/prodsearch/internal/logger"
	"github.com/kailas-cloud/prodsearch/internal/metrics"
	"github.com/kailas-cloud/prodsearch/internal/repository/artifact"
	"github.com/kailas-cloud/prodsearch/internal/repository/catalog"
	"github.com/kailas-cloud/prodsearch/internal/repository/embcache"
	openaiEnc "github.com/kailas-cloud/prodsearch/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/prodsearch/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/prodsearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/prodsearch/internal/usecase/search"
)

// knownModes are the representation modes probed when dense.spaces is empty.
var knownModes = []string{vectorspace.ModeCLS, vectorspace.ModeMean, vectorspace.ModeMax}

// app is the composition root shared by the subcommands.
type app struct {
	cfg     config.Config
	logger  *zap.Logger
	catalog *item.Catalog
	spaces  []*vectorspace.Space
	store   db.Store
	// provider is the bare transport encoder, used for health checks. Nil when encoding is disabled.
	provider *openaiEnc.Encoder
	encoder  domain.Encoder
	search   *searchuc.Service
	health   *healthuc.Service
}

func newLogger(opts *rootOptions, cfg config.Config) (*zap.Logger, error) {
	level := cfg.Logging.Level
	if opts.logLevel != "" {
		level = opts.logLevel
	}
	return logpkg.NewLogger(opts.env, level) //nolint:wrapcheck // already descriptive
}

// newApp loads the catalog and the vector spaces and assembles the services.
func newApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	metrics.RegisterEncoderMetrics()
	metrics.RegisterSearchMetrics()

	start := time.Now()
	cat, err := catalog.Load(ctx, cfg.Catalog.Path, catalog.WithLimit(cfg.Catalog.Limit))
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	a.catalog = cat
	logger.Info("Catalog loaded",
		zap.String("path", cfg.Catalog.Path),
		zap.Int("items", cat.Len()),
		zap.Duration("took", time.Since(start)),
	)

	spaceDefaults, err := a.loadSpaces(ctx)
	if err != nil {
		return nil, err
	}

	if cfg.Cache.Enabled() {
		if err := a.connectStore(ctx); err != nil {
			return nil, err
		}
	}
	if cfg.Embedding.Enabled() {
		if err := a.buildEncoder(); err != nil {
			a.close()
			return nil, err
		}
	}

	fields, err := fieldWeights(cfg.Sparse.Fields)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("sparse.fields: %w", err)
	}
	svc, err := searchuc.New(cat, a.spaces, a.encoder, searchuc.Defaults{
		Fields:                 fields,
		Spaces:                 spaceDefaults,
		TruncateAfterAggregate: cfg.Sparse.TruncateAfterAggregate,
	})
	if err != nil {
		a.close()
		return nil, fmt.Errorf("create search service: %w", err)
	}
	a.search = svc.WithRecorder(metrics.NewSearchRecorder())

	spaceDocs := make(map[string]int, len(a.spaces))
	for _, sp := range a.spaces {
		spaceDocs[sp.ID()] = sp.Len()
	}
	metrics.SetCorpus(cat.Len(), spaceDocs)

	var cache healthuc.Pinger
	if a.store != nil {
		cache = a.store
	}
	var enc healthuc.EncoderChecker
	if a.provider != nil {
		enc = a.provider
	}
	a.health = healthuc.New(a.search, cache, enc)
	return a, nil
}

// loadSpaces loads the configured artifacts. With no configured spaces every
// known mode present on disk is loaded and nil defaults (weight 1 each) are returned.
func (a *app) loadSpaces(ctx context.Context) ([]weight.SpaceWeight, error) {
	dir := a.cfg.Dense.ArtifactDir
	var (
		modes    []string
		defaults []weight.SpaceWeight
	)
	if len(a.cfg.Dense.Spaces) == 0 {
		for _, m := range knownModes {
			if artifact.Exists(dir, m) {
				modes = append(modes, m)
			}
		}
	} else {
		for _, s := range a.cfg.Dense.Spaces {
			sw, err := weight.NewSpace(s.Name, s.Weight)
			if err != nil {
				return nil, fmt.Errorf("dense.spaces: %w", err)
			}
			modes = append(modes, s.Name)
			defaults = append(defaults, sw)
		}
	}
	if len(modes) == 0 {
		a.logger.Warn("No vector spaces found, dense search disabled", zap.String("artifact_dir", dir))
		return nil, nil
	}

	spaces, err := artifact.LoadAll(ctx, dir, modes)
	if err != nil {
		return nil, err //nolint:wrapcheck // carries the dir
	}
	for _, sp := range spaces {
		a.logger.Info("Vector space loaded",
			zap.String("space", sp.ID()),
			zap.Int("documents", sp.Len()),
			zap.Int("dim", sp.Dim()),
		)
	}
	a.spaces = spaces
	return defaults, nil
}

func (a *app) connectStore(ctx context.Context) error {
	c := a.cfg.Cache
	store, err := dbValkey.NewStore(dbValkey.Config{
		Addrs:    c.Addrs,
		Username: c.Username,
		Password: c.Password,
		DB:       c.DB,
		RESP2:    c.Driver == "redis",
	})
	if err != nil {
		return fmt.Errorf("create cache store: %w", err)
	}
	if err := store.WaitForReady(ctx, time.Duration(c.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return fmt.Errorf("cache not ready: %w", err)
	}
	a.store = store
	a.logger.Info("Connected to cache", zap.String("driver", c.Driver), zap.Strings("addrs", c.Addrs))
	return nil
}

// buildEncoder assembles the query decorator chain:
// OpenAI -> Instrumented -> shared cache -> LRU -> Instruction.
func (a *app) buildEncoder() error {
	e := a.cfg.Embedding
	a.provider = openaiEnc.NewEncoder(&openaiEnc.Config{
		APIKey:     e.APIKey,
		BaseURL:    e.BaseURL,
		Model:      e.Model,
		Dimensions: e.Dimensions,
		Provider:   e.Provider,
		Timeout:    time.Duration(e.TimeoutSec) * time.Second,
		Logger:     a.logger,
	})

	var enc domain.Encoder = embeddinguc.NewInstrumentedEncoder(
		a.provider, e.Provider, e.Model, e.Dimensions, e.BatchSize, a.logger,
	)
	if a.store != nil {
		ttl := time.Duration(a.cfg.Cache.TTLSec) * time.Second
		enc = embcache.New(enc, a.store, e.Model, ttl, metrics.EncoderCacheTotal, a.logger)
	}
	if e.LRUSize > 0 {
		lru, err := embeddinguc.NewCachedEncoder(enc, e.Model, e.LRUSize, metrics.EncoderCacheTotal)
		if err != nil {
			return fmt.Errorf("create query cache: %w", err)
		}
		enc = lru
	}
	if e.QueryInstruction != "" {
		enc = domain.NewInstructionEncoder(enc, e.QueryInstruction)
	}
	a.encoder = enc

	a.logger.Info("Encoder created",
		zap.String("provider", e.Provider),
		zap.String("model", e.Model),
		zap.Int("dimensions", e.Dimensions),
		zap.Bool("shared_cache", a.store != nil),
	)
	return nil
}

func (a *app) close() {
	if a.store != nil {
		a.store.Close()
	}
}

func fieldWeights(ws []config.WeightConfig) ([]weight.FieldWeight, error) {
	names := make([]string, len(ws))
	weights := make([]float64, len(ws))
	for i, w := range ws {
		names[i], weights[i] = w.Name, w.Weight
	}
	return weight.Fields(names, weights) //nolint:wrapcheck // wrapped by caller
}
