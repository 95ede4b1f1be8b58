package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/prodsearch/internal/domain/item"
	logpkg "github.com/kailas-cloud/prodsearch/internal/logger"
	"github.com/kailas-cloud/prodsearch/internal/metrics"
	"github.com/kailas-cloud/prodsearch/internal/repository/artifact"
	"github.com/kailas-cloud/prodsearch/internal/repository/catalog"
	openaiEnc "github.com/kailas-cloud/prodsearch/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/prodsearch/internal/usecase/embedding"
	"github.com/kailas-cloud/prodsearch/internal/usecase/indexing"
)

type buildOptions struct {
	mode        string
	field       string
	limit       int
	out         string
	batchSize   int
	concurrency int
	force       bool
}

func newBuildSpaceCmd(root *rootOptions) *cobra.Command {
	var opts buildOptions

	cmd := &cobra.Command{
		Use:   "build-space",
		Short: "Encode catalog items and write a vector space artifact",
		Long: `Encode one field of every catalog item through the configured encoder and
write <mode>_ids.json and <mode>_embs.npy into the artifact directory.

Examples:
  prodsearch build-space --mode cls
  prodsearch build-space --mode mean --limit 10000 --out ./artifacts`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBuildSpace(cmd.Context(), root, cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.mode, "mode", "m", "", "Space identifier (representation mode), e.g. cls, mean, max")
	cmd.Flags().StringVar(&opts.field, "field", item.FieldTitle, "Item field to encode")
	cmd.Flags().IntVar(&opts.limit, "limit", 0, "Encode only the first N catalog items (0 = config catalog.limit)")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "Artifact directory (default dense.artifact_dir)")
	cmd.Flags().IntVar(&opts.batchSize, "batch-size", indexing.DefaultBatchSize, "Texts per encoder request")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", indexing.DefaultConcurrency, "Concurrent encoder requests")
	cmd.Flags().BoolVar(&opts.force, "force", false, "Overwrite an existing artifact")
	_ = cmd.MarkFlagRequired("mode")
	return cmd
}

func runBuildSpace(ctx context.Context, root *rootOptions, out io.Writer, opts buildOptions) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	if !cfg.Embedding.Enabled() {
		return fmt.Errorf("build-space needs an encoder: set embedding.model")
	}
	logger, err := newLogger(root, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	ctx = logpkg.ContextWithLogger(ctx, logger)

	dir := opts.out
	if dir == "" {
		dir = cfg.Dense.ArtifactDir
	}
	if artifact.Exists(dir, opts.mode) && !opts.force {
		return fmt.Errorf("artifact %s already exists in %s (use --force)", opts.mode, dir)
	}

	limit := opts.limit
	if limit == 0 {
		limit = cfg.Catalog.Limit
	}
	cat, err := catalog.Load(ctx, cfg.Catalog.Path, catalog.WithLimit(limit))
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	metrics.RegisterEncoderMetrics()
	e := cfg.Embedding
	provider := openaiEnc.NewEncoder(&openaiEnc.Config{
		APIKey:     e.APIKey,
		BaseURL:    e.BaseURL,
		Model:      e.Model,
		Dimensions: e.Dimensions,
		Provider:   e.Provider,
		Timeout:    time.Duration(e.TimeoutSec) * time.Second,
		Logger:     logger,
	})
	enc := embeddinguc.NewInstrumentedEncoder(provider, e.Provider, e.Model, e.Dimensions, opts.batchSize, logger)

	logger.Info("Building vector space",
		zap.String("space", opts.mode),
		zap.String("field", opts.field),
		zap.Int("items", cat.Len()),
		zap.String("model", e.Model),
	)
	sp, stats, err := indexing.Build(ctx, enc, opts.mode, cat.Items(), indexing.Options{
		Field:       opts.field,
		BatchSize:   opts.batchSize,
		Concurrency: opts.concurrency,
	})
	if err != nil {
		return err //nolint:wrapcheck // carries the space id
	}
	if err := artifact.Save(dir, sp); err != nil {
		return fmt.Errorf("save artifact: %w", err)
	}

	logger.Info("Vector space written",
		zap.String("space", sp.ID()),
		zap.String("dir", dir),
		zap.Int("encoded", stats.Encoded),
		zap.Int("skipped", stats.Skipped),
		zap.Int("tokens", stats.Tokens),
		zap.Duration("took", stats.Duration),
	)
	_, err = fmt.Fprintf(out, "wrote %s (%d vectors, dim %d, %d skipped) to %s\n",
		sp.ID(), sp.Len(), sp.Dim(), stats.Skipped, dir)
	return err //nolint:wrapcheck // write error
}
