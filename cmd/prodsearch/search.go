package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/prodsearch/internal/domain"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/mode"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/ranking"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/request"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/result"
	logpkg "github.com/kailas-cloud/prodsearch/internal/logger"
	searchuc "github.com/kailas-cloud/prodsearch/internal/usecase/search"
)

type searchOptions struct {
	mode          string
	topK          int
	perFieldLimit int
	noAggregate   bool
	truncateAfter bool
	format        string
}

func newSearchCmd(root *rootOptions) *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Run one query in-process and print the ranking",
		Long: `Run one query against the configured catalog and vector spaces.

Examples:
  prodsearch search "red running shoes"
  prodsearch search "red running shoes" --mode dense --top-k 5
  prodsearch search "Acme" --no-aggregate --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd.Context(), root, cmd.OutOrStdout(), strings.Join(args, " "), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.mode, "mode", "m", string(mode.Sparse), "Retrieval mode: sparse, dense")
	cmd.Flags().IntVarP(&opts.topK, "top-k", "n", 0, "Number of results (0 = config default)")
	cmd.Flags().IntVar(&opts.perFieldLimit, "per-field-limit", 0, "Matches kept per field before aggregation (0 = top-k)")
	cmd.Flags().BoolVar(&opts.noAggregate, "no-aggregate", false, "Print one ranking per field instead of the sum")
	cmd.Flags().BoolVar(&opts.truncateAfter, "truncate-after-aggregate", false, "Consider every field match before truncating")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")
	return cmd
}

func runSearch(ctx context.Context, root *rootOptions, out io.Writer, query string, opts searchOptions) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(root, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	topK := opts.topK
	if topK == 0 {
		topK = cfg.Sparse.TopK
	}
	aggregate := !opts.noAggregate
	req, err := request.New(request.Params{
		Query:                  query,
		Mode:                   mode.Mode(opts.mode),
		TopK:                   topK,
		PerFieldLimit:          opts.perFieldLimit,
		Aggregate:              &aggregate,
		TruncateAfterAggregate: opts.truncateAfter,
	})
	if err != nil {
		return fmt.Errorf("invalid query: %w", err)
	}

	ctx = logpkg.ContextWithLogger(ctx, logger)
	ctx, usage := domain.NewContextWithUsage(ctx)
	resp, err := a.search.Handle(ctx, &req)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}
	if usage.Used {
		logger.Debug("query encoded", zap.Int("tokens", usage.TotalTokens))
	}

	if opts.format == "json" {
		return writeJSONResults(out, &resp)
	}
	return writeTextResults(out, &resp)
}

type jsonRow struct {
	ID         string            `json:"id"`
	Score      float64           `json:"score"`
	Breakdown  string            `json:"breakdown,omitempty"`
	Title      string            `json:"title,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

type jsonField struct {
	Field  string    `json:"field"`
	Weight float64   `json:"weight"`
	Rows   []jsonRow `json:"results"`
}

func writeJSONResults(out io.Writer, resp *searchuc.Response) error {
	payload := struct {
		Mode    string      `json:"mode"`
		Results []jsonRow   `json:"results,omitempty"`
		Fields  []jsonField `json:"fields,omitempty"`
	}{Mode: string(resp.Mode), Results: jsonRows(resp.Results)}
	for _, fl := range resp.Fields {
		payload.Fields = append(payload.Fields, jsonField{Field: fl.Field, Weight: fl.Weight, Rows: jsonRows(fl.Results)})
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(payload) //nolint:wrapcheck // write error
}

func jsonRows(rs []result.Result) []jsonRow {
	rows := make([]jsonRow, len(rs))
	for i := range rs {
		rows[i] = jsonRow{
			ID:         rs[i].ID(),
			Score:      rs[i].Score(),
			Breakdown:  breakdown(&rs[i]),
			Title:      rs[i].Title(),
			Attributes: rs[i].Attributes(),
		}
	}
	return rows
}

func writeTextResults(out io.Writer, resp *searchuc.Response) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	if resp.Fields != nil {
		for _, fl := range resp.Fields {
			fmt.Fprintf(tw, "# %s (weight %s)\n", fl.Field, strconv.FormatFloat(fl.Weight, 'f', -1, 64))
			writeRows(tw, fl.Results)
			fmt.Fprintln(tw)
		}
		return tw.Flush() //nolint:wrapcheck // write error
	}
	writeRows(tw, resp.Results)
	if resp.Dropped > 0 {
		fmt.Fprintf(tw, "(%d ranked ids missing from the catalog were dropped)\n", resp.Dropped)
	}
	return tw.Flush() //nolint:wrapcheck // write error
}

func writeRows(w io.Writer, rs []result.Result) {
	if len(rs) == 0 {
		fmt.Fprintln(w, "no results")
		return
	}
	fmt.Fprintln(w, "RANK\tID\tSCORE\tBREAKDOWN\tTITLE")
	for i := range rs {
		fmt.Fprintf(w, "%d\t%s\t%.4f\t%s\t%s\n", i+1, rs[i].ID(), rs[i].Score(), breakdown(&rs[i]), rs[i].Title())
	}
}

func breakdown(r *result.Result) string {
	rk := ranking.New(r.ID(), r.Score(), r.Contributions())
	return rk.Breakdown()
}
