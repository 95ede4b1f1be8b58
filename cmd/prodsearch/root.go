package main

import (
	"github.com/spf13/cobra"

	"github.com/kailas-cloud/prodsearch/internal/config"
	"github.com/kailas-cloud/prodsearch/internal/version"
)

// rootOptions are the flags shared by every subcommand.
type rootOptions struct {
	env        string
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "prodsearch",
		Short: "Sparse and dense product retrieval",
		Long: `prodsearch ranks catalog products for a free-text query.

Sparse mode scores weighted substring matches over product fields.
Dense mode scores weighted dot products over precomputed vector spaces.`,
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.SetVersionTemplate("prodsearch {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&opts.env, "env", config.GetEnv(), "Environment: selects config/<env>.yaml and the log format")
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Explicit config file (overrides --env lookup)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level override: debug, info, warn, error")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newSearchCmd(opts))
	cmd.AddCommand(newBuildSpaceCmd(opts))
	return cmd
}

func (o *rootOptions) loadConfig() (config.Config, error) {
	if o.configPath != "" {
		return config.LoadFile(o.configPath) //nolint:wrapcheck // carries the path
	}
	return config.Load(o.env) //nolint:wrapcheck // carries the path
}
