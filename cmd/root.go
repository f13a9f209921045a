// Package cmd defines and implements the CLI commands for the survey-trends
// executable.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/JakeFAU/survey-trends/internal/app"
	"github.com/JakeFAU/survey-trends/internal/config"
	"github.com/JakeFAU/survey-trends/internal/pipeline"
)

// Runner is what the commands need from the application. It is an interface
// so tests can inject a fake.
type Runner interface {
	Run(ctx context.Context) (pipeline.Result, error)
	Close(ctx context.Context) error
}

// newApp is the application factory. It's a variable so tests can replace it.
var newApp = func(ctx context.Context, cfg config.Config) (Runner, error) {
	return app.Build(ctx, cfg)
}

type rootOptions struct {
	cfgFile string
	v       *viper.Viper
}

// newRootCmd creates and configures the root command. Running it without a
// subcommand performs an aggregation.
func newRootCmd() *cobra.Command {
	opts := &rootOptions{v: viper.New()}
	aggregate := newAggregateCmd(opts)

	cmd := &cobra.Command{
		Use:   "survey-trends",
		Short: "Aggregates State of JS survey results into per-year technology counts.",
		Long: `survey-trends streams newline-delimited survey results from an input
directory, counts the respondents who are interested in or would use each
configured technology per year, and writes the aggregate as one JSON document.`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAggregate(cmd, opts)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (YAML, JSON or TOML)")
	addRunFlags(cmd)
	cmd.AddCommand(aggregate)
	cmd.AddCommand(newVersionCmd())
	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig(opts *rootOptions) (config.Config, error) {
	cfg, err := config.LoadWith(opts.v, opts.cfgFile)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
