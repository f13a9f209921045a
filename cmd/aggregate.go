package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/JakeFAU/survey-trends/internal/app"
)

// runFlags maps CLI flags to their config keys.
var runFlags = []struct {
	name, key string
}{
	{"input", "input.dir"},
	{"output", "output.path"},
	{"backend", "output.backend"},
	{"serve", "server.enabled"},
	{"port", "server.port"},
	{"linger", "server.linger"},
}

func addRunFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.String("input", "", "directory of newline-delimited survey files")
	flags.String("output", "", "path or object name of the aggregate document")
	flags.String("backend", "", "output backend: local, gcs, memory or none")
	flags.Bool("serve", false, "serve progress and results over HTTP during the run")
	flags.Int("port", 0, "HTTP port when --serve is set")
	flags.Bool("linger", false, "keep serving after the run until interrupted")
}

// bindRunFlags binds the flags of the command being executed, so the root
// command and the aggregate subcommand both override the config.
func bindRunFlags(flags *pflag.FlagSet, v *viper.Viper) error {
	for _, f := range runFlags {
		if err := v.BindPFlag(f.key, flags.Lookup(f.name)); err != nil {
			return fmt.Errorf("bind --%s: %w", f.name, err)
		}
	}
	return nil
}

// newAggregateCmd creates the 'aggregate' subcommand.
func newAggregateCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Runs one aggregation pass",
		Long: `Reads every regular file in the input directory in name order, folds
each survey record into per-year counts and writes the document once the
input is exhausted. Any read, parse or write failure aborts the run and
leaves the previous document in place.`,
		Args: cobra.NoArgs,
	}
	addRunFlags(cmd)
	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		return runAggregate(cmd, opts)
	}
	return cmd
}

func runAggregate(cmd *cobra.Command, opts *rootOptions) error {
	if err := bindRunFlags(cmd.Flags(), opts.v); err != nil {
		return err
	}
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	appInstance, err := newApp(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application services: %w", err)
	}
	defer func() {
		if cerr := appInstance.Close(ctx); cerr != nil {
			cmd.PrintErrf("shutdown: %v\n", cerr)
		}
	}()

	res, err := appInstance.Run(ctx)
	if err != nil {
		return fmt.Errorf("aggregation failed: %w", err)
	}
	cmd.Printf("wrote %s: %d records from %d files (%d outside configured years)\n",
		res.Object, res.Records, res.Files, res.Unclassified)
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Prints the build version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Println(app.Version)
		},
	}
}
