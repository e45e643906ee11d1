package main

import (
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"go-bil-inventory-report/internal/config"
	"go-bil-inventory-report/internal/connectors/bil"
)

type rootOptions struct {
	verbose bool
	quiet   bool
	noColor bool
	cfg     config.Config
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "bilreport",
		Short: "Brain Image Library inventory report",
		Long: `bilreport loads the Brain Image Library daily inventory report and the
per-dataset metadata blocks, and serves or prints collection summaries,
previews and chart data.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			opts.cfg = config.FromEnv()
			if opts.noColor {
				color.NoColor = true
			}
			slog.SetDefault(newLogger(os.Stderr, logLevel(opts.verbose, opts.quiet, opts.cfg.LogLevel), opts.noColor))
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().BoolVarP(&opts.quiet, "quiet", "q", false, "only log warnings and errors")
	cmd.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "disable colored output")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newInventoryCmd(opts))
	cmd.AddCommand(newDatasetCmd(opts))
	cmd.AddCommand(newChartsCmd(opts))
	cmd.AddCommand(newViewsCmd(opts))
	cmd.AddCommand(newVersionCmd())
	return cmd
}

func (o *rootOptions) client() *bil.Client {
	return bil.NewClient(o.cfg.InventoryURL, o.cfg.DatasetBaseURL, o.cfg.FetchTimeout)
}
