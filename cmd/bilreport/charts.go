package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"go-bil-inventory-report/internal/charts"
	"go-bil-inventory-report/internal/inventory"
)

func newChartsCmd(opts *rootOptions) *cobra.Command {
	var (
		collection string
		panels     []string
	)
	cmd := &cobra.Command{
		Use:   "charts",
		Short: "Print chart data and statistics for one collection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, p := range panels {
				if !charts.Known(p) {
					return fmt.Errorf("unknown panel %q (known: %s)", p, strings.Join(charts.IDs(), ", "))
				}
			}

			table, err := inventory.Load(cmd.Context(), opts.client())
			if err != nil {
				return fmt.Errorf("failed to load or process data: %w", err)
			}
			code := strings.ToLower(collection)
			if code == "" {
				code = table.DefaultCollection(opts.cfg.DefaultCollection)
			} else if !table.HasCollection(code) {
				return fmt.Errorf("collection %q not found (available: %s)", code, strings.Join(table.Collections(), ", "))
			}

			rendered, err := charts.Render(table, code, panels...)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			printStats(w, charts.CollectionStats(table, code))
			for _, p := range rendered {
				if err := printPanel(w, p); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&collection, "collection", "c", "", "collection code (defaults to APP_DEFAULT_COLLECTION)")
	cmd.Flags().StringSliceVarP(&panels, "panel", "p", nil, "panel ids to print (default all)")
	return cmd
}

func printStats(w io.Writer, s charts.Stats) {
	bold := color.New(color.Bold)
	_, _ = bold.Fprintf(w, "Collection %s\n", s.Collection)
	_, _ = fmt.Fprintf(w, "Number of Datasets: %d\n", s.Datasets)
	_, _ = fmt.Fprintf(w, "Number of Files: %s\n", humanize.Comma(s.Files))
	_, _ = fmt.Fprintf(w, "Total Size: %s", deref(s.PrettySize))
	if s.UnknownSizes > 0 {
		_, _ = fmt.Fprintf(w, " (%d without size)", s.UnknownSizes)
	}
	_, _ = fmt.Fprintln(w)

	versions := make([]string, 0, len(s.MetadataVersions))
	for v := range s.MetadataVersions {
		versions = append(versions, v)
	}
	sort.Strings(versions)
	for _, v := range versions {
		_, _ = fmt.Fprintf(w, "  metadata %s: %d\n", v, s.MetadataVersions[v])
	}
}

func printPanel(w io.Writer, p charts.Panel) error {
	_, _ = color.New(color.Bold, color.FgCyan).Fprintf(w, "\n== %s (%s) ==\n", p.Title, p.Kind)
	if p.Empty() {
		_, _ = color.New(color.Faint).Fprintln(w, p.Placeholder)
		return nil
	}

	label := p.LegendTitle
	if label == "" {
		label = "label"
	}
	var rows [][]string
	for _, s := range p.Slices {
		rows = append(rows, []string{s.Label, humanize.Ftoa(s.Value)})
	}
	for _, n := range p.Nodes {
		rows = append(rows, []string{n.Label, humanize.Ftoa(n.Value)})
		for _, c := range n.Children {
			rows = append(rows, []string{"  " + c.Label, humanize.Ftoa(c.Value)})
		}
	}
	return printTable(w, []string{label, "value"}, rows)
}
