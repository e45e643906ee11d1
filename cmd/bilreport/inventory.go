package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"go-bil-inventory-report/internal/inventory"
)

func newInventoryCmd(opts *rootOptions) *cobra.Command {
	var (
		collection string
		limit      int
	)
	cmd := &cobra.Command{
		Use:   "inventory",
		Short: "Print the inventory preview sorted by number of files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			table, err := inventory.Load(cmd.Context(), opts.client())
			if err != nil {
				return fmt.Errorf("failed to load or process data: %w", err)
			}

			rows := table.Rows
			if collection != "" {
				rows = table.Filter(strings.ToLower(collection))
			}
			if limit > 0 && len(rows) > limit {
				rows = rows[:limit]
			}

			w := cmd.OutOrStdout()
			dim := color.New(color.Faint)
			_, _ = dim.Fprintf(w, "Loading data from: %s\n", opts.cfg.InventoryURL)
			_, _ = fmt.Fprintf(w, "Report Date: %s  datasets=%d  collections=%s\n\n",
				table.FetchedAt.Local().Format("January 02, 2006"), len(table.Rows), strings.Join(table.Collections(), ","))
			return printTable(w, inventory.PreviewColumns, previewRows(inventory.Preview(rows)))
		},
	}
	cmd.Flags().StringVarP(&collection, "collection", "c", "", "only show datasets of this collection code")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum rows to print (0 for all)")
	return cmd
}
