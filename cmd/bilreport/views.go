package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"go-bil-inventory-report/internal/charts"
	"go-bil-inventory-report/internal/views"
)

func newViewsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "views",
		Short: "Manage saved dashboard views",
	}
	cmd.AddCommand(newViewsListCmd(opts), newViewsSaveCmd(opts), newViewsDeleteCmd(opts))
	return cmd
}

func openViews(opts *rootOptions) (*views.Store, error) {
	store, err := views.Open(opts.cfg)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, errors.New("saved views disabled (set APP_VIEWS_DRIVER=sqlite or mysql)")
	}
	return store, nil
}

func newViewsListCmd(opts *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved views",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openViews(opts)
			if err != nil {
				return err
			}
			defer store.Close()

			items, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(items))
			for _, v := range items {
				rows = append(rows, []string{strconv.FormatInt(v.ID, 10), v.Name, v.Collection, v.BildID, strings.Join(v.Panels, ",")})
			}
			return printTable(cmd.OutOrStdout(), []string{"id", "name", "collection", "bildid", "panels"}, rows)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 100, "maximum views to list")
	return cmd
}

func newViewsSaveCmd(opts *rootOptions) *cobra.Command {
	var v views.View
	cmd := &cobra.Command{
		Use:   "save <name>",
		Short: "Create or replace a saved view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, p := range v.Panels {
				if !charts.Known(p) {
					return fmt.Errorf("unknown panel %q", p)
				}
			}
			store, err := openViews(opts)
			if err != nil {
				return err
			}
			defer store.Close()

			v.Name = args[0]
			id, err := store.Upsert(cmd.Context(), v)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved view %q (id %d)\n", strings.TrimSpace(v.Name), id)
			return nil
		},
	}
	cmd.Flags().StringVarP(&v.Collection, "collection", "c", "", "collection code")
	cmd.Flags().StringVar(&v.BildID, "bildid", "", "dataset to open")
	cmd.Flags().StringSliceVarP(&v.Panels, "panel", "p", nil, "panel ids to show")
	return cmd
}

func newViewsDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a saved view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid view id %q", args[0])
			}
			store, err := openViews(opts)
			if err != nil {
				return err
			}
			defer store.Close()

			n, err := store.Delete(cmd.Context(), id)
			if err != nil {
				return err
			}
			if n == 0 {
				return views.ErrNotFound
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted view %d\n", id)
			return nil
		},
	}
}
