package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"go-bil-inventory-report/internal/inventory"
)

func printTable(w io.Writer, header []string, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	bold := color.New(color.Bold)

	cols := make([]string, len(header))
	for i, h := range header {
		cols[i] = bold.Sprint(strings.ToUpper(h))
	}
	_, _ = fmt.Fprintln(tw, strings.Join(cols, "\t"))
	for _, r := range rows {
		_, _ = fmt.Fprintln(tw, strings.Join(r, "\t"))
	}
	return tw.Flush()
}

func previewRows(rows []inventory.PreviewRow) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{deref(r.Collection), r.BildID, derefInt(r.NumberOfFiles), deref(r.Size)})
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func derefInt(n *int64) string {
	if n == nil {
		return "-"
	}
	return fmt.Sprint(*n)
}
