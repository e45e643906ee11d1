package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"go-bil-inventory-report/internal/dataset"
)

const manifestMissingWarning = "The 'manifest' key was not found in the JSON block."

type datasetOutput struct {
	BildID    string            `json:"bildid" yaml:"bildid"`
	Version   string            `json:"version" yaml:"version"`
	Modality  string            `json:"modality" yaml:"modality"`
	Technique string            `json:"technique" yaml:"technique"`
	Manifest  *dataset.Manifest `json:"manifest" yaml:"manifest"`
	Warning   string            `json:"warning,omitempty" yaml:"warning,omitempty"`
}

func newDatasetCmd(opts *rootOptions) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "dataset <bildid>",
		Short: "Show the metadata block of one dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch format {
			case "text", "json", "yaml":
			default:
				return fmt.Errorf("unsupported format %q (want text, json or yaml)", format)
			}

			loader := &dataset.Loader{Source: opts.client(), MaxBytes: opts.cfg.MaxBlobBytes}
			detail, err := loader.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := datasetOutput{
				BildID:    args[0],
				Version:   detail.Version(),
				Modality:  detail.Modality(),
				Technique: detail.Technique(),
			}
			if m, ok := detail.Manifest(); ok {
				out.Manifest = m
			} else {
				out.Warning = manifestMissingWarning
			}

			w := cmd.OutOrStdout()
			switch format {
			case "json":
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			case "yaml":
				if out.Manifest != nil {
					for _, r := range out.Manifest.Rows {
						for i, v := range r {
							r[i] = yamlScalar(v)
						}
					}
				}
				enc := yaml.NewEncoder(w)
				enc.SetIndent(2)
				if err := enc.Encode(out); err != nil {
					return err
				}
				return enc.Close()
			default:
				return printDataset(w, out)
			}
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text, json or yaml")
	return cmd
}

func printDataset(w io.Writer, out datasetOutput) error {
	_, _ = fmt.Fprintf(w, "Metadata version: %s\n", out.Version)
	_, _ = fmt.Fprintf(w, "General modality: %s\n", out.Modality)
	_, _ = fmt.Fprintf(w, "Technique: %s\n", out.Technique)
	if out.Manifest == nil {
		_, _ = color.New(color.FgYellow).Fprintln(w, out.Warning)
		return nil
	}

	_, _ = fmt.Fprintln(w, "\nManifest:")
	rows := make([][]string, 0, len(out.Manifest.Rows))
	for _, r := range out.Manifest.Rows {
		cells := make([]string, len(r))
		for i, v := range r {
			if v != nil {
				cells[i] = fmt.Sprint(v)
			}
		}
		rows = append(rows, cells)
	}
	return printTable(w, out.Manifest.Columns, rows)
}

// yamlScalar turns JSON numbers back into numbers so YAML does not quote them.
func yamlScalar(v any) any {
	n, ok := v.(json.Number)
	if !ok {
		return v
	}
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}
