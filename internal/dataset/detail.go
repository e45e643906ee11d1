package dataset

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Detail is the loosely typed metadata block of one dataset.
type Detail map[string]any

// Version is the metadata schema version, empty when absent.
func (d Detail) Version() string { return d.text("version") }

// Modality is the general modality, empty when absent.
func (d Detail) Modality() string { return d.text("modality") }

// Technique is the imaging technique, empty when absent.
func (d Detail) Technique() string { return d.text("technique") }

func (d Detail) text(key string) string {
	switch v := d[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// Manifest is a tabular view of the manifest entry.
type Manifest struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// Manifest returns the manifest as a table. It accepts a list of records,
// a mapping of column name to values, or a list of plain values. ok is false
// when the key is missing.
func (d Detail) Manifest() (m *Manifest, ok bool) {
	raw, ok := d["manifest"]
	if !ok {
		return nil, false
	}
	switch v := raw.(type) {
	case []any:
		return manifestFromList(v), true
	case map[string]any:
		return manifestFromColumns(v), true
	default:
		return &Manifest{Columns: []string{"value"}, Rows: [][]any{{v}}}, true
	}
}

func manifestFromList(items []any) *Manifest {
	columns := make([]string, 0)
	index := map[string]int{}
	for _, it := range items {
		rec, ok := it.(map[string]any)
		if !ok {
			continue
		}
		keys := make([]string, 0, len(rec))
		for k := range rec {
			if _, seen := index[k]; !seen {
				keys = append(keys, k)
			}
		}
		// Map iteration order is random; new keys of one record are sorted.
		sort.Strings(keys)
		for _, k := range keys {
			index[k] = len(columns)
			columns = append(columns, k)
		}
	}

	if len(columns) == 0 {
		out := &Manifest{Columns: []string{"value"}, Rows: make([][]any, 0, len(items))}
		for _, it := range items {
			out.Rows = append(out.Rows, []any{it})
		}
		return out
	}

	out := &Manifest{Columns: columns, Rows: make([][]any, 0, len(items))}
	for _, it := range items {
		row := make([]any, len(columns))
		if rec, ok := it.(map[string]any); ok {
			for k, v := range rec {
				row[index[k]] = v
			}
		} else {
			row[0] = it
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}

func manifestFromColumns(cols map[string]any) *Manifest {
	columns := make([]string, 0, len(cols))
	for k := range cols {
		columns = append(columns, k)
	}
	sort.Strings(columns)

	n := 0
	for _, k := range columns {
		if list, ok := cols[k].([]any); ok && len(list) > n {
			n = len(list)
		} else if !ok && n == 0 {
			n = 1
		}
	}

	out := &Manifest{Columns: columns, Rows: make([][]any, n)}
	for i := range out.Rows {
		row := make([]any, len(columns))
		for j, k := range columns {
			switch v := cols[k].(type) {
			case []any:
				if i < len(v) {
					row[j] = v[i]
				}
			default:
				row[j] = v
			}
		}
		out.Rows[i] = row
	}
	return out
}
