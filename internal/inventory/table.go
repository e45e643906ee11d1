package inventory

import (
	"sort"
	"time"
)

// PreviewColumns are the display labels of PreviewRow fields, in order.
var PreviewColumns = []string{"Collection", "Brain ID", "Number of Files", "Size"}

// PreviewRow is the key metadata shown in tabular previews.
type PreviewRow struct {
	Collection    *string `json:"collection"`
	BildID        string  `json:"bildid"`
	NumberOfFiles *int64  `json:"number_of_files"`
	Size          *string `json:"pretty_size"`
}

// Table is a loaded inventory, rows sorted by number of files descending.
// It is read-only once built.
type Table struct {
	Rows      []Row     `json:"rows"`
	FetchedAt time.Time `json:"fetched_at"`
}

// NewTable sorts rows by file count, largest first. Rows without a count go
// last; ties keep report order.
func NewTable(rows []Row, fetchedAt time.Time) *Table {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].NumberOfFiles, rows[j].NumberOfFiles
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		return *a > *b
	})
	return &Table{Rows: rows, FetchedAt: fetchedAt}
}

// Collections returns the sorted unique collection codes present.
func (t *Table) Collections() []string {
	seen := map[string]struct{}{}
	out := make([]string, 0)
	for _, r := range t.Rows {
		if r.Collection == nil {
			continue
		}
		if _, ok := seen[*r.Collection]; ok {
			continue
		}
		seen[*r.Collection] = struct{}{}
		out = append(out, *r.Collection)
	}
	sort.Strings(out)
	return out
}

// DefaultCollection picks preferred when present, otherwise the first code.
func (t *Table) DefaultCollection(preferred string) string {
	codes := t.Collections()
	for _, c := range codes {
		if c == preferred {
			return c
		}
	}
	if len(codes) == 0 {
		return ""
	}
	return codes[0]
}

// HasCollection reports whether any row belongs to code.
func (t *Table) HasCollection(code string) bool {
	for _, r := range t.Rows {
		if r.Collection != nil && *r.Collection == code {
			return true
		}
	}
	return false
}

// Filter returns the rows of one collection in table order.
func (t *Table) Filter(code string) []Row {
	out := make([]Row, 0)
	for _, r := range t.Rows {
		if r.Collection != nil && *r.Collection == code {
			out = append(out, r)
		}
	}
	return out
}

// BildIDs returns the sorted unique dataset identifiers of a collection.
func (t *Table) BildIDs(code string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0)
	for _, r := range t.Filter(code) {
		if r.BildID == "" {
			continue
		}
		if _, ok := seen[r.BildID]; ok {
			continue
		}
		seen[r.BildID] = struct{}{}
		out = append(out, r.BildID)
	}
	sort.Strings(out)
	return out
}

// Preview projects rows to the preview columns.
func Preview(rows []Row) []PreviewRow {
	out := make([]PreviewRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, PreviewRow{
			Collection:    r.Collection,
			BildID:        r.BildID,
			NumberOfFiles: r.NumberOfFiles,
			Size:          r.PrettySize,
		})
	}
	return out
}

// TotalSize sums known sizes and counts rows lacking one.
func TotalSize(rows []Row) (total int64, unknown int) {
	for _, r := range rows {
		if r.Size == nil {
			unknown++
			continue
		}
		total += *r.Size
	}
	return total, unknown
}
