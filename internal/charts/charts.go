// Package charts turns the rows of one collection into chart-ready data.
//
// Each renderer filters the inventory to the selected collection and either
// produces slices, bars or treemap nodes, or a placeholder message when the
// column it needs carries no values. Renderers never modify the table.
package charts

import (
	"fmt"
	"sort"

	"go-bil-inventory-report/internal/inventory"
)

// Kind names the drawing the dashboard uses for a panel.
type Kind string

const (
	KindPie     Kind = "pie"
	KindBar     Kind = "bar"
	KindTreemap Kind = "treemap"
)

// Slice is one labelled value of a pie or bar chart.
type Slice struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Node is one treemap rectangle; parents hold the sum of their children.
type Node struct {
	Label    string  `json:"label"`
	Value    float64 `json:"value"`
	Children []Node  `json:"children,omitempty"`
}

// Panel is one rendered chart or its placeholder.
type Panel struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Kind        Kind    `json:"kind"`
	LegendTitle string  `json:"legend_title,omitempty"`
	Slices      []Slice `json:"slices,omitempty"`
	Nodes       []Node  `json:"nodes,omitempty"`
	Placeholder string  `json:"placeholder,omitempty"`
}

// Empty reports whether the panel is a placeholder.
func (p Panel) Empty() bool { return p.Placeholder != "" }

type renderer struct {
	id     string
	render func(rows []inventory.Row) Panel
}

var registry = []renderer{
	{"files", filesPerDataset},
	{"datasets", datasetsBar},
	{"affiliation", affiliationPie},
	{"contributors", contributorsPie},
	{"modalities", modalitiesPie},
	{"techniques", techniquesTreemap},
	{"affiliation_contributors", affiliationTreemap},
	{"file_types", fileTypesPie},
	{"mime_types", mimeTypesPie},
	{"extensions", extensionsPie},
}

// IDs lists every panel in dashboard order.
func IDs() []string {
	out := make([]string, 0, len(registry))
	for _, r := range registry {
		out = append(out, r.id)
	}
	return out
}

// Known reports whether id names a panel.
func Known(id string) bool {
	for _, r := range registry {
		if r.id == id {
			return true
		}
	}
	return false
}

// Render draws the requested panels for one collection. With no ids every
// panel is drawn.
func Render(t *inventory.Table, collection string, ids ...string) ([]Panel, error) {
	if len(ids) == 0 {
		ids = IDs()
	}
	rows := t.Filter(collection)
	out := make([]Panel, 0, len(ids))
	for _, id := range ids {
		var found *renderer
		for i := range registry {
			if registry[i].id == id {
				found = &registry[i]
				break
			}
		}
		if found == nil {
			return nil, fmt.Errorf("unknown panel %q", id)
		}
		p := found.render(rows)
		p.ID = id
		out = append(out, p)
	}
	return out, nil
}

// valueCounts counts non-null values, largest count first, ties by label.
func valueCounts(values []string) []Slice {
	counts := map[string]float64{}
	for _, v := range values {
		counts[v]++
	}
	return sortedSlices(counts)
}

func sortedSlices(counts map[string]float64) []Slice {
	out := make([]Slice, 0, len(counts))
	for label, n := range counts {
		out = append(out, Slice{Label: label, Value: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].Label < out[j].Label
	})
	return out
}

func column(rows []inventory.Row, get func(inventory.Row) *string) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		if v := get(r); v != nil {
			out = append(out, *v)
		}
	}
	return out
}

// treemap groups rows by (outer, inner), dropping rows missing either.
func treemap(rows []inventory.Row, outer, inner func(inventory.Row) *string) []Node {
	groups := map[string]map[string]float64{}
	for _, r := range rows {
		o, i := outer(r), inner(r)
		if o == nil || i == nil {
			continue
		}
		if groups[*o] == nil {
			groups[*o] = map[string]float64{}
		}
		groups[*o][*i]++
	}

	out := make([]Node, 0, len(groups))
	for label, children := range groups {
		n := Node{Label: label}
		for _, s := range sortedSlices(children) {
			n.Children = append(n.Children, Node{Label: s.Label, Value: s.Value})
			n.Value += s.Value
		}
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].Label < out[j].Label
	})
	return out
}
