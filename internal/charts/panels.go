package charts

import (
	"sort"

	"go-bil-inventory-report/internal/inventory"
)

func filesPerDataset(rows []inventory.Row) Panel {
	p := Panel{Title: "Number of Files per Dataset", Kind: KindPie, LegendTitle: "Brain ID"}
	for _, r := range rows {
		if r.NumberOfFiles == nil || *r.NumberOfFiles <= 0 {
			continue
		}
		p.Slices = append(p.Slices, Slice{Label: r.BildID, Value: float64(*r.NumberOfFiles)})
	}
	sort.SliceStable(p.Slices, func(i, j int) bool { return p.Slices[i].Value > p.Slices[j].Value })
	if len(p.Slices) == 0 {
		p.Placeholder = "No datasets with files are present for the selected collection."
	}
	return p
}

func datasetsBar(rows []inventory.Row) Panel {
	p := Panel{Title: "Number of Datasets (One Bar per Dataset)", Kind: KindBar, LegendTitle: "Brain ID"}
	for _, r := range rows {
		p.Slices = append(p.Slices, Slice{Label: r.BildID, Value: 1})
	}
	sort.SliceStable(p.Slices, func(i, j int) bool { return p.Slices[i].Label < p.Slices[j].Label })
	if len(p.Slices) == 0 {
		p.Placeholder = "No datasets are present for the selected collection."
	}
	return p
}

func affiliationPie(rows []inventory.Row) Panel {
	return countsPie(rows, "Affiliation Breakdown (Selected Collection)", "Affiliations",
		"No affiliation information is present for the selected collection.",
		func(r inventory.Row) *string { return r.Affiliation })
}

func contributorsPie(rows []inventory.Row) Panel {
	return countsPie(rows, "Contributors in Selected Collection", "Contributors",
		"No contributor information is present for the selected collection.",
		func(r inventory.Row) *string { return r.Contributor })
}

func modalitiesPie(rows []inventory.Row) Panel {
	return countsPie(rows, "Modalities in Selected Collection", "General Modality",
		"No modality information is present for the selected collection.",
		func(r inventory.Row) *string { return r.GeneralModality })
}

func countsPie(rows []inventory.Row, title, legend, placeholder string, get func(inventory.Row) *string) Panel {
	p := Panel{Title: title, Kind: KindPie, LegendTitle: legend}
	p.Slices = valueCounts(column(rows, get))
	if len(p.Slices) == 0 {
		p.Slices = nil
		p.Placeholder = placeholder
	}
	return p
}

func techniquesTreemap(rows []inventory.Row) Panel {
	p := Panel{Title: "Techniques by General Modality in Selected Collection", Kind: KindTreemap}
	p.Nodes = treemap(rows,
		func(r inventory.Row) *string { return r.GeneralModality },
		func(r inventory.Row) *string { return r.Technique })
	if len(p.Nodes) == 0 {
		p.Nodes = nil
		p.Placeholder = "No technique or general modality information is present for the selected collection."
	}
	return p
}

func affiliationTreemap(rows []inventory.Row) Panel {
	p := Panel{Title: "Contributors by Affiliation in Selected Collection", Kind: KindTreemap}
	p.Nodes = treemap(rows,
		func(r inventory.Row) *string { return r.Affiliation },
		func(r inventory.Row) *string { return r.Contributor })
	if len(p.Nodes) == 0 {
		p.Nodes = nil
		p.Placeholder = "No contributor or affiliation information is present for the selected collection."
	}
	return p
}

func fileTypesPie(rows []inventory.Row) Panel {
	return listPie(rows, "File Type Breakdown", "File Types",
		"No file-type information is present.",
		func(r inventory.Row) []string { return r.FileTypes })
}

func mimeTypesPie(rows []inventory.Row) Panel {
	return listPie(rows, "MIME Type Breakdown", "MIME Types",
		"No MIME-type information is present.",
		func(r inventory.Row) []string { return r.MimeTypes })
}

func listPie(rows []inventory.Row, title, legend, placeholder string, get func(inventory.Row) []string) Panel {
	values := make([]string, 0)
	for _, r := range rows {
		values = append(values, get(r)...)
	}
	p := Panel{Title: title, Kind: KindPie, LegendTitle: legend, Slices: valueCounts(values)}
	if len(p.Slices) == 0 {
		p.Slices = nil
		p.Placeholder = placeholder
	}
	return p
}

func extensionsPie(rows []inventory.Row) Panel {
	p := Panel{Title: "File Extension Frequency Distribution", Kind: KindPie, LegendTitle: "Extensions"}
	present := false
	totals := map[string]float64{}
	for _, r := range rows {
		if r.Frequencies == nil {
			continue
		}
		present = true
		for ext, n := range r.Frequencies {
			totals[ext] += n
		}
	}
	switch {
	case !present:
		p.Placeholder = "No file extension frequency information is present."
	case len(totals) == 0:
		p.Placeholder = "No valid frequency data found."
	default:
		p.Slices = sortedSlices(totals)
	}
	return p
}

// Stats summarises one collection.
type Stats struct {
	Collection       string         `json:"collection"`
	Datasets         int            `json:"datasets"`
	Files            int64          `json:"files"`
	SizeBytes        int64          `json:"size_bytes"`
	PrettySize       *string        `json:"pretty_size"`
	UnknownSizes     int            `json:"unknown_sizes"`
	MetadataVersions map[string]int `json:"metadata_versions"`
}

// CollectionStats counts datasets, files, bytes and metadata versions of one
// collection.
func CollectionStats(t *inventory.Table, collection string) Stats {
	rows := t.Filter(collection)
	s := Stats{Collection: collection, Datasets: len(rows), MetadataVersions: map[string]int{}}
	for _, r := range rows {
		if r.NumberOfFiles != nil {
			s.Files += *r.NumberOfFiles
		}
		if r.Metadata != nil {
			s.MetadataVersions[*r.Metadata]++
		}
	}
	s.SizeBytes, s.UnknownSizes = inventory.TotalSize(rows)
	s.PrettySize = inventory.PrettySize(&s.SizeBytes)
	return s
}
