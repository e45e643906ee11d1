package inventory

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Row is one dataset record from the daily inventory report.
//
// Optional columns are pointers so that "absent or null" stays distinct from
// an empty value. Fields the report carries but the dashboard does not chart
// are kept in Extra.
type Row struct {
	BildID          string             `json:"bildid"`
	Directory       string             `json:"bildirectory"`
	Size            *int64             `json:"size"`
	NumberOfFiles   *int64             `json:"number_of_files"`
	GeneralModality *string            `json:"general_modality"`
	Technique       *string            `json:"technique"`
	Affiliation     *string            `json:"affiliation"`
	Contributor     *string            `json:"contributor"`
	Metadata        *string            `json:"metadata"`
	FileTypes       []string           `json:"file_types,omitempty"`
	MimeTypes       []string           `json:"mime_types,omitempty"`
	Frequencies     map[string]float64 `json:"frequencies,omitempty"`

	Collection *string `json:"collection"`
	PrettySize *string `json:"pretty_size"`

	Extra map[string]any `json:"-"`
}

// Column spellings drift between report generations; the first non-null
// spelling found wins.
var (
	modalityKeys    = []string{"general_modality", "generalmodality"}
	contributorKeys = []string{"contributor", "contributors"}
)

var knownKeys = map[string]struct{}{
	"bildid": {}, "bildirectory": {}, "size": {}, "number_of_files": {},
	"general_modality": {}, "generalmodality": {}, "technique": {},
	"affiliation": {}, "contributor": {}, "contributors": {}, "metadata": {},
	"file_types": {}, "mime_types": {}, "frequencies": {},
}

func rowFromRecord(rec map[string]any) Row {
	row := Row{
		BildID:          asText(rec["bildid"]),
		Size:            asInt(rec["size"]),
		NumberOfFiles:   asInt(rec["number_of_files"]),
		GeneralModality: firstText(rec, modalityKeys...),
		Technique:       asOptionalText(rec["technique"]),
		Affiliation:     asOptionalText(rec["affiliation"]),
		Contributor:     firstText(rec, contributorKeys...),
		Metadata:        asOptionalText(rec["metadata"]),
		FileTypes:       asTextList(rec["file_types"]),
		MimeTypes:       asTextList(rec["mime_types"]),
		Frequencies:     asFrequencies(rec["frequencies"]),
	}
	if dir, ok := rec["bildirectory"].(string); ok {
		row.Directory = dir
		row.Collection = ExtractCollection(dir)
	}
	row.PrettySize = PrettySize(row.Size)

	for k, v := range rec {
		if _, ok := knownKeys[k]; ok {
			continue
		}
		if row.Extra == nil {
			row.Extra = make(map[string]any)
		}
		row.Extra[k] = v
	}
	return row
}

func firstText(rec map[string]any, keys ...string) *string {
	for _, k := range keys {
		if s := asOptionalText(rec[k]); s != nil {
			return s
		}
	}
	return nil
}

func asText(v any) string {
	if s := asOptionalText(v); s != nil {
		return *s
	}
	return ""
}

func asOptionalText(v any) *string {
	var s string
	switch x := v.(type) {
	case nil:
		return nil
	case string:
		s = x
	case json.Number:
		s = x.String()
	case bool:
		s = strconv.FormatBool(x)
	case float64:
		if math.IsNaN(x) {
			return nil
		}
		s = strconv.FormatFloat(x, 'f', -1, 64)
	default:
		blob, err := json.Marshal(x)
		if err != nil {
			s = fmt.Sprint(x)
		} else {
			s = string(blob)
		}
	}
	return &s
}

func asInt(v any) *int64 {
	var n int64
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			n = i
			break
		}
		f, err := x.Float64()
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		n = int64(f)
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil
		}
		n = int64(x)
	case int64:
		n = x
	case int:
		n = int64(x)
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if err != nil {
			return nil
		}
		n = i
	default:
		return nil
	}
	return &n
}

// asTextList accepts either a single value or a list of values.
func asTextList(v any) []string {
	switch x := v.(type) {
	case nil:
		return nil
	case []any:
		out := make([]string, 0, len(x))
		for _, item := range x {
			if s := asOptionalText(item); s != nil {
				out = append(out, *s)
			}
		}
		return out
	default:
		if s := asOptionalText(x); s != nil {
			return []string{*s}
		}
		return nil
	}
}

func asFrequencies(v any) map[string]float64 {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]float64, len(m))
	for ext, raw := range m {
		switch c := raw.(type) {
		case json.Number:
			if f, err := c.Float64(); err == nil {
				out[ext] = f
			}
		case float64:
			out[ext] = c
		}
	}
	return out
}
