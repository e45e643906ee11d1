package charts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-bil-inventory-report/internal/inventory"
)

const report = `[
  {"bildid": "b2", "bildirectory": "/bil/data/26/a/", "number_of_files": 5, "size": 1024,
   "affiliation": "Allen", "contributor": "Doe", "general_modality": "connectivity", "technique": "MOST",
   "file_types": ["tif", "json"], "mime_types": "image/tiff", "frequencies": {".tif": 4, ".json": 1}, "metadata": "2.0"},
  {"bildid": "b1", "bildirectory": "/bil/data/26/b/", "number_of_files": 0, "size": 2048,
   "affiliation": "Allen", "contributors": "Roe", "generalmodality": "connectivity", "technique": "fMOST",
   "file_types": "tif", "frequencies": {".tif": 2}, "metadata": "2.0"},
  {"bildid": "b3", "bildirectory": "/bil/data/26/c/", "number_of_files": 9,
   "affiliation": "USC", "general_modality": "cell morphology", "metadata": "1.0"},
  {"bildid": "z1", "bildirectory": "/bil/data/ff/z/", "number_of_files": 100}
]`

func load(t *testing.T) *inventory.Table {
	t.Helper()
	rows, err := inventory.Parse([]byte(report))
	require.NoError(t, err)
	return inventory.NewTable(rows, time.Now())
}

func panelByID(t *testing.T, panels []Panel, id string) Panel {
	t.Helper()
	for _, p := range panels {
		if p.ID == id {
			return p
		}
	}
	t.Fatalf("panel %s not rendered", id)
	return Panel{}
}

func TestRender_AllPanels(t *testing.T) {
	panels, err := Render(load(t), "26")
	require.NoError(t, err)
	require.Len(t, panels, len(IDs()))

	files := panelByID(t, panels, "files")
	assert.Equal(t, []Slice{{"b3", 9}, {"b2", 5}}, files.Slices)

	bars := panelByID(t, panels, "datasets")
	assert.Equal(t, KindBar, bars.Kind)
	assert.Equal(t, []Slice{{"b1", 1}, {"b2", 1}, {"b3", 1}}, bars.Slices)

	aff := panelByID(t, panels, "affiliation")
	assert.Equal(t, []Slice{{"Allen", 2}, {"USC", 1}}, aff.Slices)

	contrib := panelByID(t, panels, "contributors")
	assert.Equal(t, []Slice{{"Doe", 1}, {"Roe", 1}}, contrib.Slices)

	tech := panelByID(t, panels, "techniques")
	require.Len(t, tech.Nodes, 1)
	assert.Equal(t, "connectivity", tech.Nodes[0].Label)
	assert.Equal(t, 2.0, tech.Nodes[0].Value)
	assert.Len(t, tech.Nodes[0].Children, 2)

	affTree := panelByID(t, panels, "affiliation_contributors")
	require.Len(t, affTree.Nodes, 1)
	assert.Equal(t, "Allen", affTree.Nodes[0].Label)

	ft := panelByID(t, panels, "file_types")
	assert.Equal(t, []Slice{{"tif", 2}, {"json", 1}}, ft.Slices)

	mt := panelByID(t, panels, "mime_types")
	assert.Equal(t, []Slice{{"image/tiff", 1}}, mt.Slices)

	ext := panelByID(t, panels, "extensions")
	assert.Equal(t, []Slice{{".tif", 6}, {".json", 1}}, ext.Slices)
}

func TestRender_Placeholders(t *testing.T) {
	panels, err := Render(load(t), "ff")
	require.NoError(t, err)
	for _, p := range panels {
		switch p.ID {
		case "files", "datasets":
			assert.False(t, p.Empty(), p.ID)
		default:
			assert.True(t, p.Empty(), p.ID)
			assert.Empty(t, p.Slices, p.ID)
			assert.Empty(t, p.Nodes, p.ID)
		}
	}

	panels, err = Render(load(t), "00", "files")
	require.NoError(t, err)
	require.Len(t, panels, 1)
	assert.True(t, panels[0].Empty())
}

func TestRender_UnknownPanel(t *testing.T) {
	_, err := Render(load(t), "26", "files", "nope")
	assert.ErrorContains(t, err, `unknown panel "nope"`)
	assert.True(t, Known("techniques"))
	assert.False(t, Known("nope"))
}

func TestRender_DoesNotMutateTable(t *testing.T) {
	table := load(t)
	before := make([]string, 0, len(table.Rows))
	for _, r := range table.Rows {
		before = append(before, r.BildID)
	}
	_, err := Render(table, "26")
	require.NoError(t, err)
	after := make([]string, 0, len(table.Rows))
	for _, r := range table.Rows {
		after = append(after, r.BildID)
	}
	assert.Equal(t, before, after)
}

func TestCollectionStats(t *testing.T) {
	s := CollectionStats(load(t), "26")
	assert.Equal(t, 3, s.Datasets)
	assert.Equal(t, int64(14), s.Files)
	assert.Equal(t, int64(3072), s.SizeBytes)
	assert.Equal(t, 1, s.UnknownSizes)
	require.NotNil(t, s.PrettySize)
	assert.Equal(t, "3.0 KiB", *s.PrettySize)
	assert.Equal(t, map[string]int{"2.0": 2, "1.0": 1}, s.MetadataVersions)
}
