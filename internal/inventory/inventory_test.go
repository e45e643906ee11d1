package inventory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	body  []byte
	err   error
	calls int
}

func (f *fakeSource) Inventory(context.Context) ([]byte, error) {
	f.calls++
	return f.body, f.err
}

func ptr[T any](v T) *T { return &v }

func TestExtractCollection(t *testing.T) {
	tests := []struct {
		path string
		want *string
	}{
		{"/bil/data/26/somepath", ptr("26")},
		{"/bil/data/a3/02/ab/x", ptr("a3")},
		{"/nobildpath", nil},
		{"/bil/data/2/x", nil},
		{"/bil/data/zz/x", nil},
		{"/bil/data/AB/x", nil},
		{"/bil/data/26", nil},
		{"", nil},
	}
	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			assert.Equal(t, tc.want, ExtractCollection(tc.path))
		})
	}
}

func TestPrettySize(t *testing.T) {
	assert.Nil(t, PrettySize(nil))
	assert.Equal(t, "0 B", *PrettySize(ptr(int64(0))))
	assert.Equal(t, "1.0 KiB", *PrettySize(ptr(int64(1024))))
	assert.Equal(t, "10 KiB", *PrettySize(ptr(int64(10*1024))))
	assert.Equal(t, "1.5 MiB", *PrettySize(ptr(int64(1536*1024))))
	assert.Equal(t, "-2.0 KiB", *PrettySize(ptr(int64(-2048))))
}

func TestPrettySize_Monotonic(t *testing.T) {
	sizes := []int64{0, 1, 512, 1023, 1024, 1500, 10 * 1024, 1048575, 1048576, 5 << 30, 3 << 40}
	prev := uint64(0)
	for _, s := range sizes {
		back, err := humanize.ParseBytes(*PrettySize(ptr(s)))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, back, prev, "size %d", s)
		prev = back
	}
}

const sampleReport = `[
  {"bildid": "ace-a", "bildirectory": "/bil/data/26/aa/x", "size": 2048, "number_of_files": 3,
   "general_modality": "cell morphology", "technique": "smartSPIM", "affiliation": "Allen",
   "contributor": "Doe", "metadata": "2.0", "file_types": ["tif", "json"], "frequencies": {".tif": 10, ".json": 1},
   "species": "mouse"},
  {"bildid": "ace-b", "bildirectory": "/bil/data/26/bb/y", "size": null, "number_of_files": 40,
   "generalmodality": "connectivity", "contributors": "Roe", "metadata": "1.0"},
  {"bildid": "ace-c", "bildirectory": "/nobildpath", "size": 10, "number_of_files": null},
  {"bildid": "ace-d", "bildirectory": "/bil/data/0f/dd/z", "size": 1, "number_of_files": 40}
]`

func TestParse_DerivesFields(t *testing.T) {
	rows, err := Parse([]byte(sampleReport))
	require.NoError(t, err)
	require.Len(t, rows, 4)

	a := rows[0]
	assert.Equal(t, "ace-a", a.BildID)
	assert.Equal(t, ptr("26"), a.Collection)
	assert.Equal(t, ptr("2.0 KiB"), a.PrettySize)
	assert.Equal(t, ptr(int64(3)), a.NumberOfFiles)
	assert.Equal(t, []string{"tif", "json"}, a.FileTypes)
	assert.Equal(t, 10.0, a.Frequencies[".tif"])
	assert.Equal(t, "mouse", a.Extra["species"])

	b := rows[1]
	assert.Nil(t, b.Size)
	assert.Nil(t, b.PrettySize)
	assert.Equal(t, ptr("connectivity"), b.GeneralModality)
	assert.Equal(t, ptr("Roe"), b.Contributor)

	assert.Nil(t, rows[2].Collection)
	assert.Nil(t, rows[2].NumberOfFiles)
}

func TestParse_Rejects(t *testing.T) {
	for _, body := range []string{``, `{}`, `null`, `[1, 2]`, `[null]`, `[] []`, `not json`} {
		_, err := Parse([]byte(body))
		assert.Error(t, err, "body %q", body)
	}
}

func TestLoad_SortsByFileCount(t *testing.T) {
	src := &fakeSource{body: []byte(sampleReport)}
	table, err := Load(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, 1, src.calls)

	ids := make([]string, 0, len(table.Rows))
	for _, r := range table.Rows {
		ids = append(ids, r.BildID)
	}
	// Ties keep report order; a missing count sorts last.
	assert.Equal(t, []string{"ace-b", "ace-d", "ace-a", "ace-c"}, ids)
	assert.False(t, table.FetchedAt.IsZero())
}

func TestLoad_FailureIsWhole(t *testing.T) {
	_, err := Load(context.Background(), &fakeSource{err: errors.New("connection refused")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load inventory")
	assert.Contains(t, err.Error(), "connection refused")

	_, err = Load(context.Background(), &fakeSource{body: []byte(`[{"bildid": 1}, 5]`)})
	require.Error(t, err)

	_, err = Load(context.Background(), nil)
	require.Error(t, err)
}

func TestTable_Collections(t *testing.T) {
	rows, err := Parse([]byte(sampleReport))
	require.NoError(t, err)
	table := NewTable(rows, time.Now())

	assert.Equal(t, []string{"0f", "26"}, table.Collections())
	assert.Equal(t, "26", table.DefaultCollection("26"))
	assert.Equal(t, "0f", table.DefaultCollection("99"))
	assert.True(t, table.HasCollection("0f"))
	assert.False(t, table.HasCollection("99"))

	assert.Equal(t, []string{"ace-a", "ace-b"}, table.BildIDs("26"))
	assert.Len(t, table.Filter("26"), 2)
	assert.Empty(t, table.Filter("99"))

	empty := NewTable(nil, time.Now())
	assert.Equal(t, "", empty.DefaultCollection("26"))
}

func TestPreviewAndTotals(t *testing.T) {
	rows, err := Parse([]byte(sampleReport))
	require.NoError(t, err)

	preview := Preview(rows[:2])
	require.Len(t, preview, 2)
	assert.Equal(t, "ace-a", preview[0].BildID)
	assert.Equal(t, ptr("2.0 KiB"), preview[0].Size)
	assert.Len(t, PreviewColumns, 4)

	total, unknown := TotalSize(rows)
	assert.Equal(t, int64(2048+10+1), total)
	assert.Equal(t, 1, unknown)
}
