package main

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testInventory = `[
  {"bildid": "ace-a", "bildirectory": "/bil/data/26/aa/ace-a", "size": 1048576, "number_of_files": 10, "metadata": "v1",
   "affiliation": "CMU"},
  {"bildid": "ace-b", "bildirectory": "/bil/data/26/bb/ace-b", "size": 1024, "number_of_files": 30, "metadata": "v1",
   "affiliation": "CMU"},
  {"bildid": "zz-1", "bildirectory": "/bil/data/0f/zz/zz-1", "size": 1, "number_of_files": 5}
]`

func gzipped(t *testing.T, s string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(s))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// setupUpstream points the CLI configuration at a local report server.
func setupUpstream(t *testing.T) {
	t.Helper()
	blobs := map[string][]byte{
		"/datasets/ace-a.json.gz": gzipped(t, `{"version": "v1", "modality": "connectivity", "technique": "MRI",
			"manifest": [{"file": "a.nii", "size": 12}]}`),
		"/datasets/ace-b.json.gz": gzipped(t, `{'version': 'v2', 'modality': 'cell morphology', 'technique': 'smFISH'}`),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/today.json", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(testInventory))
	})
	mux.HandleFunc("/datasets/", func(w http.ResponseWriter, r *http.Request) {
		blob, ok := blobs[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(blob)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	t.Setenv("APP_INVENTORY_URL", srv.URL+"/today.json")
	t.Setenv("APP_DATASET_BASE_URL", srv.URL+"/datasets")
	t.Setenv("APP_DEFAULT_COLLECTION", "26")
	t.Setenv("APP_VIEWS_DRIVER", "")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--no-color", "--quiet"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "bilreport dev\n", out)
}

func TestInventoryCmd(t *testing.T) {
	setupUpstream(t)

	out, err := run(t, "inventory")
	require.NoError(t, err)
	assert.Contains(t, out, "BRAIN ID")
	assert.Contains(t, out, "collections=0f,26")
	assert.Less(t, bytes.Index([]byte(out), []byte("ace-b")), bytes.Index([]byte(out), []byte("ace-a")))

	out, err = run(t, "inventory", "--collection", "0F")
	require.NoError(t, err)
	assert.Contains(t, out, "zz-1")
	assert.NotContains(t, out, "ace-a")

	out, err = run(t, "inventory", "-n", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "ace-b")
	assert.NotContains(t, out, "zz-1")
}

func TestInventoryCmd_UpstreamDown(t *testing.T) {
	t.Setenv("APP_INVENTORY_URL", "http://127.0.0.1:1/today.json")

	_, err := run(t, "inventory")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load or process data")
}

func TestDatasetCmd(t *testing.T) {
	setupUpstream(t)

	out, err := run(t, "dataset", "ace-a")
	require.NoError(t, err)
	assert.Contains(t, out, "Metadata version: v1")
	assert.Contains(t, out, "a.nii")

	out, err = run(t, "dataset", "ace-b")
	require.NoError(t, err)
	assert.Contains(t, out, "Technique: smFISH")
	assert.Contains(t, out, manifestMissingWarning)

	out, err = run(t, "dataset", "ace-a", "--format", "json")
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "MRI", decoded["technique"])

	out, err = run(t, "dataset", "ace-a", "-f", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "modality: connectivity")
	assert.Contains(t, out, "- 12")

	_, err = run(t, "dataset", "ace-a", "-f", "xml")
	assert.ErrorContains(t, err, "unsupported format")

	_, err = run(t, "dataset", "missing")
	assert.ErrorContains(t, err, `failed to load dataset for BILD ID "missing"`)
}

func TestChartsCmd(t *testing.T) {
	setupUpstream(t)

	out, err := run(t, "charts", "-p", "files", "-p", "affiliation")
	require.NoError(t, err)
	assert.Contains(t, out, "Collection 26")
	assert.Contains(t, out, "Number of Datasets: 2")
	assert.Contains(t, out, "Number of Files: 40")
	assert.Contains(t, out, "Total Size: 1.0 MiB")
	assert.Contains(t, out, "Number of Files per Dataset")
	assert.Contains(t, out, "CMU")

	_, err = run(t, "charts", "--collection", "aa")
	assert.ErrorContains(t, err, "not found")

	_, err = run(t, "charts", "-p", "nope")
	assert.ErrorContains(t, err, "unknown panel")
}

func TestViewsCmd(t *testing.T) {
	setupUpstream(t)

	_, err := run(t, "views", "list")
	assert.ErrorContains(t, err, "saved views disabled")

	t.Setenv("APP_VIEWS_DRIVER", "sqlite")
	t.Setenv("APP_VIEWS_SQLITE_PATH", filepath.Join(t.TempDir(), "views.db"))

	out, err := run(t, "views", "save", "morph", "-c", "26", "-p", "files,modalities")
	require.NoError(t, err)
	assert.Contains(t, out, `saved view "morph" (id 1)`)

	out, err = run(t, "views", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "morph")
	assert.Contains(t, out, "files,modalities")

	_, err = run(t, "views", "save", "bad", "-p", "nope")
	assert.ErrorContains(t, err, "unknown panel")

	out, err = run(t, "views", "delete", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "deleted view 1")

	_, err = run(t, "views", "delete", "1")
	assert.ErrorContains(t, err, "view not found")
}

func TestLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelWarn, logLevel(true, true, "debug"))
	assert.Equal(t, slog.LevelDebug, logLevel(true, false, "error"))
	assert.Equal(t, slog.LevelError, logLevel(false, false, "ERROR"))
	assert.Equal(t, slog.LevelWarn, logLevel(false, false, "warning"))
	assert.Equal(t, slog.LevelInfo, logLevel(false, false, ""))
}
