package http

import (
	"fmt"
	"log/slog"
	nethttp "net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"go-bil-inventory-report/internal/charts"
	"go-bil-inventory-report/internal/connectors/bil"
	"go-bil-inventory-report/internal/dataset"
	"go-bil-inventory-report/internal/inventory"
)

const manifestMissingWarning = "The 'manifest' key was not found in the JSON block."

var collectionParam = regexp.MustCompile(`^[a-f0-9]{2}$`)

// reportHandler loads the inventory once per request and returns everything
// the dashboard shows for one collection.
func reportHandler(defaultCollection string, previewLimit int, sourceURL string, src inventory.Source) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodGet {
			writeJSON(w, nethttp.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
			return
		}

		q := r.URL.Query()
		requested := strings.ToLower(strings.TrimSpace(q.Get("collection")))
		if requested != "" && !collectionParam.MatchString(requested) {
			writeJSON(w, nethttp.StatusBadRequest, map[string]any{
				"error": "invalid collection, expected two lowercase hex digits",
			})
			return
		}
		panelIDs, err := parsePanels(q.Get("panels"))
		if err != nil {
			writeJSON(w, nethttp.StatusBadRequest, map[string]any{"error": err.Error()})
			return
		}
		limit := parseLimit(r, previewLimit)

		start := time.Now()
		table, err := inventory.Load(r.Context(), src)
		if err != nil {
			recordReportRun("failed", time.Since(start).Seconds())
			slog.ErrorContext(r.Context(), "report load failed", "err", err, "request_id", requestID(r.Context()))
			writeJSON(w, nethttp.StatusBadGateway, map[string]any{
				"error": "failed to load or process data: " + err.Error(),
			})
			return
		}

		collections := table.Collections()
		selected := requested
		if selected == "" {
			selected = table.DefaultCollection(defaultCollection)
		} else if !table.HasCollection(selected) {
			recordReportRun("not_found", time.Since(start).Seconds())
			writeJSON(w, nethttp.StatusNotFound, map[string]any{
				"error":       "collection not found: " + selected,
				"collections": collections,
			})
			return
		}

		panels, err := charts.Render(table, selected, panelIDs...)
		if err != nil {
			recordReportRun("failed", time.Since(start).Seconds())
			writeJSON(w, nethttp.StatusBadRequest, map[string]any{"error": err.Error()})
			return
		}

		preview := table.Rows
		if len(preview) > limit {
			preview = preview[:limit]
		}
		recordReportRun("ok", time.Since(start).Seconds())

		writeJSON(w, nethttp.StatusOK, map[string]any{
			"meta": map[string]any{
				"source":             sourceURL,
				"fetched_at":         table.FetchedAt,
				"rows":               len(table.Rows),
				"preview_limit":      limit,
				"collection":         selected,
				"default_collection": defaultCollection,
				"duration_ms":        time.Since(start).Milliseconds(),
			},
			"data": map[string]any{
				"columns":         inventory.PreviewColumns,
				"preview":         inventory.Preview(preview),
				"collections":     collections,
				"collection_rows": inventory.Preview(table.Filter(selected)),
				"datasets":        table.BildIDs(selected),
				"stats":           charts.CollectionStats(table, selected),
				"panels":          panels,
			},
		})
	}
}

// datasetHandler serves GET /api/v1/datasets/{bildid}.
func datasetHandler(client *bil.Client, loader *dataset.Loader) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodGet {
			writeJSON(w, nethttp.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
			return
		}
		bildID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/datasets/"), "/")
		if bildID == "" || strings.Contains(bildID, "/") {
			writeJSON(w, nethttp.StatusNotFound, map[string]any{"error": "not found"})
			return
		}

		detail, err := loader.Load(r.Context(), bildID)
		if err != nil {
			slog.ErrorContext(r.Context(), "dataset load failed", "bildid", bildID, "err", err, "request_id", requestID(r.Context()))
			writeJSON(w, nethttp.StatusBadGateway, map[string]any{"error": err.Error()})
			return
		}

		keys := make([]string, 0, len(detail))
		for k := range detail {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		data := map[string]any{
			"version":   detail.Version(),
			"modality":  detail.Modality(),
			"technique": detail.Technique(),
			"keys":      keys,
		}
		if manifest, ok := detail.Manifest(); ok {
			data["manifest"] = manifest
		} else {
			data["manifest"] = nil
			data["warning"] = manifestMissingWarning
		}

		url := ""
		if client != nil {
			url = client.DatasetURL(bildID)
		}
		writeJSON(w, nethttp.StatusOK, map[string]any{
			"meta": map[string]any{
				"bildid": bildID,
				"source": url,
			},
			"data": data,
		})
	}
}

func parsePanels(raw string) ([]string, error) {
	var out []string
	for _, id := range strings.Split(raw, ",") {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if !charts.Known(id) {
			return nil, fmt.Errorf("unknown panel: %s", id)
		}
		out = append(out, id)
	}
	return out, nil
}

func parseLimit(r *nethttp.Request, defaultLimit int) int {
	limit := defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err == nil && parsed > 0 && parsed <= 5000 {
			limit = parsed
		}
	}
	return limit
}
