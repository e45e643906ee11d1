package http

import (
	nethttp "net/http"

	"go-bil-inventory-report/internal/charts"
	"go-bil-inventory-report/internal/config"
)

// settingsHandler exposes the non-secret runtime settings the dashboard uses.
func settingsHandler(cfg config.Config) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, _ *nethttp.Request) {
		writeJSON(w, nethttp.StatusOK, map[string]any{
			"data": map[string]any{
				"inventory_url":         cfg.InventoryURL,
				"dataset_base_url":      cfg.DatasetBaseURL,
				"default_collection":    cfg.DefaultCollection,
				"preview_limit":         cfg.PreviewLimit,
				"fetch_timeout_sec":     int(cfg.FetchTimeout.Seconds()),
				"max_blob_bytes":        cfg.MaxBlobBytes,
				"views_driver":          cfg.ViewsDriver,
				"rate_limit_per_minute": cfg.RateLimitPerMin,
				"panels":                charts.IDs(),
			},
		})
	}
}
