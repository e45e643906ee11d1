package http

import (
	"context"
	nethttp "net/http"
	"time"

	"go-bil-inventory-report/internal/connectors/bil"
	"go-bil-inventory-report/internal/views"
)

func servicesStatusHandler(client *bil.Client, store *views.Store) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
		defer cancel()

		payload := map[string]any{
			"generated_at": time.Now().UTC(),
			"services":     map[string]any{},
		}
		services := payload["services"].(map[string]any)

		services["inventory"] = inventoryStatus(ctx, client)
		services["saved_views"] = viewsStatus(ctx, store)

		writeJSON(w, nethttp.StatusOK, payload)
	}
}

func inventoryStatus(ctx context.Context, client *bil.Client) map[string]any {
	if !client.Enabled() {
		return map[string]any{"enabled": false, "ok": false, "error": "inventory url not configured"}
	}

	start := time.Now()
	probe, err := client.Probe(ctx)
	recordUpstreamFetch("inventory", "Probe", time.Since(start).Seconds(), err)
	if err != nil {
		out := map[string]any{"enabled": true, "ok": false, "error": err.Error()}
		if probe != nil {
			out["probe"] = probe
		}
		return out
	}

	return map[string]any{"enabled": true, "ok": true, "probe": probe}
}

func viewsStatus(ctx context.Context, store *views.Store) map[string]any {
	if store == nil {
		return map[string]any{"enabled": false, "ok": false, "error": "saved views disabled"}
	}

	start := time.Now()
	err := store.Ping(ctx)
	recordStoreQuery(store.Dialect(), "Ping", time.Since(start).Seconds(), err)
	out := map[string]any{
		"enabled": true,
		"ok":      err == nil,
		"dialect": store.Dialect(),
		"target":  store.Target(),
		"ping_ms": time.Since(start).Milliseconds(),
	}
	if err != nil {
		out["error"] = err.Error()
	}
	return out
}
