package http

import (
	"encoding/json"
	"errors"
	"io"
	nethttp "net/http"
	"strconv"
	"strings"
	"time"

	"go-bil-inventory-report/internal/charts"
	"go-bil-inventory-report/internal/views"
)

type saveViewRequest struct {
	Name       string   `json:"name"`
	Collection string   `json:"collection"`
	BildID     string   `json:"bildid"`
	Panels     []string `json:"panels"`
}

func viewsRouter(store *views.Store) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if store == nil {
			writeJSON(w, nethttp.StatusServiceUnavailable, map[string]any{
				"error": "saved views disabled (set APP_VIEWS_DRIVER=sqlite or mysql)",
			})
			return
		}

		rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/views"), "/")
		if rest == "" {
			switch r.Method {
			case nethttp.MethodGet:
				listViews(w, r, store)
			case nethttp.MethodPost:
				saveView(w, r, store)
			default:
				writeJSON(w, nethttp.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
			}
			return
		}

		id, err := strconv.ParseInt(rest, 10, 64)
		if err != nil || id <= 0 {
			writeJSON(w, nethttp.StatusNotFound, map[string]any{"error": "not found"})
			return
		}
		switch r.Method {
		case nethttp.MethodGet:
			getView(w, r, store, id)
		case nethttp.MethodDelete:
			deleteView(w, r, store, id)
		default:
			writeJSON(w, nethttp.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		}
	}
}

func listViews(w nethttp.ResponseWriter, r *nethttp.Request, store *views.Store) {
	limit := parseLimit(r, 100)
	start := time.Now()
	items, err := store.List(r.Context(), limit)
	recordStoreQuery(store.Dialect(), "List", time.Since(start).Seconds(), err)
	if err != nil {
		writeJSON(w, nethttp.StatusInternalServerError, map[string]any{"error": "failed to list saved views"})
		return
	}
	writeJSON(w, nethttp.StatusOK, map[string]any{
		"meta": map[string]any{
			"limit": limit,
			"count": len(items),
		},
		"data": items,
	})
}

func saveView(w nethttp.ResponseWriter, r *nethttp.Request, store *views.Store) {
	var req saveViewRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, 64<<10))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, nethttp.StatusBadRequest, map[string]any{"error": "invalid JSON body"})
		return
	}
	for _, p := range req.Panels {
		if p = strings.TrimSpace(p); p != "" && !charts.Known(p) {
			writeJSON(w, nethttp.StatusBadRequest, map[string]any{"error": "unknown panel: " + p})
			return
		}
	}

	start := time.Now()
	id, err := store.Upsert(r.Context(), views.View{
		Name:       req.Name,
		Collection: req.Collection,
		BildID:     req.BildID,
		Panels:     req.Panels,
	})
	recordStoreQuery(store.Dialect(), "Upsert", time.Since(start).Seconds(), err)
	if err != nil {
		if errors.Is(err, views.ErrInvalid) {
			writeJSON(w, nethttp.StatusBadRequest, map[string]any{"error": err.Error()})
			return
		}
		writeJSON(w, nethttp.StatusInternalServerError, map[string]any{"error": "failed to save view"})
		return
	}

	start = time.Now()
	item, err := store.Get(r.Context(), id)
	recordStoreQuery(store.Dialect(), "Get", time.Since(start).Seconds(), err)
	if err != nil {
		writeJSON(w, nethttp.StatusInternalServerError, map[string]any{"error": "failed to read saved view"})
		return
	}
	writeJSON(w, nethttp.StatusOK, map[string]any{"data": item})
}

func getView(w nethttp.ResponseWriter, r *nethttp.Request, store *views.Store, id int64) {
	start := time.Now()
	item, err := store.Get(r.Context(), id)
	if errors.Is(err, views.ErrNotFound) {
		recordStoreQuery(store.Dialect(), "Get", time.Since(start).Seconds(), nil)
		writeJSON(w, nethttp.StatusNotFound, map[string]any{"error": "view not found"})
		return
	}
	recordStoreQuery(store.Dialect(), "Get", time.Since(start).Seconds(), err)
	if err != nil {
		writeJSON(w, nethttp.StatusInternalServerError, map[string]any{"error": "failed to read saved view"})
		return
	}
	writeJSON(w, nethttp.StatusOK, map[string]any{"data": item})
}

func deleteView(w nethttp.ResponseWriter, r *nethttp.Request, store *views.Store, id int64) {
	start := time.Now()
	n, err := store.Delete(r.Context(), id)
	recordStoreQuery(store.Dialect(), "Delete", time.Since(start).Seconds(), err)
	if err != nil {
		writeJSON(w, nethttp.StatusInternalServerError, map[string]any{"error": "failed to delete view"})
		return
	}
	if n == 0 {
		writeJSON(w, nethttp.StatusNotFound, map[string]any{"error": "view not found"})
		return
	}
	writeJSON(w, nethttp.StatusOK, map[string]any{"deleted": n})
}
