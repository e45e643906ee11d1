package http

import (
	"context"
	"encoding/json"
	"log/slog"
	nethttp "net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"go-bil-inventory-report/internal/config"
	"go-bil-inventory-report/internal/connectors/bil"
	"go-bil-inventory-report/internal/dataset"
	"go-bil-inventory-report/internal/views"
)

// Server wraps an HTTP server and route handlers.
type Server struct {
	httpServer *nethttp.Server
	client     *bil.Client
	views      *views.Store
}

// NewServer creates a configured HTTP server with v1 endpoints.
func NewServer(cfg config.Config) (*Server, error) {
	client := bil.NewClient(cfg.InventoryURL, cfg.DatasetBaseURL, cfg.FetchTimeout)
	store, err := views.Open(cfg)
	if err != nil {
		return nil, err
	}

	httpServer := &nethttp.Server{
		Addr:         cfg.ListenAddr,
		Handler:      newRouter(cfg, client, store),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return &Server{httpServer: httpServer, client: client, views: store}, nil
}

func newRouter(cfg config.Config, client *bil.Client, store *views.Store) nethttp.Handler {
	upstream := &instrumentedSource{client: client}
	loader := &dataset.Loader{Source: upstream, MaxBytes: cfg.MaxBlobBytes}

	mux := nethttp.NewServeMux()

	mux.HandleFunc("/", dashboardHandler)
	mux.HandleFunc("/favicon.ico", faviconHandler)
	mux.Handle("/metrics", metricsHandler())
	mux.HandleFunc("/api/v1/metrics/app", appMetricsSummaryHandler())
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/ready", readyHandler)
	mux.HandleFunc("/api/v1/report", reportHandler(cfg.DefaultCollection, cfg.PreviewLimit, client.InventoryURL(), upstream))
	mux.HandleFunc("/api/v1/datasets/", datasetHandler(client, loader))
	mux.HandleFunc("/api/v1/views", viewsRouter(store))
	mux.HandleFunc("/api/v1/views/", viewsRouter(store))
	mux.HandleFunc("/api/v1/status/services", servicesStatusHandler(client, store))
	mux.HandleFunc("/api/v1/settings", settingsHandler(cfg))

	limiter := newClientLimiter(cfg.RateLimitPerMin, cfg.RateLimitBurst)
	return loggingMiddleware(observabilityMiddleware(rateLimitMiddleware(limiter, cfg.TrustedProxies, mux)))
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if s.views != nil {
		_ = s.views.Close()
	}
	return err
}

// instrumentedSource records upstream fetch metrics around the client.
type instrumentedSource struct {
	client *bil.Client
}

func (s *instrumentedSource) Inventory(ctx context.Context) ([]byte, error) {
	start := time.Now()
	body, err := s.client.Inventory(ctx)
	recordUpstreamFetch("inventory", "Inventory", time.Since(start).Seconds(), err)
	return body, err
}

func (s *instrumentedSource) Dataset(ctx context.Context, bildID string) ([]byte, error) {
	start := time.Now()
	blob, err := s.client.Dataset(ctx, bildID)
	recordUpstreamFetch("dataset", "Dataset", time.Since(start).Seconds(), err)
	return blob, err
}

func healthHandler(w nethttp.ResponseWriter, _ *nethttp.Request) {
	writeJSON(w, nethttp.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC(),
	})
}

func readyHandler(w nethttp.ResponseWriter, _ *nethttp.Request) {
	writeJSON(w, nethttp.StatusOK, map[string]any{
		"status": "ready",
	})
}

type requestIDKey struct{}

// requestID returns the id assigned by loggingMiddleware, if any.
func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func loggingMiddleware(next nethttp.Handler) nethttp.Handler {
	return nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		start := time.Now()
		id := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		r = r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id))

		rec := &statusRecorder{ResponseWriter: w, status: nethttp.StatusOK}
		next.ServeHTTP(rec, r)

		level := slog.LevelInfo
		if rec.status >= nethttp.StatusInternalServerError {
			level = slog.LevelWarn
		}
		slog.Log(r.Context(), level, "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
			"request_id", id,
		)
	})
}

func writeJSON(w nethttp.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}
