package http

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"
)

var (
	appStartedAtUnix = time.Now().Unix()
	inFlightRequests int64
	metricsMu        sync.Mutex
	httpSeries       = map[httpMetricKey]*httpMetricSeries{}
	storeSeries      = map[opMetricKey]*opMetricSeries{}
	upstreamSeries   = map[opMetricKey]*opMetricSeries{}
	reportRunSeries  = map[string]*opMetricSeries{}
)

type httpMetricKey struct {
	Method string
	Path   string
	Status string
}

type httpMetricSeries struct {
	Count              uint64
	DurationSecondsSum float64
}

// opMetricKey labels a store query or upstream fetch. Target is the store
// dialect or upstream resource.
type opMetricKey struct {
	Target    string
	Operation string
}

type opMetricSeries struct {
	Count              uint64
	Errors             uint64
	DurationSecondsSum float64
}

type opSnapshot struct {
	Key    opMetricKey
	Series opMetricSeries
}

func metricsHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

		metricsMu.Lock()
		keys := make([]httpMetricKey, 0, len(httpSeries))
		for k := range httpSeries {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool {
			if keys[i].Method != keys[j].Method {
				return keys[i].Method < keys[j].Method
			}
			if keys[i].Path != keys[j].Path {
				return keys[i].Path < keys[j].Path
			}
			return keys[i].Status < keys[j].Status
		})
		httpRows := make([]httpMetricSeries, 0, len(keys))
		for _, k := range keys {
			httpRows = append(httpRows, *httpSeries[k])
		}
		stores := snapshotOps(storeSeries)
		upstreams := snapshotOps(upstreamSeries)

		statuses := make([]string, 0, len(reportRunSeries))
		for s := range reportRunSeries {
			statuses = append(statuses, s)
		}
		sort.Strings(statuses)
		runs := make([]opMetricSeries, 0, len(statuses))
		for _, s := range statuses {
			runs = append(runs, *reportRunSeries[s])
		}
		metricsMu.Unlock()

		writeHeader(w, "bil_report_http_requests_total", "counter", "Total HTTP requests handled by this app.")
		for i, k := range keys {
			_, _ = fmt.Fprintf(w, "bil_report_http_requests_total{method=%q,path=%q,status=%q} %d\n",
				escapeLabel(k.Method), escapeLabel(k.Path), escapeLabel(k.Status), httpRows[i].Count)
		}
		writeHeader(w, "bil_report_http_request_duration_seconds_sum", "counter", "Total duration in seconds for observed requests.")
		for i, k := range keys {
			_, _ = fmt.Fprintf(w, "bil_report_http_request_duration_seconds_sum{method=%q,path=%q,status=%q} %.9f\n",
				escapeLabel(k.Method), escapeLabel(k.Path), escapeLabel(k.Status), httpRows[i].DurationSecondsSum)
		}
		writeHeader(w, "bil_report_http_in_flight_requests", "gauge", "In-flight HTTP requests currently served by this app.")
		_, _ = fmt.Fprintf(w, "bil_report_http_in_flight_requests %d\n", atomic.LoadInt64(&inFlightRequests))

		writeOpSeries(w, "bil_report_upstream_fetch", "target", "Upstream fetch", upstreams)
		writeOpSeries(w, "bil_report_views_query", "dialect", "Saved views query", stores)

		writeHeader(w, "bil_report_report_runs_total", "counter", "Report run count by status.")
		for i, s := range statuses {
			_, _ = fmt.Fprintf(w, "bil_report_report_runs_total{status=%q} %d\n", escapeLabel(s), runs[i].Count)
		}
		writeHeader(w, "bil_report_report_run_duration_seconds_sum", "counter", "Report run duration sum in seconds by status.")
		for i, s := range statuses {
			_, _ = fmt.Fprintf(w, "bil_report_report_run_duration_seconds_sum{status=%q} %.9f\n", escapeLabel(s), runs[i].DurationSecondsSum)
		}

		uptime := time.Now().Unix() - appStartedAtUnix
		writeHeader(w, "bil_report_uptime_seconds", "gauge", "Process uptime in seconds.")
		_, _ = fmt.Fprintf(w, "bil_report_uptime_seconds %d\n", uptime)

		var ms runtime.MemStats
		runtime.ReadMemStats(&ms)
		writeHeader(w, "bil_report_runtime_goroutines", "gauge", "Number of goroutines.")
		_, _ = fmt.Fprintf(w, "bil_report_runtime_goroutines %d\n", runtime.NumGoroutine())
		writeHeader(w, "bil_report_runtime_memory_alloc_bytes", "gauge", "Heap allocation bytes.")
		_, _ = fmt.Fprintf(w, "bil_report_runtime_memory_alloc_bytes %d\n", ms.Alloc)

		if cpuSec, ok := processCPUSeconds(); ok {
			writeHeader(w, "bil_report_runtime_cpu_seconds_total", "counter", "Total CPU time consumed by this process in seconds.")
			_, _ = fmt.Fprintf(w, "bil_report_runtime_cpu_seconds_total %.6f\n", cpuSec)
		}
		if st := processIOStats(); st != nil {
			writeHeader(w, "bil_report_runtime_io_read_bytes_total", "counter", "Bytes read by this process from storage.")
			_, _ = fmt.Fprintf(w, "bil_report_runtime_io_read_bytes_total %d\n", st.ReadBytes)
			writeHeader(w, "bil_report_runtime_io_write_bytes_total", "counter", "Bytes written by this process to storage.")
			_, _ = fmt.Fprintf(w, "bil_report_runtime_io_write_bytes_total %d\n", st.WriteBytes)
		}
	})
}

func writeHeader(w io.Writer, name, kind, help string) {
	_, _ = fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n", name, help, name, kind)
}

func writeOpSeries(w io.Writer, prefix, targetLabel, what string, rows []opSnapshot) {
	writeHeader(w, prefix+"_duration_seconds_sum", "counter", what+" duration sum in seconds.")
	for _, it := range rows {
		_, _ = fmt.Fprintf(w, "%s_duration_seconds_sum{%s=%q,operation=%q} %.9f\n",
			prefix, targetLabel, escapeLabel(it.Key.Target), escapeLabel(it.Key.Operation), it.Series.DurationSecondsSum)
	}
	writeHeader(w, prefix+"_duration_seconds_count", "counter", what+" observation count.")
	for _, it := range rows {
		_, _ = fmt.Fprintf(w, "%s_duration_seconds_count{%s=%q,operation=%q} %d\n",
			prefix, targetLabel, escapeLabel(it.Key.Target), escapeLabel(it.Key.Operation), it.Series.Count)
	}
	writeHeader(w, prefix+"_errors_total", "counter", what+" errors.")
	for _, it := range rows {
		_, _ = fmt.Fprintf(w, "%s_errors_total{%s=%q,operation=%q} %d\n",
			prefix, targetLabel, escapeLabel(it.Key.Target), escapeLabel(it.Key.Operation), it.Series.Errors)
	}
}

// snapshotOps copies a series map in label order. Callers hold metricsMu.
func snapshotOps(m map[opMetricKey]*opMetricSeries) []opSnapshot {
	keys := make([]opMetricKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Target != keys[j].Target {
			return keys[i].Target < keys[j].Target
		}
		return keys[i].Operation < keys[j].Operation
	})
	out := make([]opSnapshot, 0, len(keys))
	for _, k := range keys {
		out = append(out, opSnapshot{Key: k, Series: *m[k]})
	}
	return out
}

func appMetricsSummaryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		type endpointRow struct {
			Method  string  `json:"method"`
			Path    string  `json:"path"`
			Status  string  `json:"status"`
			Count   uint64  `json:"count"`
			AvgMS   float64 `json:"avg_ms"`
			TotalMS float64 `json:"total_ms"`
		}
		type opRow struct {
			Target    string  `json:"target"`
			Operation string  `json:"operation"`
			Count     uint64  `json:"count"`
			Errors    uint64  `json:"errors"`
			AvgMS     float64 `json:"avg_ms"`
		}

		metricsMu.Lock()
		httpRows := make([]endpointRow, 0, len(httpSeries))
		for k, s := range httpSeries {
			httpRows = append(httpRows, endpointRow{
				Method:  k.Method,
				Path:    k.Path,
				Status:  k.Status,
				Count:   s.Count,
				AvgMS:   avgMS(s.DurationSecondsSum, s.Count),
				TotalMS: s.DurationSecondsSum * 1000.0,
			})
		}
		upRows := make([]opRow, 0, len(upstreamSeries))
		upstreamErrors := uint64(0)
		for _, it := range snapshotOps(upstreamSeries) {
			upRows = append(upRows, opRow{
				Target:    it.Key.Target,
				Operation: it.Key.Operation,
				Count:     it.Series.Count,
				Errors:    it.Series.Errors,
				AvgMS:     avgMS(it.Series.DurationSecondsSum, it.Series.Count),
			})
			upstreamErrors += it.Series.Errors
		}
		storeErrors := uint64(0)
		for _, s := range storeSeries {
			storeErrors += s.Errors
		}
		metricsMu.Unlock()

		sort.Slice(httpRows, func(i, j int) bool { return httpRows[i].AvgMS > httpRows[j].AvgMS })
		if len(httpRows) > 5 {
			httpRows = httpRows[:5]
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"meta": map[string]any{
				"generated_at": time.Now().UTC(),
			},
			"data": map[string]any{
				"top_http_slowest_avg_ms": httpRows,
				"upstream":                upRows,
				"errors": map[string]any{
					"upstream_fetch_total": upstreamErrors,
					"views_query_total":    storeErrors,
				},
			},
		})
	}
}

func avgMS(sumSeconds float64, count uint64) float64 {
	if count == 0 {
		return 0
	}
	return (sumSeconds / float64(count)) * 1000.0
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func observabilityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		atomic.AddInt64(&inFlightRequests, 1)
		defer atomic.AddInt64(&inFlightRequests, -1)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		recordHTTPMetric(r.Method, normalizeMetricPath(r.URL.Path), rec.status, time.Since(start).Seconds())
	})
}

func normalizeMetricPath(path string) string {
	switch {
	case strings.HasPrefix(path, "/api/v1/datasets/"):
		return "/api/v1/datasets/{bildid}"
	case strings.HasPrefix(path, "/api/v1/views/"):
		return "/api/v1/views/{id}"
	default:
		return path
	}
}

func recordHTTPMetric(method, path string, status int, durationSeconds float64) {
	key := httpMetricKey{
		Method: method,
		Path:   path,
		Status: strconv.Itoa(status),
	}
	metricsMu.Lock()
	defer metricsMu.Unlock()
	row, ok := httpSeries[key]
	if !ok {
		row = &httpMetricSeries{}
		httpSeries[key] = row
	}
	row.Count++
	row.DurationSecondsSum += durationSeconds
}

func recordOp(m map[opMetricKey]*opMetricSeries, target, operation string, durationSeconds float64, err error) {
	if target == "" || operation == "" {
		return
	}
	key := opMetricKey{Target: target, Operation: operation}
	metricsMu.Lock()
	defer metricsMu.Unlock()
	row, ok := m[key]
	if !ok {
		row = &opMetricSeries{}
		m[key] = row
	}
	row.Count++
	row.DurationSecondsSum += durationSeconds
	if err != nil {
		row.Errors++
	}
}

func recordUpstreamFetch(target, operation string, durationSeconds float64, err error) {
	recordOp(upstreamSeries, target, operation, durationSeconds, err)
}

func recordStoreQuery(dialect, operation string, durationSeconds float64, err error) {
	recordOp(storeSeries, dialect, operation, durationSeconds, err)
}

func recordReportRun(status string, durationSeconds float64) {
	status = strings.TrimSpace(strings.ToLower(status))
	if status == "" {
		status = "unknown"
	}
	metricsMu.Lock()
	defer metricsMu.Unlock()
	row, ok := reportRunSeries[status]
	if !ok {
		row = &opMetricSeries{}
		reportRunSeries[status] = row
	}
	row.Count++
	row.DurationSecondsSum += durationSeconds
}

func escapeLabel(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, "\n", `\n`)
	v = strings.ReplaceAll(v, `"`, `\"`)
	return v
}

func processCPUSeconds() (float64, bool) {
	var ru syscall.Rusage
	if err := syscall.Getrusage(syscall.RUSAGE_SELF, &ru); err != nil {
		return 0, false
	}
	user := float64(ru.Utime.Sec) + (float64(ru.Utime.Usec) / 1_000_000.0)
	sys := float64(ru.Stime.Sec) + (float64(ru.Stime.Usec) / 1_000_000.0)
	return user + sys, true
}

type ioStats struct {
	ReadBytes  uint64
	WriteBytes uint64
}

func processIOStats() *ioStats {
	b, err := os.ReadFile("/proc/self/io")
	if err != nil {
		return nil
	}
	out := &ioStats{}
	for _, line := range strings.Split(string(b), "\n") {
		key, val, ok := strings.Cut(strings.TrimSpace(line), ":")
		if !ok {
			continue
		}
		v, err := strconv.ParseUint(strings.TrimSpace(val), 10, 64)
		if err != nil {
			continue
		}
		switch strings.TrimSpace(key) {
		case "read_bytes":
			out.ReadBytes = v
		case "write_bytes":
			out.WriteBytes = v
		}
	}
	return out
}
