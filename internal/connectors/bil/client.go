package bil

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/sync/singleflight"
)

// ProbeResult is a lightweight reachability check of the report endpoint.
type ProbeResult struct {
	URL          string    `json:"url"`
	StatusCode   int       `json:"status_code"`
	PingMS       int64     `json:"ping_ms"`
	LastModified string    `json:"last_modified,omitempty"`
	CheckedAt    time.Time `json:"checked_at"`
}

// Client fetches the daily inventory report and per-dataset blobs from the
// Brain Image Library download server.
//
// Concurrent requests for the same URL share one in-flight fetch; nothing is
// kept once that fetch returns.
type Client struct {
	inventoryURL   string
	datasetBaseURL string
	http           *resty.Client
	inflight       singleflight.Group
}

// NewClient builds a client. A zero timeout leaves fetches unbounded; callers
// still stop waiting when their own context ends.
func NewClient(inventoryURL, datasetBaseURL string, timeout time.Duration) *Client {
	rc := resty.New().
		SetHeader("User-Agent", "bil-inventory-report").
		// Blobs are served gzipped; ask for the bytes as stored.
		SetHeader("Accept-Encoding", "identity")
	if timeout > 0 {
		rc.SetTimeout(timeout)
	}
	return &Client{
		inventoryURL:   strings.TrimSpace(inventoryURL),
		datasetBaseURL: strings.TrimRight(strings.TrimSpace(datasetBaseURL), "/"),
		http:           rc,
	}
}

func (c *Client) Enabled() bool {
	return c != nil && c.inventoryURL != ""
}

func (c *Client) InventoryURL() string {
	if c == nil {
		return ""
	}
	return c.inventoryURL
}

// DatasetURL is the blob location for one BILD ID.
func (c *Client) DatasetURL(bildID string) string {
	return c.datasetBaseURL + "/" + url.PathEscape(bildID) + ".json.gz"
}

// Inventory returns the raw daily report body.
func (c *Client) Inventory(ctx context.Context) ([]byte, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("inventory url not configured")
	}
	return c.get(ctx, c.inventoryURL)
}

// Dataset returns the raw compressed blob of one dataset.
func (c *Client) Dataset(ctx context.Context, bildID string) ([]byte, error) {
	if c == nil || c.datasetBaseURL == "" {
		return nil, fmt.Errorf("dataset base url not configured")
	}
	return c.get(ctx, c.DatasetURL(bildID))
}

// get joins or starts the shared fetch of target. The fetch itself ignores
// the caller's cancellation so one caller leaving does not fail the others;
// each caller still stops waiting when its own context ends.
func (c *Client) get(ctx context.Context, target string) ([]byte, error) {
	fetchCtx := context.WithoutCancel(ctx)
	ch := c.inflight.DoChan(target, func() (any, error) {
		resp, err := c.http.R().SetContext(fetchCtx).Get(target)
		if err != nil {
			return nil, fmt.Errorf("GET %s: %w", target, err)
		}
		if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
			return nil, fmt.Errorf("GET %s: status=%d body=%s", target, resp.StatusCode(), snippet(resp.Body()))
		}
		return resp.Body(), nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

// Probe issues a HEAD against the report URL.
func (c *Client) Probe(ctx context.Context) (*ProbeResult, error) {
	if !c.Enabled() {
		return nil, nil
	}
	start := time.Now()
	resp, err := c.http.R().SetContext(ctx).Head(c.inventoryURL)
	if err != nil {
		return nil, err
	}
	out := &ProbeResult{
		URL:          c.inventoryURL,
		StatusCode:   resp.StatusCode(),
		PingMS:       time.Since(start).Milliseconds(),
		LastModified: resp.Header().Get("Last-Modified"),
		CheckedAt:    time.Now().UTC(),
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		return out, fmt.Errorf("HEAD %s: status=%d", c.inventoryURL, resp.StatusCode())
	}
	return out, nil
}

func snippet(body []byte) string {
	if len(body) > 2048 {
		body = body[:2048]
	}
	return strings.TrimSpace(string(body))
}
