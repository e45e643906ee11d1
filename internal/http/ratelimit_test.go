package http

import (
	"net/http"
	"net/netip"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientLimiter_Allow(t *testing.T) {
	l := newClientLimiter(60, 2)
	require.NotNil(t, l)
	now := time.Now()

	ok, _ := l.allow("10.0.0.1", now)
	assert.True(t, ok)
	ok, _ = l.allow("10.0.0.1", now)
	assert.True(t, ok)
	ok, retry := l.allow("10.0.0.1", now)
	assert.False(t, ok)
	assert.GreaterOrEqual(t, retry, time.Second)

	ok, _ = l.allow("10.0.0.2", now)
	assert.True(t, ok, "buckets are per client")

	ok, _ = l.allow("10.0.0.1", now.Add(1100*time.Millisecond))
	assert.True(t, ok, "one token refills per second at 60/min")
}

func TestClientLimiter_Disabled(t *testing.T) {
	assert.Nil(t, newClientLimiter(0, 5))
}

func TestClientLimiter_SweepsIdleBuckets(t *testing.T) {
	l := newClientLimiter(60, 1)
	now := time.Now()
	l.allow("a", now)
	l.allow("b", now)
	require.Len(t, l.buckets, 2)

	l.allow("c", now.Add(11*time.Minute))
	assert.Len(t, l.buckets, 1)
}

func TestRateLimitMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	h := rateLimitMiddleware(newClientLimiter(1, 1), nil, next)

	send := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = "192.0.2.10:5555"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr
	}

	assert.Equal(t, http.StatusNoContent, send("/api/v1/report").Code)
	rr := send("/api/v1/report")
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))
	assert.Equal(t, http.StatusNoContent, send("/health").Code)
}

func TestRateLimitMiddleware_IgnoresSpoofedForwardedFor(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	h := rateLimitMiddleware(newClientLimiter(1, 2), nil, next)

	codes := make([]int, 0, 3)
	for _, fwd := range []string{"1.1.1.1", "2.2.2.2", "3.3.3.3"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/report", nil)
		req.RemoteAddr = "192.0.2.10:5555"
		req.Header.Set("X-Forwarded-For", fwd)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}
	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)
}

func TestClientKey(t *testing.T) {
	proxies := []netip.Prefix{netip.MustParsePrefix("10.0.0.0/8")}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.10:5555"
	assert.Equal(t, "192.0.2.10", clientKey(req, nil))

	req.Header.Set("X-Forwarded-For", "203.0.113.7")
	assert.Equal(t, "192.0.2.10", clientKey(req, nil), "untrusted peers cannot pick their key")
	assert.Equal(t, "192.0.2.10", clientKey(req, proxies), "peer outside the trusted ranges")

	req.RemoteAddr = "10.0.0.5:443"
	assert.Equal(t, "203.0.113.7", clientKey(req, proxies))

	req.Header.Set("X-Forwarded-For", "198.51.100.1, 203.0.113.7, 10.0.0.9")
	assert.Equal(t, "203.0.113.7", clientKey(req, proxies), "rightmost untrusted hop")

	req.Header.Set("X-Forwarded-For", "10.0.0.8")
	assert.Equal(t, "10.0.0.5", clientKey(req, proxies), "only trusted hops")

	req.Header.Set("X-Forwarded-For", "garbage")
	assert.Equal(t, "10.0.0.5", clientKey(req, proxies))
}
