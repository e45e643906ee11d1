package http

import (
	"net"
	nethttp "net/http"
	"net/netip"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// clientLimiter keeps one token bucket per client address.
type clientLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*clientBucket
	rate      rate.Limit
	burst     int
	idle      time.Duration
	lastSweep time.Time
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// newClientLimiter allows perMinute requests per client with the given burst.
// It returns nil, meaning unlimited, when perMinute is not positive.
func newClientLimiter(perMinute, burst int) *clientLimiter {
	if perMinute <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return &clientLimiter{
		buckets:   map[string]*clientBucket{},
		rate:      rate.Limit(float64(perMinute) / 60.0),
		burst:     burst,
		idle:      10 * time.Minute,
		lastSweep: time.Now(),
	}
}

// allow takes one token for key. When refused it also returns how long until
// a token is available.
func (l *clientLimiter) allow(key string, now time.Time) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) > l.idle {
		for k, b := range l.buckets {
			if now.Sub(b.lastSeen) > l.idle {
				delete(l.buckets, k)
			}
		}
		l.lastSweep = now
	}

	b, ok := l.buckets[key]
	if !ok {
		b = &clientBucket{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now

	res := b.limiter.ReserveN(now, 1)
	if !res.OK() {
		return false, time.Second
	}
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		return false, max(delay, time.Second)
	}
	return true, 0
}

func rateLimitMiddleware(l *clientLimiter, trusted []netip.Prefix, next nethttp.Handler) nethttp.Handler {
	if l == nil {
		return next
	}
	return nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		switch r.URL.Path {
		case "/health", "/ready", "/metrics":
			next.ServeHTTP(w, r)
			return
		}
		ok, retry := l.allow(clientKey(r, trusted), time.Now())
		if !ok {
			w.Header().Set("Retry-After", strconv.Itoa(int(retry.Round(time.Second).Seconds())))
			writeJSON(w, nethttp.StatusTooManyRequests, map[string]any{
				"error": "rate limit exceeded",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientKey identifies the peer. X-Forwarded-For is only read when the peer
// is a trusted proxy, and then the rightmost untrusted hop wins.
func clientKey(r *nethttp.Request, trusted []netip.Prefix) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if !isTrusted(host, trusted) {
		return host
	}
	hops := strings.Split(strings.Join(r.Header.Values("X-Forwarded-For"), ","), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		addr, err := netip.ParseAddr(hop)
		if err != nil {
			break
		}
		if !isTrusted(hop, trusted) {
			return addr.Unmap().String()
		}
	}
	return host
}

func isTrusted(ip string, trusted []netip.Prefix) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
