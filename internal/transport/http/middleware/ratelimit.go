package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"talent/internal/transport/http/api"
)

type RateLimitKeyFunc func(r *http.Request) string

type RateLimitOption func(*limiter)

func WithKeyFunc(fn RateLimitKeyFunc) RateLimitOption {
	return func(l *limiter) {
		if fn != nil {
			l.key = fn
		}
	}
}

// RateLimit is a fixed-window limiter keyed by actor, falling back to client IP.
func RateLimit(limit int, window time.Duration, opts ...RateLimitOption) func(http.Handler) http.Handler {
	l := newLimiter(limit, window)
	for _, opt := range opts {
		opt(l)
	}
	return l.middleware(func(*http.Request) bool { return true })
}

// SensitiveMutationRateLimit gives routes that grade, decide or fan out work
// half the base budget. Other requests pass through untouched.
func SensitiveMutationRateLimit(baseLimit int, window time.Duration) func(http.Handler) http.Handler {
	return newLimiter(max(baseLimit/2, 1), window).middleware(isSensitiveMutation)
}

// sensitiveRoutes match POST paths below /api/v1 by prefix and suffix.
var sensitiveRoutes = []struct{ prefix, suffix string }{
	{"/reviews/", "/scores"},
	{"/quiz-attempts/", "/submit"},
	{"/lessons/", "/quiz/attempts"},
	{"/promotion-approvals/", ""},
	{"/learning-paths/", "/enrollments"},
}

func isSensitiveMutation(r *http.Request) bool {
	if r.Method != http.MethodPost {
		return false
	}
	path := strings.TrimPrefix(r.URL.Path, "/api/v1")
	for _, route := range sensitiveRoutes {
		if strings.HasPrefix(path, route.prefix) && strings.HasSuffix(path, route.suffix) {
			return true
		}
	}
	return false
}

func actorOrIPKey(r *http.Request) string {
	if actor, ok := GetActor(r.Context()); ok && actor.UserID != "" {
		return "user:" + actor.UserID
	}
	return clientIPKey(r)
}

// clientIPKey trusts the first X-Forwarded-For hop.
func clientIPKey(r *http.Request) string {
	if first, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ","); strings.TrimSpace(first) != "" {
		return strings.TrimSpace(first)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return strings.TrimSpace(r.RemoteAddr)
}

type window struct {
	hits  int
	reset time.Time
}

type limiter struct {
	limit  int
	period time.Duration
	key    RateLimitKeyFunc
	now    func() time.Time

	mu      sync.Mutex
	windows map[string]*window
	calls   int
}

// pruneEvery bounds how often expired windows are swept from the map.
const pruneEvery = 1024

func newLimiter(limit int, period time.Duration) *limiter {
	return &limiter{
		limit:   limit,
		period:  period,
		key:     actorOrIPKey,
		now:     time.Now,
		windows: map[string]*window{},
	}
}

// take records one hit for key and returns the hits so far and the window reset.
func (l *limiter) take(key string) (int, time.Time) {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	l.calls++
	if l.calls%pruneEvery == 0 {
		for k, w := range l.windows {
			if now.After(w.reset) {
				delete(l.windows, k)
			}
		}
	}
	w, ok := l.windows[key]
	if !ok || now.After(w.reset) {
		w = &window{reset: now.Add(l.period)}
		l.windows[key] = w
	}
	w.hits++
	return w.hits, w.reset
}

func (l *limiter) middleware(applies func(*http.Request) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if l.limit <= 0 || !applies(r) {
				next.ServeHTTP(w, r)
				return
			}
			key := l.key(r)
			if key == "" {
				key = clientIPKey(r)
			}
			hits, reset := l.take(key)
			resetIn := secondsUntil(l.now(), reset)

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(l.limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(max(l.limit-hits, 0)))
			h.Set("X-RateLimit-Reset", strconv.Itoa(resetIn))
			if hits > l.limit {
				h.Set("Retry-After", strconv.Itoa(max(resetIn, 1)))
				slog.Warn("rate limit exceeded", "key", key, "method", r.Method, "path", r.URL.Path, "limit", l.limit)
				api.Fail(w, http.StatusTooManyRequests, "rate_limited", "too many requests", GetRequestID(r.Context()))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// secondsUntil rounds partial seconds up.
func secondsUntil(now, t time.Time) int {
	d := t.Sub(now)
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}
