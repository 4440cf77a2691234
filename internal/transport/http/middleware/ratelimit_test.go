package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"talent/internal/domain/auth"
)

func noContent() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestRateLimitUsesActorKeyBeforeIPFallback(t *testing.T) {
	limited := RateLimit(1, time.Minute)(noContent())
	actor := auth.Actor{UserID: "user-1", RoleName: auth.RoleEmployee}

	first := httptest.NewRequest(http.MethodPost, "/api/v1/reviews/r1/scores", nil)
	first = first.WithContext(WithActor(first.Context(), actor))
	first.RemoteAddr = "198.51.100.11:2222"
	firstRec := httptest.NewRecorder()
	limited.ServeHTTP(firstRec, first)
	if firstRec.Code != http.StatusNoContent {
		t.Fatalf("expected first request to pass, got %d", firstRec.Code)
	}

	second := httptest.NewRequest(http.MethodPost, "/api/v1/reviews/r1/scores", nil)
	second = second.WithContext(WithActor(second.Context(), actor))
	second.RemoteAddr = "198.51.100.12:3333"
	secondRec := httptest.NewRecorder()
	limited.ServeHTTP(secondRec, second)
	if secondRec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be throttled by actor key, got %d", secondRec.Code)
	}
}

func TestRateLimitFallsBackToForwardedIP(t *testing.T) {
	limited := RateLimit(1, time.Minute, WithKeyFunc(clientIPKey))(noContent())

	first := httptest.NewRequest(http.MethodGet, "/api/v1/certificates/ABC/verify", nil)
	first.Header.Set("X-Forwarded-For", "203.0.113.10, 10.0.0.1")
	limited.ServeHTTP(httptest.NewRecorder(), first)

	second := httptest.NewRequest(http.MethodGet, "/api/v1/certificates/ABC/verify", nil)
	second.Header.Set("X-Forwarded-For", "203.0.113.10")
	rec := httptest.NewRecorder()
	limited.ServeHTTP(rec, second)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be throttled by ip key, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}
	if rec.Header().Get("X-RateLimit-Reset") == "" {
		t.Fatal("expected X-RateLimit-Reset header")
	}
}

func TestRateLimitWindowReset(t *testing.T) {
	limited := RateLimit(1, 40*time.Millisecond)(noContent())

	send := func() int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/enrollments/e1", nil)
		req.RemoteAddr = "192.0.2.20:1111"
		rec := httptest.NewRecorder()
		limited.ServeHTTP(rec, req)
		return rec.Code
	}
	if code := send(); code != http.StatusNoContent {
		t.Fatalf("expected first request to pass, got %d", code)
	}
	if code := send(); code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be throttled, got %d", code)
	}
	time.Sleep(50 * time.Millisecond)
	if code := send(); code != http.StatusNoContent {
		t.Fatalf("expected request after window reset to pass, got %d", code)
	}
}

func TestSensitiveMutationRateLimitScope(t *testing.T) {
	limited := SensitiveMutationRateLimit(4, time.Minute)(noContent())

	for i := 0; i < 6; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/reviews/r1", nil)
		req.RemoteAddr = "198.51.100.40:8888"
		rec := httptest.NewRecorder()
		limited.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected read request %d to bypass sensitive limits, got %d", i+1, rec.Code)
		}
	}

	actor := auth.Actor{UserID: "approver-1", RoleName: auth.RoleManager}
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/promotion-approvals/a1/approve", nil)
		req = req.WithContext(WithActor(req.Context(), actor))
		rec := httptest.NewRecorder()
		limited.ServeHTTP(rec, req)
		if i < 2 && rec.Code != http.StatusNoContent {
			t.Fatalf("expected sensitive request %d to pass, got %d", i+1, rec.Code)
		}
		if i == 2 && rec.Code != http.StatusTooManyRequests {
			t.Fatalf("expected third sensitive request to be throttled, got %d", rec.Code)
		}
	}
}

func TestIsSensitiveMutation(t *testing.T) {
	cases := []struct {
		method string
		path   string
		want   bool
	}{
		{http.MethodPost, "/api/v1/reviews/r1/scores", true},
		{http.MethodPost, "/api/v1/quiz-attempts/a1/submit", true},
		{http.MethodPost, "/api/v1/lessons/l1/quiz/attempts", true},
		{http.MethodPost, "/api/v1/learning-paths/p1/enrollments", true},
		{http.MethodPost, "/api/v1/lessons/l1/progress/ping", false},
		{http.MethodGet, "/api/v1/reviews/r1/scores", false},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		if got := isSensitiveMutation(req); got != tc.want {
			t.Fatalf("%s %s: expected %v, got %v", tc.method, tc.path, tc.want, got)
		}
	}
}

func TestLimiterPrunesExpiredWindows(t *testing.T) {
	l := newLimiter(5, time.Minute)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	l.take("stale")
	now = now.Add(2 * time.Minute)
	for i := 1; i < pruneEvery; i++ {
		l.take("active")
	}
	if _, ok := l.windows["stale"]; ok {
		t.Fatal("expected the expired window to be pruned")
	}
	if w, ok := l.windows["active"]; !ok || w.hits != pruneEvery-1 {
		t.Fatalf("expected the active window to survive pruning, got %+v", w)
	}
}

func TestSecondsUntilRoundsUp(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if got := secondsUntil(now, now.Add(1500*time.Millisecond)); got != 2 {
		t.Fatalf("expected 2, got %d", got)
	}
	if got := secondsUntil(now, now.Add(-time.Second)); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}
