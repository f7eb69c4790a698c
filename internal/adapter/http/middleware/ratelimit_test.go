package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/iho/expensesplit/internal/infrastructure/metrics"
)

func TestRateLimiterBlocksExcessRequests(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	rl := NewRateLimiter(1, 1, m)
	handler := rl.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := send("1.2.3.4:1234"); code != http.StatusOK {
		t.Fatalf("expected first request to succeed, got %d", code)
	}
	if code := send("1.2.3.4:5678"); code != http.StatusTooManyRequests {
		t.Fatalf("expected second request from same IP to be throttled, got %d", code)
	}
	if code := send("5.6.7.8:1234"); code != http.StatusOK {
		t.Fatalf("expected other IP to be allowed, got %d", code)
	}

	if got := testutil.ToFloat64(m.RateLimitHits); got != 1 {
		t.Fatalf("expected 1 rate limit hit, got %v", got)
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(1, 1, nil)
	rl.now = func() time.Time { return now }

	rl.getLimiter("1.1.1.1")
	now = now.Add(30 * time.Minute)
	rl.getLimiter("2.2.2.2")

	rl.CleanupLimiters(10 * time.Minute)

	if _, ok := rl.visitors["1.1.1.1"]; ok {
		t.Fatalf("expected idle limiter to be removed")
	}
	if _, ok := rl.visitors["2.2.2.2"]; !ok {
		t.Fatalf("expected recent limiter to be kept")
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:4321"
	if got := clientIP(req); got != "10.0.0.1" {
		t.Fatalf("expected host only, got %q", got)
	}

	req.RemoteAddr = "10.0.0.2"
	if got := clientIP(req); got != "10.0.0.2" {
		t.Fatalf("expected address without port unchanged, got %q", got)
	}
}
