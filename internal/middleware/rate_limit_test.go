package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiterWithConfig(10, 5) // 10 per minute, burst of 5
	defer rl.Stop()

	// First 5 requests should be allowed (burst)
	for i := 0; i < 5; i++ {
		if !rl.Allow("user:1") {
			t.Errorf("Request %d should be allowed", i+1)
		}
	}

	// 6th request should be rate limited (exceeded burst)
	if rl.Allow("user:1") {
		t.Error("Request 6 should be rate limited")
	}
}

func TestRateLimiter_DifferentKeys(t *testing.T) {
	rl := NewRateLimiterWithConfig(10, 3)
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		if !rl.Allow("user:1") {
			t.Errorf("user:1 request %d should be allowed", i+1)
		}
	}
	if rl.Allow("user:1") {
		t.Error("user:1 should be rate limited")
	}

	// Another key has its own bucket
	if !rl.Allow("user:2") {
		t.Error("user:2 should be allowed")
	}
}

func TestRateLimiter_GetState(t *testing.T) {
	rl := NewRateLimiterWithConfig(60, 5)
	defer rl.Stop()

	remaining, _ := rl.GetState("unknown")
	if remaining != 5 {
		t.Errorf("Expected full burst for unknown key, got %d", remaining)
	}

	rl.Allow("ip:1.2.3.4")
	rl.Allow("ip:1.2.3.4")
	remaining, reset := rl.GetState("ip:1.2.3.4")
	if remaining != 3 {
		t.Errorf("Expected 3 remaining, got %d", remaining)
	}
	if !reset.After(time.Now()) {
		t.Error("Expected reset time in the future")
	}
}

func TestRateLimiter_EvictStale(t *testing.T) {
	rl := NewRateLimiterWithConfig(10, 1)
	defer rl.Stop()

	rl.Allow("user:1")
	rl.evictStale(time.Now().Add(LimiterTTL + time.Second))

	// A fresh limiter gets a full burst again
	if !rl.Allow("user:1") {
		t.Error("Expected evicted key to start over")
	}
}

func TestRateLimiter_StopTwice(t *testing.T) {
	rl := NewRateLimiterWithConfig(10, 1)
	rl.Stop()
	rl.Stop()
}

func TestUserOrIPKey(t *testing.T) {
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderXRealIP, "203.0.113.7")
	c := e.NewContext(req, httptest.NewRecorder())
	if got := UserOrIPKey(c); got != "ip:203.0.113.7" {
		t.Errorf("Expected IP key, got %q", got)
	}

	ctx := context.WithValue(req.Context(), UserIDKey, "auth0|1")
	c.SetRequest(req.WithContext(ctx))
	if got := UserOrIPKey(c); got != "user:auth0|1" {
		t.Errorf("Expected user key, got %q", got)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	e := echo.New()
	rl := NewRateLimiterWithConfig(10, 2) // Small burst for testing
	defer rl.Stop()

	handler := func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	}
	mw := RateLimitMiddleware(rl, IPKey)

	newContext := func() (echo.Context, *httptest.ResponseRecorder) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/gateway", nil)
		req.Header.Set(echo.HeaderXRealIP, "198.51.100.1")
		rec := httptest.NewRecorder()
		return e.NewContext(req, rec), rec
	}

	// First 2 requests should succeed (burst)
	for i := 0; i < 2; i++ {
		c, rec := newContext()
		if err := mw(handler)(c); err != nil {
			t.Fatalf("Request %d: Expected no error, got %v", i+1, err)
		}
		if rec.Code != http.StatusOK {
			t.Errorf("Request %d: Expected status 200, got %d", i+1, rec.Code)
		}
		if rec.Header().Get("X-RateLimit-Limit") != "10" {
			t.Errorf("Request %d: Expected X-RateLimit-Limit 10, got %q", i+1, rec.Header().Get("X-RateLimit-Limit"))
		}
	}

	// 3rd request should be rate limited
	c, rec := newContext()
	if err := mw(handler)(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("Expected status 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("Expected Retry-After header")
	}
}

func TestRateLimitMiddleware_EmptyKeySkips(t *testing.T) {
	e := echo.New()
	rl := NewRateLimiterWithConfig(1, 1)
	defer rl.Stop()

	skip := func(c echo.Context) string { return "" }
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		if err := RateLimitMiddleware(rl, skip)(func(c echo.Context) error {
			return c.NoContent(http.StatusOK)
		})(e.NewContext(req, rec)); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if rec.Code != http.StatusOK {
			t.Errorf("Request %d: expected 200, got %d", i+1, rec.Code)
		}
	}
}
