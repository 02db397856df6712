package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(RequestID())
	router.Use(RateLimit(3, time.Minute))
	router.POST("/api/advisor", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	})

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/advisor", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Request %d: Expected status 200, got %d", i+1, w.Code)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/api/advisor", nil)
	req.RemoteAddr = "192.168.1.1:12345"
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusTooManyRequests {
		t.Errorf("Expected status 429, got %d", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got == "" || got == "0" {
		t.Errorf("Expected positive Retry-After header, got %q", got)
	}
}

func TestRateLimitDifferentIPs(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(RateLimit(1, time.Minute))
	router.POST("/api/contract", func(c *gin.Context) {
		c.Status(http.StatusAccepted)
	})

	send := func(addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/contract", nil)
		req.RemoteAddr = addr
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	if code := send("10.0.0.1:1000"); code != http.StatusAccepted {
		t.Errorf("First request: expected 202, got %d", code)
	}
	if code := send("10.0.0.1:1000"); code != http.StatusTooManyRequests {
		t.Errorf("Second request from same IP: expected 429, got %d", code)
	}
	if code := send("10.0.0.2:1000"); code != http.StatusAccepted {
		t.Errorf("Different IP should not be rate limited, got %d", code)
	}
}

func TestRateLimiterWindowReset(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(2, time.Minute)
	limiter.now = func() time.Time { return now }

	limiter.Allow("a")
	limiter.Allow("a")

	allowed, retryAfter := limiter.Allow("a")
	if allowed {
		t.Fatal("Expected third request to be limited")
	}
	if retryAfter != time.Minute {
		t.Errorf("Expected retry after 1m, got %v", retryAfter)
	}

	now = now.Add(40 * time.Second)
	if _, retryAfter := limiter.Allow("a"); retryAfter != 20*time.Second {
		t.Errorf("Expected retry after 20s, got %v", retryAfter)
	}

	now = now.Add(20 * time.Second)
	if allowed, _ := limiter.Allow("a"); !allowed {
		t.Error("Expected request to be allowed in the next window")
	}
}

func TestRateLimiterPrunesExpiredClients(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(5, time.Minute)
	limiter.now = func() time.Time { return now }

	limiter.Allow("a")
	limiter.Allow("b")

	now = now.Add(2 * time.Minute)
	limiter.Allow("c")

	if len(limiter.clients) != 1 {
		t.Errorf("Expected 1 tracked client after pruning, got %d", len(limiter.clients))
	}
}
