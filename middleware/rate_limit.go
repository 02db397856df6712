package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/AnTengye/lexiguide/pkg/logger"
	"github.com/gin-gonic/gin"
)

type clientWindow struct {
	start time.Time
	count int
}

// RateLimiter is a fixed-window counter per client. Each client's window
// starts with its first request.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientWindow
	rate    int           // requests per window
	window  time.Duration // time window
	now     func() time.Time
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(rate int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		clients: make(map[string]*clientWindow),
		rate:    rate,
		window:  window,
		now:     time.Now,
	}
}

// Allow records a request for key. When the limit is reached it returns false
// and the time until the key's window resets.
func (l *RateLimiter) Allow(key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.prune(now)

	w, ok := l.clients[key]
	if !ok || now.Sub(w.start) >= l.window {
		w = &clientWindow{start: now}
		l.clients[key] = w
	}

	if w.count >= l.rate {
		return false, w.start.Add(l.window).Sub(now)
	}
	w.count++
	return true, 0
}

// must be called with lock held
func (l *RateLimiter) prune(now time.Time) {
	for key, w := range l.clients {
		if now.Sub(w.start) >= l.window {
			delete(l.clients, key)
		}
	}
}

// RateLimit limits requests per client IP; it guards the routes that call the AI
func RateLimit(rate int, window time.Duration) gin.HandlerFunc {
	limiter := NewRateLimiter(rate, window)

	return func(c *gin.Context) {
		allowed, retryAfter := limiter.Allow(c.ClientIP())
		if !allowed {
			logger.Warn(c.Request.Context(), "rate limit exceeded", "client_ip", c.ClientIP())

			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Rate limit exceeded. Please try again later.",
			})
			return
		}

		c.Next()
	}
}
