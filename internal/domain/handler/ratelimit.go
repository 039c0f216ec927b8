package handler

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

type callerLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter returns a Gin middleware that enforces a per-caller token
// bucket. Requests that already passed TenantAuth are keyed by tenant ID, so
// community admins behind a shared NAT never throttle each other; requests
// without an authenticated tenant fall back to the client IP. rps is the
// steady-state requests per second; burst is the maximum burst size. Idle
// entries are dropped every cleanupEvery once untouched for staleAfter; zero
// durations default to 5 and 10 minutes.
func RateLimiter(rps, burst int, cleanupEvery, staleAfter time.Duration) gin.HandlerFunc {
	if cleanupEvery <= 0 {
		cleanupEvery = 5 * time.Minute
	}
	if staleAfter <= 0 {
		staleAfter = 10 * time.Minute
	}

	var mu sync.Mutex
	limiters := make(map[string]*callerLimiter)

	// Background cleanup goroutine.
	go func() {
		for {
			time.Sleep(cleanupEvery)
			mu.Lock()
			for key, l := range limiters {
				if time.Since(l.lastSeen) > staleAfter {
					delete(limiters, key)
				}
			}
			mu.Unlock()
		}
	}()

	return func(c *gin.Context) {
		// The prefixes keep a tenant bucket from colliding with an IP bucket.
		key := "ip:" + c.ClientIP()
		if v, ok := c.Get(tenantIDKey); ok {
			if id, ok := v.(uuid.UUID); ok {
				key = "tenant:" + id.String()
			}
		}

		mu.Lock()
		l, ok := limiters[key]
		if !ok {
			l = &callerLimiter{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
			limiters[key] = l
		}
		l.lastSeen = time.Now()
		mu.Unlock()

		if !l.limiter.Allow() {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}
