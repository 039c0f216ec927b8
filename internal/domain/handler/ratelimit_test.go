package handler_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hearthhq/hearth/internal/domain/handler"
)

func newLimitedRouter(t *testing.T, authenticated bool) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	if authenticated {
		router.Use(handler.TenantAuth(testSecret))
	}
	router.Use(handler.RateLimiter(1, 1, time.Minute, time.Minute))
	router.GET("/ping", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func TestRateLimiter_perTenantBuckets(t *testing.T) {
	router := newLimitedRouter(t, true)
	first := bearerFor(t, uuid.New())
	second := bearerFor(t, uuid.New())

	if rec := doJSON(t, router, http.MethodGet, "/ping", first, nil); rec.Code != http.StatusOK {
		t.Fatalf("first request: got %d, want 200", rec.Code)
	}
	if rec := doJSON(t, router, http.MethodGet, "/ping", first, nil); rec.Code != http.StatusTooManyRequests {
		t.Errorf("second request, same tenant: got %d, want 429", rec.Code)
	}

	// A different tenant on the same client IP has its own bucket.
	if rec := doJSON(t, router, http.MethodGet, "/ping", second, nil); rec.Code != http.StatusOK {
		t.Errorf("other tenant: got %d, want 200", rec.Code)
	}
}

func TestRateLimiter_fallsBackToClientIP(t *testing.T) {
	router := newLimitedRouter(t, false)

	if rec := doJSON(t, router, http.MethodGet, "/ping", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("first request: got %d, want 200", rec.Code)
	}
	rec := doJSON(t, router, http.MethodGet, "/ping", "", nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("second request, same IP: got %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected a Retry-After header on the throttled response")
	}
}
