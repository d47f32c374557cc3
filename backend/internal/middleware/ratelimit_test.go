package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/leadbridge/marketplace/backend/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func newTestMetrics() *metrics.Metrics {
	return metrics.NewForRegistry(prometheus.NewRegistry())
}

func rateLimitedRouter(cfg RateLimitConfig, m *metrics.Metrics) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(NewRateLimiter(cfg).Middleware(m))
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return router
}

func doRequest(router http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", "/test", nil)
	req.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRateLimiter(t *testing.T) {
	m := newTestMetrics()
	router := rateLimitedRouter(RateLimitConfig{Limit: 3, Window: time.Second}, m)

	for i := 0; i < 3; i++ {
		w := doRequest(router, "10.0.0.1:1234")
		assert.Equal(t, http.StatusOK, w.Code, "Request %d should succeed", i+1)
	}

	w := doRequest(router, "10.0.0.1:1234")
	assert.Equal(t, http.StatusTooManyRequests, w.Code, "4th request should be rate limited")
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "RATE_LIMITED")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RateLimitExceededTotal.WithLabelValues("/test", "GET")))

	time.Sleep(400 * time.Millisecond)
	w = doRequest(router, "10.0.0.1:1234")
	assert.Equal(t, http.StatusOK, w.Code, "a token refills after window/limit")
}

func TestRateLimiterDifferentClients(t *testing.T) {
	router := rateLimitedRouter(RateLimitConfig{Limit: 1, Window: time.Minute}, newTestMetrics())

	assert.Equal(t, http.StatusOK, doRequest(router, "10.0.0.1:1").Code)
	assert.Equal(t, http.StatusTooManyRequests, doRequest(router, "10.0.0.1:1").Code)
	assert.Equal(t, http.StatusOK, doRequest(router, "10.0.0.2:1").Code)
}

func TestRateLimiterSweep(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{Limit: 2, Window: 100 * time.Millisecond})

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"))
	assert.Equal(t, 0, rl.Sweep(), "recently used buckets are kept")

	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, 2, rl.Sweep())
}

func TestRedisRateLimitFallsBackWithoutRedis(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RedisRateLimitMiddleware(RateLimitConfig{Limit: 1, Window: time.Minute}, nil, newTestMetrics()))
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	assert.Equal(t, http.StatusNoContent, doRequest(router, "10.0.0.9:1").Code)
	assert.Equal(t, http.StatusTooManyRequests, doRequest(router, "10.0.0.9:1").Code)
}

func TestDefaultRateLimitConfig(t *testing.T) {
	cfg := DefaultRateLimitConfig()
	assert.Equal(t, 120, cfg.Limit)
	assert.Equal(t, time.Minute, cfg.Window)
}
