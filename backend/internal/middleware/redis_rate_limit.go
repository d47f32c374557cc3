package middleware

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/leadbridge/marketplace/backend/internal/cache"
	"github.com/leadbridge/marketplace/backend/internal/errors"
	"github.com/leadbridge/marketplace/backend/internal/logger"
	"github.com/leadbridge/marketplace/backend/internal/metrics"
	"github.com/leadbridge/marketplace/backend/internal/util"
	"go.uber.org/zap"
)

// RedisRateLimitMiddleware is a fixed-window limiter shared by every server instance.
// Without Redis, or when Redis errors, it defers to local. A nil local gets a private one.
func RedisRateLimitMiddleware(cfg RateLimitConfig, local *RateLimiter, m *metrics.Metrics) gin.HandlerFunc {
	if local == nil {
		local = NewRateLimiter(cfg)
	}
	fallback := local.Middleware(m)

	return func(c *gin.Context) {
		redisClient := cache.GetRedisClient()
		if redisClient == nil {
			fallback(c)
			return
		}

		clientIP := c.ClientIP()
		key := fmt.Sprintf("rate_limit:%s", clientIP)
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		start := time.Now()
		count, err := redisClient.IncrBy(ctx, key, 1)
		RecordRedisOperation(m, "incrby", time.Since(start), err)
		if err != nil {
			// a broken limiter must not take the API down with it
			logger.Log.Warn("Rate limit check failed, using in-memory limiter",
				logger.WithIP(clientIP),
				zap.Error(err),
			)
			fallback(c)
			return
		}

		if count == 1 {
			if err := redisClient.Expire(ctx, key, cfg.Window); err != nil {
				logger.Log.Warn("Failed to set rate limit expiration",
					logger.WithIP(clientIP),
					zap.Error(err),
				)
			}
		}

		if count > int64(cfg.Limit) {
			retryAfter := int(cfg.Window.Seconds())
			if ttl, err := redisClient.TTL(ctx, key); err == nil && ttl > 0 {
				retryAfter = int(ttl.Seconds()) + 1
			}

			logger.Log.Warn("Rate limit exceeded",
				logger.WithIP(clientIP),
				zap.Int("max_requests", cfg.Limit),
				zap.Int64("current_requests", count),
			)
			RecordRateLimitExceeded(m, c.FullPath(), c.Request.Method)
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			util.RespondWithAPIError(c, errors.RateLimited(retryAfter))
			return
		}

		c.Next()
	}
}
