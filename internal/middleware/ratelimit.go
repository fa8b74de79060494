package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/realsbd/bicxchange/internal/repository/redis"
)

type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, int, time.Duration, error)
}

// ByClientIP buckets requests of one route group per client address.
func ByClientIP(scope string) func(*gin.Context) string {
	return func(c *gin.Context) string {
		return redis.RateLimitKey(scope, c.ClientIP())
	}
}

// RateLimit allows limit requests per window and key. A nil limiter disables
// it; limiter errors let the request through.
func RateLimit(l Limiter, limit int, window time.Duration, keyFn func(*gin.Context) string, log zerolog.Logger) gin.HandlerFunc {
	if l == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		allowed, remaining, retryAfter, err := l.Allow(c.Request.Context(), keyFn(c), limit, window)
		if err != nil {
			log.Warn().Err(err).Str("path", c.FullPath()).Msg("rate limiter unavailable")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		if !allowed {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"msg": "Too many requests"})
			return
		}
		c.Next()
	}
}
