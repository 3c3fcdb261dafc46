// Package ratelimit throttles requests with a Redis fixed-window counter.
package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Limiter decides whether one more request under key fits the window and
// reports how many requests the window still admits
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (allowed bool, remaining int, err error)
}

// RedisLimiter counts requests per window with INCR and EXPIRE. Redis
// failures let the request through.
type RedisLimiter struct {
	client *redis.Client
	log    *zap.Logger
	now    func() time.Time
}

func NewRedisLimiter(client *redis.Client, log *zap.Logger) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		log:    log.With(zap.String("component", "ratelimit")),
		now:    time.Now,
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, int, error) {
	bucket := l.bucketKey(key, window)

	pipe := l.client.Pipeline()
	incr := pipe.Incr(ctx, bucket)
	pipe.Expire(ctx, bucket, window+time.Second)
	if _, err := pipe.Exec(ctx); err != nil {
		l.log.Warn("rate limit check failed, allowing request", zap.String("key", key), zap.Error(err))
		return true, limit, nil
	}

	count := incr.Val()
	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	if count > int64(limit) {
		l.log.Info("rate limit exceeded",
			zap.String("key", key),
			zap.Int64("count", count),
			zap.Int("limit", limit),
			zap.Duration("window", window))
		return false, 0, nil
	}
	return true, remaining, nil
}

func (l *RedisLimiter) bucketKey(key string, window time.Duration) string {
	bucket := l.now().UnixNano() / int64(window)
	return fmt.Sprintf("yoga:ratelimit:%s:%d", key, bucket)
}

// Middleware rejects requests with 429 once keyFn's caller has used up limit
// requests in the current window and reports the remaining budget in
// X-RateLimit-Remaining. An empty key is not limited.
func Middleware(limiter Limiter, limit int, window time.Duration, keyFn func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil || limit <= 0 {
			c.Next()
			return
		}
		key := keyFn(c)
		if key == "" {
			c.Next()
			return
		}

		allowed, remaining, err := limiter.Allow(c.Request.Context(), key, limit, window)
		if err != nil {
			c.Next()
			return
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		if !allowed {
			c.Header("Retry-After", strconv.Itoa(int(window.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many requests, please try again later",
			})
			return
		}
		c.Next()
	}
}
