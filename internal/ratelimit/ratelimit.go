// Package ratelimit throttles API clients by IP address.
package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/JustJay7/court-case-tracker/internal/metrics"
	"github.com/JustJay7/court-case-tracker/pkg/logger"
)

type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Close() error
}

// memoryRateLimiter keeps one token bucket per key. Buckets idle for longer
// than two windows are dropped.
type memoryRateLimiter struct {
	limiters *cache.Cache
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
}

// NewMemoryRateLimiter allows limit requests per window for each key.
func NewMemoryRateLimiter(limit int, window time.Duration) RateLimiter {
	return &memoryRateLimiter{
		limiters: cache.New(2*window, 4*window),
		limit:    rate.Limit(float64(limit) / window.Seconds()),
		burst:    limit,
	}
}

func (m *memoryRateLimiter) Allow(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	var l *rate.Limiter
	if v, ok := m.limiters.Get(key); ok {
		l = v.(*rate.Limiter)
	} else {
		l = rate.NewLimiter(m.limit, m.burst)
	}
	m.limiters.SetDefault(key, l)
	m.mu.Unlock()

	return l.Allow(), nil
}

func (m *memoryRateLimiter) Close() error {
	m.limiters.Flush()
	return nil
}

// slidingWindowScript admits a request when fewer than limit requests were
// seen for the key within the window.
const slidingWindowScript = `
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local window_start = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])
	local ttl = tonumber(ARGV[4])

	redis.call('ZREMRANGEBYSCORE', key, 0, window_start)

	local current = redis.call('ZCARD', key)
	if current < limit then
		redis.call('ZADD', key, now, now)
		redis.call('EXPIRE', key, ttl)
		return 1
	end
	return 0
`

// redisRateLimiter shares the window between server instances.
type redisRateLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

// NewRedisRateLimiter uses an existing connection; Close leaves it open.
func NewRedisRateLimiter(client *redis.Client, limit int, window time.Duration) RateLimiter {
	return &redisRateLimiter{
		client: client,
		limit:  int64(limit),
		window: window,
	}
}

func (r *redisRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	now := time.Now().UnixNano()
	windowStart := now - r.window.Nanoseconds()
	ttl := int64(r.window.Seconds()) + 1

	result, err := r.client.Eval(ctx, slidingWindowScript, []string{"ratelimit:" + key}, now, windowStart, r.limit, ttl).Int()
	if err != nil {
		return false, fmt.Errorf("rate limit check failed: %w", err)
	}
	return result == 1, nil
}

func (r *redisRateLimiter) Close() error {
	return nil
}

// NoOpRateLimiter always allows requests
type NoOpRateLimiter struct{}

func (NoOpRateLimiter) Allow(context.Context, string) (bool, error) { return true, nil }
func (NoOpRateLimiter) Close() error { return nil }

// Middleware rejects clients over their limit with 429. Limiter errors let
// the request through.
func Middleware(limiter RateLimiter, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, err := limiter.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			log.Warn("Rate limiter unavailable", "error", err)
			c.Next()
			return
		}
		if !allowed {
			metrics.RateLimitHits.Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error":   "rate limit exceeded, try again later",
			})
			return
		}
		c.Next()
	}
}
