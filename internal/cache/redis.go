package cache

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/JustJay7/court-case-tracker/internal/config"
	"github.com/JustJay7/court-case-tracker/internal/database"
)

// RedisCache shares cached records between server instances. Keys are
// written through GenerateCacheKey and expire after ttl.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration

	hits       atomic.Int64
	misses     atomic.Int64
	lastAccess atomic.Int64
}

// NewRedisCache connects to redisURL and verifies the connection.
func NewRedisCache(redisURL string, ttl time.Duration) (*RedisCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return NewRedisCacheFromClient(client, ttl), nil
}

// NewRedisCacheFromClient wraps an existing connection.
func NewRedisCacheFromClient(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, key string) (*database.CaseRecord, bool) {
	c.lastAccess.Store(time.Now().UnixNano())

	data, err := c.client.Get(ctx, GenerateCacheKey(key)).Bytes()
	if err != nil {
		// redis.Nil and transport errors alike fall through to the store.
		c.misses.Add(1)
		return nil, false
	}

	rec, err := DeserializeRecord(data)
	if err != nil {
		c.misses.Add(1)
		return nil, false
	}

	c.hits.Add(1)
	return rec, true
}

func (c *RedisCache) Set(ctx context.Context, key string, value *database.CaseRecord) error {
	if value == nil {
		return fmt.Errorf("cache: nil record for %q", key)
	}
	data, err := SerializeRecord(value)
	if err != nil {
		return fmt.Errorf("failed to serialize record: %w", err)
	}
	if err := c.client.Set(ctx, GenerateCacheKey(key), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache record: %w", err)
	}
	return nil
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, GenerateCacheKey(key)).Err()
}

// Clear removes every cached case but leaves other keys alone.
func (c *RedisCache) Clear(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, GenerateCacheKey("*"), 1000).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}

	c.hits.Store(0)
	c.misses.Store(0)
	return nil
}

func (c *RedisCache) Stats(ctx context.Context) CacheStats {
	stats := CacheStats{
		Backend: "redis",
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
	}
	if ns := c.lastAccess.Load(); ns > 0 {
		stats.LastAccess = time.Unix(0, ns)
	}

	iter := c.client.Scan(ctx, 0, GenerateCacheKey("*"), 1000).Iterator()
	for iter.Next(ctx) {
		stats.Size++
	}
	return stats
}

// Client returns the underlying connection so other components can share
// it.
func (c *RedisCache) Client() *redis.Client {
	return c.client
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// New builds the cache backend named by cfg.CacheBackend.
func New(cfg *config.Config) (Cache, error) {
	switch cfg.CacheBackend {
	case "memory", "":
		return NewMemoryCache(cfg.CacheSize, cfg.CacheTTL), nil
	case "redis":
		return NewRedisCache(cfg.RedisURL, cfg.CacheTTL)
	case "none":
		return NoopCache{}, nil
	default:
		return nil, errors.New("unsupported cache backend: " + cfg.CacheBackend)
	}
}
