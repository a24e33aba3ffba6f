package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/JustJay7/court-case-tracker/internal/database"
)

// Cache holds successful case records keyed by canonical case key. It is a
// read-through accelerator only; the store stays authoritative.
type Cache interface {
	Get(ctx context.Context, key string) (*database.CaseRecord, bool)
	Set(ctx context.Context, key string, value *database.CaseRecord) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Stats(ctx context.Context) CacheStats
}

type CacheStats struct {
	Backend    string    `json:"backend"`
	Hits       int64     `json:"hits"`
	Misses     int64     `json:"misses"`
	Size       int       `json:"size"`
	LastAccess time.Time `json:"last_access"`
}

type entry struct {
	record   *database.CaseRecord
	storedAt time.Time
}

// MemoryCache is an in-process cache bounded to maxSize entries. When full,
// the entry stored longest ago is evicted.
type MemoryCache struct {
	cache   *cache.Cache
	mu      sync.Mutex
	stats   CacheStats
	maxSize int
}

func NewMemoryCache(maxSize int, ttl time.Duration) *MemoryCache {
	expiry := ttl
	if expiry <= 0 {
		expiry = cache.NoExpiration
	}
	return &MemoryCache{
		cache:   cache.New(expiry, 2*expiry),
		maxSize: maxSize,
		stats:   CacheStats{Backend: "memory"},
	}
}

func (c *MemoryCache) Get(_ context.Context, key string) (*database.CaseRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats.LastAccess = time.Now()

	if data, found := c.cache.Get(key); found {
		if e, ok := data.(entry); ok {
			c.stats.Hits++
			return copyRecord(e.record), true
		}
	}

	c.stats.Misses++
	return nil, false
}

func (c *MemoryCache) Set(_ context.Context, key string, value *database.CaseRecord) error {
	if value == nil {
		return fmt.Errorf("cache: nil record for %q", key)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.cache.Get(key); !exists && c.cache.ItemCount() >= c.maxSize {
		c.removeOldest()
	}

	c.cache.Set(key, entry{record: copyRecord(value), storedAt: time.Now()}, cache.DefaultExpiration)
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache.Delete(key)
	return nil
}

func (c *MemoryCache) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache.Flush()
	c.stats = CacheStats{Backend: "memory"}
	return nil
}

func (c *MemoryCache) Stats(_ context.Context) CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats.Size = c.cache.ItemCount()
	return c.stats
}

func (c *MemoryCache) removeOldest() {
	var (
		oldestKey  string
		oldestTime time.Time
	)
	for key, item := range c.cache.Items() {
		e, ok := item.Object.(entry)
		if !ok {
			continue
		}
		if oldestKey == "" || e.storedAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = e.storedAt
		}
	}

	if oldestKey != "" {
		c.cache.Delete(oldestKey)
	}
}

// NoopCache never stores anything.
type NoopCache struct{}

func (NoopCache) Get(context.Context, string) (*database.CaseRecord, bool) { return nil, false }
func (NoopCache) Set(context.Context, string, *database.CaseRecord) error { return nil }
func (NoopCache) Delete(context.Context, string) error { return nil }
func (NoopCache) Clear(context.Context) error { return nil }
func (NoopCache) Stats(context.Context) CacheStats { return CacheStats{Backend: "none"} }

// GenerateCacheKey namespaces a canonical case key.
func GenerateCacheKey(canonicalKey string) string {
	return "case:" + canonicalKey
}

func SerializeRecord(rec *database.CaseRecord) ([]byte, error) {
	return json.Marshal(rec)
}

func DeserializeRecord(data []byte) (*database.CaseRecord, error) {
	var rec database.CaseRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func copyRecord(rec *database.CaseRecord) *database.CaseRecord {
	return rec.Clone()
}
