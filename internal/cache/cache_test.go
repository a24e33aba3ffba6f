package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JustJay7/court-case-tracker/internal/config"
	"github.com/JustJay7/court-case-tracker/internal/database"
)

func record(key string) *database.CaseRecord {
	return &database.CaseRecord{ID: 7, CaseNumber: key, CaseTitle: "Rajesh Kumar vs State of Delhi & Others", CaseStatus: "Pending", Success: true}
}

func TestMemoryCacheGetSet(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(10, time.Minute)

	_, ok := c.Get(ctx, "WP 5678/2023")
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "WP 5678/2023", record("WP 5678/2023")))
	got, ok := c.Get(ctx, "WP 5678/2023")
	require.True(t, ok)
	assert.Equal(t, "Pending", got.CaseStatus)

	got.CaseStatus = "mutated"
	again, _ := c.Get(ctx, "WP 5678/2023")
	assert.Equal(t, "Pending", again.CaseStatus, "callers must receive copies")

	stats := c.Stats(ctx)
	assert.Equal(t, "memory", stats.Backend)
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 1, stats.Size)
}

func TestMemoryCacheCopiesPointerFields(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(10, time.Minute)

	judge := "Hon'ble Justice A. Sharma"
	hearing := time.Date(2024, 11, 20, 0, 0, 0, 0, time.UTC)
	rec := record("WP 5678/2023")
	rec.JudgeName = &judge
	rec.NextHearingDate = &hearing
	require.NoError(t, c.Set(ctx, "WP 5678/2023", rec))

	judge = "changed after Set"
	hearing = hearing.AddDate(1, 0, 0)

	got, ok := c.Get(ctx, "WP 5678/2023")
	require.True(t, ok)
	assert.Equal(t, "Hon'ble Justice A. Sharma", *got.JudgeName)
	assert.Equal(t, 2024, got.NextHearingDate.Year())

	*got.JudgeName = "changed after Get"
	*got.NextHearingDate = time.Time{}

	again, ok := c.Get(ctx, "WP 5678/2023")
	require.True(t, ok)
	assert.Equal(t, "Hon'ble Justice A. Sharma", *again.JudgeName)
	assert.Equal(t, 2024, again.NextHearingDate.Year())
}

func TestMemoryCacheEvictsOldest(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(2, 0)

	require.NoError(t, c.Set(ctx, "CS 1/2020", record("CS 1/2020")))
	time.Sleep(2 * time.Millisecond)
	require.NoError(t, c.Set(ctx, "CS 2/2020", record("CS 2/2020")))
	time.Sleep(2 * time.Millisecond)
	require.NoError(t, c.Set(ctx, "CS 3/2020", record("CS 3/2020")))

	_, ok := c.Get(ctx, "CS 1/2020")
	assert.False(t, ok)
	_, ok = c.Get(ctx, "CS 3/2020")
	assert.True(t, ok)
	assert.Equal(t, 2, c.Stats(ctx).Size)
}

func TestMemoryCacheDeleteAndClear(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(10, time.Minute)

	require.NoError(t, c.Set(ctx, "CS 1/2020", record("CS 1/2020")))
	require.NoError(t, c.Set(ctx, "CS 2/2020", record("CS 2/2020")))
	require.NoError(t, c.Delete(ctx, "CS 1/2020"))
	_, ok := c.Get(ctx, "CS 1/2020")
	assert.False(t, ok)

	require.NoError(t, c.Clear(ctx))
	assert.Equal(t, CacheStats{Backend: "memory"}, c.Stats(ctx))

	assert.Error(t, c.Set(ctx, "x", nil))
}

func newRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisCacheFromClient(client, time.Minute), mr
}

func TestRedisCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, mr := newRedis(t)

	_, ok := c.Get(ctx, "WP 5678/2023")
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "WP 5678/2023", record("WP 5678/2023")))
	assert.True(t, mr.Exists("case:WP 5678/2023"))
	assert.Equal(t, time.Minute, mr.TTL("case:WP 5678/2023"))

	got, ok := c.Get(ctx, "WP 5678/2023")
	require.True(t, ok)
	assert.Equal(t, uint(7), got.ID)
	assert.Equal(t, "Rajesh Kumar vs State of Delhi & Others", got.CaseTitle)

	stats := c.Stats(ctx)
	assert.Equal(t, "redis", stats.Backend)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 1, stats.Size)

	mr.FastForward(2 * time.Minute)
	_, ok = c.Get(ctx, "WP 5678/2023")
	assert.False(t, ok)
}

func TestRedisCacheClearKeepsForeignKeys(t *testing.T) {
	ctx := context.Background()
	c, mr := newRedis(t)

	require.NoError(t, mr.Set("session:abc", "x"))
	require.NoError(t, c.Set(ctx, "CS 1/2020", record("CS 1/2020")))
	require.NoError(t, c.Set(ctx, "CS 2/2020", record("CS 2/2020")))

	require.NoError(t, c.Delete(ctx, "CS 1/2020"))
	assert.False(t, mr.Exists("case:CS 1/2020"))

	require.NoError(t, c.Clear(ctx))
	assert.False(t, mr.Exists("case:CS 2/2020"))
	assert.True(t, mr.Exists("session:abc"))
}

func TestRedisCacheCorruptValueIsMiss(t *testing.T) {
	ctx := context.Background()
	c, mr := newRedis(t)

	require.NoError(t, mr.Set("case:CS 1/2020", "{not json"))
	_, ok := c.Get(ctx, "CS 1/2020")
	assert.False(t, ok)
}

func TestNew(t *testing.T) {
	mr := miniredis.RunT(t)

	tests := []struct {
		backend string
		want    string
		wantErr bool
	}{
		{backend: "memory", want: "memory"},
		{backend: "none", want: "none"},
		{backend: "redis", want: "redis"},
		{backend: "memcached", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			c, err := New(&config.Config{
				CacheBackend: tt.backend,
				CacheSize:    10,
				CacheTTL:     time.Minute,
				RedisURL:     "redis://" + mr.Addr(),
			})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.Stats(context.Background()).Backend)
			if rc, ok := c.(*RedisCache); ok {
				rc.Close()
			}
		})
	}
}
