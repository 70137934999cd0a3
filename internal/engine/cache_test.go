package engine

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func newTestCache(t *testing.T, ttl time.Duration, maxEntries int) *Cache {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return NewCache(ctx, "", ttl, maxEntries, time.Minute)
}

func TestCacheKey(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		k1 := CacheKey("anvato_search", "vod", "storm")
		k2 := CacheKey("anvato_search", "vod", "storm")
		if k1 != k2 {
			t.Errorf("CacheKey not deterministic: %q != %q", k1, k2)
		}
	})

	t.Run("different inputs differ", func(t *testing.T) {
		k1 := CacheKey("anvato_search", "vod")
		k2 := CacheKey("anvato_search", "playlist")
		if k1 == k2 {
			t.Errorf("different inputs produced same key: %q", k1)
		}
	})

	t.Run("has prefix", func(t *testing.T) {
		k := CacheKey("test")
		if k[:4] != "anv:" {
			t.Errorf("expected anv: prefix, got %q", k[:4])
		}
	})
}

type cachedPayload struct {
	Query string `json:"query"`
	Count int    `json:"count"`
}

func TestCacheGetSet(t *testing.T) {
	c := newTestCache(t, time.Minute, 100)
	ctx := context.Background()
	key := CacheKey("test", "round-trip")

	if _, ok := CacheLoadJSON[cachedPayload](ctx, c, key); ok {
		t.Error("expected cache miss on empty cache")
	}

	CacheStoreJSON(ctx, c, key, cachedPayload{Query: "storm", Count: 3})

	got, ok := CacheLoadJSON[cachedPayload](ctx, c, key)
	if !ok {
		t.Fatal("expected cache hit after set")
	}
	if got.Query != "storm" || got.Count != 3 {
		t.Errorf("got %+v", got)
	}
}

func TestCacheExpiration(t *testing.T) {
	c := newTestCache(t, time.Millisecond, 100)
	ctx := context.Background()
	key := CacheKey("test", "expiry")

	c.Set(ctx, key, []byte("temp"))
	time.Sleep(5 * time.Millisecond)

	if _, ok := c.Get(ctx, key); ok {
		t.Error("expected cache miss after TTL expiry")
	}
}

func TestCacheEviction(t *testing.T) {
	c := newTestCache(t, time.Minute, 3)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		c.Set(ctx, CacheKey("evict", fmt.Sprintf("item-%d", i)), []byte(fmt.Sprintf("v%d", i)))
	}

	count := 0
	c.l1.Range(func(_, _ any) bool {
		count++
		return true
	})
	if count > 3 {
		t.Errorf("expected at most 3 entries after eviction, got %d", count)
	}
}

func TestCachePurge(t *testing.T) {
	c := newTestCache(t, time.Minute, 100)
	ctx := context.Background()
	key := CacheKey("purge")
	c.Set(ctx, key, []byte("x"))
	c.Purge()
	if _, ok := c.Get(ctx, key); ok {
		t.Error("expected miss after purge")
	}
}

func TestCacheNil(t *testing.T) {
	var c *Cache
	ctx := context.Background()
	c.Set(ctx, "k", []byte("v"))
	if _, ok := c.Get(ctx, "k"); ok {
		t.Error("nil cache must always miss")
	}
}

func TestCacheStats(t *testing.T) {
	c := newTestCache(t, time.Minute, 100)
	cacheHits.Store(0)
	cacheMisses.Store(0)

	ctx := context.Background()
	key := CacheKey("stats", "test")

	c.Get(ctx, key)
	if _, misses := CacheStats(); misses != 1 {
		t.Errorf("misses = %d, want 1", misses)
	}

	c.Set(ctx, key, []byte("x"))
	c.Get(ctx, key)

	hits, misses := CacheStats()
	if hits != 1 {
		t.Errorf("hits = %d, want 1", hits)
	}
	if misses != 1 {
		t.Errorf("misses = %d, want 1", misses)
	}
}
