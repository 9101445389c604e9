package infrastructure

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

// fakeClock lets tests move the cache's notion of time.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func newTestCache(ttl time.Duration, max int) (*Cache, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	cache := NewCache(ttl, max)
	cache.now = clock.Now
	return cache, clock
}

func TestCache_SetGet(t *testing.T) {
	cache, _ := newTestCache(time.Minute, 0)

	cache.Set("a", 1)
	v, ok := cache.Get("a")
	if !ok || v != 1 {
		t.Errorf("Get(a) = %v, %v; want 1, true", v, ok)
	}

	if _, ok := cache.Get("missing"); ok {
		t.Error("Get(missing) should miss")
	}
}

func TestCache_Expiry(t *testing.T) {
	cache, clock := newTestCache(time.Minute, 0)

	cache.Set("a", "value")

	clock.now = clock.now.Add(59 * time.Second)
	if _, ok := cache.Get("a"); !ok {
		t.Error("entry should still be live before the TTL")
	}

	clock.now = clock.now.Add(2 * time.Second)
	if _, ok := cache.Get("a"); ok {
		t.Error("entry should have expired")
	}
	if cache.Len() != 0 {
		t.Errorf("expired entry should be dropped on access, Len = %d", cache.Len())
	}
}

func TestCache_SetRefreshesExpiry(t *testing.T) {
	cache, clock := newTestCache(time.Minute, 0)

	cache.Set("a", 1)
	clock.now = clock.now.Add(50 * time.Second)
	cache.Set("a", 2)
	clock.now = clock.now.Add(50 * time.Second)

	v, ok := cache.Get("a")
	if !ok || v != 2 {
		t.Errorf("Get(a) = %v, %v; want refreshed value 2", v, ok)
	}
	if cache.Len() != 1 {
		t.Errorf("Len = %d, want 1", cache.Len())
	}
}

func TestCache_EvictsLeastRecentlyUsed(t *testing.T) {
	cache, _ := newTestCache(time.Minute, 2)

	cache.Set("a", 1)
	cache.Set("b", 2)
	cache.Get("a") // b is now least recently used
	cache.Set("c", 3)

	if _, ok := cache.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	if _, ok := cache.Get("a"); !ok {
		t.Error("a should survive")
	}
	if _, ok := cache.Get("c"); !ok {
		t.Error("c should be present")
	}
	if cache.Len() != 2 {
		t.Errorf("Len = %d, want 2", cache.Len())
	}
}

func TestCache_Concurrent(t *testing.T) {
	cache := NewCache(time.Minute, 50)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("k%d", (i*j)%80)
				cache.Set(key, j)
				cache.Get(key)
			}
		}(i)
	}
	wg.Wait()

	if cache.Len() > 50 {
		t.Errorf("Len = %d exceeds max entries", cache.Len())
	}
}
