package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MemoryCache implements Engine with a map. Expired items are dropped lazily
// on read and when the cache is full.
type MemoryCache struct {
	maxItems int
	items    map[string]cacheItem
	mutex    sync.RWMutex
	now      func() time.Time
}

type cacheItem struct {
	value      []byte
	expiration time.Time
}

func NewMemoryCache(maxItems int) *MemoryCache {
	return &MemoryCache{
		maxItems: maxItems,
		items:    make(map[string]cacheItem),
		now:      time.Now,
	}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	item, found := c.items[key]
	if !found || c.expired(item) {
		return nil, false
	}
	return item.value, true
}

func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if _, exists := c.items[key]; !exists && c.maxItems > 0 && len(c.items) >= c.maxItems {
		c.evictExpired()
		if len(c.items) >= c.maxItems {
			return ErrCacheFull
		}
	}

	var exp time.Time
	if ttl > 0 {
		exp = c.now().Add(ttl)
	}
	c.items[key] = cacheItem{value: value, expiration: exp}
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, keys ...string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	for _, key := range keys {
		delete(c.items, key)
	}
	return nil
}

func (c *MemoryCache) DeletePrefix(_ context.Context, prefix string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	for key := range c.items {
		if strings.HasPrefix(key, prefix) {
			delete(c.items, key)
		}
	}
	return nil
}

func (c *MemoryCache) Close() error {
	return nil
}

func (c *MemoryCache) expired(item cacheItem) bool {
	return !item.expiration.IsZero() && c.now().After(item.expiration)
}

// evictExpired must be called with the write lock held.
func (c *MemoryCache) evictExpired() {
	for key, item := range c.items {
		if c.expired(item) {
			delete(c.items, key)
		}
	}
}
