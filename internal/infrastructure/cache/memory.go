package cache

import (
	"predictive-search/pkg/cache"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

type memoryCache struct {
	store *gocache.Cache

	// keys currently being removed through Delete; go-cache reports those
	// to OnEvicted as well, but they are not expirations.
	deleting sync.Map
}

// NewMemoryCache creates a new in-memory cache service
// defaultExpiration: default TTL for items
// cleanupInterval: how often to scan for expired items
func NewMemoryCache(defaultExpiration, cleanupInterval time.Duration) cache.CacheService {
	return &memoryCache{
		store: gocache.New(defaultExpiration, cleanupInterval),
	}
}

func (c *memoryCache) Get(key string) (interface{}, bool) {
	return c.store.Get(key)
}

func (c *memoryCache) Set(key string, value interface{}, duration time.Duration) {
	c.store.Set(key, value, duration)
}

func (c *memoryCache) Delete(key string) {
	c.deleting.Store(key, struct{}{})
	c.store.Delete(key)
	c.deleting.Delete(key)
}

func (c *memoryCache) Flush() {
	c.store.Flush()
}

func (c *memoryCache) OnExpired(fn func(key string)) {
	if fn == nil {
		c.store.OnEvicted(nil)
		return
	}
	c.store.OnEvicted(func(key string, _ interface{}) {
		if _, manual := c.deleting.Load(key); manual {
			return
		}
		fn(key)
	})
}
