package usecase

import (
	"predictive-search/internal/domain"
	"predictive-search/pkg/cache"
	"slices"
	"sync"
	"time"
)

const resultKeyPrefix = "search:q:"

// ResultCache holds enriched search results per query. It is bounded and
// evicts by insertion order: the oldest stored query goes first, lookups do
// not refresh an entry.
type ResultCache struct {
	mu       sync.Mutex
	store    cache.CacheService
	order    []string
	capacity int
	ttl      time.Duration
}

// NewResultCache wraps store. ttl <= 0 keeps entries until evicted or
// cleared. The store should be dedicated to this cache since Clear flushes it.
func NewResultCache(store cache.CacheService, capacity int, ttl time.Duration) *ResultCache {
	if capacity < 1 {
		capacity = 1
	}
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	c := &ResultCache{
		store:    store,
		capacity: capacity,
		ttl:      ttl,
	}
	store.OnExpired(func(key string) {
		c.mu.Lock()
		defer c.mu.Unlock()
		// the callback runs outside the store's lock, Set may have
		// stored the key again in between
		if _, ok := c.store.Get(key); ok {
			return
		}
		c.forgetLocked(key)
	})
	return c
}

func (c *ResultCache) Get(query string) (domain.SearchResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := resultKeyPrefix + query
	v, ok := c.store.Get(key)
	if !ok {
		// expired but not yet collected by the janitor
		c.forgetLocked(key)
		return domain.SearchResult{}, false
	}
	return v.(domain.SearchResult), true
}

// Set stores result at the end of the insertion order and evicts from the
// front while over capacity. Storing an existing query moves it to the end.
func (c *ResultCache) Set(query string, result domain.SearchResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := resultKeyPrefix + query
	c.forgetLocked(key)
	c.store.Set(key, result, c.ttl)
	c.order = append(c.order, key)

	for len(c.order) > c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		c.store.Delete(oldest)
	}
}

func (c *ResultCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store.Flush()
	c.order = nil
}

func (c *ResultCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.order)
}

// Queries lists cached queries, oldest first.
func (c *ResultCache) Queries() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.order))
	for i, key := range c.order {
		out[i] = key[len(resultKeyPrefix):]
	}
	return out
}

func (c *ResultCache) forgetLocked(key string) {
	if i := slices.Index(c.order, key); i >= 0 {
		c.order = slices.Delete(c.order, i, i+1)
	}
}
