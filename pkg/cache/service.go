package cache

import "time"

// CacheService defines the behavior for caching mechanisms
type CacheService interface {
	// Get retrieves a value from the cache
	// Returns value, true if found
	// Returns nil, false if not found or expired
	Get(key string) (interface{}, bool)

	// Set adds a value to the cache with a duration
	Set(key string, value interface{}, duration time.Duration)

	// Delete removes a value from the cache
	Delete(key string)

	// Flush removes all items
	Flush()

	// OnExpired registers a callback run when an item expires on its own.
	// Explicit Delete and Flush do not trigger it.
	OnExpired(fn func(key string))
}

// NoExpiration keeps an item until it is deleted or flushed.
const NoExpiration time.Duration = -1
