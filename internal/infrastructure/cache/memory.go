package cache

import (
	"context"
	"sync"
	"time"

	"github.com/pzmarket/quote-backend/internal/domain"
)

// DefaultCleanupInterval is how often expired entries are swept
const DefaultCleanupInterval = 10 * time.Minute

// entry is a cached value with its expiry
type entry struct {
	value     interface{}
	expiresAt time.Time
}

// MemoryCache is a thread-safe in-process TTL cache. Values are stored by reference,
// so callers own the immutability of what they put in.
type MemoryCache struct {
	data  map[string]entry
	mutex sync.RWMutex
	now   func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// NewMemoryCache creates a cache that sweeps expired entries every interval.
// A non-positive interval uses DefaultCleanupInterval.
func NewMemoryCache(interval time.Duration) *MemoryCache {
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}

	c := &MemoryCache{
		data: make(map[string]entry),
		now:  time.Now,
		stop: make(chan struct{}),
	}

	go c.sweep(interval)

	return c
}

// Get retrieves a live value or returns domain.ErrCacheMiss
func (c *MemoryCache) Get(ctx context.Context, key string) (interface{}, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	e, ok := c.data[key]
	if !ok || c.now().After(e.expiresAt) {
		return nil, domain.ErrCacheMiss
	}
	return e.value, nil
}

// Set stores a value until ttl elapses
func (c *MemoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.data[key] = entry{
		value:     value,
		expiresAt: c.now().Add(ttl),
	}
	return nil
}

// Delete removes a value
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.data, key)
	return nil
}

// Size returns the number of stored entries, including expired ones not yet swept
func (c *MemoryCache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.data)
}

// Close stops the sweeper goroutine
func (c *MemoryCache) Close() {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
}

func (c *MemoryCache) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.removeExpired()
		}
	}
}

// removeExpired deletes every entry past its expiry
func (c *MemoryCache) removeExpired() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := c.now()
	for key, e := range c.data {
		if now.After(e.expiresAt) {
			delete(c.data, key)
		}
	}
}
