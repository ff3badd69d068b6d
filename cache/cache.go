package cache

import (
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Item is a cached value with its creation time and optional expiry.
type Item struct {
	Value     any
	CreatedAt time.Time
	ExpireAt  time.Time // zero means no expiry
}

// IsExpired reports whether the item is past its TTL.
func (i *Item) IsExpired() bool {
	return !i.ExpireAt.IsZero() && time.Now().After(i.ExpireAt)
}

// InMemoryCache is a process-wide TTL cache guarded by a single lock.
// There is no background sweep: expiry is checked lazily on access, so an
// entry past its TTL is treated as absent even while it still occupies
// storage. The lock is held only for the map access, never across I/O.
type InMemoryCache struct {
	mu    sync.Mutex
	items map[string]Item
}

func NewInMemoryCache() *InMemoryCache {
	return &InMemoryCache{
		items: make(map[string]Item),
	}
}

// Set stores a value under key. A zero ttl means the entry never expires.
func (c *InMemoryCache) Set(key string, value any, ttl time.Duration) {
	now := time.Now()
	item := Item{Value: value, CreatedAt: now}
	if ttl > 0 {
		item.ExpireAt = now.Add(ttl)
	}
	c.mu.Lock()
	c.items[key] = item
	c.mu.Unlock()
}

// Get returns the value for key, or false if absent or expired.
// Expired entries are evicted on access.
func (c *InMemoryCache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.items[key]
	if !ok {
		return nil, false
	}
	if item.IsExpired() {
		delete(c.items, key)
		return nil, false
	}
	return item.Value, true
}

// Invalidate removes a single key.
func (c *InMemoryCache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

// InvalidatePrefix removes every key starting with prefix and returns how
// many entries were dropped. Brute-force scan, acceptable at the sizes
// this cache sees.
func (c *InMemoryCache) InvalidatePrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key := range c.items {
		if strings.HasPrefix(key, prefix) {
			delete(c.items, key)
			removed++
		}
	}
	if removed > 0 {
		logrus.Infof("[CACHE] Invalidated %d entries with prefix %s", removed, prefix)
	}
	return removed
}

// Clear removes all entries.
func (c *InMemoryCache) Clear() {
	c.mu.Lock()
	c.items = make(map[string]Item)
	c.mu.Unlock()
}

// Keys returns a snapshot of all keys, including not-yet-evicted expired ones.
func (c *InMemoryCache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, len(c.items))
	for key := range c.items {
		keys = append(keys, key)
	}
	return keys
}

// Len returns the number of stored entries, expired or not.
func (c *InMemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
