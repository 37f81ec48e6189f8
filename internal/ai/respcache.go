package ai

import (
	"container/list"
	"fmt"
	"sync"
	"time"
)

// Response cache defaults. The cache is a best-effort memoization of
// generated text; its absence changes latency, not correctness.
const (
	DefaultResponseCacheSize = 256
	DefaultResponseCacheTTL  = time.Hour
)

// ResponseCache memoizes capability output keyed by capability name plus
// truncated title and content. It is bounded and entries expire, so a
// long-running process cannot grow it without limit.
type ResponseCache struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	entries  map[string]*list.Element
	order    *list.List
	now      func() time.Time
}

type responseEntry struct {
	key     string
	value   string
	addedAt time.Time
}

// NewResponseCache creates a cache with the given capacity and entry TTL.
func NewResponseCache(capacity int, ttl time.Duration) *ResponseCache {
	if capacity <= 0 {
		capacity = DefaultResponseCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultResponseCacheTTL
	}
	return &ResponseCache{
		capacity: capacity,
		ttl:      ttl,
		entries:  make(map[string]*list.Element),
		order:    list.New(),
		now:      time.Now,
	}
}

// ResponseCacheKey builds the memoization key for a capability call.
func ResponseCacheKey(capability, title, content string) string {
	return fmt.Sprintf("%s\x1f%s\x1f%s", capability, truncate(title, 50), truncate(content, 100))
}

// Get returns the cached value for key, if present and not expired.
func (c *ResponseCache) Get(key string) (string, bool) {
	if c == nil {
		return "", false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return "", false
	}

	entry := elem.Value.(*responseEntry)
	if c.now().Sub(entry.addedAt) > c.ttl {
		c.order.Remove(elem)
		delete(c.entries, key)
		return "", false
	}

	c.order.MoveToFront(elem)
	return entry.value, true
}

// Put stores a value, evicting the least recently used entry when full.
func (c *ResponseCache) Put(key, value string) {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		entry := elem.Value.(*responseEntry)
		entry.value = value
		entry.addedAt = c.now()
		c.order.MoveToFront(elem)
		return
	}

	elem := c.order.PushFront(&responseEntry{key: key, value: value, addedAt: c.now()})
	c.entries[key] = elem

	for c.order.Len() > c.capacity {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*responseEntry).key)
	}
}

// Len returns the current number of cached entries.
func (c *ResponseCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
