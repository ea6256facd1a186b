package suggest

import (
	"math"
	"sync"

	"github.com/charmbracelet/log"
)

// key is the fingerprint of a suggestion: the exact text around the cursor.
type key struct {
	prefix string
	suffix string
}

// Cache maps an exact (prefix, suffix) pair to the suggestion text still pending
// there. It lets a partially accepted suggestion resume without a new request.
// A zero maxEntries means unbounded; otherwise the least recently used entry is
// evicted when full.
type Cache struct {
	entries     map[key]string
	accessTime  map[key]int64
	accessCount int64
	maxEntries  int
	hits        int64
	misses      int64
	mu          sync.RWMutex
}

// NewCache creates a cache holding at most maxEntries suggestions (0 = unbounded).
func NewCache(maxEntries int) *Cache {
	if maxEntries < 0 {
		maxEntries = 0
	}
	return &Cache{
		entries:    make(map[key]string),
		accessTime: make(map[key]int64),
		maxEntries: maxEntries,
	}
}

// Put stores suggestion for (prefix, suffix), replacing any previous entry.
func (c *Cache) Put(prefix, suffix, suggestion string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	k := key{prefix, suffix}
	if _, exists := c.entries[k]; !exists && c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
		c.evictLRU()
	}
	c.entries[k] = suggestion
	c.accessTime[k] = c.nextAccessTime()
}

// Get returns the suggestion pending at (prefix, suffix).
func (c *Cache) Get(prefix, suffix string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	k := key{prefix, suffix}
	s, ok := c.entries[k]
	if !ok {
		c.misses++
		return "", false
	}
	c.hits++
	c.accessTime[k] = c.nextAccessTime()
	return s, true
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.entries)
	c.entries = make(map[key]string)
	c.accessTime = make(map[key]int64)
	if n > 0 {
		log.Debugf("Cleared %d cached suggestions", n)
	}
}

// Len returns the number of entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats reports size and hit counters.
func (c *Cache) Stats() map[string]int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return map[string]int{
		"cacheEntries": len(c.entries),
		"maxEntries":   c.maxEntries,
		"cacheHits":    int(c.hits),
		"cacheMisses":  int(c.misses),
	}
}

func (c *Cache) nextAccessTime() int64 {
	c.accessCount++
	return c.accessCount
}

func (c *Cache) evictLRU() {
	var oldest key
	var oldestTime int64 = math.MaxInt64
	found := false

	for k, t := range c.accessTime {
		if t < oldestTime {
			oldestTime = t
			oldest = k
			found = true
		}
	}
	if found {
		delete(c.entries, oldest)
		delete(c.accessTime, oldest)
	}
}
