package callback

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// DedupCache is an optional in-memory duplicate-suppression store: bounded,
// time-windowed, LRU-evicted. Its Seen method satisfies Options.IsDuplicate.
// It is an opt-in enhancement; the handler never deduplicates on its own.
type DedupCache struct {
	entries     map[string]*dedupEntry
	accessOrder *list.List // most recent at front
	maxSize     int
	window      time.Duration
	mu          sync.Mutex

	hits      int64
	misses    int64
	evictions int64
}

type dedupEntry struct {
	id          string
	seenAt      time.Time
	listElement *list.Element
}

// DedupStats reports cache behavior for observability.
type DedupStats struct {
	Size      int   `json:"size"`
	MaxSize   int   `json:"max_size"`
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
}

// NewDedupCache creates a duplicate-suppression cache remembering at most
// maxSize identifiers for the given window.
func NewDedupCache(maxSize int, window time.Duration) *DedupCache {
	return &DedupCache{
		entries:     make(map[string]*dedupEntry),
		accessOrder: list.New(),
		maxSize:     maxSize,
		window:      window,
	}
}

// Seen reports whether id was already recorded within the window, recording
// it on first sight. Check-and-record is a single step under the lock, so
// concurrent deliveries of the same callback cannot both pass.
func (c *DedupCache) Seen(_ context.Context, id string) (bool, error) {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, exists := c.entries[id]; exists {
		if now.Sub(entry.seenAt) <= c.window {
			c.accessOrder.MoveToFront(entry.listElement)
			c.hits++
			return true, nil
		}
		// Expired entry: treat as unseen and restart its window.
		entry.seenAt = now
		c.accessOrder.MoveToFront(entry.listElement)
		c.misses++
		return false, nil
	}

	if len(c.entries) >= c.maxSize {
		c.evictLRU()
	}

	entry := &dedupEntry{id: id, seenAt: now}
	entry.listElement = c.accessOrder.PushFront(entry)
	c.entries[id] = entry
	c.misses++
	return false, nil
}

// Stats returns cache counters.
func (c *DedupCache) Stats() DedupStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return DedupStats{
		Size:      len(c.entries),
		MaxSize:   c.maxSize,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
}

// Cleanup removes entries older than the window.
func (c *DedupCache) Cleanup() {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	var expired []string
	for id, entry := range c.entries {
		if now.Sub(entry.seenAt) > c.window {
			expired = append(expired, id)
		}
	}
	for _, id := range expired {
		if entry, exists := c.entries[id]; exists {
			c.removeEntry(id, entry)
		}
	}
}

// evictLRU removes the least recently used entry. Lock must be held.
func (c *DedupCache) evictLRU() {
	back := c.accessOrder.Back()
	if back == nil {
		return
	}
	entry := back.Value.(*dedupEntry)
	c.removeEntry(entry.id, entry)
	c.evictions++
}

// removeEntry removes an entry from map and list. Lock must be held.
func (c *DedupCache) removeEntry(id string, entry *dedupEntry) {
	delete(c.entries, id)
	if entry.listElement != nil {
		c.accessOrder.Remove(entry.listElement)
	}
}
