package index

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheCapacity is how many document indexes the cache retains before
// evicting the least recently used one.
const DefaultCacheCapacity = 5

// Cache holds at most one DocumentIndex per document, bounded by an LRU
// policy, and enforces the version fence: a scan result for a version older
// than the newest version observed for that document is rejected at Put time
// instead of clobbering a fresher entry. The fence check and the write happen
// under one lock, so an async scan completing late can never win the race.
type Cache struct {
	mu      sync.Mutex
	entries *lru.Cache[DocumentKey, *DocumentIndex]

	// newest version observed per document, including versions seen via
	// Observe/Get for which no index has been stored yet
	latest map[DocumentKey]int
}

// NewCache creates a cache retaining up to capacity documents. Capacity must
// be positive; zero or less selects DefaultCacheCapacity.
func NewCache(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	entries, err := lru.New[DocumentKey, *DocumentIndex](capacity)
	if err != nil {
		// lru.New only fails on a non-positive size
		panic(err)
	}
	return &Cache{
		entries: entries,
		latest:  make(map[DocumentKey]int),
	}
}

// Get returns the cached index for key only if it reflects currentVersion;
// any other stored version is a miss, forcing the caller to rescan. The call
// also records currentVersion as observed, arming the fence against scans of
// older content that are still in flight.
func (c *Cache) Get(key DocumentKey, currentVersion int) (*DocumentIndex, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.observeLocked(key, currentVersion)

	entry, ok := c.entries.Get(key)
	if !ok || entry.Version != currentVersion {
		return nil, false
	}
	return entry, true
}

// Observe records that version has been seen for key without touching the
// stored entry. Edit notifications call this so the fence is armed even
// before any query at the new version happens.
func (c *Cache) Observe(key DocumentKey, version int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observeLocked(key, version)
}

func (c *Cache) observeLocked(key DocumentKey, version int) {
	if version > c.latest[key] {
		c.latest[key] = version
	}
}

// Put stores idx, replacing any entry for the same document and evicting the
// least recently used entry if the cache is over capacity. It returns false
// and stores nothing when a newer version of the document has already been
// observed: the result is stale and is discarded.
func (c *Cache) Put(idx *DocumentIndex) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if idx.Version < c.latest[idx.Key] {
		return false
	}
	c.observeLocked(idx.Key, idx.Version)
	c.entries.Add(idx.Key, idx)
	return true
}

// Invalidate drops the entry and the fence state for key, used when the
// document closes.
func (c *Cache) Invalidate(key DocumentKey) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries.Remove(key)
	delete(c.latest, key)
}

// Contains reports whether an entry for key is currently cached, at any
// version, without updating recency.
func (c *Cache) Contains(key DocumentKey) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Contains(key)
}

// Len returns the number of cached documents.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Len()
}
