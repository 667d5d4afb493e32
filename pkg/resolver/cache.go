package resolver

import (
	"fmt"
	"sync"
	"time"
)

// Key identifies a resolution result. Credential presence is part of the
// key so a result obtained with a session token is never served to a
// caller who has none.
type Key struct {
	ContentID     string
	HasCredential bool
}

// String renders the key for the in-flight registry
func (k Key) String() string {
	return fmt.Sprintf("%s/%t", k.ContentID, k.HasCredential)
}

type cacheEntry struct {
	outcome   Outcome
	expiresAt time.Time
}

// Cache is a TTL-bounded outcome cache. Expired entries are dropped
// lazily on lookup; Sweep exists for callers that want periodic cleanup
// as well. Only the owning Resolver mutates it.
type Cache struct {
	ttl     time.Duration
	entries map[Key]cacheEntry
	mu      sync.RWMutex

	// now is injectable so tests can control expiry
	now func() time.Time
}

// NewCache creates a cache with the given TTL
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		ttl:     ttl,
		entries: make(map[Key]cacheEntry),
		now:     time.Now,
	}
}

// Get returns the cached outcome for key if present and unexpired
func (c *Cache) Get(key Key) (Outcome, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return Outcome{}, false
	}
	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		// Drop only the entry observed as expired; a concurrent Set may
		// have replaced it between the read and write locks
		if current, ok := c.entries[key]; ok && current.expiresAt.Equal(entry.expiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return Outcome{}, false
	}
	return entry.outcome, true
}

// Set stores a successful outcome for key with the cache's TTL.
// Failure outcomes are never cached; the next caller retries the chain.
func (c *Cache) Set(key Key, outcome Outcome) {
	if !outcome.Success() {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{
		outcome:   outcome,
		expiresAt: c.now().Add(c.ttl),
	}
}

// Delete evicts a key
func (c *Cache) Delete(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Sweep removes all expired entries
func (c *Cache) Sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
}

// Len returns the number of stored entries, expired or not
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
