package itc

import "sync"

// attrCache holds the last device-confirmed raw value per attribute token.
//
// An entry exists only after a successful read or write of that token;
// rejected writes and failed validation never touch it. Signal attributes
// (descriptor.cacheable == false) are never stored. The cache survives
// disconnect and reconnect — staleness is the caller's responsibility via
// Invalidate or Clear.
//
// Thread Safety: concurrent lookups of populated entries do not block each
// other; only stores and invalidations take the write lock.
type attrCache struct {
	mu      sync.RWMutex
	entries map[string]string
}

// lookup returns the cached raw value for a token, if present.
func (c *attrCache) lookup(token string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[token]
	return v, ok
}

// store records the device-confirmed raw value for a token, overwriting
// any prior entry.
func (c *attrCache) store(token, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries == nil {
		c.entries = make(map[string]string)
	}
	c.entries[token] = value
}

// invalidate removes a single entry. Removing an absent token is not an
// error; the next read simply fetches from the instrument either way.
func (c *attrCache) invalidate(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, token)
}

// clear removes every entry, forcing all cacheable attributes to be
// re-fetched on next access.
func (c *attrCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = nil
}

// size returns the number of cached entries.
func (c *attrCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
