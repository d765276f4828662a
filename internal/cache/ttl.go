package cache

import (
	"encoding/json"
	"sync"
	"time"
)

// DefaultTTL is used when New is given a non-positive TTL
const DefaultTTL = 15 * time.Second

// Stats is a point-in-time view of cache counters
type Stats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Keys   int   `json:"keys"`
}

type entry struct {
	data      []byte
	expiresAt time.Time
}

// TTLCache is an in-memory key/value store with per-entry expiration.
// Values are stored as JSON snapshots, so callers never share memory with the cache.
// ⭐ SSOT: 프로세스 내 유일한 공유 가변 상태
type TTLCache struct {
	mu         sync.Mutex
	entries    map[string]entry
	defaultTTL time.Duration
	now        func() time.Time

	hits   int64
	misses int64
}

// Option configures a TTLCache
type Option func(*TTLCache)

// WithClock replaces time.Now, for deterministic expiry in tests
func WithClock(now func() time.Time) Option {
	return func(c *TTLCache) {
		c.now = now
	}
}

// New creates a cache whose entries live for defaultTTL unless overridden per Set
func New(defaultTTL time.Duration, opts ...Option) *TTLCache {
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}

	c := &TTLCache{
		entries:    make(map[string]entry),
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DefaultTTL returns the process-wide entry lifetime
func (c *TTLCache) DefaultTTL() time.Duration {
	return c.defaultTTL
}

// Get decodes the value stored under key into dest.
// An expired entry is removed and counted as a miss.
func (c *TTLCache) Get(key string, dest interface{}) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.misses++
		return false
	}

	if !c.now().Before(e.expiresAt) {
		delete(c.entries, key)
		c.misses++
		return false
	}

	if err := json.Unmarshal(e.data, dest); err != nil {
		c.misses++
		return false
	}

	c.hits++
	return true
}

// Set stores a snapshot of value. ttl <= 0 uses the default TTL.
// It returns false when value cannot be encoded.
func (c *TTLCache) Set(key string, value interface{}, ttl time.Duration) bool {
	data, err := json.Marshal(value)
	if err != nil {
		return false
	}

	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry{
		data:      data,
		expiresAt: c.now().Add(ttl),
	}
	return true
}

// Has reports whether key holds a live entry. It does not touch the counters.
func (c *TTLCache) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return false
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.entries, key)
		return false
	}
	return true
}

// Delete removes the given keys and returns how many existed
func (c *TTLCache) Delete(keys ...string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for _, key := range keys {
		if _, ok := c.entries[key]; ok {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Flush drops every entry and resets the counters
func (c *TTLCache) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]entry)
	c.hits = 0
	c.misses = 0
}

// Stats returns hit/miss counters and the number of stored keys
func (c *TTLCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{
		Hits:   c.hits,
		Misses: c.misses,
		Keys:   len(c.entries),
	}
}

// Sweep evicts expired entries and returns how many were removed.
// Get already ignores expired entries; Sweep only bounds memory.
func (c *TTLCache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}
