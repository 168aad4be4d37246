package cache

import (
	"context"
	"sync"
	"time"

	"itinerary-engine/internal/ports"
)

type memoryEntry struct {
	value     any
	expiresAt time.Time
}

// MemoryCache is a process-local DurationCache and DirectionsCache with
// per-entry expiry. It backs cache-less runs and tests; the clock is
// injectable so expiry is testable without sleeping.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// WithClock overrides the cache clock. Tests only.
func (c *MemoryCache) WithClock(now func() time.Time) *MemoryCache {
	c.now = now
	return c
}

func (c *MemoryCache) get(key string) (any, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || c.now().After(e.expiresAt) {
		return nil, false
	}
	return e.value, true
}

func (c *MemoryCache) put(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	c.entries[key] = memoryEntry{value: value, expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()
}

func (c *MemoryCache) Get(_ context.Context, key ports.DurationKey) (ports.DurationEntry, error) {
	v, ok := c.get("duration:" + key.String())
	if !ok {
		return ports.DurationEntry{}, ports.ErrCacheMiss
	}
	return v.(ports.DurationEntry), nil
}

func (c *MemoryCache) Put(_ context.Context, key ports.DurationKey, entry ports.DurationEntry) error {
	c.put("duration:"+key.String(), entry, DurationTTL)
	return nil
}

// Directions returns a DirectionsCache view over the same store.
func (c *MemoryCache) Directions() ports.DirectionsCache {
	return (*memoryDirections)(c)
}

type memoryDirections MemoryCache

func (c *memoryDirections) Get(_ context.Context, key ports.DirectionsKey) (ports.DirectionsEntry, error) {
	v, ok := (*MemoryCache)(c).get("directions:" + key.String())
	if !ok {
		return ports.DirectionsEntry{}, ports.ErrCacheMiss
	}
	return v.(ports.DirectionsEntry), nil
}

func (c *memoryDirections) Put(_ context.Context, key ports.DirectionsKey, entry ports.DirectionsEntry) error {
	(*MemoryCache)(c).put("directions:"+key.String(), entry, DirectionsTTL)
	return nil
}
