package cache

import (
	"sync"
	"time"
)

// Cache is the key-value store the helpers write through. Entries expire
// after their TTL; a TTL of zero or less means no expiry.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration)
}

type memoryEntry struct {
	value   []byte
	created time.Time
	ttl     time.Duration
}

// Memory is an in-process Cache with lazy expiry.
type Memory struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string]memoryEntry)}
}

func (c *Memory) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if entry.ttl > 0 && time.Since(entry.created) > entry.ttl {
		delete(c.entries, key)
		return nil, false
	}
	return entry.value, true
}

func (c *Memory) Set(key string, value []byte, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = memoryEntry{value: value, created: time.Now(), ttl: ttl}
}
