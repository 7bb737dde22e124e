package cache

import (
	"encoding/json"
	"fmt"
	"path"
	"sync"
	"time"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// MemoryCache is the in-process level. Values are stored encoded so callers
// never share memory with the cache.
type MemoryCache struct {
	mu         sync.RWMutex
	entries    map[string]memoryEntry
	maxEntries int
	metrics    *CacheMetrics
}

func NewMemoryCache() *MemoryCache {
	return NewMemoryCacheWithLimit(1000)
}

func NewMemoryCacheWithLimit(maxEntries int) *MemoryCache {
	return &MemoryCache{
		entries:    make(map[string]memoryEntry),
		maxEntries: maxEntries,
		metrics:    NewCacheMetrics(),
	}
}

func (m *MemoryCache) Set(key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		m.metrics.RecordError()
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	entry := memoryEntry{data: data}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entries[key]; !exists && m.maxEntries > 0 && len(m.entries) >= m.maxEntries {
		m.evictLocked()
	}
	m.entries[key] = entry
	m.metrics.RecordSet()
	return nil
}

func (m *MemoryCache) Get(key string, dest interface{}) error {
	m.mu.RLock()
	entry, found := m.entries[key]
	m.mu.RUnlock()

	if !found || entry.expired(time.Now()) {
		if found {
			m.Delete(key)
		}
		m.metrics.RecordMiss()
		return ErrCacheMiss
	}

	if err := json.Unmarshal(entry.data, dest); err != nil {
		m.metrics.RecordError()
		return fmt.Errorf("failed to unmarshal cached data: %w", err)
	}
	m.metrics.RecordHit()
	return nil
}

func (m *MemoryCache) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, found := m.entries[key]; found {
		delete(m.entries, key)
		m.metrics.RecordDelete()
	}
	return nil
}

// DeletePattern removes every key matching a glob pattern such as "labels:*".
func (m *MemoryCache) DeletePattern(pattern string) error {
	if _, err := path.Match(pattern, ""); err != nil {
		return fmt.Errorf("invalid pattern %s: %w", pattern, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for key := range m.entries {
		if matched, _ := path.Match(pattern, key); matched {
			delete(m.entries, key)
			m.metrics.RecordDelete()
		}
	}
	return nil
}

func (m *MemoryCache) Exists(key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, found := m.entries[key]
	return found && !entry.expired(time.Now()), nil
}

func (m *MemoryCache) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *MemoryCache) Stats() map[string]interface{} {
	stats := m.metrics.Snapshot()
	stats["entries"] = m.Len()
	stats["max_entries"] = m.maxEntries
	return stats
}

func (m *MemoryCache) Health() error {
	return nil
}

func (m *MemoryCache) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]memoryEntry)
	return nil
}

// evictLocked drops expired entries, or the entry closest to expiry when
// nothing has expired.
func (m *MemoryCache) evictLocked() {
	now := time.Now()
	var (
		victim     string
		victimAt   time.Time
		haveVictim bool
	)
	for key, entry := range m.entries {
		if entry.expired(now) {
			delete(m.entries, key)
			continue
		}
		if entry.expiresAt.IsZero() {
			continue
		}
		if !haveVictim || entry.expiresAt.Before(victimAt) {
			victim, victimAt, haveVictim = key, entry.expiresAt, true
		}
	}

	if len(m.entries) < m.maxEntries {
		return
	}
	if !haveVictim {
		for key := range m.entries {
			victim = key
			break
		}
	}
	delete(m.entries, victim)
}
