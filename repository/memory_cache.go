package repository

import (
	"context"
	"sync"
	"time"
)

const defaultSweepInterval = time.Minute

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// MemoryCache is an in-process CacheRepository, used when no Redis is
// configured and in tests. Expired entries are dropped on read and by a
// periodic sweep.
type MemoryCache struct {
	mu        sync.RWMutex
	data      map[string]memoryEntry
	now       func() time.Time
	stopSweep chan struct{}
	stopOnce  sync.Once
}

// NewMemoryCache starts a cache that sweeps expired entries every minute.
// Call Stop to end the sweep.
func NewMemoryCache() *MemoryCache {
	return NewMemoryCacheWithSweep(defaultSweepInterval)
}

func NewMemoryCacheWithSweep(interval time.Duration) *MemoryCache {
	m := newMemoryCache(time.Now)
	go m.sweepLoop(interval)
	return m
}

func newMemoryCache(now func() time.Time) *MemoryCache {
	return &MemoryCache{
		data:      make(map[string]memoryEntry),
		now:       now,
		stopSweep: make(chan struct{}),
	}
}

func (m *MemoryCache) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.sweep()
		case <-m.stopSweep:
			return
		}
	}
}

// sweep deletes every expired entry and reports how many were removed.
func (m *MemoryCache) sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for key, entry := range m.data {
		if entry.expired(now) {
			delete(m.data, key)
			removed++
		}
	}
	return removed
}

// Stop ends the sweep goroutine. It is safe to call more than once.
func (m *MemoryCache) Stop() {
	m.stopOnce.Do(func() { close(m.stopSweep) })
}

func (m *MemoryCache) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	entry, ok := m.data[key]
	m.mu.RUnlock()

	if !ok {
		return "", false, nil
	}
	if entry.expired(m.now()) {
		m.mu.Lock()
		// re-check, a Set may have replaced the entry meanwhile
		if current, ok := m.data[key]; ok && current.expired(m.now()) {
			delete(m.data, key)
		}
		m.mu.Unlock()
		return "", false, nil
	}
	return entry.value, true, nil
}

func (m *MemoryCache) Set(_ context.Context, key string, value string, ttl time.Duration) error {
	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = m.now().Add(ttl)
	}

	m.mu.Lock()
	m.data[key] = entry
	m.mu.Unlock()
	return nil
}

// Len reports how many entries are held. Entries that expired since the
// last sweep or read are still counted.
func (m *MemoryCache) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}
