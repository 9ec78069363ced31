package cache

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Ensure Memory implements Cache at compile time.
var _ Cache = (*Memory)(nil)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
	storedAt  time.Time
}

// Memory is an in-process cache bounded by entry count. Expired entries are
// removed by a periodic cleanup; when the cache is over its size limit the
// oldest entries go first.
type Memory struct {
	mu         sync.RWMutex
	entries    map[string]memoryEntry
	maxEntries int
	now        func() time.Time

	stop      chan struct{}
	closeOnce sync.Once
}

// NewMemory creates a cache holding at most maxEntries values and starts a
// cleanup loop running every cleanupInterval. A zero interval disables the
// loop.
func NewMemory(maxEntries int, cleanupInterval time.Duration) *Memory {
	m := &Memory{
		entries:    make(map[string]memoryEntry),
		maxEntries: maxEntries,
		now:        time.Now,
		stop:       make(chan struct{}),
	}
	if cleanupInterval > 0 {
		go m.periodicCleanup(cleanupInterval)
	}
	return m
}

func (m *Memory) periodicCleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Cleanup()
		case <-m.stop:
			return
		}
	}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	entry, found := m.entries[key]
	m.mu.RUnlock()

	if !found || !m.now().Before(entry.expiresAt) {
		return nil, false, nil
	}

	value := make([]byte, len(entry.value))
	copy(value, entry.value)
	return value, true, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	now := m.now()
	stored := make([]byte, len(value))
	copy(stored, value)

	m.mu.Lock()
	m.entries[key] = memoryEntry{value: stored, expiresAt: now.Add(ttl), storedAt: now}
	over := len(m.entries) > m.maxEntries
	m.mu.Unlock()

	if over {
		m.Cleanup()
	}
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

// Len returns the number of stored entries, expired or not.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// SetMaxEntries changes the size limit and trims the cache to it.
func (m *Memory) SetMaxEntries(n int) {
	m.mu.Lock()
	m.maxEntries = n
	m.mu.Unlock()
	m.Cleanup()
}

// Clear removes every entry.
func (m *Memory) Clear() {
	m.mu.Lock()
	m.entries = make(map[string]memoryEntry)
	m.mu.Unlock()
}

// Cleanup removes expired entries, then the oldest ones until the cache is
// within its size limit.
func (m *Memory) Cleanup() {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	for key, entry := range m.entries {
		if !now.Before(entry.expiresAt) {
			delete(m.entries, key)
		}
	}

	if len(m.entries) <= m.maxEntries {
		return
	}

	type aged struct {
		key      string
		storedAt time.Time
	}
	entries := make([]aged, 0, len(m.entries))
	for key, entry := range m.entries {
		entries = append(entries, aged{key, entry.storedAt})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].storedAt.Before(entries[j].storedAt)
	})

	for i := 0; i < len(entries)-m.maxEntries; i++ {
		delete(m.entries, entries[i].key)
	}
}

// Close stops the cleanup loop.
func (m *Memory) Close() error {
	m.closeOnce.Do(func() { close(m.stop) })
	return nil
}
