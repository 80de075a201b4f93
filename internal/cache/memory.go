package cache

import (
	"context"
	"sync"

	"github.com/Aikkad/mac-trading-academy/internal/model"
)

// MemoryCache keeps series in process memory for the lifetime of the process.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[Key]*model.BarSeries
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[Key]*model.BarSeries)}
}

func (m *MemoryCache) Get(_ context.Context, key Key) (*model.BarSeries, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.entries[key]
	return s, ok, nil
}

// Put stores the series. Series are immutable, so sharing the pointer is safe.
func (m *MemoryCache) Put(_ context.Context, key Key, series *model.BarSeries) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = series
	return nil
}

// Len returns the number of cached entries.
func (m *MemoryCache) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *MemoryCache) Close() error { return nil }
