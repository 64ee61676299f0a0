package store

import (
	"context"
	"sync"
)

// Memory is an in-process Storage. Values are copied on the way in and out.
type Memory struct {
	mu    sync.RWMutex
	items map[string][]byte
}

// NewMemory creates an empty in-memory storage.
func NewMemory() *Memory {
	return &Memory{items: make(map[string][]byte)}
}

// GetItem implements Storage.
func (m *Memory) GetItem(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.items[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

// SetItem implements Storage.
func (m *Memory) SetItem(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = append([]byte(nil), value...)
	return nil
}

// RemoveItem implements Storage.
func (m *Memory) RemoveItem(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}
