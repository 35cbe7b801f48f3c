package db

import (
	"context"
	"sync"
)

// MemKV is a thread-safe in-memory key/value map.
// It also serves as the replay target for WAL recovery.
type MemKV struct {
	mu     sync.RWMutex
	values map[string][]byte
	closed bool
}

// NewMemKV creates an empty store
func NewMemKV() *MemKV {
	return &MemKV{
		values: make(map[string][]byte),
	}
}

// SetRecovered stores a value replayed from the WAL
func (m *MemKV) SetRecovered(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
}

// Get returns a copy of the value of key
func (m *MemKV) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrClosed
	}
	v, ok := m.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

// Put stores a copy of value under key
func (m *MemKV) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	m.values[key] = append([]byte(nil), value...)
	return nil
}

// Len returns the number of keys
func (m *MemKV) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}

// Snapshot returns a copy of every key/value pair
func (m *MemKV) Snapshot() map[string][]byte {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string][]byte, len(m.values))
	for k, v := range m.values {
		out[k] = append([]byte(nil), v...)
	}
	return out
}

// Close marks the store closed
func (m *MemKV) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
