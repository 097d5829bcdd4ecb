package storage

import (
	"context"
	"sync"
)

type memoryBackend struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{data: make(map[string][]byte)}
}

func (m *memoryBackend) get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *memoryBackend) set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *memoryBackend) del(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)
	return nil
}

func (m *memoryBackend) close() error { return nil }

// Memory is a process-local Persister.
type Memory struct {
	*store
	mem *memoryBackend
}

// NewMemory returns an empty in-memory Persister using key.
func NewMemory(key string) *Memory {
	mem := newMemoryBackend()
	return &Memory{store: newStore(mem, key, 0), mem: mem}
}

// SetRaw stores value as-is, bypassing JSON encoding.
func (m *Memory) SetRaw(value []byte) {
	_ = m.mem.set(context.Background(), m.key, value)
}

// Raw returns the stored bytes and whether a value is present.
func (m *Memory) Raw() ([]byte, bool) {
	v, err := m.mem.get(context.Background(), m.key)
	return v, err == nil
}
