package kvmock

import (
	"context"
	"sync"

	"makono-backend/internal/domain/kv"
)

// Store is a function-backed mock that satisfies kv.Store.
// When a Fn is nil the call falls through to an in-memory map, so tests only
// override the calls they want to fail or inspect.
type Store struct {
	GetFn func(ctx context.Context, key string) ([]byte, error)
	SetFn func(ctx context.Context, key string, value []byte) error

	mu   sync.Mutex
	data map[string][]byte
	sets int
}

func (m *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, kv.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *Store) Set(ctx context.Context, key string, value []byte) error {
	if m.SetFn != nil {
		return m.SetFn(ctx, key, value)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = map[string][]byte{}
	}
	m.data[key] = append([]byte(nil), value...)
	m.sets++
	return nil
}

// Sets reports how many writes reached the in-memory map.
func (m *Store) Sets() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sets
}

// Raw returns the stored bytes for key, or nil.
func (m *Store) Raw(key string) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key]
}
