package repositories

import (
	"context"
	"sort"
	"strings"
	"sync"

	"eb5tracker/internal/models"
)

// MemoryKV is a KVStore kept in process memory. Used when no database URL is
// configured and in tests.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string][]byte)}
}

func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, models.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *MemoryKV) Set(ctx context.Context, key string, value []byte) error {
	return m.MSet(ctx, []KVEntry{{Key: key, Value: value}})
}

func (m *MemoryKV) MSet(_ context.Context, entries []KVEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range entries {
		m.data[e.Key] = append([]byte(nil), e.Value...)
	}
	return nil
}

func (m *MemoryKV) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *MemoryKV) GetByPrefix(_ context.Context, prefix string) ([]KVEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var res []KVEntry
	for k, v := range m.data {
		if strings.HasPrefix(k, prefix) {
			res = append(res, KVEntry{Key: k, Value: append([]byte(nil), v...)})
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Key < res[j].Key })
	return res, nil
}
