package kv

import (
	"context"
	"path"
	"sort"
	"strconv"
	"sync"
)

// Memory is an in-process Store used by tests and offline mode. All
// operations take the same mutex, which gives it per-operation atomicity the
// hosted store also guarantees; multi-key sequences race exactly as they do
// against the real store.
type Memory struct {
	mu   sync.Mutex
	data map[string]string
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

func (m *Memory) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	value, ok := m.data[key]
	if !ok {
		return "", ErrNil
	}
	return value, nil
}

func (m *Memory) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[key] = value
	return nil
}

func (m *Memory) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *Memory) Incr(ctx context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current := int64(0)
	if existing, ok := m.data[key]; ok {
		parsed, err := strconv.ParseInt(existing, 10, 64)
		if err != nil {
			return 0, err
		}
		current = parsed
	}

	current++
	m.data[key] = strconv.FormatInt(current, 10)
	return current, nil
}

func (m *Memory) Keys(ctx context.Context, pattern string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var keys []string
	for key := range m.data {
		matched, err := path.Match(pattern, key)
		if err != nil {
			return nil, err
		}
		if matched {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *Memory) Ping(ctx context.Context) error {
	return nil
}
