package kv

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

type memoryItem struct {
	data     []byte
	expireAt time.Time // zero means no expiry
}

func (m *memoryItem) expired() bool {
	return !m.expireAt.IsZero() && time.Now().After(m.expireAt)
}

// MemoryStore implements Store in process memory. Used in tests and as a
// stand-in when Redis is unavailable in local development.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]*memoryItem
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]*memoryItem)}
}

func (s *MemoryStore) GetJSON(ctx context.Context, key string, dest interface{}) error {
	b, err := s.GetRaw(ctx, key)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dest)
}

func (s *MemoryStore) GetRaw(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	item, ok := s.data[key]
	s.mu.RUnlock()
	if !ok || item.expired() {
		return nil, ErrNotFound
	}
	out := make([]byte, len(item.data))
	copy(out, item.data)
	return out, nil
}

func (s *MemoryStore) PutJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.PutRaw(ctx, key, b, ttl)
}

func (s *MemoryStore) PutRaw(_ context.Context, key string, b []byte, ttl time.Duration) error {
	item := &memoryItem{data: append([]byte(nil), b...)}
	if ttl > 0 {
		item.expireAt = time.Now().Add(ttl)
	}
	s.mu.Lock()
	s.data[key] = item
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	for _, k := range keys {
		delete(s.data, k)
	}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Exists(_ context.Context, key string) (bool, error) {
	s.mu.RLock()
	item, ok := s.data[key]
	s.mu.RUnlock()
	return ok && !item.expired(), nil
}

func (s *MemoryStore) Close() error { return nil }
