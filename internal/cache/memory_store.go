package cache

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	val      []byte
	expireAt time.Time
}

// MemoryStore 进程内缓存，未配置 Redis 时使用
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]entry
	now  func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]entry), now: time.Now}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	if !e.expireAt.IsZero() && !s.now().Before(e.expireAt) {
		delete(s.data, key)
		return nil, false, nil
	}
	return append([]byte(nil), e.val...), true, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := entry{val: append([]byte(nil), val...)}
	if ttl > 0 {
		e.expireAt = s.now().Add(ttl)
	}
	s.data[key] = e
	return nil
}

func (s *MemoryStore) Del(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.data, k)
	}
	return nil
}
