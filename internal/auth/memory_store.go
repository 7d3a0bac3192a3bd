package auth

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	hash     string
	attempts int64
	expires  time.Time
}

// MemoryOTPStore 单实例部署且没有 redis 时使用
type MemoryOTPStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	now     func() time.Time
}

func NewMemoryOTPStore() *MemoryOTPStore {
	return &MemoryOTPStore{entries: make(map[string]*memoryEntry), now: time.Now}
}

// live 返回未过期的条目，过期的顺手删掉
func (s *MemoryOTPStore) live(email string) *memoryEntry {
	e, ok := s.entries[email]
	if !ok {
		return nil
	}
	if !s.now().Before(e.expires) {
		delete(s.entries, email)
		return nil
	}
	return e
}

func (s *MemoryOTPStore) Save(_ context.Context, email, hash string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[email] = &memoryEntry{hash: hash, expires: s.now().Add(ttl)}
	return nil
}

func (s *MemoryOTPStore) Load(_ context.Context, email string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.live(email)
	if e == nil {
		return "", ErrCodeExpired
	}
	return e.hash, nil
}

func (s *MemoryOTPStore) Delete(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, email)
	return nil
}

func (s *MemoryOTPStore) IncrAttempts(_ context.Context, email string, _ time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.live(email)
	if e == nil {
		return 0, ErrCodeExpired
	}
	e.attempts++
	return e.attempts, nil
}
