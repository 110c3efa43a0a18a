// Package threadstore persists the user-key to thread-id mapping.
package threadstore

import (
	"context"
	"sync"
)

// Store is the mapping interface consumed by the assistant service.
type Store interface {
	Get(ctx context.Context, key string) (threadID string, found bool, err error)
	Set(ctx context.Context, key, threadID string) error
}

// Memory is the in-memory fallback used when no Redis address is
// configured. Mappings live only for the process lifetime.
type Memory struct {
	mu sync.RWMutex
	m  map[string]string
}

func NewMemory() *Memory {
	return &Memory{m: make(map[string]string)}
}

func (s *Memory) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	threadID, found := s.m[key]
	return threadID, found, nil
}

func (s *Memory) Set(_ context.Context, key, threadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = threadID
	return nil
}
