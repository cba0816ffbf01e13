// Package storage provides the key-value Storage collaborator the payment
// manager persists its active gateway into. A sqlite-backed implementation
// survives process restarts; the in-memory implementation is for tests and
// environments without a writable filesystem.
package storage

import "sync"

// Storage is a minimal string key-value store. Get returns "" and false when
// the key is absent; Set and Remove are idempotent.
type Storage interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Remove(key string) error
}

// MemoryStorage is a goroutine-safe in-memory Storage.
type MemoryStorage struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStorage creates an empty in-memory store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string]string)}
}

func (s *MemoryStorage) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *MemoryStorage) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *MemoryStorage) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}
