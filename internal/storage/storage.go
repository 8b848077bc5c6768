// Package storage provides the durable, tab-shared key/value store the client
// persists its session and cached searches in.
package storage

import (
	"context"
	"sync"
)

// Keys written by the client.
const (
	KeyToken           = "token"
	KeyUser            = "user"
	KeyTokenCookie     = "token_cookie"
	KeyResumeSnapshot  = "filteredResumes"
	KeyVacancySnapshot = "filteredVacancies"
)

// Store is a string key/value store shared by every tab of one browser profile.
// Writes are last-write-wins.
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	// Remove deletes keys; missing keys are not an error.
	Remove(ctx context.Context, keys ...string) error
}

// Factory opens the store of one browser profile.
type Factory func(profile string) Store

// Memory is an in-process Store.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

// Get implements Store.
func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

// Set implements Store.
func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// Remove implements Store.
func (m *Memory) Remove(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

// Len returns the number of stored keys.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}

// MemoryFactory hands out one Memory store per profile, creating it on first use.
type MemoryFactory struct {
	mu     sync.Mutex
	stores map[string]*Memory
}

// NewMemoryFactory creates an empty MemoryFactory.
func NewMemoryFactory() *MemoryFactory {
	return &MemoryFactory{stores: make(map[string]*Memory)}
}

// Open returns the store for profile.
func (f *MemoryFactory) Open(profile string) Store {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.stores[profile]
	if !ok {
		s = NewMemory()
		f.stores[profile] = s
	}
	return s
}
