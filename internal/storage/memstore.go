package storage

import "sync"

// MemoryStore is an in-memory Store used for tests and ephemeral sessions.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

// Get returns the value for key and whether it was present.
func (ms *MemoryStore) Get(key string) (string, bool) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	v, ok := ms.values[key]
	return v, ok
}

// Set stores value under key.
func (ms *MemoryStore) Set(key, value string) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.values[key] = value
}

// Delete removes key.
func (ms *MemoryStore) Delete(key string) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	delete(ms.values, key)
}
