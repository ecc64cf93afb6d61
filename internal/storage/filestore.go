package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// FileStore persists keys as a single flat JSON object on disk. Every write
// rewrites the file. I/O and decode failures degrade to an empty store or a
// dropped write; they are never surfaced to callers.
type FileStore struct {
	mu       sync.Mutex
	filePath string
	values   map[string]string
}

// NewFileStore opens (or lazily creates) a file store at dir/name.
func NewFileStore(dir, name string) *FileStore {
	fs := &FileStore{
		filePath: filepath.Join(dir, name),
		values:   make(map[string]string),
	}
	fs.load()
	return fs
}

// load hydrates the in-memory map from disk. Malformed content is discarded.
func (fs *FileStore) load() {
	data, err := os.ReadFile(fs.filePath)
	if err != nil {
		return
	}
	var values map[string]string
	if err := json.Unmarshal(data, &values); err != nil {
		return
	}
	fs.values = values
}

// save writes the map back to disk, best effort.
func (fs *FileStore) save() {
	data, err := json.MarshalIndent(fs.values, "", "  ")
	if err != nil {
		return
	}
	if err := os.MkdirAll(filepath.Dir(fs.filePath), 0755); err != nil {
		return
	}
	_ = os.WriteFile(fs.filePath, data, 0644)
}

// Get returns the value for key and whether it was present.
func (fs *FileStore) Get(key string) (string, bool) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	v, ok := fs.values[key]
	return v, ok
}

// Set stores value under key and persists the store.
func (fs *FileStore) Set(key, value string) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.values[key] = value
	fs.save()
}

// Delete removes key and persists the store.
func (fs *FileStore) Delete(key string) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if _, ok := fs.values[key]; !ok {
		return
	}
	delete(fs.values, key)
	fs.save()
}
