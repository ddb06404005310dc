// Package cache provides the persistent key/value stores backing location
// lookups and scraped product pages. One Store per data domain.
package cache

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
)

// Store is a durable key/value map for one data domain. Values are raw JSON;
// any timestamp lives inside the value and is interpreted by the caller, the
// store itself is TTL-agnostic. Safe for concurrent use.
type Store struct {
	path string

	mu      sync.RWMutex
	entries map[string]json.RawMessage
}

// Open loads the store persisted at path, or starts empty when the file does
// not exist yet. The parent directory is created if needed.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}

	s := &Store{path: path, entries: make(map[string]json.RawMessage)}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &s.entries); err != nil {
		return nil, fmt.Errorf("load cache %s: %w", path, err)
	}
	return s, nil
}

// Get returns the raw value stored under key.
func (s *Store) Get(key string) (json.RawMessage, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.entries[key]
	return v, ok
}

// Set overwrites the value stored under key. It does not flush; call Persist
// afterwards to make the write durable.
func (s *Store) Set(key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.entries[key] = data
	s.mu.Unlock()
	return nil
}

// Len reports the number of cached entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Persist writes the whole store to disk. Write volume in this system is low
// (one write per cache miss), so flushing everything on each mutation is
// acceptable; this would not hold at high write rates.
func (s *Store) Persist() error {
	s.mu.RLock()
	data, err := json.MarshalIndent(s.entries, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return err
	}

	// Write to temporary file first, then rename (atomic operation)
	tmpPath := s.path + fmt.Sprintf(".tmp.%d", rand.Int())
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpPath, s.path)
}
