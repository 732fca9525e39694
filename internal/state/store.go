// Package state persists browser-visible UI state (selected theme,
// per-group collapsed flags) on the server side, keyed the same way the
// page keys them.
package state

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"
)

const themeKey = "dashboard-theme"

// Store is a mutex-guarded key/value store with optional JSON file
// persistence. A missing or unreadable state file is not an error; the
// store just starts empty.
type Store struct {
	mu     sync.RWMutex
	values map[string]string
	path   string // empty disables persistence
}

func NewStore(path string) *Store {
	s := &Store{values: make(map[string]string), path: path}
	if path != "" {
		s.load()
	}
	return s
}

func (s *Store) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return
	}
	var values map[string]string
	if err := json.Unmarshal(data, &values); err != nil {
		log.Printf("[state] ignoring corrupt state file %s: %v", s.path, err)
		return
	}
	s.values = values
}

// save writes the current state to disk. Callers hold the lock.
func (s *Store) save() {
	if s.path == "" {
		return
	}
	data, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		log.Printf("[state] failed to persist state: %v", err)
	}
}

// Get returns the raw value for a key.
func (s *Store) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// Set stores a raw value and persists the store.
func (s *Store) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	s.save()
}

// Theme returns the persisted theme name, or fallback when unset.
func (s *Store) Theme(fallback string) string {
	if v, ok := s.Get(themeKey); ok && v != "" {
		return v
	}
	return fallback
}

// SetTheme persists the selected theme name.
func (s *Store) SetTheme(name string) {
	s.Set(themeKey, name)
}

// Collapsed returns the persisted collapsed flag for a group, or
// fallback when the group has no saved state.
func (s *Store) Collapsed(groupID string, fallback bool) bool {
	v, ok := s.Get(groupKey(groupID))
	if !ok {
		return fallback
	}
	return v == "true"
}

// SetCollapsed persists a group's collapsed flag.
func (s *Store) SetCollapsed(groupID string, collapsed bool) {
	s.Set(groupKey(groupID), fmt.Sprintf("%t", collapsed))
}

func groupKey(groupID string) string {
	return "group-" + groupID + "-collapsed"
}
