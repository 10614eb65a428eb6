// Package recent keeps the bounded history of free-text searches.
package recent

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"
)

const (
	// Key is the storage key the history is persisted under.
	Key = "recentSearches"
	// Limit is the maximum number of remembered searches.
	Limit = 6
)

// Store is a most-recent-first list of searches, de-duplicated without
// regard to case. A repeated search keeps the casing of its latest save.
type Store struct {
	mu      sync.Mutex
	storage Storage
	items   []string
	loaded  bool
}

func NewStore(storage Storage) *Store {
	if storage == nil {
		storage = NewMemoryStorage()
	}
	return &Store{storage: storage}
}

// List returns a copy of the history.
func (s *Store) List() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return nil, err
	}
	return slices.Clone(s.items), nil
}

// Save records a search and returns the updated history. Blank searches are
// ignored.
func (s *Store) Save(search string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return nil, err
	}

	search = strings.TrimSpace(search)
	if search == "" {
		return slices.Clone(s.items), nil
	}

	next := push(s.items, search)
	if err := s.persist(next); err != nil {
		return nil, err
	}
	s.items = next
	return slices.Clone(next), nil
}

// Clear empties the history and removes it from storage.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.storage.Delete(Key); err != nil {
		return fmt.Errorf("recent: clear: %w", err)
	}
	s.items = nil
	s.loaded = true
	return nil
}

func (s *Store) load() error {
	if s.loaded {
		return nil
	}
	raw, ok, err := s.storage.Get(Key)
	if err != nil {
		return fmt.Errorf("recent: load: %w", err)
	}

	var items []string
	if ok {
		// A value that is not a JSON string array is treated as empty history.
		if err := json.Unmarshal(raw, &items); err != nil {
			items = nil
		}
	}

	// Rebuild oldest-first so the stored order and the invariants both hold.
	var clean []string
	for i := len(items) - 1; i >= 0; i-- {
		if q := strings.TrimSpace(items[i]); q != "" {
			clean = push(clean, q)
		}
	}
	s.items = clean
	s.loaded = true
	return nil
}

func (s *Store) persist(items []string) error {
	if items == nil {
		items = []string{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("recent: encode: %w", err)
	}
	if err := s.storage.Set(Key, data); err != nil {
		return fmt.Errorf("recent: save: %w", err)
	}
	return nil
}

func push(items []string, search string) []string {
	out := make([]string, 0, Limit)
	out = append(out, search)
	for _, existing := range items {
		if strings.EqualFold(existing, search) {
			continue
		}
		if len(out) == Limit {
			break
		}
		out = append(out, existing)
	}
	return out
}
