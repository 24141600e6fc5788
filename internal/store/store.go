// Package store holds parsed datasets keyed by (partition key, category).
package store

import (
	"sync"

	"prepstats/pkg/contracts/domain"
)

// Event describes a completed dataset insert or replacement.
type Event struct {
	Key      string
	Category domain.Category
	Rows     int
	// FirstSeen is true when this is the first dataset ever stored for
	// the partition key.
	FirstSeen bool
}

// Listener receives store events after the store mutation has completed.
type Listener func(Event)

// Store is the partitioned in-memory dataset store. Datasets live for the
// process lifetime; re-ingesting the same (key, category) pair replaces
// the prior dataset wholesale.
type Store struct {
	mu         sync.RWMutex
	partitions map[string]map[domain.Category]domain.Dataset
	order      []string

	listeners []Listener
}

// New returns an empty store.
func New() *Store {
	return &Store{
		partitions: make(map[string]map[domain.Category]domain.Dataset),
	}
}

// Subscribe registers a listener invoked after every Upsert. Listeners
// must be registered before the store is used; registration is not
// synchronized with concurrent upserts.
func (s *Store) Subscribe(l Listener) {
	s.listeners = append(s.listeners, l)
}

// Upsert inserts or replaces the dataset at (key, category). The dataset
// is deep-copied on the way in so partitions never share mutable
// substructure with each other or with the caller.
func (s *Store) Upsert(key string, category domain.Category, ds domain.Dataset) {
	stored := ds.Clone()

	s.mu.Lock()
	categories, ok := s.partitions[key]
	if !ok {
		categories = make(map[domain.Category]domain.Dataset)
		s.partitions[key] = categories
		s.order = append(s.order, key)
	}
	categories[category] = stored
	s.mu.Unlock()

	ev := Event{
		Key:       key,
		Category:  category,
		Rows:      len(stored.Rows),
		FirstSeen: !ok,
	}
	for _, l := range s.listeners {
		l(ev)
	}
}

// Get returns the dataset stored at (key, category), or a zero dataset if
// absent. It never fails. The returned column and row slices are fresh
// copies of the slice headers; rows must be treated as read-only.
func (s *Store) Get(key string, category domain.Category) domain.Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ds, ok := s.partitions[key][category]
	if !ok {
		return domain.Dataset{}
	}

	out := domain.Dataset{
		Columns: make([]string, len(ds.Columns)),
		Rows:    make([]domain.Row, len(ds.Rows)),
	}
	copy(out.Columns, ds.Columns)
	copy(out.Rows, ds.Rows)
	return out
}

// Keys returns the known partition keys in first-insertion order, one
// occurrence per key.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Has reports whether any dataset has been stored for the key.
func (s *Store) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.partitions[key]
	return ok
}

// Counts returns the number of stored rows per category for the key.
// Categories with no dataset are absent from the result.
func (s *Store) Counts(key string) map[domain.Category]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	categories, ok := s.partitions[key]
	if !ok {
		return nil
	}
	out := make(map[domain.Category]int, len(categories))
	for cat, ds := range categories {
		out[cat] = len(ds.Rows)
	}
	return out
}
