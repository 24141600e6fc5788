// Package selection tracks the active partition key, category, filter
// text, and sort directive. It is transient UI state observing the store,
// deliberately decoupled from the ingestion path.
package selection

import (
	"sync"

	"prepstats/internal/store"
	"prepstats/pkg/contracts/domain"
)

// Listener receives the selection snapshot after a mutation has
// completed.
type Listener func(domain.Selection)

// State is the current selection. The zero key means nothing has been
// ingested yet; the first partition key ever stored becomes the active
// key and stays until explicitly changed.
type State struct {
	mu       sync.Mutex
	key      string
	category domain.Category
	filter   string
	sort     domain.SortDirective

	listeners []Listener
}

// New returns a selection with the default category active and no key.
func New() *State {
	return &State{category: domain.Categories()[0]}
}

// Subscribe registers a listener invoked after every mutation. Listeners
// must be registered before the selection is used; registration is not
// synchronized with concurrent mutations.
func (s *State) Subscribe(l Listener) {
	s.listeners = append(s.listeners, l)
}

func (s *State) notify(snapshot domain.Selection) {
	for _, l := range s.listeners {
		l(snapshot)
	}
}

func (s *State) snapshotLocked() domain.Selection {
	return domain.Selection{
		Key:      s.key,
		Category: s.category,
		Filter:   s.filter,
		Sort:     s.sort,
	}
}

// ObserveStore implements the store.Listener contract: the first key ever
// inserted becomes the active key, later inserts leave the selection
// alone.
func (s *State) ObserveStore(ev store.Event) {
	s.mu.Lock()
	if s.key != "" {
		s.mu.Unlock()
		return
	}
	s.key = ev.Key
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snapshot)
}

// SetKey makes key the active partition key.
func (s *State) SetKey(key string) {
	s.mu.Lock()
	s.key = key
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snapshot)
}

// SetCategory makes category the active category.
func (s *State) SetCategory(category domain.Category) {
	s.mu.Lock()
	s.category = category
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snapshot)
}

// SetFilter replaces the active filter text. Empty means no filtering.
func (s *State) SetFilter(text string) {
	s.mu.Lock()
	s.filter = text
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snapshot)
}

// RequestSort applies the sort-toggle rule for column and returns the
// resulting directive: a new column starts ascending, repeating the
// current column flips the direction. There is no transition back to
// the unsorted state.
func (s *State) RequestSort(column string) domain.SortDirective {
	s.mu.Lock()
	if s.sort.Column == column && s.sort.Direction == domain.Ascending {
		s.sort.Direction = domain.Descending
	} else {
		s.sort = domain.SortDirective{Column: column, Direction: domain.Ascending}
	}
	directive := s.sort
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snapshot)
	return directive
}

// Snapshot returns a copy of the current selection.
func (s *State) Snapshot() domain.Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}
