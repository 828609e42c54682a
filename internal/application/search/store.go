package search

import "sync"

// Store holds the State of one page session. Dispatch is atomic with respect
// to other dispatches on the same Store.
type Store struct {
	mu    sync.Mutex
	state State
}

// NewStore creates a store starting at initial
func NewStore(initial State) *Store {
	return &Store{state: initial}
}

// State returns the current state
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch reduces a into the current state and returns the result
func (s *Store) Dispatch(a Action) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Reduce(s.state, a)
	return s.state
}

// TakeNotices returns the queued notices and clears them in one step, so a
// notice is rendered exactly once.
func (s *Store) TakeNotices() []Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	notices := s.state.Notices
	s.state = Reduce(s.state, NoticesShown{})
	return notices
}
