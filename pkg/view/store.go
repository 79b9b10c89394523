package view

import "sync"

// Store holds the current State and applies actions to it. It is safe for
// concurrent use. Once closed it ignores further actions.
type Store struct {
	// notifyMu serializes dispatches so subscribers see snapshots one at a
	// time and in the order they were reduced.
	notifyMu sync.Mutex

	mu     sync.Mutex
	state  State
	closed bool
	subs   map[int]func(State)
	nextID int
}

// NewStore creates a store starting from initial.
func NewStore(initial State) *Store {
	return &Store{state: initial, subs: make(map[int]func(State))}
}

// State returns the current snapshot.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch reduces a into the current state and returns the new snapshot.
// It reports false, leaving the state untouched, when the store is closed.
// Subscribers run before Dispatch returns, in reduce order, and may call
// State but must not Dispatch.
func (s *Store) Dispatch(a Action) (State, bool) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	if s.closed {
		st := s.state
		s.mu.Unlock()
		return st, false
	}
	s.state = Reduce(s.state, a)
	st := s.state
	subs := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(st)
	}
	return st, true
}

// Subscribe registers fn to receive every new snapshot. The returned function
// removes the subscription.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Close stops the store from accepting actions and drops all subscribers.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	clear(s.subs)
}

// Closed reports whether Close has been called.
func (s *Store) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
