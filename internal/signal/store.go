package signal

import "sync"

// Store holds per-ticker machine state in memory. Each ticker has its own
// lock: one evaluation runs at a time per ticker while distinct tickers
// proceed in parallel.
type Store struct {
	mu      sync.Mutex
	initial State
	entries map[string]*entry
}

type entry struct {
	mu sync.Mutex
	st State
}

// NewStore creates a store that hands out copies of initial for unseen tickers.
func NewStore(initial State) *Store {
	return &Store{initial: initial, entries: make(map[string]*entry)}
}

func (s *Store) entryFor(ticker string) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[ticker]
	if !ok {
		e = &entry{st: s.initial.Clone()}
		s.entries[ticker] = e
	}
	return e
}

// Get returns a copy of the ticker's state.
func (s *Store) Get(ticker string) State {
	e := s.entryFor(ticker)
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.st.Clone()
}

// Update runs fn with a copy of the ticker's state and stores the returned
// state. The ticker's lock is held for the whole call, so a failed evaluation
// that returns its input leaves the stored state untouched.
func (s *Store) Update(ticker string, fn func(State) State) State {
	e := s.entryFor(ticker)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.st = fn(e.st.Clone())
	return e.st.Clone()
}

// States returns a copy of every tracked state keyed by ticker.
func (s *Store) States() map[string]State {
	s.mu.Lock()
	entries := make(map[string]*entry, len(s.entries))
	for k, v := range s.entries {
		entries[k] = v
	}
	s.mu.Unlock()

	out := make(map[string]State, len(entries))
	for k, e := range entries {
		e.mu.Lock()
		out[k] = e.st.Clone()
		e.mu.Unlock()
	}
	return out
}
