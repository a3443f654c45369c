package signal

import "time"

// State is the per-ticker machine state. It lives in memory only; the
// recorder persists events, not machine state.
type State struct {
	Stage          int
	StageEnteredAt time.Time
	Extremum       float64
	LastAlertDate  time.Time
	History        []Transition
	Seeded         bool
}

// Transition records one stage change for diagnostics.
type Transition struct {
	Stage int
	At    time.Time
}

// Clone returns a deep copy so callers can append to History safely.
func (s State) Clone() State {
	out := s
	if s.History != nil {
		out.History = make([]Transition, len(s.History))
		copy(out.History, s.History)
	}
	return out
}
