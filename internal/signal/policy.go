package signal

import (
	"time"

	"github.com/wesleywang11/tpx-signal-watch/internal/indicator"
)

// Policy is one variant of the signal state machine. Evaluate is pure: the
// returned state, status line and alert decision depend only on its inputs,
// so calling it twice with the same arguments gives the same result.
type Policy interface {
	Name() string
	// InitialState is the state handed to tickers never seen before.
	InitialState() State
	// Evaluate advances st by at most one stage using snap observed at now.
	Evaluate(st State, snap *indicator.Snapshot, now time.Time) (newState State, status string, alert bool)
	// StageLabel names a stage for logs and reports.
	StageLabel(stage int) string
}

// dateOf truncates t to its civil date, keeping the location.
func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// daysBetween counts whole civil days from a to b.
func daysBetween(a, b time.Time) int {
	return int(dateOf(b).Sub(dateOf(a)).Hours() / 24)
}
