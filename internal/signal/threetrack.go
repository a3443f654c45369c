package signal

import (
	"fmt"
	"time"

	"github.com/wesleywang11/tpx-signal-watch/internal/indicator"
)

// Stages of the three-track policy.
const (
	StageWaiting   = 0
	StageTouched   = 1
	StageReversed  = 2
	StageConfirmed = 3
)

// rsiSentinel is the extremum starting point for the three-track policy; any
// observed RSI is below it.
const rsiSentinel = 100

// ThreeTrackOptions configures the three-track policy.
type ThreeTrackOptions struct {
	Oversold           float64
	TouchTimeoutDays   int
	ConfirmTimeoutDays int
	RearmDays          int
}

// DefaultThreeTrackOptions returns the standard thresholds.
func DefaultThreeTrackOptions() ThreeTrackOptions {
	return ThreeTrackOptions{
		Oversold:           30,
		TouchTimeoutDays:   10,
		ConfirmTimeoutDays: 15,
		RearmDays:          5,
	}
}

// ThreeTrack is the sequential confirmation policy: a lower-band touch arms
// the machine, an RSI oversold exit advances it, and a MACD golden cross or
// histogram flip confirms it and fires the alert.
type ThreeTrack struct {
	opts ThreeTrackOptions
}

// NewThreeTrack creates the policy, filling zero options with defaults.
func NewThreeTrack(opts ThreeTrackOptions) *ThreeTrack {
	def := DefaultThreeTrackOptions()
	if opts.Oversold <= 0 {
		opts.Oversold = def.Oversold
	}
	if opts.TouchTimeoutDays <= 0 {
		opts.TouchTimeoutDays = def.TouchTimeoutDays
	}
	if opts.ConfirmTimeoutDays <= 0 {
		opts.ConfirmTimeoutDays = def.ConfirmTimeoutDays
	}
	if opts.RearmDays <= 0 {
		opts.RearmDays = def.RearmDays
	}
	return &ThreeTrack{opts: opts}
}

func (p *ThreeTrack) Name() string { return "three-track" }

// InitialState starts at waiting with the RSI extremum at its sentinel.
func (p *ThreeTrack) InitialState() State {
	return State{Extremum: rsiSentinel, Seeded: true}
}

func (p *ThreeTrack) StageLabel(stage int) string {
	switch stage {
	case StageTouched:
		return "touched"
	case StageReversed:
		return "reversed"
	case StageConfirmed:
		return "confirmed"
	default:
		return "waiting"
	}
}

// reset returns to waiting. The once-per-day alert guard survives, so a
// reset-and-reconfirm within one day cannot fire twice.
func (p *ThreeTrack) reset(st State) State {
	return State{Extremum: rsiSentinel, LastAlertDate: st.LastAlertDate, Seeded: true}
}

func (p *ThreeTrack) enter(st State, stage int, now time.Time) State {
	st.Stage = stage
	st.StageEnteredAt = dateOf(now)
	st.History = append(st.History, Transition{Stage: stage, At: dateOf(now)})
	return st
}

// Evaluate advances the machine by at most one stage per scan.
func (p *ThreeTrack) Evaluate(st State, snap *indicator.Snapshot, now time.Time) (State, string, bool) {
	st = st.Clone()
	if !st.Seeded {
		st.Seeded = true
		if st.Extremum == 0 {
			st.Extremum = rsiSentinel
		}
	}

	touch := BandTouch(snap)
	reversal := RSIReversal(snap, p.opts.Oversold)
	confirm := MACDConfirm(snap)

	fired := false
	note := ""

	switch st.Stage {
	case StageWaiting:
		if touch.Touched {
			st = p.enter(st, StageTouched, now)
			st.Extremum = snap.RSI
			note = "armed"
		}

	case StageTouched:
		if snap.RSI < st.Extremum {
			st.Extremum = snap.RSI
		}
		switch {
		case reversal.Reversed:
			st = p.enter(st, StageReversed, now)
		case daysBetween(st.StageEnteredAt, now) > p.opts.TouchTimeoutDays:
			st = p.reset(st)
			note = "touch timed out"
		}

	case StageReversed:
		switch {
		case confirm.Confirmed:
			st = p.enter(st, StageConfirmed, now)
			if !sameDay(st.LastAlertDate, now) {
				st.LastAlertDate = dateOf(now)
				fired = true
			}
		case daysBetween(st.StageEnteredAt, now) > p.opts.ConfirmTimeoutDays:
			st = p.reset(st)
			note = "confirmation timed out"
		}

	case StageConfirmed:
		if !st.LastAlertDate.IsZero() && daysBetween(st.LastAlertDate, now) > p.opts.RearmDays {
			st = p.reset(st)
			note = "re-armed"
		}

	default:
		st = p.reset(st)
		note = "unknown stage"
	}

	return st, p.status(st, note, now, touch, reversal, confirm), fired
}

func (p *ThreeTrack) status(st State, note string, now time.Time, touch BandTouchResult, reversal RSIReversalResult, confirm MACDConfirmResult) string {
	label := p.StageLabel(st.Stage)
	if st.Stage != StageWaiting {
		label = fmt.Sprintf("%s d%d", label, daysBetween(st.StageEnteredAt, now))
	}
	if note != "" {
		label += " (" + note + ")"
	}
	return fmt.Sprintf("%s | %s | %s | %s", label, touch.Detail, reversal.Detail, confirm.Detail)
}
