package signal

import (
	"fmt"
	"time"

	"github.com/wesleywang11/tpx-signal-watch/internal/indicator"
)

// Stages of the underwater policy.
const (
	StageWaitingGC    = 0
	StageUnderwaterGC = 1
	StageDIFAboveZero = 2
	StageDEAAboveZero = 3
)

// UnderwaterOptions configures the underwater breakout policy.
type UnderwaterOptions struct {
	// RetraceRatio is the fraction of the peak DIF that DEA must fall to
	// before the alert fires.
	RetraceRatio float64
	// SeedLookback bounds the backward scan when inferring the initial stage.
	SeedLookback int
}

// DefaultUnderwaterOptions returns the standard thresholds.
func DefaultUnderwaterOptions() UnderwaterOptions {
	return UnderwaterOptions{RetraceRatio: 0.5, SeedLookback: 100}
}

// Underwater is the breakout retracement policy: a golden cross below the
// zero line arms the machine, DIF then DEA crossing above zero advance it,
// and the alert fires when DEA retraces to a fraction of the peak DIF.
type Underwater struct {
	opts UnderwaterOptions
}

// NewUnderwater creates the policy, filling zero options with defaults.
func NewUnderwater(opts UnderwaterOptions) *Underwater {
	def := DefaultUnderwaterOptions()
	if opts.RetraceRatio <= 0 || opts.RetraceRatio >= 1 {
		opts.RetraceRatio = def.RetraceRatio
	}
	if opts.SeedLookback <= 0 {
		opts.SeedLookback = def.SeedLookback
	}
	return &Underwater{opts: opts}
}

func (p *Underwater) Name() string { return "underwater" }

// InitialState is unseeded: the first evaluation infers the stage from the
// historical series.
func (p *Underwater) InitialState() State { return State{} }

func (p *Underwater) StageLabel(stage int) string {
	switch stage {
	case StageUnderwaterGC:
		return "underwater cross"
	case StageDIFAboveZero:
		return "dif breakout"
	case StageDEAAboveZero:
		return "tracking peak"
	default:
		return "waiting"
	}
}

// Evaluate advances the machine by at most one stage per scan. The zero-line
// safety reset runs before any stage rule.
func (p *Underwater) Evaluate(st State, snap *indicator.Snapshot, now time.Time) (State, string, bool) {
	st = st.Clone()
	if !st.Seeded {
		stage, peak := p.seedStage(snap)
		st.Seeded = true
		if stage != StageWaitingGC {
			st = p.enter(st, stage, now)
			st.Extremum = peak
		}
	}

	// Safety reset: DIF back under the zero line wipes the whole cycle,
	// including the alert guard, regardless of stage.
	if snap.DIF < 0 {
		reset := State{Seeded: true}
		return reset, p.status(reset, "reset: dif below zero", snap), false
	}

	fired := false
	note := ""

	switch st.Stage {
	case StageWaitingGC:
		if snap.DEA < snap.DIF && snap.DIF < 0 {
			st = p.enter(st, StageUnderwaterGC, now)
		}

	case StageUnderwaterGC:
		switch {
		case snap.DIF > 0:
			st = p.enter(st, StageDIFAboveZero, now)
			note = "breakout"
		case snap.DIF < snap.DEA:
			st = State{Seeded: true}
			note = "death cross"
		}

	case StageDIFAboveZero:
		if snap.DEA > 0 {
			st = p.enter(st, StageDEAAboveZero, now)
			st.Extremum = p.peakSinceBreakout(snap)
		}

	case StageDEAAboveZero:
		if snap.DIF > st.Extremum {
			st.Extremum = snap.DIF
		}
		if st.Extremum > 0 && snap.DEA <= st.Extremum*p.opts.RetraceRatio {
			if !sameDay(st.LastAlertDate, now) {
				st.LastAlertDate = dateOf(now)
				fired = true
				note = "retrace alert"
			}
		}

	default:
		st = State{Seeded: true}
		note = "unknown stage"
	}

	return st, p.status(st, note, snap), fired
}

func (p *Underwater) enter(st State, stage int, now time.Time) State {
	st.Stage = stage
	st.StageEnteredAt = dateOf(now)
	st.History = append(st.History, Transition{Stage: stage, At: dateOf(now)})
	return st
}

// seedStage infers the stage a ticker is already in from the historical
// DIF/DEA series, so a watcher started mid-cycle does not miss a breakout
// already underway.
func (p *Underwater) seedStage(snap *indicator.Snapshot) (int, float64) {
	dif, dea := snap.DIFSeries, snap.DEASeries
	n := len(dif)
	if n == 0 || n != len(dea) {
		return StageWaitingGC, 0
	}
	cur, curDEA := dif[n-1], dea[n-1]
	start := n - p.opts.SeedLookback
	if start < 0 {
		start = 0
	}

	switch {
	case cur > 0 && curDEA > 0:
		// Walk back to the most recent underwater bar; a golden cross there
		// plus a DIF zero crossing since means the breakout already happened.
		underwaterGC := false
		difCross := -1
		for i := n - 1; i > start; i-- {
			if dif[i] < 0 {
				underwaterGC = dea[i] < dif[i]
				break
			}
			if dif[i-1] < 0 && dif[i] > 0 {
				difCross = i
			}
		}
		if underwaterGC && difCross >= 0 {
			for i := difCross; i < n; i++ {
				if dea[i] > 0 {
					peak := dif[i]
					for j := i; j < n; j++ {
						if dif[j] > peak {
							peak = dif[j]
						}
					}
					return StageDEAAboveZero, peak
				}
			}
			return StageDIFAboveZero, 0
		}
		return StageWaitingGC, 0

	case cur > 0 && curDEA < 0:
		for i := n - 1; i > start; i-- {
			if dif[i] < 0 && dea[i] < dif[i] {
				return StageDIFAboveZero, 0
			}
		}
		return StageWaitingGC, 0

	case curDEA < cur && cur < 0:
		return StageUnderwaterGC, 0

	default:
		return StageWaitingGC, 0
	}
}

// peakSinceBreakout finds the highest DIF since the most recent zero
// up-crossing, falling back to the current DIF when none is in range.
func (p *Underwater) peakSinceBreakout(snap *indicator.Snapshot) float64 {
	dif := snap.DIFSeries
	n := len(dif)
	start := n - p.opts.SeedLookback
	if start < 0 {
		start = 0
	}
	for i := n - 1; i > start; i-- {
		if dif[i-1] < 0 && dif[i] > 0 {
			peak := dif[i]
			for j := i; j < n; j++ {
				if dif[j] > peak {
					peak = dif[j]
				}
			}
			return peak
		}
	}
	return snap.DIF
}

func (p *Underwater) status(st State, note string, snap *indicator.Snapshot) string {
	label := p.StageLabel(st.Stage)
	if note != "" {
		label += " (" + note + ")"
	}
	if st.Stage == StageDEAAboveZero {
		return fmt.Sprintf("%s | dif %.3f dea %.3f peak %.3f floor %.3f",
			label, snap.DIF, snap.DEA, st.Extremum, st.Extremum*p.opts.RetraceRatio)
	}
	return fmt.Sprintf("%s | dif %.3f dea %.3f", label, snap.DIF, snap.DEA)
}
