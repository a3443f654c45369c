package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wesleywang11/tpx-signal-watch/internal/indicator"
)

func macdSnap(dif, dea []float64) *indicator.Snapshot {
	return &indicator.Snapshot{
		DIF:       dif[len(dif)-1],
		DEA:       dea[len(dea)-1],
		DIFSeries: dif,
		DEASeries: dea,
	}
}

func TestUnderwaterGlobalReset(t *testing.T) {
	p := NewUnderwater(UnderwaterOptions{})
	st := State{
		Stage:          StageDEAAboveZero,
		StageEnteredAt: dateOf(day(0)),
		Extremum:       0.9,
		LastAlertDate:  dateOf(day(0)),
		History:        []Transition{{Stage: StageDEAAboveZero, At: dateOf(day(0))}},
		Seeded:         true,
	}

	// DIF dipping below zero wipes everything, whatever DEA says.
	snap := macdSnap([]float64{0.5, -0.1}, []float64{0.4, 0.2})
	next, status, fired := p.Evaluate(st, snap, day(1))
	assert.False(t, fired)
	assert.Equal(t, StageWaitingGC, next.Stage)
	assert.Zero(t, next.Extremum)
	assert.True(t, next.LastAlertDate.IsZero())
	assert.Empty(t, next.History)
	assert.Contains(t, status, "reset: dif below zero")
}

func TestUnderwaterFirstObservationUnderwater(t *testing.T) {
	p := NewUnderwater(UnderwaterOptions{})

	// Underwater golden cross in progress: DEA < DIF < 0. The zero-line
	// reset still wins, so the machine waits for the breakout itself.
	snap := macdSnap([]float64{-1, -0.8, -0.5}, []float64{-0.9, -0.85, -0.7})
	st, status, fired := p.Evaluate(p.InitialState(), snap, day(0))
	assert.False(t, fired)
	assert.True(t, st.Seeded)
	assert.Equal(t, StageWaitingGC, st.Stage)
	assert.Contains(t, status, "reset")
}

func TestUnderwaterSeedsPeakTracking(t *testing.T) {
	p := NewUnderwater(UnderwaterOptions{})
	// Underwater cross at the start, DIF then DEA above zero since.
	dif := []float64{-1, -0.8, -0.5, 0.2, 0.6, 0.9, 0.7}
	dea := []float64{-0.9, -0.85, -0.6, -0.2, 0.1, 0.4, 0.5}

	st, status, fired := p.Evaluate(p.InitialState(), macdSnap(dif, dea), day(0))
	assert.False(t, fired)
	assert.Equal(t, StageDEAAboveZero, st.Stage)
	// Peak DIF once DEA followed above zero: max(0.6, 0.9, 0.7).
	assert.InDelta(t, 0.9, st.Extremum, 1e-9)
	assert.Contains(t, status, "peak 0.900")
}

func TestUnderwaterSeedsBreakout(t *testing.T) {
	p := NewUnderwater(UnderwaterOptions{})
	// DIF already above zero, DEA still under: mid-breakout.
	dif := []float64{-1, -0.7, 0.3, 0.5}
	dea := []float64{-0.9, -0.8, -0.4, -0.1}

	st, _, fired := p.Evaluate(p.InitialState(), macdSnap(dif, dea), day(0))
	assert.False(t, fired)
	assert.Equal(t, StageDIFAboveZero, st.Stage)
}

func TestUnderwaterSeedIgnoresDirectBullish(t *testing.T) {
	p := NewUnderwater(UnderwaterOptions{})
	// Both lines positive with no underwater history: not our setup.
	dif := []float64{0.1, 0.2, 0.3, 0.4}
	dea := []float64{0.3, 0.25, 0.2, 0.3}

	st, _, fired := p.Evaluate(p.InitialState(), macdSnap(dif, dea), day(0))
	assert.False(t, fired)
	assert.True(t, st.Seeded)
	assert.Equal(t, StageWaitingGC, st.Stage)
}

func TestUnderwaterBreakout(t *testing.T) {
	p := NewUnderwater(UnderwaterOptions{})
	st := State{Stage: StageUnderwaterGC, StageEnteredAt: dateOf(day(0)), Seeded: true}

	snap := macdSnap([]float64{-0.1, 0.2}, []float64{-0.2, -0.1})
	next, status, fired := p.Evaluate(st, snap, day(1))
	assert.False(t, fired)
	assert.Equal(t, StageDIFAboveZero, next.Stage)
	assert.Contains(t, status, "breakout")
}

func TestUnderwaterDeathCross(t *testing.T) {
	p := NewUnderwater(UnderwaterOptions{})
	st := State{Stage: StageUnderwaterGC, StageEnteredAt: dateOf(day(0)), Seeded: true}

	snap := macdSnap([]float64{-0.1, 0}, []float64{-0.05, 0.1})
	next, status, fired := p.Evaluate(st, snap, day(1))
	assert.False(t, fired)
	assert.Equal(t, StageWaitingGC, next.Stage)
	assert.Contains(t, status, "death cross")
}

func TestUnderwaterDEABreakoutEntersPeakTracking(t *testing.T) {
	p := NewUnderwater(UnderwaterOptions{})
	st := State{Stage: StageDIFAboveZero, StageEnteredAt: dateOf(day(0)), Seeded: true}

	dif := []float64{-1, -0.7, 0.3, 0.5, 0.6}
	dea := []float64{-0.9, -0.8, -0.4, -0.1, 0.05}
	next, _, fired := p.Evaluate(st, macdSnap(dif, dea), day(1))
	assert.False(t, fired)
	assert.Equal(t, StageDEAAboveZero, next.Stage)
	// Highest DIF since the zero-line crossing.
	assert.InDelta(t, 0.6, next.Extremum, 1e-9)
}

func TestUnderwaterRetraceAlert(t *testing.T) {
	p := NewUnderwater(UnderwaterOptions{})
	dif := []float64{-1, -0.8, -0.5, 0.2, 0.6, 0.9, 0.7}
	dea := []float64{-0.9, -0.85, -0.6, -0.2, 0.1, 0.4, 0.5}
	st, _, _ := p.Evaluate(p.InitialState(), macdSnap(dif, dea), day(0))
	assert.Equal(t, StageDEAAboveZero, st.Stage)

	// DEA retraces to half the 0.9 peak.
	retraceDIF := []float64{-1, -0.8, -0.5, 0.2, 0.6, 0.9, 0.7, 0.5}
	retraceDEA := []float64{-0.9, -0.85, -0.6, -0.2, 0.1, 0.4, 0.5, 0.45}
	retrace := macdSnap(retraceDIF, retraceDEA)

	st, status, fired := p.Evaluate(st, retrace, day(3))
	assert.True(t, fired)
	assert.Contains(t, status, "retrace alert")
	assert.Equal(t, dateOf(day(3)), st.LastAlertDate)

	// Second scan the same day stays quiet.
	again, _, fired2 := p.Evaluate(st, retrace, day(3))
	assert.False(t, fired2)
	assert.Equal(t, StageDEAAboveZero, again.Stage)

	// A later day fires again while still retraced.
	_, _, fired3 := p.Evaluate(st, retrace, day(4))
	assert.True(t, fired3)
}

func TestUnderwaterPeakFollowsDIF(t *testing.T) {
	p := NewUnderwater(UnderwaterOptions{})
	st := State{Stage: StageDEAAboveZero, Extremum: 0.9, Seeded: true}

	snap := macdSnap([]float64{0.9, 1.4}, []float64{0.7, 0.8})
	next, _, fired := p.Evaluate(st, snap, day(1))
	assert.False(t, fired)
	assert.InDelta(t, 1.4, next.Extremum, 1e-9)
}

func TestUnderwaterEvaluateIsPure(t *testing.T) {
	p := NewUnderwater(UnderwaterOptions{})
	st := State{
		Stage:          StageDEAAboveZero,
		StageEnteredAt: dateOf(day(0)),
		Extremum:       0.9,
		History:        []Transition{{Stage: StageDEAAboveZero, At: dateOf(day(0))}},
		Seeded:         true,
	}
	snap := macdSnap([]float64{0.7, 0.5}, []float64{0.5, 0.45})

	a, statusA, firedA := p.Evaluate(st, snap, day(3))
	b, statusB, firedB := p.Evaluate(st, snap, day(3))

	assert.True(t, firedA)
	assert.Equal(t, firedA, firedB)
	assert.Equal(t, statusA, statusB)
	assert.Equal(t, a, b)
	// The alert guard lands in the returned state, not the input.
	assert.True(t, st.LastAlertDate.IsZero())
	assert.Equal(t, StageDEAAboveZero, st.Stage)
}

func TestUnderwaterOptionDefaults(t *testing.T) {
	p := NewUnderwater(UnderwaterOptions{RetraceRatio: 1.5})
	assert.Equal(t, DefaultUnderwaterOptions(), p.opts)
}

func TestUnderwaterStageLabels(t *testing.T) {
	p := NewUnderwater(UnderwaterOptions{})
	assert.Equal(t, "waiting", p.StageLabel(StageWaitingGC))
	assert.Equal(t, "underwater cross", p.StageLabel(StageUnderwaterGC))
	assert.Equal(t, "dif breakout", p.StageLabel(StageDIFAboveZero))
	assert.Equal(t, "tracking peak", p.StageLabel(StageDEAAboveZero))
}
