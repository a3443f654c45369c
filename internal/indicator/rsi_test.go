package indicator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRSISeriesWarmup(t *testing.T) {
	closes := []float64{10, 11, 10.5, 11.5, 11, 12}

	rsi, err := RSISeries(closes, 3)
	assert.NoError(t, err)
	assert.Len(t, rsi, 6)
	for i := 0; i < 3; i++ {
		assert.True(t, math.IsNaN(rsi[i]), "index %d should still be warming up", i)
	}
}

func TestRSISeriesRollingMean(t *testing.T) {
	closes := []float64{10, 11, 10.5, 11.5, 11, 12}

	rsi, err := RSISeries(closes, 3)
	assert.NoError(t, err)

	// Deltas: +1, -0.5, +1, -0.5, +1.
	// i=3: gains 2, losses 0.5 => rs 4 => rsi 80.
	// i=4: gains 1, losses 1   => rs 1 => rsi 50.
	// i=5: gains 2, losses 0.5 => rs 4 => rsi 80.
	assert.InDelta(t, 80.0, rsi[3], 1e-9)
	assert.InDelta(t, 50.0, rsi[4], 1e-9)
	assert.InDelta(t, 80.0, rsi[5], 1e-9)
}

func TestRSISeriesAllGains(t *testing.T) {
	closes := []float64{1, 2, 3, 4, 5, 6}

	rsi, err := RSISeries(closes, 3)
	assert.NoError(t, err)
	// No losses in any window: RSI pinned at 100.
	for i := 3; i < len(rsi); i++ {
		assert.InDelta(t, 100.0, rsi[i], 1e-9)
	}
}

func TestRSISeriesAllLosses(t *testing.T) {
	closes := []float64{6, 5, 4, 3, 2, 1}

	rsi, err := RSISeries(closes, 3)
	assert.NoError(t, err)
	for i := 3; i < len(rsi); i++ {
		assert.InDelta(t, 0.0, rsi[i], 1e-9)
	}
}

func TestRSISeriesShortInput(t *testing.T) {
	rsi, err := RSISeries([]float64{1, 2, 3}, 3)
	assert.NoError(t, err)
	for _, v := range rsi {
		assert.True(t, math.IsNaN(v))
	}

	_, err = RSISeries([]float64{1, 2, 3}, 0)
	assert.Error(t, err)
}
