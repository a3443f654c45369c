package indicator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSMA(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}

	avg, err := SMA(values, 3)
	assert.NoError(t, err)
	// Last 3 values: 3,4,5 => 12/3 = 4
	assert.InDelta(t, 4.0, avg, 1e-9)

	_, err = SMA(values, 0)
	assert.Error(t, err)

	_, err = SMA([]float64{1, 2}, 3)
	assert.Error(t, err)
}

func TestBollingerPopulationStdDev(t *testing.T) {
	// Window 2,4,4,4,5,5,7,9: mean 5, population variance 32/8 = 4.
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}

	mid, stddev, lower, upper, err := Bollinger(values, 8, 2)
	assert.NoError(t, err)
	assert.InDelta(t, 5.0, mid, 1e-9)
	assert.InDelta(t, 2.0, stddev, 1e-9)
	assert.InDelta(t, 1.0, lower, 1e-9)
	assert.InDelta(t, 9.0, upper, 1e-9)
}

func TestBollingerUsesOnlyLastWindow(t *testing.T) {
	// A wild value outside the window must not move the bands.
	values := []float64{1000, 2, 4, 4, 4, 5, 5, 7, 9}

	mid, stddev, _, _, err := Bollinger(values, 8, 2)
	assert.NoError(t, err)
	assert.InDelta(t, 5.0, mid, 1e-9)
	assert.InDelta(t, 2.0, stddev, 1e-9)
}

func TestBollingerFlatWindow(t *testing.T) {
	values := []float64{5, 5, 5, 5}

	mid, stddev, lower, upper, err := Bollinger(values, 4, 2)
	assert.NoError(t, err)
	assert.InDelta(t, 5.0, mid, 1e-9)
	assert.Zero(t, stddev)
	assert.InDelta(t, 5.0, lower, 1e-9)
	assert.InDelta(t, 5.0, upper, 1e-9)
}

func TestBollingerSeriesWarmup(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}

	mid, lower, upper, err := BollingerSeries(values, 3, 2)
	assert.NoError(t, err)
	assert.Len(t, mid, 5)

	// Positions without a full window stay NaN.
	assert.True(t, math.IsNaN(mid[0]))
	assert.True(t, math.IsNaN(mid[1]))
	assert.True(t, math.IsNaN(lower[1]))
	assert.True(t, math.IsNaN(upper[1]))

	// Window 1,2,3: mean 2. Window 3,4,5: mean 4, stddev sqrt(2/3).
	assert.InDelta(t, 2.0, mid[2], 1e-9)
	assert.InDelta(t, 4.0, mid[4], 1e-9)
	sd := math.Sqrt(2.0 / 3.0)
	assert.InDelta(t, 4-2*sd, lower[4], 1e-9)
	assert.InDelta(t, 4+2*sd, upper[4], 1e-9)
}

func TestBollingerSeriesRejectsBadPeriod(t *testing.T) {
	_, _, _, err := BollingerSeries([]float64{1, 2, 3}, 0, 2)
	assert.Error(t, err)
}
