package indicator

import (
	"errors"
	"math"
)

// SMA computes the simple moving average of the last period values.
func SMA(values []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(values) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	sum := 0.0
	for i := len(values) - period; i < len(values); i++ {
		sum += values[i]
	}
	return sum / float64(period), nil
}

// Bollinger computes the middle band, standard deviation and lower/upper bands
// over the last period values. The standard deviation is the population one
// (divide by n), so a flat window yields exactly zero width.
func Bollinger(values []float64, period int, width float64) (mid, stddev, lower, upper float64, err error) {
	mid, err = SMA(values, period)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	variance := 0.0
	for i := len(values) - period; i < len(values); i++ {
		d := values[i] - mid
		variance += d * d
	}
	stddev = math.Sqrt(variance / float64(period))
	lower = mid - width*stddev
	upper = mid + width*stddev
	return mid, stddev, lower, upper, nil
}

// BollingerSeries computes the rolling middle and lower/upper bands for every
// position. Positions with fewer than period values are NaN.
func BollingerSeries(values []float64, period int, width float64) (mid, lower, upper []float64, err error) {
	if period <= 0 {
		return nil, nil, nil, errors.New("period must be positive")
	}
	mid = nanSlice(len(values))
	lower = nanSlice(len(values))
	upper = nanSlice(len(values))
	for i := period - 1; i < len(values); i++ {
		m, _, lo, up, berr := Bollinger(values[:i+1], period, width)
		if berr != nil {
			return nil, nil, nil, berr
		}
		mid[i], lower[i], upper[i] = m, lo, up
	}
	return mid, lower, upper, nil
}

func nanSlice(n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = math.NaN()
	}
	return s
}
