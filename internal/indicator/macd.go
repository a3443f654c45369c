package indicator

import "errors"

// EMASeries computes the exponential moving average with alpha = 2/(span+1),
// seeded with the first value of the series.
func EMASeries(values []float64, span int) ([]float64, error) {
	if span <= 0 {
		return nil, errors.New("span must be positive")
	}
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out, nil
	}
	alpha := 2.0 / float64(span+1)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out, nil
}

// MACDSeries computes DIF (fast EMA minus slow EMA), DEA (signal-span EMA of
// DIF) and the histogram (DIF minus DEA) for every position.
func MACDSeries(closes []float64, fast, slow, signal int) (dif, dea, hist []float64, err error) {
	if fast <= 0 || slow <= 0 || signal <= 0 {
		return nil, nil, nil, errors.New("spans must be positive")
	}
	if fast >= slow {
		return nil, nil, nil, errors.New("fast span must be shorter than slow span")
	}
	fastEMA, err := EMASeries(closes, fast)
	if err != nil {
		return nil, nil, nil, err
	}
	slowEMA, err := EMASeries(closes, slow)
	if err != nil {
		return nil, nil, nil, err
	}
	dif = make([]float64, len(closes))
	for i := range closes {
		dif[i] = fastEMA[i] - slowEMA[i]
	}
	dea, err = EMASeries(dif, signal)
	if err != nil {
		return nil, nil, nil, err
	}
	hist = make([]float64, len(closes))
	for i := range closes {
		hist[i] = dif[i] - dea[i]
	}
	return dif, dea, hist, nil
}
