package indicator

import "errors"

// RSISeries computes the relative strength index for every position. Average
// gain and loss are simple rolling means of the last period deltas, not Wilder
// smoothing. Positions with fewer than period+1 closes are NaN. A window with
// zero average loss yields 100.
func RSISeries(closes []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, errors.New("period must be positive")
	}
	out := nanSlice(len(closes))
	if len(closes) < period+1 {
		return out, nil
	}

	gains := make([]float64, len(closes))
	losses := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			gains[i] = d
		} else {
			losses[i] = -d
		}
	}

	var gainSum, lossSum float64
	for i := 1; i < len(closes); i++ {
		gainSum += gains[i]
		lossSum += losses[i]
		if i < period {
			continue
		}
		if i > period {
			gainSum -= gains[i-period]
			lossSum -= losses[i-period]
		}
		avgLoss := lossSum / float64(period)
		if avgLoss == 0 {
			out[i] = 100
			continue
		}
		rs := (gainSum / float64(period)) / avgLoss
		out[i] = 100 - 100/(1+rs)
	}
	return out, nil
}
