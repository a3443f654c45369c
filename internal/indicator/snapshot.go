package indicator

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/wesleywang11/tpx-signal-watch/internal/model"
)

var (
	// ErrInsufficientData marks a series too short to compute all indicators.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrComputation marks a malformed series (non-finite closes, bars out of order).
	ErrComputation = errors.New("indicator computation failed")
)

// Config holds indicator parameters.
type Config struct {
	BollPeriod int
	BollWidth  float64
	RSIPeriod  int
	RSIHistory int
	MACDFast   int
	MACDSlow   int
	MACDSignal int
	MinBars    int
}

// DefaultConfig returns the standard parameter set.
func DefaultConfig() Config {
	return Config{
		BollPeriod: 20,
		BollWidth:  2.0,
		RSIPeriod:  14,
		RSIHistory: 10,
		MACDFast:   12,
		MACDSlow:   26,
		MACDSignal: 9,
		MinBars:    30,
	}
}

// Snapshot holds everything the signal policies read for one ticker on one
// scan: the latest bar, the current and previous indicator values, and the
// full DIF/DEA series for stage seeding.
type Snapshot struct {
	Ticker string
	At     time.Time

	Close float64
	Low   float64

	Mid    float64
	StdDev float64
	Lower  float64
	Upper  float64

	RSI     float64
	PrevRSI float64
	RSILow  float64

	DIF      float64
	DEA      float64
	Hist     float64
	PrevDIF  float64
	PrevDEA  float64
	PrevHist float64

	DIFSeries []float64
	DEASeries []float64
}

// Compute builds a Snapshot from chronologically ascending bars.
func Compute(ticker string, bars []model.Bar, cfg Config) (*Snapshot, error) {
	if len(bars) < cfg.MinBars {
		return nil, fmt.Errorf("%w: %s has %d bars, need %d", ErrInsufficientData, ticker, len(bars), cfg.MinBars)
	}
	if n := len(bars); n < cfg.BollPeriod || n < cfg.RSIPeriod+2 || n < cfg.MACDSlow {
		return nil, fmt.Errorf("%w: %s has %d bars, too few for configured periods", ErrInsufficientData, ticker, len(bars))
	}

	closes := model.Closes(bars)
	for i, c := range closes {
		if math.IsNaN(c) || math.IsInf(c, 0) || c <= 0 {
			return nil, fmt.Errorf("%w: %s has bad close %v at bar %d", ErrComputation, ticker, c, i)
		}
		if i > 0 && bars[i].Time.Before(bars[i-1].Time) {
			return nil, fmt.Errorf("%w: %s bars out of order at %d", ErrComputation, ticker, i)
		}
	}

	mid, stddev, lower, upper, err := Bollinger(closes, cfg.BollPeriod, cfg.BollWidth)
	if err != nil {
		return nil, fmt.Errorf("%w: %s bollinger: %v", ErrComputation, ticker, err)
	}

	rsi, err := RSISeries(closes, cfg.RSIPeriod)
	if err != nil {
		return nil, fmt.Errorf("%w: %s rsi: %v", ErrComputation, ticker, err)
	}
	n := len(closes)
	if math.IsNaN(rsi[n-1]) || math.IsNaN(rsi[n-2]) {
		return nil, fmt.Errorf("%w: %s rsi warmup not complete", ErrInsufficientData, ticker)
	}
	rsiLow := rsi[n-1]
	for i, count := n-1, 0; i >= 0 && count < cfg.RSIHistory; i, count = i-1, count+1 {
		if math.IsNaN(rsi[i]) {
			break
		}
		if rsi[i] < rsiLow {
			rsiLow = rsi[i]
		}
	}

	dif, dea, hist, err := MACDSeries(closes, cfg.MACDFast, cfg.MACDSlow, cfg.MACDSignal)
	if err != nil {
		return nil, fmt.Errorf("%w: %s macd: %v", ErrComputation, ticker, err)
	}

	last := bars[n-1]
	return &Snapshot{
		Ticker:    ticker,
		At:        last.Time,
		Close:     last.Close,
		Low:       last.Low,
		Mid:       mid,
		StdDev:    stddev,
		Lower:     lower,
		Upper:     upper,
		RSI:       rsi[n-1],
		PrevRSI:   rsi[n-2],
		RSILow:    rsiLow,
		DIF:       dif[n-1],
		DEA:       dea[n-1],
		Hist:      hist[n-1],
		PrevDIF:   dif[n-2],
		PrevDEA:   dea[n-2],
		PrevHist:  hist[n-2],
		DIFSeries: dif,
		DEASeries: dea,
	}, nil
}
