package screener

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/wesleywang11/tpx-signal-watch/internal/collector"
)

// Result is one ticker that passed the screen.
type Result struct {
	Ticker string
	Price  float64
	RSI    float64
	DIF    float64
	DEA    float64
}

// Strength is the MACD fast-line lead over the signal line.
func (r Result) Strength() float64 { return r.DIF - r.DEA }

// Screener runs a one-shot oversold scan over a ticker list: RSI below
// the threshold with DIF above DEA.
type Screener struct {
	collector   *collector.Collector
	threshold   float64
	concurrency int
	log         zerolog.Logger
}

func New(c *collector.Collector, threshold float64, concurrency int, log zerolog.Logger) *Screener {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Screener{
		collector:   c,
		threshold:   threshold,
		concurrency: concurrency,
		log:         log,
	}
}

// Run evaluates every ticker and returns the matches sorted by RSI,
// most oversold first. Tickers that fail to fetch are logged and skipped.
func (s *Screener) Run(ctx context.Context, tickers []string) []Result {
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []Result
	)
	sem := make(chan struct{}, s.concurrency)

	for _, ticker := range tickers {
		wg.Add(1)
		go func(t string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			snap, err := s.collector.Snapshot(ctx, t)
			if err != nil {
				s.log.Warn().Err(err).Str("ticker", t).Msg("screen skipped")
				return
			}
			if snap.RSI >= s.threshold || snap.DIF <= snap.DEA {
				return
			}

			mu.Lock()
			results = append(results, Result{
				Ticker: t,
				Price:  snap.Close,
				RSI:    snap.RSI,
				DIF:    snap.DIF,
				DEA:    snap.DEA,
			})
			mu.Unlock()
		}(ticker)
	}
	wg.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].RSI < results[j].RSI })
	return results
}
