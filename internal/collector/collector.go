package collector

import (
	"context"
	"fmt"

	"github.com/wesleywang11/tpx-signal-watch/internal/indicator"
	"github.com/wesleywang11/tpx-signal-watch/internal/model"
)

// Collector fetches a ticker's bars and computes its indicator snapshot.
type Collector struct {
	Fetcher      Fetcher
	LookbackDays int
	Interval     string
	Indicators   indicator.Config
}

// NewCollector creates a collector for the given data source and parameters.
func NewCollector(f Fetcher, lookbackDays int, interval string, ind indicator.Config) *Collector {
	return &Collector{
		Fetcher:      f,
		LookbackDays: lookbackDays,
		Interval:     interval,
		Indicators:   ind,
	}
}

// Snapshot runs one fetch-and-compute for a ticker.
func (c *Collector) Snapshot(ctx context.Context, ticker string) (*indicator.Snapshot, error) {
	bars, err := c.Fetcher.Bars(ctx, ticker, c.LookbackDays, c.Interval)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", ticker, err)
	}
	return indicator.Compute(ticker, bars, c.Indicators)
}

// Bars fetches the raw bars for a ticker with the collector's parameters.
func (c *Collector) Bars(ctx context.Context, ticker string) ([]model.Bar, error) {
	return c.Fetcher.Bars(ctx, ticker, c.LookbackDays, c.Interval)
}
