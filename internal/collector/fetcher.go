package collector

import (
	"context"

	"github.com/wesleywang11/tpx-signal-watch/internal/model"
)

// Fetcher fetches candlestick bars for a ticker. Implementations return bars
// in chronological order.
type Fetcher interface {
	Bars(ctx context.Context, ticker string, lookbackDays int, interval string) ([]model.Bar, error)
	Name() string
}
