package collector

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2"

	"github.com/wesleywang11/tpx-signal-watch/internal/model"
)

// BinanceFetcher implements Fetcher using Binance spot klines, for crypto
// watchlists (symbols like BTCUSDT).
type BinanceFetcher struct {
	client *binance.Client
}

// NewBinanceFetcher creates a Binance fetcher. Key and secret may be empty;
// kline endpoints are public.
func NewBinanceFetcher(apiKey, apiSecret string) *BinanceFetcher {
	return &BinanceFetcher{client: binance.NewClient(apiKey, apiSecret)}
}

func (f *BinanceFetcher) Name() string { return "binance" }

// binanceInterval translates shared interval names to Binance ones.
func binanceInterval(interval string) string {
	if interval == "1wk" {
		return "1w"
	}
	return interval
}

// klineLimit converts a lookback in days to a kline count, capped at the API
// maximum of 1000.
func klineLimit(interval string, days int) int {
	var n int
	switch interval {
	case "5m":
		n = days * 288
	case "15m":
		n = days * 96
	case "1h":
		n = days * 24
	case "1wk":
		n = days / 7
	default:
		n = days
	}
	if n < 2 {
		n = 2
	}
	if n > 1000 {
		n = 1000
	}
	return n
}

// Bars fetches klines covering lookbackDays at the given interval.
func (f *BinanceFetcher) Bars(ctx context.Context, ticker string, lookbackDays int, interval string) ([]model.Bar, error) {
	klines, err := f.client.NewKlinesService().
		Symbol(ticker).
		Interval(binanceInterval(interval)).
		Limit(klineLimit(interval, lookbackDays)).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("binance klines %s: %w", ticker, err)
	}

	bars := make([]model.Bar, 0, len(klines))
	for _, k := range klines {
		bar, err := klineToBar(k)
		if err != nil {
			return nil, fmt.Errorf("binance kline %s: %w", ticker, err)
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

func klineToBar(k *binance.Kline) (model.Bar, error) {
	var (
		bar model.Bar
		err error
	)
	if bar.Open, err = strconv.ParseFloat(k.Open, 64); err != nil {
		return model.Bar{}, fmt.Errorf("parse open %q: %w", k.Open, err)
	}
	if bar.High, err = strconv.ParseFloat(k.High, 64); err != nil {
		return model.Bar{}, fmt.Errorf("parse high %q: %w", k.High, err)
	}
	if bar.Low, err = strconv.ParseFloat(k.Low, 64); err != nil {
		return model.Bar{}, fmt.Errorf("parse low %q: %w", k.Low, err)
	}
	if bar.Close, err = strconv.ParseFloat(k.Close, 64); err != nil {
		return model.Bar{}, fmt.Errorf("parse close %q: %w", k.Close, err)
	}
	if bar.Volume, err = strconv.ParseFloat(k.Volume, 64); err != nil {
		return model.Bar{}, fmt.Errorf("parse volume %q: %w", k.Volume, err)
	}
	bar.Time = time.Unix(k.OpenTime/1000, 0)
	return bar, nil
}
