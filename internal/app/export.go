package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"

	"github.com/wesleywang11/tpx-signal-watch/internal/indicator"
	"github.com/wesleywang11/tpx-signal-watch/internal/model"
)

// Export renders a ticker's close series with its Bollinger bands as a PNG.
func (a *App) Export(ctx context.Context, ticker, pngPath string) error {
	if ticker == "" {
		return errors.New("ticker is required")
	}
	if pngPath == "" {
		return errors.New("output path is required")
	}

	col, err := a.newCollector()
	if err != nil {
		return err
	}
	bars, err := col.Bars(ctx, ticker)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", ticker, err)
	}

	period := a.Config.Policy.Bollinger.Period
	if len(bars) < period {
		return fmt.Errorf("%s has %d bars, need %d for the bands", ticker, len(bars), period)
	}

	closes := model.Closes(bars)
	mid, lower, upper, err := indicator.BollingerSeries(closes, period, a.Config.Policy.Bollinger.StdDev)
	if err != nil {
		return err
	}

	// Drop the warmup prefix; the band values there are NaN.
	start := period - 1
	x := make([]time.Time, 0, len(bars)-start)
	for _, b := range bars[start:] {
		x = append(x, b.Time)
	}

	graph := chart.Chart{
		Title:  ticker,
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatter,
		},
		YAxis: chart.YAxis{
			Name: "Price",
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Close",
				XValues: x,
				YValues: closes[start:],
			},
			chart.TimeSeries{
				Name:    fmt.Sprintf("SMA%d", period),
				XValues: x,
				YValues: mid[start:],
			},
			chart.TimeSeries{
				Name:    "Lower band",
				XValues: x,
				YValues: lower[start:],
			},
			chart.TimeSeries{
				Name:    "Upper band",
				XValues: x,
				YValues: upper[start:],
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	if err := ensureDir(pngPath); err != nil {
		return err
	}
	file, err := os.Create(pngPath)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := graph.Render(chart.PNG, file); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	a.Logger.Info().Str("ticker", ticker).Str("path", pngPath).Int("bars", len(x)).Msg("chart exported")
	return nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
