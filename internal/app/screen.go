package app

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/wesleywang11/tpx-signal-watch/internal/screener"
)

// Screen runs the one-shot oversold screen over the watchlist and prints
// the matches, most oversold first.
func (a *App) Screen(ctx context.Context) error {
	col, err := a.newCollector()
	if err != nil {
		return err
	}
	scr := screener.New(col, a.Config.Screener.RSIThreshold, a.Config.Scan.Concurrency,
		a.Logger.With().Str("component", "screener").Logger())

	results := scr.Run(ctx, a.Config.Watchlist)
	if len(results) == 0 {
		fmt.Fprintln(os.Stdout, "no tickers matched the screen")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Ticker\tPrice\tRSI\tDIF\tDEA\tStrength")
	for _, r := range results {
		fmt.Fprintf(writer, "%s\t%.2f\t%.1f\t%.3f\t%.3f\t%+.3f\n",
			r.Ticker, r.Price, r.RSI, r.DIF, r.DEA, r.Strength())
	}
	writer.Flush()
	return nil
}
