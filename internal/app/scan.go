package app

import (
	"context"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/wesleywang11/tpx-signal-watch/internal/metrics"
	signalpkg "github.com/wesleywang11/tpx-signal-watch/internal/signal"
)

// ScanOnce runs a single watchlist scan and prints the resulting states.
func (a *App) ScanOnce(ctx context.Context) error {
	rec, err := a.openRecorder(ctx)
	if err != nil {
		return err
	}
	defer rec.Close()

	policy := a.newPolicy()
	store := signalpkg.NewStore(policy.InitialState())
	m := metrics.NewMetrics()
	health := metrics.NewHealthStatus()
	health.SetWatchlist(len(a.Config.Watchlist))

	sched, err := a.newScheduler(ctx, rec, store, policy, m, health)
	if err != nil {
		return err
	}
	summary := sched.Scan(ctx)

	states := store.States()
	tickers := make([]string, 0, len(states))
	for t := range states {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Ticker\tStage\tExtremum\tLast alert")
	for _, t := range tickers {
		st := states[t]
		lastAlert := "-"
		if !st.LastAlertDate.IsZero() {
			lastAlert = st.LastAlertDate.Format("2006-01-02")
		}
		fmt.Fprintf(writer, "%s\t%s\t%.2f\t%s\n", t, policy.StageLabel(st.Stage), st.Extremum, lastAlert)
	}
	writer.Flush()

	fmt.Fprintf(os.Stdout, "\nscanned %d tickers in %s: %d alerts, %d errors\n",
		summary.Tickers, summary.Duration.Round(time.Millisecond), summary.Alerts, summary.Errors)
	return nil
}
