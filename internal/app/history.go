package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"
)

// History prints the most recent persisted alerts.
func (a *App) History(ctx context.Context, limit int) error {
	if a.Config.Database.Driver == "none" {
		return errors.New("database not configured; cannot show history")
	}

	rec, err := a.openRecorder(ctx)
	if err != nil {
		return err
	}
	defer rec.Close()

	alerts, err := rec.RecentAlerts(ctx, limit)
	if err != nil {
		return err
	}
	if len(alerts) == 0 {
		fmt.Fprintln(os.Stdout, "no alerts found")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Fired\tTicker\tVariant\tStage\tStatus")
	for _, al := range alerts {
		fmt.Fprintf(writer, "%s\t%s\t%s\t%d\t%s\n",
			al.FiredAt.Format(time.RFC3339), al.Ticker, al.Variant, al.Stage, sanitizeInline(al.Status))
	}
	writer.Flush()
	return nil
}

func sanitizeInline(v string) string {
	cleaned := strings.ReplaceAll(v, "\n", " ")
	cleaned = strings.ReplaceAll(cleaned, "\r", " ")
	return cleaned
}
