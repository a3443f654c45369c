package recorder

import (
	"context"
	"time"
)

// AlertRecord is a persisted alert emission.
type AlertRecord struct {
	ID      string
	Ticker  string
	Variant string
	Stage   int
	Status  string
	FiredAt time.Time
}

// TransitionRecord captures a single stage change with the indicator
// values that drove it.
type TransitionRecord struct {
	Ticker    string
	FromStage int
	ToStage   int
	At        time.Time
	Price     float64
	RSI       float64
	DIF       float64
	DEA       float64
}

// ScanRecord summarises one scan cycle over the watchlist.
type ScanRecord struct {
	At       time.Time
	Tickers  int
	Alerts   int
	Errors   int
	Duration time.Duration
}

// Recorder persists historical data for later analysis.
type Recorder interface {
	RecordAlert(ctx context.Context, rec AlertRecord) error
	RecordTransition(ctx context.Context, rec TransitionRecord) error
	RecordScan(ctx context.Context, rec ScanRecord) error
	RecentAlerts(ctx context.Context, limit int) ([]AlertRecord, error)
	Close() error
}
