package collector

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/wesleywang11/tpx-signal-watch/internal/indicator"
)

func TestCollectorSnapshot(t *testing.T) {
	c := NewCollector(&MockFetcher{Price: 100}, 60, "1d", indicator.DefaultConfig())

	snap, err := c.Snapshot(context.Background(), "7203.T")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.Ticker != "7203.T" {
		t.Errorf("ticker = %q", snap.Ticker)
	}
	if snap.Close <= 0 {
		t.Errorf("close = %v, want positive", snap.Close)
	}
	// The mock ramps upward, so the RSI saturates.
	if snap.RSI != 100 {
		t.Errorf("rsi = %v, want 100 on a monotone ramp", snap.RSI)
	}
}

func TestCollectorSnapshotWrapsFetchError(t *testing.T) {
	c := NewCollector(&MockFetcher{Err: errors.New("feed down")}, 60, "1d", indicator.DefaultConfig())

	_, err := c.Snapshot(context.Background(), "7203.T")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "7203.T") {
		t.Errorf("error %q should name the ticker", err)
	}
}

func TestCollectorSnapshotInsufficientData(t *testing.T) {
	c := NewCollector(&MockFetcher{Data: generateBars(100, 5)}, 60, "1d", indicator.DefaultConfig())

	_, err := c.Snapshot(context.Background(), "7203.T")
	if !errors.Is(err, indicator.ErrInsufficientData) {
		t.Errorf("err = %v, want ErrInsufficientData", err)
	}
}

func TestCollectorBarsPassThrough(t *testing.T) {
	c := NewCollector(&MockFetcher{}, 45, "1d", indicator.DefaultConfig())

	bars, err := c.Bars(context.Background(), "7203.T")
	if err != nil {
		t.Fatalf("bars: %v", err)
	}
	if len(bars) != 45 {
		t.Errorf("got %d bars, want the 45-day lookback", len(bars))
	}
}

func TestMockFetcherGeneratesRequestedWindow(t *testing.T) {
	f := &MockFetcher{}
	bars, err := f.Bars(context.Background(), "X", 45, "1d")
	if err != nil {
		t.Fatal(err)
	}
	if len(bars) != 45 {
		t.Fatalf("got %d bars, want 45", len(bars))
	}
	for i := 1; i < len(bars); i++ {
		if !bars[i].Time.After(bars[i-1].Time) {
			t.Fatalf("bar %d time %v not after %v", i, bars[i].Time, bars[i-1].Time)
		}
		if bars[i].Close <= 0 {
			t.Fatalf("bar %d close %v not positive", i, bars[i].Close)
		}
	}
}
