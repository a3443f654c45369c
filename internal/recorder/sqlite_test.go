package recorder

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func testRecorder(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open recorder: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestSQLiteRecorderRoundTrip(t *testing.T) {
	r := testRecorder(t)
	ctx := context.Background()
	base := time.Date(2024, time.March, 6, 10, 0, 0, 0, time.UTC)

	for i, id := range []string{"01A", "01B", "01C"} {
		err := r.RecordAlert(ctx, AlertRecord{
			ID:      id,
			Ticker:  "7203.T",
			Variant: "three-track",
			Stage:   3,
			Status:  "confirmed",
			FiredAt: base.Add(time.Duration(i) * time.Hour),
		})
		if err != nil {
			t.Fatalf("record alert %s: %v", id, err)
		}
	}

	got, err := r.RecentAlerts(ctx, 2)
	if err != nil {
		t.Fatalf("recent alerts: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d alerts, want 2", len(got))
	}
	if got[0].ID != "01C" || got[1].ID != "01B" {
		t.Errorf("order = [%s %s], want newest first [01C 01B]", got[0].ID, got[1].ID)
	}
	if !got[0].FiredAt.Equal(base.Add(2 * time.Hour)) {
		t.Errorf("fired_at = %v, want %v", got[0].FiredAt, base.Add(2*time.Hour))
	}
	if got[0].Ticker != "7203.T" || got[0].Variant != "three-track" || got[0].Stage != 3 || got[0].Status != "confirmed" {
		t.Errorf("alert fields = %+v", got[0])
	}
}

func TestSQLiteRecorderRejectsDuplicateAlertID(t *testing.T) {
	r := testRecorder(t)
	ctx := context.Background()
	rec := AlertRecord{ID: "01X", Ticker: "7203.T", FiredAt: time.Now()}

	if err := r.RecordAlert(ctx, rec); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if err := r.RecordAlert(ctx, rec); err == nil {
		t.Error("expected primary key violation on duplicate id")
	}
}

func TestSQLiteRecorderTransitionsAndScans(t *testing.T) {
	r := testRecorder(t)
	ctx := context.Background()
	at := time.Date(2024, time.March, 6, 10, 0, 0, 0, time.UTC)

	err := r.RecordTransition(ctx, TransitionRecord{
		Ticker:    "6758.T",
		FromStage: 1,
		ToStage:   2,
		At:        at,
		Price:     101.5,
		RSI:       32.4,
		DIF:       -0.2,
		DEA:       -0.3,
	})
	if err != nil {
		t.Fatalf("record transition: %v", err)
	}

	err = r.RecordScan(ctx, ScanRecord{
		At:       at,
		Tickers:  5,
		Alerts:   1,
		Errors:   0,
		Duration: 1500 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("record scan: %v", err)
	}
}

func TestNoopRecorder(t *testing.T) {
	r := NewNoopRecorder()
	ctx := context.Background()

	if err := r.RecordAlert(ctx, AlertRecord{}); err != nil {
		t.Errorf("record alert: %v", err)
	}
	if err := r.RecordTransition(ctx, TransitionRecord{}); err != nil {
		t.Errorf("record transition: %v", err)
	}
	if err := r.RecordScan(ctx, ScanRecord{}); err != nil {
		t.Errorf("record scan: %v", err)
	}
	alerts, err := r.RecentAlerts(ctx, 10)
	if err != nil || alerts != nil {
		t.Errorf("recent alerts = %v, %v, want nil, nil", alerts, err)
	}
	if err := r.Close(); err != nil {
		t.Errorf("close: %v", err)
	}
}
