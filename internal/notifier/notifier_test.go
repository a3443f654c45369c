package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/wesleywang11/tpx-signal-watch/internal/model"
)

func testLogger() zerolog.Logger { return zerolog.Nop() }

func TestBarkSend(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	b := NewBarkNotifier(srv.URL, "devkey", "")
	if err := b.Send(context.Background(), Message{Title: "hello world", Body: "line one"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if !strings.HasPrefix(gotPath, "/devkey/") {
		t.Errorf("path %q should start with the device key", gotPath)
	}
	if !strings.Contains(gotPath, "hello%20world") {
		t.Errorf("title should be path-escaped, got %q", gotPath)
	}
}

func TestBarkSendServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	b := NewBarkNotifier(srv.URL, "devkey", "")
	if err := b.Send(context.Background(), Message{Title: "t", Body: "b"}); err == nil {
		t.Fatal("expected error for a 500 response")
	}
}

func TestBarkBaseURL(t *testing.T) {
	b := NewBarkNotifier("", "k", "")
	if b.BaseURL != defaultBarkBase {
		t.Errorf("got %q, want %q", b.BaseURL, defaultBarkBase)
	}
	b = NewBarkNotifier("https://push.example.com/", "k", "")
	if b.BaseURL != "https://push.example.com" {
		t.Errorf("trailing slash should be trimmed, got %q", b.BaseURL)
	}
}

func TestTelegramSend(t *testing.T) {
	var gotPath string
	var payload map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n := NewTelegramNotifier("123:token", "42", srv.URL, "")
	if err := n.Send(context.Background(), Message{Title: "Signal", Body: "details"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if gotPath != "/bot123:token/sendMessage" {
		t.Errorf("unexpected path %q", gotPath)
	}
	if payload["chat_id"] != "42" {
		t.Errorf("chat_id = %q, want 42", payload["chat_id"])
	}
	if payload["parse_mode"] != "HTML" {
		t.Errorf("parse_mode = %q, want HTML", payload["parse_mode"])
	}
	if want := "<b>Signal</b>\n\ndetails"; payload["text"] != want {
		t.Errorf("text = %q, want %q", payload["text"], want)
	}
}

func TestTelegramSendNoTitle(t *testing.T) {
	var payload map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&payload)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n := NewTelegramNotifier("tok", "42", srv.URL, "")
	if err := n.Send(context.Background(), Message{Body: "bare"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if payload["text"] != "bare" {
		t.Errorf("text = %q, want bare", payload["text"])
	}
}

// fakeNotifier fails its first fail sends, then succeeds.
type fakeNotifier struct {
	name  string
	calls int
	fail  int
}

func (f *fakeNotifier) Name() string { return f.name }

func (f *fakeNotifier) Send(_ context.Context, _ Message) error {
	f.calls++
	if f.calls <= f.fail {
		return errors.New("transient")
	}
	return nil
}

func TestDispatcherRetriesThenSucceeds(t *testing.T) {
	f := &fakeNotifier{name: "flaky", fail: 2}
	d := NewDispatcher([]Notifier{f},
		RetryOptions{MaxAttempts: 3, MinBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond},
		testLogger())

	if failures := d.Dispatch(context.Background(), Message{Title: "t"}); failures != 0 {
		t.Fatalf("failures = %d, want 0", failures)
	}
	if f.calls != 3 {
		t.Errorf("calls = %d, want 3", f.calls)
	}
}

func TestDispatcherCountsExhaustedChannels(t *testing.T) {
	dead := &fakeNotifier{name: "dead", fail: 1 << 30}
	ok := &fakeNotifier{name: "ok"}
	d := NewDispatcher([]Notifier{dead, ok},
		RetryOptions{MaxAttempts: 2, MinBackoff: time.Millisecond, MaxBackoff: time.Millisecond},
		testLogger())

	if failures := d.Dispatch(context.Background(), Message{Title: "t"}); failures != 1 {
		t.Fatalf("failures = %d, want 1", failures)
	}
	if dead.calls != 2 {
		t.Errorf("dead channel attempts = %d, want 2", dead.calls)
	}
	if ok.calls != 1 {
		t.Errorf("healthy channel attempts = %d, want 1", ok.calls)
	}
}

func TestDispatcherNoTargets(t *testing.T) {
	d := NewDispatcher(nil, RetryOptions{}, testLogger())
	if d.Targets() != 0 {
		t.Errorf("targets = %d, want 0", d.Targets())
	}
	if failures := d.Dispatch(context.Background(), Message{}); failures != 0 {
		t.Errorf("failures = %d, want 0", failures)
	}
}

func TestFormatAlert(t *testing.T) {
	ev := model.AlertEvent{
		ID:      "01ABC",
		Ticker:  "7203.T",
		Stage:   3,
		Variant: "three-track",
		Status:  "confirmed d0 | touch | rsi | macd",
		FiredAt: time.Date(2024, 3, 6, 10, 30, 0, 0, time.UTC),
	}
	msg := FormatAlert(ev, "confirmed")
	if !strings.Contains(msg.Title, "7203.T") {
		t.Errorf("title should name the ticker, got %q", msg.Title)
	}
	if !strings.Contains(msg.Body, "three-track") || !strings.Contains(msg.Body, "confirmed") {
		t.Errorf("body should carry variant and stage, got %q", msg.Body)
	}
	if !strings.Contains(msg.Body, "2024-03-06 10:30") {
		t.Errorf("body should carry the firing time, got %q", msg.Body)
	}
}

func TestFormatDailySummary(t *testing.T) {
	msg := FormatDailySummary(DailySummary{
		Date:       time.Date(2024, 3, 6, 15, 45, 0, 0, time.UTC),
		Scans:      42,
		Alerts:     1,
		Errors:     2,
		StageLines: []string{"7203.T: touched d2"},
	})
	if !strings.Contains(msg.Title, "2024-03-06") {
		t.Errorf("title should carry the date, got %q", msg.Title)
	}
	if !strings.Contains(msg.Body, "42") || !strings.Contains(msg.Body, "7203.T: touched d2") {
		t.Errorf("body should carry counters and stage lines, got %q", msg.Body)
	}

	empty := FormatDailySummary(DailySummary{Date: time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC)})
	if strings.Contains(empty.Body, "7203.T") {
		t.Error("empty summary should not carry stage lines")
	}
}
