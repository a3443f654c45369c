package metrics

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("scrape status = %d", rr.Code)
	}
	return rr.Body.String()
}

func TestMetricsHandlerExposesCounters(t *testing.T) {
	m := NewMetrics()
	m.ScansTotal.Inc()
	m.TickerScansTotal.Add(5)
	m.AlertsTotal.WithLabelValues("7203.T").Inc()
	m.MarketOpen.Set(1)

	body := scrape(t, m)
	for _, want := range []string{
		"signalwatch_scans_total 1",
		"signalwatch_ticker_scans_total 5",
		`signalwatch_alerts_total{ticker="7203.T"} 1`,
		"signalwatch_market_open 1",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("exposition missing %q", want)
		}
	}
}

func TestNewMetricsIsolatedRegistries(t *testing.T) {
	a := NewMetrics()
	a.ScansTotal.Inc()

	// A second instance has its own registry and starts from zero.
	b := NewMetrics()
	body := scrape(t, b)
	if !strings.Contains(body, "signalwatch_scans_total 0") {
		t.Errorf("fresh instance should expose a zero counter, got:\n%s", body)
	}
}

func healthResponse(t *testing.T, h *HealthStatus) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode health body: %v", err)
	}
	return rr.Code, body
}

func TestHealthzHealthy(t *testing.T) {
	h := NewHealthStatus()
	h.SetWatchlist(5)
	h.SetMarketOpen(true)
	h.SetScan(time.Now(), 1)

	code, body := healthResponse(t, h)
	if code != http.StatusOK {
		t.Errorf("status code = %d, want 200", code)
	}
	if body["status"] != "healthy" {
		t.Errorf("status = %v", body["status"])
	}
	if body["market_open"] != true {
		t.Errorf("market_open = %v", body["market_open"])
	}
	if body["watchlist"] != float64(5) {
		t.Errorf("watchlist = %v", body["watchlist"])
	}
}

func TestHealthzDegradedWhenWholeWatchlistFails(t *testing.T) {
	h := NewHealthStatus()
	h.SetWatchlist(3)
	h.SetScan(time.Now(), 3)

	code, body := healthResponse(t, h)
	if code != http.StatusServiceUnavailable {
		t.Errorf("status code = %d, want 503", code)
	}
	if body["status"] != "degraded" {
		t.Errorf("status = %v, want degraded", body["status"])
	}
}
