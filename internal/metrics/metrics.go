package metrics

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Metrics holds all Prometheus metrics for the signal watcher.
type Metrics struct {
	registry *prometheus.Registry

	ScansTotal            prometheus.Counter
	TickerScansTotal      prometheus.Counter
	FetchErrorsTotal      prometheus.Counter
	InsufficientDataTotal prometheus.Counter
	AlertsTotal           *prometheus.CounterVec // labels: ticker
	NotifyFailuresTotal   prometheus.Counter
	ScanDuration          prometheus.Histogram
	TickersByStage        *prometheus.GaugeVec // labels: stage
	MarketOpen            prometheus.Gauge
}

// NewMetrics registers and returns all Prometheus metrics on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ScansTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signalwatch_scans_total",
			Help: "Total scan cycles executed",
		}),
		TickerScansTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signalwatch_ticker_scans_total",
			Help: "Per-ticker evaluations attempted across all cycles",
		}),
		FetchErrorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signalwatch_fetch_errors_total",
			Help: "Ticker evaluations skipped because bar data could not be fetched",
		}),
		InsufficientDataTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signalwatch_insufficient_data_total",
			Help: "Ticker evaluations skipped because the series was too short",
		}),
		AlertsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signalwatch_alerts_total",
			Help: "Alerts fired (by ticker)",
		}, []string{"ticker"}),
		NotifyFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signalwatch_notify_failures_total",
			Help: "Push deliveries that failed after all retries",
		}),
		ScanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "signalwatch_scan_duration_seconds",
			Help:    "Wall time of one full watchlist scan",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		TickersByStage: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "signalwatch_tickers_by_stage",
			Help: "Watchlist tickers currently in each signal stage",
		}, []string{"stage"}),
		MarketOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "signalwatch_market_open",
			Help: "Market session state (0=closed, 1=open)",
		}),
	}

	m.registry.MustRegister(
		m.ScansTotal,
		m.TickerScansTotal,
		m.FetchErrorsTotal,
		m.InsufficientDataTotal,
		m.AlertsTotal,
		m.NotifyFailuresTotal,
		m.ScanDuration,
		m.TickersByStage,
		m.MarketOpen,
	)

	return m
}

// Handler exposes the registry in Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// HealthStatus represents watcher health for the /healthz endpoint.
type HealthStatus struct {
	mu sync.RWMutex

	MarketOpen     bool
	Watchlist      int
	LastScanAt     time.Time
	LastScanErrors int
	StartedAt      time.Time
}

// NewHealthStatus returns a default health status.
func NewHealthStatus() *HealthStatus {
	return &HealthStatus{StartedAt: time.Now()}
}

func (h *HealthStatus) SetMarketOpen(v bool) {
	h.mu.Lock()
	h.MarketOpen = v
	h.mu.Unlock()
}

func (h *HealthStatus) SetWatchlist(n int) {
	h.mu.Lock()
	h.Watchlist = n
	h.mu.Unlock()
}

func (h *HealthStatus) SetScan(at time.Time, errors int) {
	h.mu.Lock()
	h.LastScanAt = at
	h.LastScanErrors = errors
	h.mu.Unlock()
}

// ServeHTTP handles the /healthz endpoint.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	overallStatus := "healthy"
	httpCode := http.StatusOK

	// Degraded when the last cycle failed for the whole watchlist.
	if h.Watchlist > 0 && h.LastScanErrors >= h.Watchlist {
		overallStatus = "degraded"
		httpCode = http.StatusServiceUnavailable
	}

	scanAge := ""
	if !h.LastScanAt.IsZero() {
		scanAge = time.Since(h.LastScanAt).Round(time.Millisecond).String()
	}

	status := struct {
		Status         string `json:"status"`
		Uptime         string `json:"uptime"`
		MarketOpen     bool   `json:"market_open"`
		Watchlist      int    `json:"watchlist"`
		LastScanAt     string `json:"last_scan_at"`
		ScanAge        string `json:"scan_age"`
		LastScanErrors int    `json:"last_scan_errors"`
	}{
		Status:         overallStatus,
		Uptime:         time.Since(h.StartedAt).Round(time.Second).String(),
		MarketOpen:     h.MarketOpen,
		Watchlist:      h.Watchlist,
		LastScanAt:     h.LastScanAt.Format(time.RFC3339),
		ScanAge:        scanAge,
		LastScanErrors: h.LastScanErrors,
	}

	w.Header().Set("Content-Type", "application/json")
	if httpCode != http.StatusOK {
		w.WriteHeader(httpCode)
	}
	json.NewEncoder(w).Encode(status)
}

// Server runs an HTTP server exposing /metrics and /healthz.
type Server struct {
	addr string
	srv  *http.Server
	log  zerolog.Logger
}

// NewServer creates a metrics and health server.
func NewServer(addr string, m *Metrics, health *HealthStatus, log zerolog.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/healthz", health.ServeHTTP)

	return &Server{
		addr: addr,
		srv: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
		log: log,
	}
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		s.log.Info().Str("addr", s.addr).Msg("metrics server listening")
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			s.log.Error().Err(err).Msg("metrics server error")
		}
	}()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}
