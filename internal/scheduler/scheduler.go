package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/wesleywang11/tpx-signal-watch/internal/collector"
	"github.com/wesleywang11/tpx-signal-watch/internal/id"
	"github.com/wesleywang11/tpx-signal-watch/internal/indicator"
	"github.com/wesleywang11/tpx-signal-watch/internal/markethours"
	"github.com/wesleywang11/tpx-signal-watch/internal/metrics"
	"github.com/wesleywang11/tpx-signal-watch/internal/model"
	"github.com/wesleywang11/tpx-signal-watch/internal/notifier"
	"github.com/wesleywang11/tpx-signal-watch/internal/recorder"
	"github.com/wesleywang11/tpx-signal-watch/internal/signal"
)

// Deps carries everything a Scheduler needs to run scan cycles.
type Deps struct {
	Collector   *collector.Collector
	Store       *signal.Store
	Policy      signal.Policy
	Dispatcher  *notifier.Dispatcher
	Recorder    recorder.Recorder
	Metrics     *metrics.Metrics
	Health      *metrics.HealthStatus
	Calendar    *markethours.Calendar
	Watchlist   []string
	Concurrency int
	Logger      zerolog.Logger
}

// Scheduler manages the periodic scan and the end-of-day summary.
type Scheduler struct {
	Cron *cron.Cron
	Ctx  context.Context

	collector  *collector.Collector
	store      *signal.Store
	policy     signal.Policy
	dispatcher *notifier.Dispatcher
	recorder   recorder.Recorder
	metrics    *metrics.Metrics
	health     *metrics.HealthStatus
	calendar   *markethours.Calendar
	watchlist  []string
	workers    int
	log        zerolog.Logger

	// today's counters, reset on the first scan of a new civil day
	mu          sync.Mutex
	countersDay time.Time
	scansToday  int
	alertsToday int
	errorsToday int
}

// NewScheduler creates a new Scheduler. Cron specs are evaluated in the
// market calendar's timezone.
func NewScheduler(ctx context.Context, deps Deps) *Scheduler {
	workers := deps.Concurrency
	if workers <= 0 {
		workers = 4
	}
	return &Scheduler{
		Cron:       cron.New(cron.WithSeconds(), cron.WithLocation(deps.Calendar.Location())),
		Ctx:        ctx,
		collector:  deps.Collector,
		store:      deps.Store,
		policy:     deps.Policy,
		dispatcher: deps.Dispatcher,
		recorder:   deps.Recorder,
		metrics:    deps.Metrics,
		health:     deps.Health,
		calendar:   deps.Calendar,
		watchlist:  deps.Watchlist,
		workers:    workers,
		log:        deps.Logger,
	}
}

// RegisterAll registers the scan and daily summary tasks.
func (s *Scheduler) RegisterAll(scanCron, summaryCron string) error {
	if _, err := s.Cron.AddFunc(scanCron, s.scanTask); err != nil {
		return fmt.Errorf("register scan task: %w", err)
	}
	if _, err := s.Cron.AddFunc(summaryCron, s.summaryTask); err != nil {
		return fmt.Errorf("register summary task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info().Int("watchlist", len(s.watchlist)).Str("policy", s.policy.Name()).Msg("scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	s.log.Info().Msg("scheduler stopped")
}

// scanTask runs one cycle if the market is open, otherwise skips.
func (s *Scheduler) scanTask() {
	now := time.Now().In(s.calendar.Location())
	open, session := s.calendar.Status(now)

	s.health.SetMarketOpen(open)
	if open {
		s.metrics.MarketOpen.Set(1)
	} else {
		s.metrics.MarketOpen.Set(0)
	}

	if !open {
		s.log.Debug().
			Str("session", session).
			Time("next_open", s.calendar.NextOpen(now)).
			Msg("market closed, scan skipped")
		return
	}
	s.Scan(s.Ctx)
}

// Scan evaluates the whole watchlist once and returns the cycle summary.
// It is also invoked directly for manual one-shot scans.
func (s *Scheduler) Scan(ctx context.Context) recorder.ScanRecord {
	start := time.Now()
	now := start.In(s.calendar.Location())

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		alerts int
		errs   int
	)
	sem := make(chan struct{}, s.workers)

	for _, ticker := range s.watchlist {
		wg.Add(1)
		go func(t string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			fired, failed := s.scanTicker(ctx, t, now)
			mu.Lock()
			if fired {
				alerts++
			}
			if failed {
				errs++
			}
			mu.Unlock()
		}(ticker)
	}
	wg.Wait()

	elapsed := time.Since(start)
	s.metrics.ScansTotal.Inc()
	s.metrics.ScanDuration.Observe(elapsed.Seconds())
	s.health.SetScan(start, errs)
	s.refreshStageGauge()
	s.bumpCounters(now, alerts, errs)

	s.log.Info().
		Int("tickers", len(s.watchlist)).
		Int("alerts", alerts).
		Int("errors", errs).
		Dur("elapsed", elapsed).
		Msg("scan cycle complete")

	rec := recorder.ScanRecord{
		At:       start,
		Tickers:  len(s.watchlist),
		Alerts:   alerts,
		Errors:   errs,
		Duration: elapsed,
	}
	if err := s.recorder.RecordScan(ctx, rec); err != nil {
		s.log.Error().Err(err).Msg("record scan")
	}
	return rec
}

// scanTicker fetches, evaluates and (maybe) alerts for one ticker.
// A fetch or compute failure leaves the ticker's state untouched.
func (s *Scheduler) scanTicker(ctx context.Context, ticker string, now time.Time) (fired, failed bool) {
	s.metrics.TickerScansTotal.Inc()
	snap, err := s.collector.Snapshot(ctx, ticker)
	if err != nil {
		if errors.Is(err, indicator.ErrInsufficientData) {
			s.metrics.InsufficientDataTotal.Inc()
			s.log.Warn().Err(err).Str("ticker", ticker).Msg("series too short, state untouched")
		} else {
			s.metrics.FetchErrorsTotal.Inc()
			s.log.Warn().Err(err).Str("ticker", ticker).Msg("fetch failed, state untouched")
		}
		return false, true
	}

	var (
		oldStage int
		status   string
	)
	next := s.store.Update(ticker, func(cur signal.State) signal.State {
		oldStage = cur.Stage
		st, diag, f := s.policy.Evaluate(cur, snap, now)
		status = diag
		fired = f
		return st
	})

	if next.Stage != oldStage {
		s.log.Info().
			Str("ticker", ticker).
			Int("from", oldStage).
			Int("to", next.Stage).
			Str("status", status).
			Msg("stage change")
		if err := s.recorder.RecordTransition(ctx, recorder.TransitionRecord{
			Ticker:    ticker,
			FromStage: oldStage,
			ToStage:   next.Stage,
			At:        now,
			Price:     snap.Close,
			RSI:       snap.RSI,
			DIF:       snap.DIF,
			DEA:       snap.DEA,
		}); err != nil {
			s.log.Error().Err(err).Str("ticker", ticker).Msg("record transition")
		}
	} else {
		s.log.Debug().Str("ticker", ticker).Str("status", status).Msg("evaluated")
	}

	if fired {
		ev := model.AlertEvent{
			ID:      id.New(),
			Ticker:  ticker,
			Stage:   next.Stage,
			Variant: s.policy.Name(),
			Status:  status,
			FiredAt: now,
		}
		s.metrics.AlertsTotal.WithLabelValues(ticker).Inc()
		if err := s.recorder.RecordAlert(ctx, recorder.AlertRecord{
			ID:      ev.ID,
			Ticker:  ev.Ticker,
			Variant: ev.Variant,
			Stage:   ev.Stage,
			Status:  ev.Status,
			FiredAt: ev.FiredAt,
		}); err != nil {
			s.log.Error().Err(err).Str("ticker", ticker).Msg("record alert")
		}

		msg := notifier.FormatAlert(ev, s.policy.StageLabel(ev.Stage))
		if failures := s.dispatcher.Dispatch(ctx, msg); failures > 0 {
			s.metrics.NotifyFailuresTotal.Add(float64(failures))
		}
		s.log.Info().Str("ticker", ticker).Str("id", ev.ID).Msg("alert dispatched")
	}
	return fired, false
}

// summaryTask pushes the end-of-day digest with today's counters and
// every ticker currently holding a non-zero stage.
func (s *Scheduler) summaryTask() {
	now := time.Now().In(s.calendar.Location())

	s.mu.Lock()
	scans, alerts, errs := s.scansToday, s.alertsToday, s.errorsToday
	s.mu.Unlock()

	states := s.store.States()
	tickers := make([]string, 0, len(states))
	for t := range states {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)

	var lines []string
	for _, t := range tickers {
		st := states[t]
		if st.Stage == 0 {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %s d%d", t, s.policy.StageLabel(st.Stage), stageDays(st, now)))
	}

	msg := notifier.FormatDailySummary(notifier.DailySummary{
		Date:       now,
		Scans:      scans,
		Alerts:     alerts,
		Errors:     errs,
		StageLines: lines,
	})
	if failures := s.dispatcher.Dispatch(s.Ctx, msg); failures > 0 {
		s.metrics.NotifyFailuresTotal.Add(float64(failures))
	}
	s.log.Info().Int("scans", scans).Int("alerts", alerts).Int("errors", errs).Msg("daily summary sent")
}

func (s *Scheduler) refreshStageGauge() {
	counts := make(map[int]int, 4)
	for _, st := range s.store.States() {
		counts[st.Stage]++
	}
	for stage := 0; stage <= 3; stage++ {
		s.metrics.TickersByStage.WithLabelValues(strconv.Itoa(stage)).Set(float64(counts[stage]))
	}
}

func (s *Scheduler) bumpCounters(now time.Time, alerts, errs int) {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	s.mu.Lock()
	defer s.mu.Unlock()
	if !day.Equal(s.countersDay) {
		s.countersDay = day
		s.scansToday, s.alertsToday, s.errorsToday = 0, 0, 0
	}
	s.scansToday++
	s.alertsToday += alerts
	s.errorsToday += errs
}

func stageDays(st signal.State, now time.Time) int {
	if st.StageEnteredAt.IsZero() {
		return 0
	}
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return int(day.Sub(st.StageEnteredAt).Hours() / 24)
}
