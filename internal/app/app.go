package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/wesleywang11/tpx-signal-watch/internal/collector"
	"github.com/wesleywang11/tpx-signal-watch/internal/config"
	"github.com/wesleywang11/tpx-signal-watch/internal/indicator"
	"github.com/wesleywang11/tpx-signal-watch/internal/markethours"
	"github.com/wesleywang11/tpx-signal-watch/internal/metrics"
	"github.com/wesleywang11/tpx-signal-watch/internal/notifier"
	"github.com/wesleywang11/tpx-signal-watch/internal/recorder"
	"github.com/wesleywang11/tpx-signal-watch/internal/scheduler"
	signalpkg "github.com/wesleywang11/tpx-signal-watch/internal/signal"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) indicatorConfig() indicator.Config {
	p := a.Config.Policy
	return indicator.Config{
		BollPeriod: p.Bollinger.Period,
		BollWidth:  p.Bollinger.StdDev,
		RSIPeriod:  p.RSI.Period,
		RSIHistory: p.RSI.History,
		MACDFast:   p.MACD.Fast,
		MACDSlow:   p.MACD.Slow,
		MACDSignal: p.MACD.Signal,
		MinBars:    p.MinBars,
	}
}

func (a *App) newFetcher() (collector.Fetcher, error) {
	ds := a.Config.DataSource
	switch ds.Provider {
	case "yahoo":
		return collector.NewYahooFetcher(ds.Proxy), nil
	case "binance":
		return collector.NewBinanceFetcher(ds.APIKey, ds.APISecret), nil
	case "mock":
		return &collector.MockFetcher{}, nil
	default:
		return nil, fmt.Errorf("data source provider %q is not supported", ds.Provider)
	}
}

func (a *App) newCollector() (*collector.Collector, error) {
	f, err := a.newFetcher()
	if err != nil {
		return nil, err
	}
	ds := a.Config.DataSource
	return collector.NewCollector(f, ds.LookbackDays, ds.Interval, a.indicatorConfig()), nil
}

func (a *App) newPolicy() signalpkg.Policy {
	p := a.Config.Policy
	if p.Variant == "underwater" {
		return signalpkg.NewUnderwater(signalpkg.UnderwaterOptions{
			RetraceRatio: p.Underwater.RetraceRatio,
			SeedLookback: p.Underwater.SeedLookback,
		})
	}
	return signalpkg.NewThreeTrack(signalpkg.ThreeTrackOptions{
		Oversold:           p.RSI.Oversold,
		TouchTimeoutDays:   p.ThreeTrack.TouchTimeoutDays,
		ConfirmTimeoutDays: p.ThreeTrack.ConfirmTimeoutDays,
		RearmDays:          p.ThreeTrack.RearmDays,
	})
}

func (a *App) newCalendar() (*markethours.Calendar, error) {
	m := a.Config.Market
	return markethours.New(m.Timezone, m.MorningOpen, m.MorningClose, m.AfternoonOpen, m.AfternoonClose)
}

func (a *App) newDispatcher() *notifier.Dispatcher {
	n := a.Config.Notify
	proxy := a.Config.DataSource.Proxy

	var targets []notifier.Notifier
	if n.Bark.Key != "" {
		targets = append(targets, notifier.NewBarkNotifier(n.Bark.BaseURL, n.Bark.Key, proxy))
	}
	if n.Telegram.BotToken != "" && n.Telegram.ChatID != "" {
		targets = append(targets, notifier.NewTelegramNotifier(n.Telegram.BotToken, n.Telegram.ChatID, "", proxy))
	}
	d := notifier.NewDispatcher(targets, notifier.RetryOptions{
		MaxAttempts: n.Retry.MaxAttempts,
		MinBackoff:  a.Config.RetryMinBackoff(),
		MaxBackoff:  a.Config.RetryMaxBackoff(),
	}, a.Logger)
	if d.Targets() == 0 {
		a.Logger.Warn().Msg("no push channels configured; alerts will only be logged")
	}
	return d
}

func (a *App) openRecorder(ctx context.Context) (recorder.Recorder, error) {
	switch a.Config.Database.Driver {
	case "sqlite":
		path := a.Config.Database.SQLitePath
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create data dir: %w", err)
			}
		}
		rec, err := recorder.NewSQLiteRecorder(path)
		if err != nil {
			return nil, err
		}
		a.Logger.Info().Str("path", path).Msg("sqlite recorder opened")
		return rec, nil
	case "postgres":
		rec, err := recorder.NewPostgresRecorder(ctx, a.Config.Database.PostgresDSN)
		if err != nil {
			return nil, err
		}
		a.Logger.Info().Msg("postgres recorder opened")
		return rec, nil
	default:
		a.Logger.Warn().Msg("database disabled; history will not be persisted")
		return recorder.NewNoopRecorder(), nil
	}
}

func (a *App) newScheduler(ctx context.Context, rec recorder.Recorder, store *signalpkg.Store, policy signalpkg.Policy, m *metrics.Metrics, health *metrics.HealthStatus) (*scheduler.Scheduler, error) {
	col, err := a.newCollector()
	if err != nil {
		return nil, err
	}
	cal, err := a.newCalendar()
	if err != nil {
		return nil, err
	}
	return scheduler.NewScheduler(ctx, scheduler.Deps{
		Collector:   col,
		Store:       store,
		Policy:      policy,
		Dispatcher:  a.newDispatcher(),
		Recorder:    rec,
		Metrics:     m,
		Health:      health,
		Calendar:    cal,
		Watchlist:   a.Config.Watchlist,
		Concurrency: a.Config.Scan.Concurrency,
		Logger:      a.Logger.With().Str("component", "scheduler").Logger(),
	}), nil
}

// Run executes the long-running watcher service until interrupted.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rec, err := a.openRecorder(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := rec.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("close recorder")
		}
	}()

	policy := a.newPolicy()
	store := signalpkg.NewStore(policy.InitialState())
	m := metrics.NewMetrics()
	health := metrics.NewHealthStatus()
	health.SetWatchlist(len(a.Config.Watchlist))

	var metricsSrv *metrics.Server
	if addr := a.Config.Metrics.ListenAddr; addr != "" {
		metricsSrv = metrics.NewServer(addr, m, health, a.Logger.With().Str("component", "metrics").Logger())
		metricsSrv.Start()
	}

	sched, err := a.newScheduler(ctx, rec, store, policy, m, health)
	if err != nil {
		return err
	}
	if err := sched.RegisterAll(a.Config.Schedule.ScanCron, a.Config.Schedule.SummaryCron); err != nil {
		return err
	}

	sched.Start()
	if a.Config.Schedule.ScanOnStart {
		sched.Scan(ctx)
	}

	a.Logger.Info().
		Str("policy", policy.Name()).
		Int("watchlist", len(a.Config.Watchlist)).
		Msg("signal watcher running")
	<-ctx.Done()

	a.Logger.Info().Msg("shutting down")
	sched.Stop()
	if metricsSrv != nil {
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
		metricsSrv.Stop(shutdownCtx)
		cancelShutdown()
	}
	return nil
}

