package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wesleywang11/tpx-signal-watch/internal/logging"
)

// Config holds all application configuration.
type Config struct {
	Watchlist []string `yaml:"watchlist"`

	DataSource struct {
		Provider     string `yaml:"provider"` // yahoo, binance or mock
		Proxy        string `yaml:"proxy"`
		Interval     string `yaml:"interval"`
		LookbackDays int    `yaml:"lookback_days"`
		APIKey       string `yaml:"api_key"`
		APISecret    string `yaml:"api_secret"`
	} `yaml:"data_source"`

	Market struct {
		Timezone       string `yaml:"timezone"`
		MorningOpen    string `yaml:"morning_open"`
		MorningClose   string `yaml:"morning_close"`
		AfternoonOpen  string `yaml:"afternoon_open"`
		AfternoonClose string `yaml:"afternoon_close"`
	} `yaml:"market"`

	Schedule struct {
		ScanCron    string `yaml:"scan_cron"`
		SummaryCron string `yaml:"summary_cron"`
		ScanOnStart bool   `yaml:"scan_on_start"`
	} `yaml:"schedule"`

	Policy struct {
		Variant string `yaml:"variant"` // three_track or underwater

		Bollinger struct {
			Period int     `yaml:"period"`
			StdDev float64 `yaml:"stddev"`
		} `yaml:"bollinger"`

		RSI struct {
			Period   int     `yaml:"period"`
			Oversold float64 `yaml:"oversold"`
			History  int     `yaml:"history"`
		} `yaml:"rsi"`

		MACD struct {
			Fast   int `yaml:"fast"`
			Slow   int `yaml:"slow"`
			Signal int `yaml:"signal"`
		} `yaml:"macd"`

		MinBars int `yaml:"min_bars"`

		ThreeTrack struct {
			TouchTimeoutDays   int `yaml:"touch_timeout_days"`
			ConfirmTimeoutDays int `yaml:"confirm_timeout_days"`
			RearmDays          int `yaml:"rearm_days"`
		} `yaml:"three_track"`

		Underwater struct {
			RetraceRatio float64 `yaml:"retrace_ratio"`
			SeedLookback int     `yaml:"seed_lookback"`
		} `yaml:"underwater"`
	} `yaml:"policy"`

	Screener struct {
		RSIThreshold float64 `yaml:"rsi_threshold"`
	} `yaml:"screener"`

	Notify struct {
		Bark struct {
			Key     string `yaml:"key"`
			BaseURL string `yaml:"base_url"`
		} `yaml:"bark"`
		Telegram struct {
			BotToken string `yaml:"bot_token"`
			ChatID   string `yaml:"chat_id"`
		} `yaml:"telegram"`
		Retry struct {
			MaxAttempts int    `yaml:"max_attempts"`
			MinBackoff  string `yaml:"min_backoff"`
			MaxBackoff  string `yaml:"max_backoff"`
		} `yaml:"retry"`
	} `yaml:"notify"`

	Database struct {
		Driver      string `yaml:"driver"` // sqlite, postgres or none
		SQLitePath  string `yaml:"sqlite_path"`
		PostgresDSN string `yaml:"postgres_dsn"`
	} `yaml:"database"`

	Metrics struct {
		ListenAddr string `yaml:"listen_addr"`
	} `yaml:"metrics"`

	Logging logging.Config `yaml:"logging"`

	Scan struct {
		Concurrency int `yaml:"concurrency"`
	} `yaml:"scan"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("WATCHLIST"); v != "" {
		cfg.Watchlist = cfg.Watchlist[:0]
		for _, t := range strings.Split(v, ",") {
			if t = strings.TrimSpace(t); t != "" {
				cfg.Watchlist = append(cfg.Watchlist, t)
			}
		}
	}
	if v := os.Getenv("BARK_KEY"); v != "" {
		cfg.Notify.Bark.Key = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Notify.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Notify.Telegram.ChatID = v
	}
	if v := os.Getenv("BINANCE_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("BINANCE_API_SECRET"); v != "" {
		cfg.DataSource.APISecret = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.DataSource.Proxy = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		cfg.Database.PostgresDSN = v
	}
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		cfg.Metrics.ListenAddr = v
	}
	if v := os.Getenv("SCAN_CRON"); v != "" {
		cfg.Schedule.ScanCron = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	// Defaults
	if len(cfg.Watchlist) == 0 {
		cfg.Watchlist = []string{"7203.T", "6758.T", "9984.T", "8306.T", "6501.T"}
	}
	if cfg.DataSource.Provider == "" {
		cfg.DataSource.Provider = "yahoo"
	}
	if cfg.DataSource.Interval == "" {
		cfg.DataSource.Interval = "1d"
	}
	if cfg.DataSource.LookbackDays == 0 {
		cfg.DataSource.LookbackDays = 90
	}
	if cfg.Market.Timezone == "" {
		cfg.Market.Timezone = "Asia/Tokyo"
	}
	if cfg.Market.MorningOpen == "" {
		cfg.Market.MorningOpen = "09:00"
	}
	if cfg.Market.MorningClose == "" {
		cfg.Market.MorningClose = "11:30"
	}
	if cfg.Market.AfternoonOpen == "" {
		cfg.Market.AfternoonOpen = "12:30"
	}
	if cfg.Market.AfternoonClose == "" {
		cfg.Market.AfternoonClose = "15:30"
	}
	if cfg.Schedule.ScanCron == "" {
		cfg.Schedule.ScanCron = "@every 2m"
	}
	if cfg.Schedule.SummaryCron == "" {
		cfg.Schedule.SummaryCron = "0 45 15 * * 1-5"
	}
	if cfg.Policy.Variant == "" {
		cfg.Policy.Variant = "three_track"
	}
	if cfg.Policy.Bollinger.Period == 0 {
		cfg.Policy.Bollinger.Period = 20
	}
	if cfg.Policy.Bollinger.StdDev == 0 {
		cfg.Policy.Bollinger.StdDev = 2.0
	}
	if cfg.Policy.RSI.Period == 0 {
		cfg.Policy.RSI.Period = 14
	}
	if cfg.Policy.RSI.Oversold == 0 {
		cfg.Policy.RSI.Oversold = 30
	}
	if cfg.Policy.RSI.History == 0 {
		cfg.Policy.RSI.History = 10
	}
	if cfg.Policy.MACD.Fast == 0 {
		cfg.Policy.MACD.Fast = 12
	}
	if cfg.Policy.MACD.Slow == 0 {
		cfg.Policy.MACD.Slow = 26
	}
	if cfg.Policy.MACD.Signal == 0 {
		cfg.Policy.MACD.Signal = 9
	}
	if cfg.Policy.MinBars == 0 {
		cfg.Policy.MinBars = 30
	}
	if cfg.Policy.ThreeTrack.TouchTimeoutDays == 0 {
		cfg.Policy.ThreeTrack.TouchTimeoutDays = 10
	}
	if cfg.Policy.ThreeTrack.ConfirmTimeoutDays == 0 {
		cfg.Policy.ThreeTrack.ConfirmTimeoutDays = 15
	}
	if cfg.Policy.ThreeTrack.RearmDays == 0 {
		cfg.Policy.ThreeTrack.RearmDays = 5
	}
	if cfg.Policy.Underwater.RetraceRatio == 0 {
		cfg.Policy.Underwater.RetraceRatio = 0.5
	}
	if cfg.Policy.Underwater.SeedLookback == 0 {
		cfg.Policy.Underwater.SeedLookback = 100
	}
	if cfg.Screener.RSIThreshold == 0 {
		cfg.Screener.RSIThreshold = 40
	}
	if cfg.Notify.Retry.MaxAttempts == 0 {
		cfg.Notify.Retry.MaxAttempts = 3
	}
	if cfg.Notify.Retry.MinBackoff == "" {
		cfg.Notify.Retry.MinBackoff = "1s"
	}
	if cfg.Notify.Retry.MaxBackoff == "" {
		cfg.Notify.Retry.MaxBackoff = "30s"
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/signalwatch.db"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Scan.Concurrency == 0 {
		cfg.Scan.Concurrency = 4
	}

	return cfg, nil
}

// Validate checks that all fields are consistent and parseable.
func (c *Config) Validate() error {
	if len(c.Watchlist) == 0 {
		return fmt.Errorf("watchlist must not be empty")
	}
	switch c.DataSource.Provider {
	case "yahoo", "binance", "mock":
	default:
		return fmt.Errorf("data_source.provider %q is not supported", c.DataSource.Provider)
	}
	switch c.DataSource.Interval {
	case "5m", "15m", "1h", "1d", "1wk":
	default:
		return fmt.Errorf("data_source.interval %q is not supported", c.DataSource.Interval)
	}
	if c.DataSource.LookbackDays <= 0 {
		return fmt.Errorf("data_source.lookback_days must be positive")
	}

	if _, err := time.LoadLocation(c.Market.Timezone); err != nil {
		return fmt.Errorf("market.timezone: %w", err)
	}
	for name, v := range map[string]string{
		"market.morning_open":    c.Market.MorningOpen,
		"market.morning_close":   c.Market.MorningClose,
		"market.afternoon_open":  c.Market.AfternoonOpen,
		"market.afternoon_close": c.Market.AfternoonClose,
	} {
		if _, err := time.Parse("15:04", v); err != nil {
			return fmt.Errorf("%s %q: want HH:MM", name, v)
		}
	}

	switch c.Policy.Variant {
	case "three_track", "underwater":
	default:
		return fmt.Errorf("policy.variant %q is not supported", c.Policy.Variant)
	}
	if c.Policy.Bollinger.Period < 2 {
		return fmt.Errorf("policy.bollinger.period must be at least 2")
	}
	if c.Policy.Bollinger.StdDev <= 0 {
		return fmt.Errorf("policy.bollinger.stddev must be positive")
	}
	if c.Policy.RSI.Period <= 0 {
		return fmt.Errorf("policy.rsi.period must be positive")
	}
	if c.Policy.RSI.Oversold <= 0 || c.Policy.RSI.Oversold >= 100 {
		return fmt.Errorf("policy.rsi.oversold must be between 0 and 100")
	}
	if c.Policy.RSI.History <= 0 {
		return fmt.Errorf("policy.rsi.history must be positive")
	}
	if c.Policy.MACD.Fast <= 0 || c.Policy.MACD.Signal <= 0 {
		return fmt.Errorf("policy.macd spans must be positive")
	}
	if c.Policy.MACD.Slow <= c.Policy.MACD.Fast {
		return fmt.Errorf("policy.macd.slow must exceed policy.macd.fast")
	}
	if c.Policy.MinBars <= 0 {
		return fmt.Errorf("policy.min_bars must be positive")
	}
	if c.Policy.ThreeTrack.TouchTimeoutDays <= 0 ||
		c.Policy.ThreeTrack.ConfirmTimeoutDays <= 0 ||
		c.Policy.ThreeTrack.RearmDays <= 0 {
		return fmt.Errorf("policy.three_track timeouts must be positive")
	}
	if c.Policy.Underwater.RetraceRatio <= 0 || c.Policy.Underwater.RetraceRatio >= 1 {
		return fmt.Errorf("policy.underwater.retrace_ratio must be between 0 and 1")
	}
	if c.Policy.Underwater.SeedLookback <= 0 {
		return fmt.Errorf("policy.underwater.seed_lookback must be positive")
	}

	if c.Screener.RSIThreshold <= 0 || c.Screener.RSIThreshold >= 100 {
		return fmt.Errorf("screener.rsi_threshold must be between 0 and 100")
	}

	if c.Notify.Retry.MaxAttempts <= 0 {
		return fmt.Errorf("notify.retry.max_attempts must be positive")
	}
	if _, err := time.ParseDuration(c.Notify.Retry.MinBackoff); err != nil {
		return fmt.Errorf("notify.retry.min_backoff: %w", err)
	}
	if _, err := time.ParseDuration(c.Notify.Retry.MaxBackoff); err != nil {
		return fmt.Errorf("notify.retry.max_backoff: %w", err)
	}

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.SQLitePath == "" {
			return fmt.Errorf("database.sqlite_path is required for the sqlite driver")
		}
	case "postgres":
		if c.Database.PostgresDSN == "" {
			return fmt.Errorf("database.postgres_dsn is required for the postgres driver")
		}
	case "none":
	default:
		return fmt.Errorf("database.driver %q is not supported", c.Database.Driver)
	}

	if c.Scan.Concurrency <= 0 {
		return fmt.Errorf("scan.concurrency must be positive")
	}
	return nil
}

// RetryMinBackoff returns the parsed minimum retry backoff.
// Validate guarantees the string parses.
func (c *Config) RetryMinBackoff() time.Duration {
	d, err := time.ParseDuration(c.Notify.Retry.MinBackoff)
	if err != nil {
		return time.Second
	}
	return d
}

// RetryMaxBackoff returns the parsed maximum retry backoff.
func (c *Config) RetryMaxBackoff() time.Duration {
	d, err := time.ParseDuration(c.Notify.Retry.MaxBackoff)
	if err != nil {
		return 30 * time.Second
	}
	return d
}
