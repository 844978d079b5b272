// Package config defines the top-level configuration for the arbitrage
// scanner and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by POLYARB_* environment variables.
type Config struct {
	Polymarket PolymarketConfig `toml:"polymarket"`
	Detector   DetectorConfig   `toml:"detector"`
	Paper      PaperConfig      `toml:"paper"`
	Redis      RedisConfig      `toml:"redis"`
	Postgres   PostgresConfig   `toml:"postgres"`
	S3         S3Config         `toml:"s3"`
	Notify     NotifyConfig     `toml:"notify"`
	Mode       string           `toml:"mode"`
	LogLevel   string           `toml:"log_level"`
}

// PolymarketConfig holds Polymarket API endpoints and discovery limits.
type PolymarketConfig struct {
	GammaHost string `toml:"gamma_host"`
	ClobHost  string `toml:"clob_host"`
	WsHost    string `toml:"ws_host"`
	// MaxMarkets caps how many binary markets discovery registers.
	MaxMarkets int `toml:"max_markets"`
	// MaxEvents caps how many neg-risk events discovery registers.
	MaxEvents int `toml:"max_events"`
}

// DetectorConfig holds opportunity detection thresholds.
type DetectorConfig struct {
	// MinProfitFraction is the strict profit floor, e.g. 0.01 for 1%.
	MinProfitFraction float64 `toml:"min_profit_fraction"`
	// MinLiquidity in dollars; thinner markets are not registered.
	MinLiquidity float64 `toml:"min_liquidity"`
	// StaleTimeout is the maximum quote age still treated as live.
	StaleTimeout duration `toml:"stale_timeout"`
	// DedupWindow suppresses repeat alerts for an unchanged mispricing.
	DedupWindow duration `toml:"dedup_window"`
	// DedupPrecision is the number of profit decimal places compared when
	// deduplicating.
	DedupPrecision int `toml:"dedup_precision"`
}

// PaperConfig holds paper trading simulation parameters.
type PaperConfig struct {
	// Preset selects conservative, moderate, aggressive, or custom. Any
	// value but custom overwrites the tuning fields below and the detector
	// thresholds with the preset's values.
	Preset               string   `toml:"preset"`
	InitialBalance       float64  `toml:"initial_balance"`
	PositionSize         float64  `toml:"position_size"`
	LiquidityFractionCap float64  `toml:"liquidity_fraction_cap"`
	FailureRate          float64  `toml:"failure_rate"`
	Latency              duration `toml:"latency"`
	QueueSize            int      `toml:"queue_size"`
	ShutdownGrace        duration `toml:"shutdown_grace"`
}

// RedisConfig holds Redis connection parameters. Redis is optional; when
// disabled the price mirror and signal bus are skipped.
type RedisConfig struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// PostgresConfig holds PostgreSQL connection parameters. Postgres is
// optional; when disabled opportunities and trades stay in memory only.
type PostgresConfig struct {
	Enabled       bool   `toml:"enabled"`
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// S3Config holds S3-compatible object storage parameters, used to archive
// finished sessions.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// NotifyConfig holds notification channel credentials. Channels without
// credentials are simply not wired.
type NotifyConfig struct {
	DiscordWebhookURL string `toml:"discord_webhook_url"`
	TelegramToken     string `toml:"telegram_token"`
	TelegramChatID    string `toml:"telegram_chat_id"`
	// MinProfitFraction filters which opportunities are worth an alert;
	// zero alerts on everything the detector emits.
	MinProfitFraction float64 `toml:"min_profit_fraction"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Polymarket: PolymarketConfig{
			GammaHost:  "https://gamma-api.polymarket.com",
			ClobHost:   "https://clob.polymarket.com",
			WsHost:     "wss://ws-subscriptions-clob.polymarket.com",
			MaxMarkets: 500,
			MaxEvents:  100,
		},
		Detector: DetectorConfig{
			MinProfitFraction: 0.01,
			MinLiquidity:      1000,
			StaleTimeout:      duration{60 * time.Second},
			DedupWindow:       duration{30 * time.Second},
			DedupPrecision:    4,
		},
		Paper: PaperConfig{
			Preset:               "moderate",
			InitialBalance:       1000,
			PositionSize:         100,
			LiquidityFractionCap: 0.05,
			FailureRate:          0.2,
			Latency:              duration{2 * time.Second},
			QueueSize:            64,
			ShutdownGrace:        duration{5 * time.Second},
		},
		Redis: RedisConfig{
			Enabled:    false,
			Addr:       "localhost:6379",
			PoolSize:   20,
			MaxRetries: 3,
		},
		Postgres: PostgresConfig{
			Enabled:       false,
			Host:          "localhost",
			Port:          5432,
			Database:      "polyarb",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		S3: S3Config{
			Enabled:        false,
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "polyarb-sessions",
			UseSSL:         false,
			ForcePathStyle: true,
		},
		Mode:     "monitor",
		LogLevel: "info",
	}
}

// Preset is a named bundle of detector and simulator tuning.
type Preset struct {
	Name                 string
	MinProfitFraction    float64
	MinLiquidity         float64
	PositionSize         float64
	LiquidityFractionCap float64
	Latency              time.Duration
	FailureRate          float64
}

// presets mirror the published arbitrage research: conservative assumes
// worst-case execution, aggressive catches more mispricings but loses more
// races.
var presets = map[string]Preset{
	"conservative": {
		Name:                 "conservative",
		MinProfitFraction:    0.05,
		MinLiquidity:         10000,
		PositionSize:         50,
		LiquidityFractionCap: 0.01,
		Latency:              3 * time.Second,
		FailureRate:          0.3,
	},
	"moderate": {
		Name:                 "moderate",
		MinProfitFraction:    0.03,
		MinLiquidity:         5000,
		PositionSize:         100,
		LiquidityFractionCap: 0.03,
		Latency:              2 * time.Second,
		FailureRate:          0.2,
	},
	"aggressive": {
		Name:                 "aggressive",
		MinProfitFraction:    0.01,
		MinLiquidity:         1000,
		PositionSize:         200,
		LiquidityFractionCap: 0.05,
		Latency:              time.Second,
		FailureRate:          0.1,
	},
}

// PresetNames lists the selectable presets, plus "custom".
func PresetNames() []string {
	return []string{"conservative", "moderate", "aggressive", "custom"}
}

// ApplyPreset overwrites tuning fields with the named preset's values.
// "custom" and empty leave the explicit configuration untouched. Load calls
// this; callers that change Paper.Preset afterwards must call it again.
func (c *Config) ApplyPreset() error {
	name := strings.ToLower(strings.TrimSpace(c.Paper.Preset))
	if name == "" || name == "custom" {
		return nil
	}
	p, ok := presets[name]
	if !ok {
		return fmt.Errorf("unknown paper preset %q (valid: %s)", c.Paper.Preset, strings.Join(PresetNames(), ", "))
	}
	c.Detector.MinProfitFraction = p.MinProfitFraction
	c.Detector.MinLiquidity = p.MinLiquidity
	c.Paper.PositionSize = p.PositionSize
	c.Paper.LiquidityFractionCap = p.LiquidityFractionCap
	c.Paper.Latency = duration{p.Latency}
	c.Paper.FailureRate = p.FailureRate
	return nil
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"scan":    true,
	"monitor": true,
	"paper":   true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: scan, monitor, paper)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Polymarket endpoints
	if c.Polymarket.GammaHost == "" {
		errs = append(errs, "polymarket: gamma_host must not be empty")
	}
	if c.Polymarket.ClobHost == "" {
		errs = append(errs, "polymarket: clob_host must not be empty")
	}
	if c.Mode != "scan" && c.Polymarket.WsHost == "" {
		errs = append(errs, "polymarket: ws_host must not be empty for mode "+c.Mode)
	}
	if c.Polymarket.MaxMarkets < 1 {
		errs = append(errs, "polymarket: max_markets must be >= 1")
	}
	if c.Polymarket.MaxEvents < 0 {
		errs = append(errs, "polymarket: max_events must be >= 0")
	}

	// Detector
	if c.Detector.MinProfitFraction < 0 || c.Detector.MinProfitFraction >= 1 {
		errs = append(errs, fmt.Sprintf("detector: min_profit_fraction must be in [0, 1), got %v", c.Detector.MinProfitFraction))
	}
	if c.Detector.MinLiquidity < 0 {
		errs = append(errs, "detector: min_liquidity must be >= 0")
	}
	if c.Detector.StaleTimeout.Duration < 0 {
		errs = append(errs, "detector: stale_timeout must not be negative")
	}
	if c.Detector.DedupWindow.Duration <= 0 {
		errs = append(errs, "detector: dedup_window must be > 0")
	}
	if c.Detector.DedupPrecision < 0 || c.Detector.DedupPrecision > 8 {
		errs = append(errs, fmt.Sprintf("detector: dedup_precision must be 0-8, got %d", c.Detector.DedupPrecision))
	}

	// Paper trading
	if c.Mode == "paper" {
		if c.Paper.InitialBalance <= 0 {
			errs = append(errs, "paper: initial_balance must be > 0")
		}
		if c.Paper.PositionSize <= 0 {
			errs = append(errs, "paper: position_size must be > 0")
		}
		if c.Paper.LiquidityFractionCap < 0 || c.Paper.LiquidityFractionCap > 1 {
			errs = append(errs, fmt.Sprintf("paper: liquidity_fraction_cap must be in [0, 1], got %v", c.Paper.LiquidityFractionCap))
		}
		if c.Paper.FailureRate < 0 || c.Paper.FailureRate > 1 {
			errs = append(errs, fmt.Sprintf("paper: failure_rate must be in [0, 1], got %v", c.Paper.FailureRate))
		}
		if c.Paper.QueueSize < 1 {
			errs = append(errs, "paper: queue_size must be >= 1")
		}
		if c.Paper.ShutdownGrace.Duration < 0 {
			errs = append(errs, "paper: shutdown_grace must not be negative")
		}
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty when enabled")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	// Postgres
	if c.Postgres.Enabled {
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			if c.Postgres.Host == "" {
				errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
			}
			if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
				errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
			}
			if c.Postgres.Database == "" {
				errs = append(errs, "postgres: database must not be empty")
			}
		}
		if c.Postgres.PoolMaxConns < 1 {
			errs = append(errs, "postgres: pool_max_conns must be >= 1")
		}
		if c.Postgres.PoolMinConns < 0 {
			errs = append(errs, "postgres: pool_min_conns must be >= 0")
		}
		if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
			errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
		}
	}

	// S3
	if c.S3.Enabled {
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty when enabled")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty when enabled")
		}
	}

	// Notify — telegram needs both halves.
	tt := c.Notify.TelegramToken != ""
	tc := c.Notify.TelegramChatID != ""
	if tt != tc {
		errs = append(errs, "notify: telegram_token and telegram_chat_id must be set together")
	}
	if c.Notify.MinProfitFraction < 0 || c.Notify.MinProfitFraction >= 1 {
		errs = append(errs, fmt.Sprintf("notify: min_profit_fraction must be in [0, 1), got %v", c.Notify.MinProfitFraction))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
