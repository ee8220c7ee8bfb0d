package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// minHistoryDays keeps the calendar window wide enough for 30 trading closes.
const minHistoryDays = 60

// Broker modes.
const (
	BrokerDryRun = "DRY_RUN"
	BrokerLive   = "LIVE"
)

// Config holds all application configuration.
type Config struct {
	Server struct {
		Port          string `yaml:"port"`
		DefaultTicker string `yaml:"default_ticker"`
	} `yaml:"server"`
	Log struct {
		Level   string `yaml:"level"`
		Format  string `yaml:"format"` // json or console
		Tracing bool   `yaml:"tracing"`
	} `yaml:"log"`
	DataSource struct {
		Provider string `yaml:"provider"` // yahoo, rest or mock
		BaseURL  string `yaml:"base_url"`
		APIKey   string `yaml:"api_key"`
	} `yaml:"data_source"`
	Signal struct {
		CacheTTL     time.Duration `yaml:"cache_ttl"`
		Attempts     int           `yaml:"attempts"`
		HistoryDays  int           `yaml:"history_days"`
		FetchTimeout time.Duration `yaml:"fetch_timeout"`
	} `yaml:"signal"`
	Broker struct {
		Mode        string `yaml:"mode"` // DRY_RUN, LIVE or empty
		APIKey      string `yaml:"api_key"`
		AccessToken string `yaml:"access_token"`
		Exchange    string `yaml:"exchange"`
		Precision   int32  `yaml:"precision"` // dry-run quantity decimals
	} `yaml:"broker"`
	Trading struct {
		Symbols   []string      `yaml:"symbols"`
		Notional  float64       `yaml:"notional"`
		Interval  time.Duration `yaml:"interval"`
		Backoff   time.Duration `yaml:"backoff"`
		Autostart bool          `yaml:"autostart"`
	} `yaml:"trading"`
	Database struct {
		SQLitePath  string `yaml:"sqlite_path"`
		RedisURL    string `yaml:"redis_url"`
		RedisStream string `yaml:"redis_stream"`
	} `yaml:"database"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Schedule struct {
		WarmCron   string `yaml:"warm_cron"`
		DigestCron string `yaml:"digest_cron"`
	} `yaml:"schedule"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A missing file is not an error.
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

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	str := map[string]*string{
		"PORT":                 &c.Server.Port,
		"DEFAULT_TICKER":       &c.Server.DefaultTicker,
		"LOG_LEVEL":            &c.Log.Level,
		"LOG_FORMAT":           &c.Log.Format,
		"BROKER_MODE":          &c.Broker.Mode,
		"KITE_API_KEY":         &c.Broker.APIKey,
		"KITE_ACCESS_TOKEN":    &c.Broker.AccessToken,
		"KITE_EXCHANGE":        &c.Broker.Exchange,
		"SQLITE_PATH":          &c.Database.SQLitePath,
		"REDIS_URL":            &c.Database.RedisURL,
		"TELEGRAM_BOT_TOKEN":   &c.Telegram.BotToken,
		"TELEGRAM_CHAT_ID":     &c.Telegram.ChatID,
		"HTTPS_PROXY":          &c.Proxy,
		"DATA_SOURCE_PROVIDER": &c.DataSource.Provider,
		"DATA_SOURCE_BASE_URL": &c.DataSource.BaseURL,
		"DATA_SOURCE_API_KEY":  &c.DataSource.APIKey,
	}
	for key, dst := range str {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	if v := os.Getenv("TRADING_SYMBOLS"); v != "" {
		c.Trading.Symbols = splitList(v)
	}
	if v := os.Getenv("TRADING_NOTIONAL"); v != "" {
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("TRADING_NOTIONAL: %w", err)
		}
		c.Trading.Notional = n
	}
	if v := os.Getenv("TRADING_AUTOSTART"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("TRADING_AUTOSTART: %w", err)
		}
		c.Trading.Autostart = b
	}
	if v := os.Getenv("LOG_TRACING_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("LOG_TRACING_ENABLED: %w", err)
		}
		c.Log.Tracing = b
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Server.DefaultTicker == "" {
		c.Server.DefaultTicker = "BTC-USD"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.DataSource.Provider == "" {
		if c.DataSource.BaseURL != "" {
			c.DataSource.Provider = "rest"
		} else {
			c.DataSource.Provider = "yahoo"
		}
	}
	if c.Signal.CacheTTL == 0 {
		c.Signal.CacheTTL = 300 * time.Second
	}
	if c.Signal.Attempts == 0 {
		c.Signal.Attempts = 3
	}
	if c.Signal.HistoryDays == 0 {
		c.Signal.HistoryDays = 365
	}
	if c.Signal.FetchTimeout == 0 {
		c.Signal.FetchTimeout = 20 * time.Second
	}
	c.Broker.Mode = strings.ToUpper(strings.TrimSpace(c.Broker.Mode))
	if c.Broker.Mode == "" && c.Broker.APIKey != "" && c.Broker.AccessToken != "" {
		c.Broker.Mode = BrokerLive
	}
	if c.Broker.Exchange == "" {
		c.Broker.Exchange = "NSE"
	}
	if c.Broker.Precision == 0 {
		c.Broker.Precision = 6
	}
	if len(c.Trading.Symbols) == 0 {
		c.Trading.Symbols = []string{c.Server.DefaultTicker}
	}
	if c.Trading.Notional == 0 {
		c.Trading.Notional = 1000
	}
	if c.Trading.Interval == 0 {
		c.Trading.Interval = 300 * time.Second
	}
	if c.Trading.Backoff == 0 {
		c.Trading.Backoff = 60 * time.Second
	}
	if c.Schedule.WarmCron == "" {
		c.Schedule.WarmCron = "0 */5 * * * *"
	}
	if c.Schedule.DigestCron == "" {
		c.Schedule.DigestCron = "0 0 22 * * 1-5"
	}
}

// Validate checks that all fields are consistent.
func (c *Config) Validate() error {
	switch c.DataSource.Provider {
	case "yahoo", "mock":
	case "rest":
		if c.DataSource.BaseURL == "" {
			return fmt.Errorf("data_source.base_url is required for the rest provider")
		}
	default:
		return fmt.Errorf("data_source.provider %q: want yahoo, rest or mock", c.DataSource.Provider)
	}
	switch c.Broker.Mode {
	case "", BrokerDryRun:
	case BrokerLive:
		if c.Broker.APIKey == "" || c.Broker.AccessToken == "" {
			return fmt.Errorf("broker.mode LIVE requires KITE_API_KEY and KITE_ACCESS_TOKEN")
		}
	default:
		return fmt.Errorf("broker.mode %q: want DRY_RUN or LIVE", c.Broker.Mode)
	}
	if c.Trading.Notional <= 0 {
		return fmt.Errorf("trading.notional must be positive")
	}
	if c.Signal.Attempts < 1 {
		return fmt.Errorf("signal.attempts must be at least 1")
	}
	if c.Signal.HistoryDays < minHistoryDays {
		return fmt.Errorf("signal.history_days must be at least %d", minHistoryDays)
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
