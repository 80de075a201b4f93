package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/Aikkad/mac-trading-academy/internal/model"
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	DataSource struct {
		// Provider is the primary source: yahoo, vstrader or mock.
		Provider  string            `yaml:"provider"`
		Secondary string            `yaml:"secondary"`
		BaseURL   string            `yaml:"base_url"`
		APIKey    string            `yaml:"api_key"`
		Aliases   map[string]string `yaml:"aliases"`
	} `yaml:"data_source"`
	Cache struct {
		Backend    string `yaml:"backend"`
		SQLitePath string `yaml:"sqlite_path"`
		RedisAddr  string `yaml:"redis_addr"`
		RedisDB    int    `yaml:"redis_db"`
	} `yaml:"cache"`
	Defaults struct {
		Symbol     string `yaml:"symbol"`
		Interval   string `yaml:"interval"`
		PeriodDays int    `yaml:"period_days"`
		FastWindow int    `yaml:"fast_window"`
		SlowWindow int    `yaml:"slow_window"`
		RSIWindow  int    `yaml:"rsi_window"`
	} `yaml:"defaults"`
	Paper struct {
		Capital float64 `yaml:"capital"`
	} `yaml:"paper"`
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`
	Schedule struct {
		RefreshCron string   `yaml:"refresh_cron"`
		Watchlist   []string `yaml:"watchlist"`
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

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("VSTRADER_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("VSTRADER_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Cache.SQLitePath = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Cache.RedisAddr = v
		if cfg.Cache.Backend == "" {
			cfg.Cache.Backend = "redis"
		}
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("PAPER_CAPITAL"); v != "" {
		capital, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("PAPER_CAPITAL: %w", err)
		}
		cfg.Paper.Capital = capital
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.DataSource.Provider == "" {
		c.DataSource.Provider = "yahoo"
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = "memory"
	}
	if c.Cache.SQLitePath == "" {
		c.Cache.SQLitePath = "data/academy_cache.db"
	}
	if c.Defaults.Symbol == "" {
		c.Defaults.Symbol = "AAPL"
	}
	if c.Defaults.Interval == "" {
		c.Defaults.Interval = string(model.Interval1d)
	}
	if c.Defaults.PeriodDays == 0 {
		c.Defaults.PeriodDays = 30
	}
	if c.Defaults.FastWindow == 0 {
		c.Defaults.FastWindow = 20
	}
	if c.Defaults.SlowWindow == 0 {
		c.Defaults.SlowWindow = 50
	}
	if c.Defaults.RSIWindow == 0 {
		c.Defaults.RSIWindow = 14
	}
	if c.Paper.Capital == 0 {
		c.Paper.Capital = 10000
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.Schedule.RefreshCron == "" {
		c.Schedule.RefreshCron = "0 0 22 * * 1-5"
	}
	if len(c.Schedule.Watchlist) == 0 {
		c.Schedule.Watchlist = []string{c.Defaults.Symbol}
	}
}

// TelegramEnabled reports whether both bot credentials are present.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	for _, p := range []string{c.DataSource.Provider, c.DataSource.Secondary} {
		switch strings.ToLower(p) {
		case "", "yahoo", "mock":
		case "vstrader":
			if c.DataSource.BaseURL == "" {
				return fmt.Errorf("data_source.base_url is required for vstrader")
			}
		default:
			return fmt.Errorf("data_source: unknown provider %q", p)
		}
	}
	backend := strings.ToLower(c.Cache.Backend)
	switch backend {
	case "memory", "sqlite", "redis", "none":
	default:
		return fmt.Errorf("cache.backend: unknown backend %q", c.Cache.Backend)
	}
	if backend == "redis" && c.Cache.RedisAddr == "" {
		return fmt.Errorf("cache.redis_addr is required for the redis backend")
	}
	if _, err := model.ParseInterval(c.Defaults.Interval); err != nil {
		return fmt.Errorf("defaults.interval: %w", err)
	}
	if err := model.ValidatePeriod(c.Defaults.PeriodDays); err != nil {
		return fmt.Errorf("defaults.period_days: %w", err)
	}
	if c.Defaults.FastWindow <= 0 || c.Defaults.SlowWindow <= 0 || c.Defaults.RSIWindow <= 0 {
		return fmt.Errorf("defaults: indicator windows must be positive")
	}
	if c.Paper.Capital < 1000 || c.Paper.Capital > 100000 {
		return fmt.Errorf("paper.capital must be within [1000, 100000], got %.2f", c.Paper.Capital)
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	if _, err := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow).Parse(c.Schedule.RefreshCron); err != nil {
		return fmt.Errorf("schedule.refresh_cron: %w", err)
	}
	return nil
}
