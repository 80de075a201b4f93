package main

import (
	"fmt"
	"log"
	"strings"

	"github.com/Aikkad/mac-trading-academy/internal/cache"
	"github.com/Aikkad/mac-trading-academy/internal/collector"
	"github.com/Aikkad/mac-trading-academy/internal/config"
	"github.com/Aikkad/mac-trading-academy/internal/desk"
	"github.com/Aikkad/mac-trading-academy/internal/metrics"
	"github.com/Aikkad/mac-trading-academy/internal/model"
)

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func newSource(name string, cfg *config.Config) collector.Provider {
	switch strings.ToLower(name) {
	case "vstrader":
		return collector.NewVsTraderFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	case "mock":
		return &collector.MockFetcher{Price: 100}
	default:
		return collector.NewYahooFetcher(cfg.Proxy)
	}
}

// newDesk wires sources, the fallback chain and the fetch cache. The returned
// cache must be closed by the caller.
func newDesk(cfg *config.Config, m *metrics.Metrics) (*desk.Desk, cache.Cache) {
	primary := newSource(cfg.DataSource.Provider, cfg)
	var secondary collector.Provider
	if cfg.DataSource.Secondary != "" {
		secondary = newSource(cfg.DataSource.Secondary, cfg)
	}
	chain := collector.NewFallbackProvider(primary, secondary, cfg.DataSource.Aliases, m)

	c, err := cache.New(cfg.Cache.Backend, cfg.Cache.SQLitePath, cfg.Cache.RedisAddr, cfg.Cache.RedisDB)
	if err != nil {
		log.Printf("[WARN] init %s cache failed, using memory: %v", cfg.Cache.Backend, err)
		c = cache.NewMemoryCache()
	}
	provider := collector.NewCachedProvider(chain, c, m)
	log.Printf("[INFO] data source: %s, cache: %s", chain.Name(), cfg.Cache.Backend)
	return desk.New(provider, m), c
}

func defaultRequest(cfg *config.Config) (desk.Request, desk.Params, error) {
	iv, err := model.ParseInterval(cfg.Defaults.Interval)
	if err != nil {
		return desk.Request{}, desk.Params{}, err
	}
	req := desk.Request{Symbol: cfg.Defaults.Symbol, PeriodDays: cfg.Defaults.PeriodDays, Interval: iv}
	params := desk.Params{
		FastWindow: cfg.Defaults.FastWindow,
		SlowWindow: cfg.Defaults.SlowWindow,
		RSIWindow:  cfg.Defaults.RSIWindow,
	}
	return req, params, nil
}
