package collector

import (
	"context"
	"log"

	"github.com/Aikkad/mac-trading-academy/internal/cache"
	"github.com/Aikkad/mac-trading-academy/internal/metrics"
	"github.com/Aikkad/mac-trading-academy/internal/model"
)

// CachedProvider memoizes fetches by the exact (symbol, period, interval) tuple.
// Entries are never invalidated. Cache failures degrade to a plain fetch.
type CachedProvider struct {
	Next    Provider
	Cache   cache.Cache
	Metrics *metrics.Metrics
}

// NewCachedProvider wraps next with the given cache.
func NewCachedProvider(next Provider, c cache.Cache, m *metrics.Metrics) *CachedProvider {
	return &CachedProvider{Next: next, Cache: c, Metrics: m}
}

func (p *CachedProvider) Name() string { return "cached(" + p.Next.Name() + ")" }

func (p *CachedProvider) Fetch(ctx context.Context, symbol string, periodDays int, interval model.Interval) (*model.BarSeries, error) {
	key := cache.Key{Symbol: symbol, PeriodDays: periodDays, Interval: interval}

	series, ok, err := p.Cache.Get(ctx, key)
	switch {
	case err != nil:
		p.Metrics.ObserveCache("error")
		log.Printf("[WARN] cache get %s: %v", key, err)
	case ok:
		p.Metrics.ObserveCache("hit")
		return series, nil
	default:
		p.Metrics.ObserveCache("miss")
	}

	series, err = p.Next.Fetch(ctx, symbol, periodDays, interval)
	if err != nil {
		return nil, err
	}
	if !series.Empty() {
		if err := p.Cache.Put(ctx, key, series); err != nil {
			log.Printf("[WARN] cache put %s: %v", key, err)
		}
	}
	return series, nil
}
