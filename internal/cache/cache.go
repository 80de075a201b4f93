package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Aikkad/mac-trading-academy/internal/model"
)

// Key identifies a fetch request exactly. Entries are never invalidated, so a
// cached series may be stale; that is acceptable for a dashboard.
type Key struct {
	Symbol     string
	PeriodDays int
	Interval   model.Interval
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%d:%s", k.Symbol, k.PeriodDays, k.Interval)
}

// Cache memoizes bar series by request key.
type Cache interface {
	Get(ctx context.Context, key Key) (*model.BarSeries, bool, error)
	Put(ctx context.Context, key Key, series *model.BarSeries) error
	Close() error
}

// New builds the cache backend named by kind: "memory", "sqlite", "redis" or "none".
func New(kind, sqlitePath, redisAddr string, redisDB int) (Cache, error) {
	switch strings.ToLower(kind) {
	case "", "memory":
		return NewMemoryCache(), nil
	case "sqlite":
		return NewSQLiteCache(sqlitePath)
	case "redis":
		return NewRedisCache(redisAddr, redisDB)
	case "none":
		return NewNoopCache(), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", kind)
	}
}

// cachedSeries is the payload stored by the persistent backends. Symbol is the
// name the source served the bars under, which may differ from the requested
// one after alias resolution.
type cachedSeries struct {
	Symbol string      `json:"symbol"`
	Bars   []model.Bar `json:"bars"`
}

func encodeBars(series *model.BarSeries) ([]byte, error) {
	return json.Marshal(cachedSeries{Symbol: series.Symbol(), Bars: series.Bars()})
}

func decodeBars(key Key, data []byte) (*model.BarSeries, error) {
	var payload cachedSeries
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decode cached bars %s: %w", key, err)
	}
	symbol := payload.Symbol
	if symbol == "" {
		symbol = key.Symbol
	}
	return model.NewBarSeries(symbol, key.Interval, key.PeriodDays, payload.Bars)
}
