package cache

import (
	"context"

	"github.com/Aikkad/mac-trading-academy/internal/model"
)

// NoopCache never stores anything; every lookup is a miss.
type NoopCache struct{}

func NewNoopCache() *NoopCache { return &NoopCache{} }

func (n *NoopCache) Get(_ context.Context, _ Key) (*model.BarSeries, bool, error) {
	return nil, false, nil
}
func (n *NoopCache) Put(_ context.Context, _ Key, _ *model.BarSeries) error { return nil }
func (n *NoopCache) Close() error                                             { return nil }
