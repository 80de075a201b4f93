package collector

import (
	"context"
	"errors"

	"github.com/Aikkad/mac-trading-academy/internal/model"
)

// ErrNoDataAvailable is returned when no source could supply bars for a request.
var ErrNoDataAvailable = errors.New("no data available")

// Provider supplies a bar series for a symbol, history length in days and bar interval.
type Provider interface {
	Fetch(ctx context.Context, symbol string, periodDays int, interval model.Interval) (*model.BarSeries, error)
	Name() string
}
