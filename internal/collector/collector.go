package collector

import (
	"context"
	"log"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/Aikkad/mac-trading-academy/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price float64
	// Bars, when set, is returned for every request.
	Bars []model.Bar
	// Err, when set, is returned for every request.
	Err error

	mu    sync.Mutex
	calls []string
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) Fetch(_ context.Context, symbol string, periodDays int, interval model.Interval) (*model.BarSeries, error) {
	m.mu.Lock()
	m.calls = append(m.calls, symbol)
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	if m.Bars != nil {
		return model.NewBarSeries(symbol, interval, periodDays, m.Bars)
	}
	return model.NewBarSeries(symbol, interval, periodDays, generateMockBars(m.Price, periodDays, interval))
}

// Calls returns the symbols requested so far, in order.
func (m *MockFetcher) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// mockBarLimit caps the synthetic history for minute bars.
const mockBarLimit = 2000

func generateMockBars(basePrice float64, periodDays int, interval model.Interval) []model.Bar {
	if basePrice <= 0 {
		basePrice = 100
	}
	step := interval.Duration()
	if step <= 0 {
		return nil
	}
	count := int(time.Duration(periodDays) * 24 * time.Hour / step)
	if count > mockBarLimit {
		count = mockBarLimit
	}
	end := time.Now().UTC().Truncate(step)
	bars := make([]model.Bar, count)
	prev := basePrice
	for i := 0; i < count; i++ {
		p := basePrice * (1 + 0.05*math.Sin(float64(i)/9) + float64(i-count/2)*0.0005)
		bars[i] = model.Bar{
			Time:   end.Add(-time.Duration(count-1-i) * step),
			Open:   prev,
			High:   math.Max(prev, p) * 1.004,
			Low:    math.Min(prev, p) * 0.996,
			Close:  p,
			Volume: int64(1_000_000 + (i%7)*50_000),
		}
		prev = p
	}
	return bars
}

// cleanBars sorts bars chronologically, keeps the last bar for a repeated
// timestamp and drops bars that violate the OHLCV invariants.
func cleanBars(symbol string, bars []model.Bar) []model.Bar {
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })

	out := bars[:0]
	for _, b := range bars {
		if err := b.Validate(); err != nil {
			log.Printf("[WARN] %s: dropping bar: %v", symbol, err)
			continue
		}
		if n := len(out); n > 0 && out[n-1].Time.Equal(b.Time) {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}
	return out
}
