package model

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	// ErrInvalidBar is returned when a bar violates the OHLCV invariants.
	ErrInvalidBar = errors.New("invalid bar")
	// ErrInvalidSeries is returned when bars are not strictly ordered by time.
	ErrInvalidSeries = errors.New("invalid bar series")
	// ErrInvalidPeriod is returned for a history length outside [MinPeriodDays, MaxPeriodDays].
	ErrInvalidPeriod = errors.New("invalid period")
)

// History bounds accepted by market data providers, in days.
const (
	MinPeriodDays = 5
	MaxPeriodDays = 730
)

// Bar represents a single candlestick bar.
type Bar struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// Validate checks low <= min(open,close) <= max(open,close) <= high and volume >= 0.
func (b Bar) Validate() error {
	for _, p := range []float64{b.Open, b.High, b.Low, b.Close} {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return fmt.Errorf("%w: non-finite price at %s", ErrInvalidBar, b.Time.Format(time.RFC3339))
		}
	}
	if b.Low > math.Min(b.Open, b.Close) || math.Max(b.Open, b.Close) > b.High {
		return fmt.Errorf("%w: o=%.4f h=%.4f l=%.4f c=%.4f at %s",
			ErrInvalidBar, b.Open, b.High, b.Low, b.Close, b.Time.Format(time.RFC3339))
	}
	if b.Volume < 0 {
		return fmt.Errorf("%w: negative volume %d at %s", ErrInvalidBar, b.Volume, b.Time.Format(time.RFC3339))
	}
	return nil
}

// BarSeries is an immutable, time-ordered sequence of bars for one
// symbol/period/interval request. Build it with NewBarSeries.
type BarSeries struct {
	symbol     string
	interval   Interval
	periodDays int
	bars       []Bar
}

// NewBarSeries validates bars and returns a series owning a private copy of them.
// Timestamps must be strictly increasing. An empty slice yields an empty series.
func NewBarSeries(symbol string, interval Interval, periodDays int, bars []Bar) (*BarSeries, error) {
	owned := make([]Bar, len(bars))
	copy(owned, bars)
	for i, b := range owned {
		if err := b.Validate(); err != nil {
			return nil, fmt.Errorf("%w: bar %d: %w", ErrInvalidSeries, i, err)
		}
		if i > 0 && !b.Time.After(owned[i-1].Time) {
			return nil, fmt.Errorf("%w: bar %d at %s is not after %s", ErrInvalidSeries, i,
				b.Time.Format(time.RFC3339), owned[i-1].Time.Format(time.RFC3339))
		}
	}
	return &BarSeries{symbol: symbol, interval: interval, periodDays: periodDays, bars: owned}, nil
}

// Symbol returns the symbol the source served the bars under.
func (s *BarSeries) Symbol() string { return s.symbol }

// Interval returns the bar size.
func (s *BarSeries) Interval() Interval { return s.interval }

// PeriodDays returns the requested history length.
func (s *BarSeries) PeriodDays() int { return s.periodDays }

// Len returns the number of bars.
func (s *BarSeries) Len() int { return len(s.bars) }

// Empty reports whether the series holds no bars.
func (s *BarSeries) Empty() bool { return len(s.bars) == 0 }

// Bar returns the i-th bar.
func (s *BarSeries) Bar(i int) Bar { return s.bars[i] }

// Bars returns a copy of the bars.
func (s *BarSeries) Bars() []Bar {
	out := make([]Bar, len(s.bars))
	copy(out, s.bars)
	return out
}

// Last returns the most recent bar. ok is false for an empty series.
func (s *BarSeries) Last() (bar Bar, ok bool) {
	if len(s.bars) == 0 {
		return Bar{}, false
	}
	return s.bars[len(s.bars)-1], true
}

// Closes extracts the close prices.
func (s *BarSeries) Closes() []float64 {
	closes := make([]float64, len(s.bars))
	for i, b := range s.bars {
		closes[i] = b.Close
	}
	return closes
}

// Volumes extracts the volumes.
func (s *BarSeries) Volumes() []int64 {
	vols := make([]int64, len(s.bars))
	for i, b := range s.bars {
		vols[i] = b.Volume
	}
	return vols
}

// Times extracts the bar timestamps.
func (s *BarSeries) Times() []time.Time {
	ts := make([]time.Time, len(s.bars))
	for i, b := range s.bars {
		ts[i] = b.Time
	}
	return ts
}

// ValidatePeriod checks a requested history length in days.
func ValidatePeriod(days int) error {
	if days < MinPeriodDays || days > MaxPeriodDays {
		return fmt.Errorf("%w: %d days not in [%d, %d]", ErrInvalidPeriod, days, MinPeriodDays, MaxPeriodDays)
	}
	return nil
}
