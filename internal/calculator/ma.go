package calculator

import (
	"math"

	"github.com/Aikkad/mac-trading-academy/internal/model"
)

// Default indicator windows.
const (
	DefaultFastWindow = 20
	DefaultSlowWindow = 50
	DefaultRSIWindow  = 14
)

// SMASeries computes the simple moving average of prices over a trailing window.
// out[i] is the arithmetic mean of prices[i-window+1..i], recomputed from the raw
// window at every position. Positions before the window is full are NaN, as is
// every position when window <= 0.
func SMASeries(prices []float64, window int) []float64 {
	out := nanSeries(len(prices))
	if window <= 0 {
		return out
	}
	for i := window - 1; i < len(prices); i++ {
		out[i] = mean(prices[i-window+1 : i+1])
	}
	return out
}

// ComputeIndicators derives the moving averages, RSI and up/down classification
// for a series. It never fails; undefined positions are NaN and must be treated
// as not yet renderable, never as zero.
func ComputeIndicators(series *model.BarSeries, fastWindow, slowWindow, rsiWindow int) model.IndicatorOutput {
	closes := series.Closes()
	return model.IndicatorOutput{
		FastWindow: fastWindow,
		SlowWindow: slowWindow,
		RSIWindow:  rsiWindow,
		MAFast:     SMASeries(closes, fastWindow),
		MASlow:     SMASeries(closes, slowWindow),
		RSI:        RSISeries(closes, rsiWindow),
		Up:         Directions(closes),
	}
}

// Directions classifies each bar for volume colouring: bar i is up when its
// close is strictly above the previous close. The first bar is always up; this
// is a display convention, not something derived from the data.
func Directions(closes []float64) []bool {
	up := make([]bool, len(closes))
	for i := range closes {
		if i == 0 {
			up[i] = true
			continue
		}
		up[i] = closes[i] > closes[i-1]
	}
	return up
}

func mean(xs []float64) float64 {
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
