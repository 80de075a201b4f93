package calculator

import (
	"math"

	"github.com/Aikkad/mac-trading-academy/internal/model"
)

// Summary holds the headline metrics of a dashboard.
type Summary struct {
	Price     float64 // last close
	ChangePct float64 // last bar change in percent
	Volume    int64   // last volume
	RSI       float64 // last RSI value
	High      float64 // highest high over the series
	Low       float64 // lowest low over the series
}

// Summarize extracts the latest metrics from a series and its RSI.
// Values that cannot be derived are NaN.
func Summarize(series *model.BarSeries, rsi []float64) Summary {
	s := Summary{
		Price:     math.NaN(),
		ChangePct: math.NaN(),
		RSI:       math.NaN(),
		High:      math.NaN(),
		Low:       math.NaN(),
	}
	last, ok := series.Last()
	if !ok {
		return s
	}
	s.Price = last.Close
	s.Volume = last.Volume
	s.ChangePct = LastChangePct(series.Closes())
	if len(rsi) > 0 {
		s.RSI = rsi[len(rsi)-1]
	}
	s.High, s.Low = PeriodRange(series)
	return s
}

// LastChangePct returns the percent change of the last close over the previous one.
func LastChangePct(closes []float64) float64 {
	n := len(closes)
	if n < 2 || closes[n-2] <= 0 {
		return math.NaN()
	}
	return (closes[n-1] - closes[n-2]) / closes[n-2] * 100
}

// PeriodRange scans the whole series and returns the highest high and lowest low.
func PeriodRange(series *model.BarSeries) (high, low float64) {
	if series.Empty() {
		return math.NaN(), math.NaN()
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for i := 0; i < series.Len(); i++ {
		b := series.Bar(i)
		if b.High > high {
			high = b.High
		}
		if b.Low < low {
			low = b.Low
		}
	}
	return high, low
}
