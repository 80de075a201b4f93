package strategy

import (
	"errors"
	"fmt"

	"github.com/Aikkad/mac-trading-academy/internal/model"
)

var (
	// ErrInsufficientHistory is returned when the series is shorter than the slow window.
	ErrInsufficientHistory = errors.New("insufficient history")
	// ErrDataIntegrity is returned when a zero or negative close would be used as a divisor.
	ErrDataIntegrity = errors.New("data integrity error")
	// ErrInvalidWindow is returned for a non-positive moving-average window.
	ErrInvalidWindow = errors.New("invalid window")
)

// RunBacktest evaluates a long-only moving-average crossover strategy.
//
// The position held at the close of bar i-1 earns the return of bar i, so the
// signal is lagged by exactly one bar. fastWindow is conventionally the smaller
// window but this is not enforced.
func RunBacktest(series *model.BarSeries, fastWindow, slowWindow int) (*model.BacktestResult, error) {
	if fastWindow <= 0 || slowWindow <= 0 {
		return nil, fmt.Errorf("%w: fast=%d slow=%d", ErrInvalidWindow, fastWindow, slowWindow)
	}
	if series.Len() < slowWindow {
		return nil, fmt.Errorf("%w: have %d bars, need %d", ErrInsufficientHistory, series.Len(), slowWindow)
	}

	closes := series.Closes()
	signal := CrossoverSignal(closes, fastWindow, slowWindow)

	returns, err := laggedReturns(closes, signal)
	if err != nil {
		return nil, err
	}
	curve := compound(returns)

	return &model.BacktestResult{
		FastWindow:            fastWindow,
		SlowWindow:            slowWindow,
		Time:                  series.Times(),
		Signal:                signal,
		Returns:               returns,
		CumulativeReturnCurve: curve,
		TotalReturnPct:        (curve[len(curve)-1] - 1) * 100,
	}, nil
}

// laggedReturns computes r[i] = signal[i-1] * pct_change(close[i]); r[0] is 0.
func laggedReturns(closes []float64, signal []int) ([]float64, error) {
	returns := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		prev := closes[i-1]
		if prev <= 0 {
			return nil, fmt.Errorf("%w: close %.6f at bar %d", ErrDataIntegrity, prev, i-1)
		}
		returns[i] = float64(signal[i-1]) * (closes[i] - prev) / prev
	}
	return returns, nil
}

// compound turns period returns into a cumulative growth curve starting at 1.
func compound(returns []float64) []float64 {
	curve := make([]float64, len(returns))
	if len(curve) == 0 {
		return []float64{1}
	}
	curve[0] = 1
	for i := 1; i < len(returns); i++ {
		curve[i] = curve[i-1] * (1 + returns[i])
	}
	return curve
}
