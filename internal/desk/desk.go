// Package desk runs one dashboard computation per call: fetch a series, then
// derive indicators, backtest or paper-trade against it.
package desk

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/Aikkad/mac-trading-academy/internal/calculator"
	"github.com/Aikkad/mac-trading-academy/internal/collector"
	"github.com/Aikkad/mac-trading-academy/internal/metrics"
	"github.com/Aikkad/mac-trading-academy/internal/model"
	"github.com/Aikkad/mac-trading-academy/internal/paper"
	"github.com/Aikkad/mac-trading-academy/internal/strategy"
)

// Request selects the series to fetch.
type Request struct {
	Symbol     string
	PeriodDays int
	Interval   model.Interval
}

func (r Request) String() string {
	return fmt.Sprintf("%s %s %dd", r.Symbol, r.Interval, r.PeriodDays)
}

// Params are the indicator windows.
type Params struct {
	FastWindow int
	SlowWindow int
	RSIWindow  int
}

// DefaultParams returns MA20/MA50 with a 14-period RSI.
func DefaultParams() Params {
	return Params{
		FastWindow: calculator.DefaultFastWindow,
		SlowWindow: calculator.DefaultSlowWindow,
		RSIWindow:  calculator.DefaultRSIWindow,
	}
}

// Snapshot is everything the presentation layer needs to draw a dashboard.
type Snapshot struct {
	Request    Request
	Series     *model.BarSeries
	Indicators model.IndicatorOutput
	Summary    calculator.Summary
	// ShortHistory is set when the series is shorter than the slow window, so
	// the slow average never becomes defined.
	ShortHistory bool
}

// Desk wires the market data provider to the computation core.
type Desk struct {
	Provider collector.Provider
	Metrics  *metrics.Metrics
}

// New creates a Desk.
func New(p collector.Provider, m *metrics.Metrics) *Desk {
	return &Desk{Provider: p, Metrics: m}
}

// normalizeSymbol is the canonical spelling used for requests and ledger positions.
func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

func (d *Desk) fetch(ctx context.Context, req Request) (*model.BarSeries, error) {
	req.Symbol = normalizeSymbol(req.Symbol)
	series, err := d.Provider.Fetch(ctx, req.Symbol, req.PeriodDays, req.Interval)
	if err != nil {
		return nil, err
	}
	if series.Empty() {
		return nil, fmt.Errorf("%w: %s", collector.ErrNoDataAvailable, req)
	}
	return series, nil
}

// Load fetches the series and computes indicators and headline metrics.
func (d *Desk) Load(ctx context.Context, req Request, params Params) (*Snapshot, error) {
	series, err := d.fetch(ctx, req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	ind := calculator.ComputeIndicators(series, params.FastWindow, params.SlowWindow, params.RSIWindow)
	sum := calculator.Summarize(series, ind.RSI)
	d.Metrics.ObserveCompute("indicators", time.Since(start))

	snap := &Snapshot{
		Request:      req,
		Series:       series,
		Indicators:   ind,
		Summary:      sum,
		ShortHistory: series.Len() < params.SlowWindow,
	}
	if snap.ShortHistory {
		log.Printf("[WARN] %s: only %d bars, MA%d not available", req, series.Len(), params.SlowWindow)
	}
	return snap, nil
}

// Backtest fetches the series and runs the crossover backtest on it.
func (d *Desk) Backtest(ctx context.Context, req Request, fastWindow, slowWindow int) (*model.BacktestResult, error) {
	series, err := d.fetch(ctx, req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res, err := strategy.RunBacktest(series, fastWindow, slowWindow)
	d.Metrics.ObserveCompute("backtest", time.Since(start))

	switch {
	case err == nil:
		d.Metrics.ObserveBacktest("ok")
		log.Printf("[INFO] backtest %s MA%d/MA%d: %.2f%%", req, fastWindow, slowWindow, res.TotalReturnPct)
	case errors.Is(err, strategy.ErrInsufficientHistory):
		d.Metrics.ObserveBacktest("insufficient_history")
	case errors.Is(err, strategy.ErrDataIntegrity):
		d.Metrics.ObserveBacktest("data_integrity")
		log.Printf("[ERROR] backtest %s: %v", req, err)
	default:
		d.Metrics.ObserveBacktest("invalid")
	}
	return res, err
}

// Trade fills a simulated order at the last close of the requested series.
func (d *Desk) Trade(ctx context.Context, acct *paper.Account, req Request, side model.Side, qty int64) (*model.Fill, error) {
	series, err := d.fetch(ctx, req)
	if err != nil {
		return nil, err
	}
	last, _ := series.Last()
	// Positions are keyed by the requested symbol, not the name the source
	// resolved it to.
	fill, err := acct.Execute(side, normalizeSymbol(req.Symbol), qty, last.Close)
	if err != nil {
		return nil, err
	}
	d.Metrics.ObserveFill(string(side))
	return fill, nil
}

// Marks returns the latest close for each symbol, skipping symbols that fail to load.
func (d *Desk) Marks(ctx context.Context, symbols []string, periodDays int, interval model.Interval) map[string]float64 {
	marks := make(map[string]float64, len(symbols))
	for _, sym := range symbols {
		series, err := d.fetch(ctx, Request{Symbol: sym, PeriodDays: periodDays, Interval: interval})
		if err != nil {
			log.Printf("[WARN] mark %s: %v", sym, err)
			continue
		}
		last, _ := series.Last()
		marks[sym] = last.Close
	}
	return marks
}
