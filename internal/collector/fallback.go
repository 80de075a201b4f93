package collector

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/Aikkad/mac-trading-academy/internal/metrics"
	"github.com/Aikkad/mac-trading-academy/internal/model"
)

// DefaultAliases maps common index and share-class spellings to Yahoo tickers.
var DefaultAliases = map[string]string{
	"SPX500": "^GSPC",
	"SPX":    "^GSPC",
	"SP500":  "^GSPC",
	"NASDAQ": "^IXIC",
	"NDX":    "^NDX",
	"DOW":    "^DJI",
	"VIX":    "^VIX",
	"BRK.B":  "BRK-B",
	"BF.B":   "BF-B",
}

// FallbackProvider runs the fetch fallback chain:
// primary source, then the primary again with the normalized symbol, then the
// secondary source. An empty result counts as a failure.
type FallbackProvider struct {
	Primary   Provider
	Secondary Provider // optional
	Aliases   map[string]string
	Metrics   *metrics.Metrics
}

// NewFallbackProvider creates a chain over primary and an optional secondary source.
func NewFallbackProvider(primary, secondary Provider, aliases map[string]string, m *metrics.Metrics) *FallbackProvider {
	merged := make(map[string]string, len(DefaultAliases)+len(aliases))
	for k, v := range DefaultAliases {
		merged[k] = v
	}
	for k, v := range aliases {
		merged[strings.ToUpper(k)] = v
	}
	return &FallbackProvider{Primary: primary, Secondary: secondary, Aliases: merged, Metrics: m}
}

func (p *FallbackProvider) Name() string {
	if p.Secondary == nil {
		return p.Primary.Name()
	}
	return p.Primary.Name() + ">" + p.Secondary.Name()
}

// Normalize trims and upper-cases a symbol and resolves aliases.
func (p *FallbackProvider) Normalize(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if mapped, ok := p.Aliases[s]; ok {
		return mapped
	}
	return s
}

type fetchStage struct {
	label  string
	source Provider
	symbol string
}

func (p *FallbackProvider) Fetch(ctx context.Context, symbol string, periodDays int, interval model.Interval) (*model.BarSeries, error) {
	if err := model.ValidatePeriod(periodDays); err != nil {
		return nil, err
	}
	if !interval.Valid() {
		return nil, fmt.Errorf("%w: %q", model.ErrInvalidInterval, interval)
	}
	if strings.TrimSpace(symbol) == "" {
		return nil, fmt.Errorf("%w: empty symbol", ErrNoDataAvailable)
	}

	normalized := p.Normalize(symbol)
	stages := []fetchStage{{label: "primary", source: p.Primary, symbol: symbol}}
	if normalized != symbol {
		stages = append(stages, fetchStage{label: "normalized", source: p.Primary, symbol: normalized})
	}
	if p.Secondary != nil {
		stages = append(stages, fetchStage{label: "secondary", source: p.Secondary, symbol: normalized})
	}

	var lastErr error
	for _, st := range stages {
		start := time.Now()
		series, err := st.source.Fetch(ctx, st.symbol, periodDays, interval)
		took := time.Since(start)

		switch {
		case err != nil:
			p.Metrics.ObserveFetch(st.source.Name(), "error", took)
			lastErr = err
			log.Printf("[WARN] %s fetch %s (%s) failed: %v", st.label, st.symbol, st.source.Name(), err)
		case series.Empty():
			p.Metrics.ObserveFetch(st.source.Name(), "empty", took)
			lastErr = fmt.Errorf("%s returned no bars for %s", st.source.Name(), st.symbol)
			log.Printf("[WARN] %s fetch %s (%s) returned no bars", st.label, st.symbol, st.source.Name())
		default:
			p.Metrics.ObserveFetch(st.source.Name(), "ok", took)
			if st.label != "primary" {
				log.Printf("[INFO] %s %s %dd served by %s stage (%s)", symbol, interval, periodDays, st.label, st.source.Name())
			}
			return series, nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
	}

	if errors.Is(lastErr, ErrNoDataAvailable) {
		return nil, fmt.Errorf("%s %dd %s: %w", symbol, periodDays, interval, lastErr)
	}
	return nil, fmt.Errorf("%w: %s %dd %s: %w", ErrNoDataAvailable, symbol, periodDays, interval, lastErr)
}
