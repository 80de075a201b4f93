package paper

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Position is a holding as reported in a statement.
type Position struct {
	Symbol        string  `json:"symbol"`
	Qty           int64   `json:"qty"`
	AvgCost       float64 `json:"avg_cost"`
	MarkPrice     float64 `json:"mark_price"`
	MarketValue   float64 `json:"market_value"`
	UnrealizedPnL float64 `json:"unrealized_pnl"`
}

// Statement summarizes the account at the given marks.
type Statement struct {
	Capital     float64    `json:"capital"`
	Cash        float64    `json:"cash"`
	RealizedPnL float64    `json:"realized_pnl"`
	Equity      float64    `json:"equity"`
	Positions   []Position `json:"positions"`
	Fills       int        `json:"fills"`
}

// Statement values positions at marks (symbol -> price). Positions without a
// mark are valued at their average cost.
func (a *Account) Statement(marks map[string]float64) Statement {
	a.mu.Lock()
	defer a.mu.Unlock()

	equity := a.cash
	positions := make([]Position, 0, len(a.pos))
	for sym, p := range a.pos {
		qty := decimal.NewFromInt(p.qty)
		avg := p.cost.Div(qty)
		mark := avg
		if m, ok := marks[sym]; ok && m > 0 {
			mark = decimal.NewFromFloat(m)
		}
		value := mark.Mul(qty)
		equity = equity.Add(value)
		positions = append(positions, Position{
			Symbol:        sym,
			Qty:           p.qty,
			AvgCost:       avg.Round(4).InexactFloat64(),
			MarkPrice:     mark.InexactFloat64(),
			MarketValue:   value.Round(2).InexactFloat64(),
			UnrealizedPnL: value.Sub(p.cost).Round(2).InexactFloat64(),
		})
	}
	sort.Slice(positions, func(i, j int) bool { return positions[i].Symbol < positions[j].Symbol })

	return Statement{
		Capital:     a.capital.InexactFloat64(),
		Cash:        a.cash.Round(2).InexactFloat64(),
		RealizedPnL: a.realized.Round(2).InexactFloat64(),
		Equity:      equity.Round(2).InexactFloat64(),
		Positions:   positions,
		Fills:       len(a.fills),
	}
}

// Symbols returns the symbols with an open position.
func (a *Account) Symbols() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.pos))
	for sym := range a.pos {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}
