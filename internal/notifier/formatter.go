package notifier

import (
	"fmt"
	"html"
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/Aikkad/mac-trading-academy/internal/desk"
	"github.com/Aikkad/mac-trading-academy/internal/model"
	"github.com/Aikkad/mac-trading-academy/internal/paper"
	"github.com/Aikkad/mac-trading-academy/internal/strategy"
)

var printer = message.NewPrinter(language.English)

// num formats v with thousands separators, or "n/a" when undefined.
func num(v float64, decimals int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return printer.Sprintf(fmt.Sprintf("%%.%df", decimals), v)
}

func signedPct(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return printer.Sprintf("%+.2f%%", v)
}

func rsiZone(v float64) string {
	switch {
	case math.IsNaN(v):
		return ""
	case v >= 70:
		return " (overbought)"
	case v <= 30:
		return " (oversold)"
	}
	return ""
}

func lastValue(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	return xs[len(xs)-1]
}

// FormatDashboard renders the headline metrics of a snapshot.
func FormatDashboard(snap *desk.Snapshot) string {
	var b strings.Builder
	s := snap.Summary
	ind := snap.Indicators
	last, _ := snap.Series.Last()

	b.WriteString(fmt.Sprintf("📊 <b>%s</b> | %s %dd | %s\n\n",
		html.EscapeString(snap.Series.Symbol()), snap.Series.Interval(), snap.Series.PeriodDays(), last.Time.Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("Price: %s (%s)\n", num(s.Price, 2), signedPct(s.ChangePct)))
	b.WriteString(printer.Sprintf("Volume: %d\n", s.Volume))
	b.WriteString(fmt.Sprintf("RSI%d: %s%s\n", ind.RSIWindow, num(s.RSI, 1), rsiZone(s.RSI)))
	b.WriteString(fmt.Sprintf("MA%d: %s | MA%d: %s\n",
		ind.FastWindow, num(lastValue(ind.MAFast), 2), ind.SlowWindow, num(lastValue(ind.MASlow), 2)))
	b.WriteString(fmt.Sprintf("Range: %s ~ %s\n", num(s.Low, 2), num(s.High, 2)))
	if snap.ShortHistory {
		b.WriteString(fmt.Sprintf("\n⚠️ Only %d bars, MA%d needs more history\n", snap.Series.Len(), ind.SlowWindow))
	}
	return b.String()
}

// FormatBacktest summarizes a crossover backtest.
func FormatBacktest(symbol string, res *model.BacktestResult) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🧪 <b>Backtest %s</b> MA%d/MA%d\n\n", html.EscapeString(symbol), res.FastWindow, res.SlowWindow))
	b.WriteString(fmt.Sprintf("Total return: %s\n", signedPct(res.TotalReturnPct)))

	crosses := strategy.Crossovers(res)
	entries := 0
	for _, c := range crosses {
		if c.Kind == model.CrossEntry {
			entries++
		}
	}
	invested := 0
	for _, v := range res.Signal {
		invested += v
	}
	b.WriteString(fmt.Sprintf("Entries: %d | Exits: %d\n", entries, len(crosses)-entries))
	if n := len(res.Signal); n > 0 {
		b.WriteString(fmt.Sprintf("Time in market: %.0f%% of %d bars\n", float64(invested)/float64(n)*100, n))
		if res.Signal[n-1] == 1 {
			b.WriteString("Currently: LONG\n")
		} else {
			b.WriteString("Currently: FLAT\n")
		}
	}
	return b.String()
}

// FormatFill confirms a paper trade.
func FormatFill(f *model.Fill) string {
	return fmt.Sprintf("✅ %s %d %s @ %s = %s\n<code>%s</code>",
		f.Side, f.Qty, html.EscapeString(f.Symbol), num(f.Price, 2), num(f.Amount, 2), f.ID)
}

// FormatStatement renders the paper account.
func FormatStatement(st paper.Statement) string {
	var b strings.Builder
	b.WriteString("📦 <b>Paper account</b>\n\n")
	b.WriteString(fmt.Sprintf("Capital: %s\n", num(st.Capital, 2)))
	b.WriteString(fmt.Sprintf("Cash: %s\n", num(st.Cash, 2)))
	b.WriteString(fmt.Sprintf("Equity: %s\n", num(st.Equity, 2)))
	b.WriteString(fmt.Sprintf("Realized P&amp;L: %s\n", num(st.RealizedPnL, 2)))
	if len(st.Positions) == 0 {
		b.WriteString("\nNo open positions\n")
	} else {
		b.WriteString("\n")
		for _, p := range st.Positions {
			b.WriteString(fmt.Sprintf("%s x%d avg %s mark %s (%s)\n",
				html.EscapeString(p.Symbol), p.Qty, num(p.AvgCost, 2), num(p.MarkPrice, 2), num(p.UnrealizedPnL, 2)))
		}
	}
	b.WriteString(fmt.Sprintf("Fills: %d\n", st.Fills))
	return b.String()
}
