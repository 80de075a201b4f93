// Package chart renders dashboard snapshots as standalone SVG documents.
package chart

import (
	"bytes"
	"fmt"
	"html"
	"math"
	"strconv"
	"strings"

	"github.com/Aikkad/mac-trading-academy/internal/desk"
	"github.com/Aikkad/mac-trading-academy/internal/model"
)

// Options controls the rendered size and optional overlays.
type Options struct {
	Width  int
	Height int
	// Crosses, when set, are drawn as entry/exit markers on the price pane.
	Crosses []model.Cross
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = 980
	}
	if o.Height <= 0 {
		o.Height = 720
	}
	return o
}

const (
	colBackground = "#0b1220"
	colGrid       = "rgba(255,255,255,0.08)"
	colText       = "rgba(255,255,255,0.85)"
	colUp         = "#22c55e"
	colDown       = "#ef4444"
	colFast       = "#f59e0b"
	colSlow       = "#38bdf8"
	colRSI        = "#a78bfa"
	colGuide      = "rgba(255,255,255,0.45)"
	font          = `font-family="ui-monospace, Menlo, Monaco, Consolas, monospace"`
)

// pane is a horizontal band of the plot area with its own value scale.
type pane struct {
	top, height float64
	min, max    float64
}

func (p pane) y(v float64) float64 {
	r := (v - p.min) / (p.max - p.min)
	r = math.Max(0, math.Min(1, r))
	return p.top + (1-r)*p.height
}

// RenderDashboardSVG draws three stacked panes: candles with the fast and slow
// moving averages, volume coloured by direction, and RSI with 70/30 guides.
func RenderDashboardSVG(snap *desk.Snapshot, opt Options) ([]byte, error) {
	opt = opt.withDefaults()
	if snap == nil || snap.Series == nil || snap.Series.Len() < 2 {
		n := 0
		if snap != nil && snap.Series != nil {
			n = snap.Series.Len()
		}
		return nil, fmt.Errorf("not enough bars: %d", n)
	}
	series := snap.Series
	ind := snap.Indicators

	w := float64(opt.Width)
	h := float64(opt.Height)
	mLeft, mRight, mTop, mBottom := 70.0, 20.0, 28.0, 36.0
	gap := 14.0
	plotW := w - mLeft - mRight
	plotH := h - mTop - mBottom - 2*gap
	if plotW <= 10 || plotH <= 30 {
		return nil, fmt.Errorf("invalid chart size")
	}

	price := pane{top: mTop, height: plotH * 0.6}
	price.min, price.max = priceRange(series, ind)
	vol := pane{top: price.top + price.height + gap, height: plotH * 0.2, min: 0, max: maxVolume(series)}
	rsi := pane{top: vol.top + vol.height + gap, height: plotH * 0.2, min: 0, max: 100}

	n := series.Len()
	step := plotW / float64(n)
	cw := math.Max(1.0, step*0.65)
	xAt := func(i int) float64 { return mLeft + (float64(i)+0.5)*step }

	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	buf.WriteString(`<svg xmlns="http://www.w3.org/2000/svg" width="` + strconv.Itoa(opt.Width) + `" height="` + strconv.Itoa(opt.Height) +
		`" viewBox="0 0 ` + strconv.Itoa(opt.Width) + ` ` + strconv.Itoa(opt.Height) + `">` + "\n")
	buf.WriteString(`<rect x="0" y="0" width="100%" height="100%" fill="` + colBackground + `"/>` + "\n")

	first := series.Bar(0).Time
	last := series.Bar(n - 1).Time
	layout := "2006-01-02"
	if series.Interval().Intraday() {
		layout = "2006-01-02 15:04"
	}
	title := strings.TrimSpace(series.Symbol())
	if title == "" {
		title = "UNKNOWN"
	}
	text(&buf, mLeft, 18, colText, 14, fmt.Sprintf("%s %s  %s ~ %s", title, series.Interval(), first.Format(layout), last.Format(layout)))

	// Price pane
	for k := 0; k <= 4; k++ {
		y := price.top + float64(k)/4*price.height
		hline(&buf, mLeft, mLeft+plotW, y, colGrid, "")
		text(&buf, 6, y+4, colText, 12, fmtPrice(price.max-float64(k)/4*(price.max-price.min)))
	}
	for i := 0; i < n; i++ {
		b := series.Bar(i)
		x := xAt(i)
		col := colUp
		if b.Close < b.Open {
			col = colDown
		}
		yTop := math.Min(price.y(b.Open), price.y(b.Close))
		yBot := math.Max(price.y(b.Open), price.y(b.Close))
		if yBot-yTop < 1 {
			yBot = yTop + 1
		}
		buf.WriteString(`<line x1="` + fmtFloat(x) + `" y1="` + fmtFloat(price.y(b.High)) + `" x2="` + fmtFloat(x) + `" y2="` + fmtFloat(price.y(b.Low)) + `" stroke="` + col + `" stroke-width="1"/>` + "\n")
		buf.WriteString(`<rect x="` + fmtFloat(x-cw/2) + `" y="` + fmtFloat(yTop) + `" width="` + fmtFloat(cw) + `" height="` + fmtFloat(yBot-yTop) + `" fill="` + col + `" opacity="0.9"/>` + "\n")
	}
	polyline(&buf, ind.MAFast, xAt, price, colFast)
	polyline(&buf, ind.MASlow, xAt, price, colSlow)
	text(&buf, mLeft+6, price.top+14, colFast, 12, "MA"+strconv.Itoa(ind.FastWindow))
	text(&buf, mLeft+60, price.top+14, colSlow, 12, "MA"+strconv.Itoa(ind.SlowWindow))
	if snap.ShortHistory {
		text(&buf, mLeft+120, price.top+14, colText, 12, "not enough history for MA"+strconv.Itoa(ind.SlowWindow))
	}
	for _, c := range opt.Crosses {
		if c.Index < 0 || c.Index >= n {
			continue
		}
		col, label := colUp, "BUY"
		if c.Kind == model.CrossExit {
			col, label = colDown, "SELL"
		}
		x := xAt(c.Index)
		y := price.y(series.Bar(c.Index).Close)
		buf.WriteString(`<circle cx="` + fmtFloat(x) + `" cy="` + fmtFloat(y) + `" r="3.5" fill="` + col + `" />` + "\n")
		text(&buf, x+6, y-6, col, 11, label)
	}

	// Volume pane
	hline(&buf, mLeft, mLeft+plotW, vol.top, colGrid, "")
	text(&buf, 6, vol.top+12, colText, 12, "Vol")
	for i := 0; i < n; i++ {
		col := colDown
		if i < len(ind.Up) && ind.Up[i] {
			col = colUp
		}
		y := vol.y(float64(series.Bar(i).Volume))
		buf.WriteString(`<rect x="` + fmtFloat(xAt(i)-cw/2) + `" y="` + fmtFloat(y) + `" width="` + fmtFloat(cw) + `" height="` + fmtFloat(vol.top+vol.height-y) + `" fill="` + col + `" opacity="0.6"/>` + "\n")
	}

	// RSI pane
	hline(&buf, mLeft, mLeft+plotW, rsi.top, colGrid, "")
	hline(&buf, mLeft, mLeft+plotW, rsi.y(70), colGuide, "4 4")
	hline(&buf, mLeft, mLeft+plotW, rsi.y(30), colGuide, "4 4")
	text(&buf, 6, rsi.y(70)+4, colText, 12, "70")
	text(&buf, 6, rsi.y(30)+4, colText, 12, "30")
	text(&buf, mLeft+6, rsi.top+12, colRSI, 12, "RSI"+strconv.Itoa(ind.RSIWindow))
	polyline(&buf, ind.RSI, xAt, rsi, colRSI)

	// Footer dates
	footY := h - 12
	text(&buf, mLeft, footY, colText, 12, first.Format(layout))
	text(&buf, mLeft+plotW-float64(len(layout))*7.5, footY, colText, 12, last.Format(layout))

	buf.WriteString(`</svg>` + "\n")
	return buf.Bytes(), nil
}

// polyline draws values as connected segments. A NaN ends the current segment.
func polyline(buf *bytes.Buffer, values []float64, xAt func(int) float64, p pane, col string) {
	var pts []string
	flush := func() {
		if len(pts) >= 2 {
			buf.WriteString(`<polyline fill="none" stroke="` + col + `" stroke-width="1.5" points="` + strings.Join(pts, " ") + `"/>` + "\n")
		}
		pts = pts[:0]
	}
	for i, v := range values {
		if math.IsNaN(v) {
			flush()
			continue
		}
		pts = append(pts, fmtFloat(xAt(i))+","+fmtFloat(p.y(v)))
	}
	flush()
}

func hline(buf *bytes.Buffer, x1, x2, y float64, col, dash string) {
	style := ""
	if dash != "" {
		style = ` stroke-dasharray="` + dash + `"`
	}
	buf.WriteString(`<line x1="` + fmtFloat(x1) + `" y1="` + fmtFloat(y) + `" x2="` + fmtFloat(x2) + `" y2="` + fmtFloat(y) + `" stroke="` + col + `" stroke-width="1"` + style + `/>` + "\n")
}

func text(buf *bytes.Buffer, x, y float64, col string, size int, s string) {
	buf.WriteString(`<text x="` + fmtFloat(x) + `" y="` + fmtFloat(y) + `" fill="` + col + `" font-size="` + strconv.Itoa(size) + `" ` + font + `>` +
		html.EscapeString(s) + `</text>` + "\n")
}

func priceRange(series *model.BarSeries, ind model.IndicatorOutput) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for i := 0; i < series.Len(); i++ {
		b := series.Bar(i)
		lo = math.Min(lo, b.Low)
		hi = math.Max(hi, b.High)
	}
	for _, xs := range [][]float64{ind.MAFast, ind.MASlow} {
		for _, v := range xs {
			if !math.IsNaN(v) {
				lo = math.Min(lo, v)
				hi = math.Max(hi, v)
			}
		}
	}
	pad := (hi - lo) * 0.05
	if pad <= 0 {
		pad = math.Max(math.Abs(lo)*0.02, 1)
	}
	return lo - pad, hi + pad
}

func maxVolume(series *model.BarSeries) float64 {
	m := 1.0
	for _, v := range series.Volumes() {
		m = math.Max(m, float64(v))
	}
	return m
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 2, 64)
}

func fmtPrice(p float64) string {
	if p >= 1000 {
		return strconv.FormatFloat(p, 'f', 0, 64)
	}
	if p >= 100 {
		return strconv.FormatFloat(p, 'f', 1, 64)
	}
	return strconv.FormatFloat(p, 'f', 2, 64)
}
