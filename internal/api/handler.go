package api

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Aikkad/mac-trading-academy/internal/chart"
	"github.com/Aikkad/mac-trading-academy/internal/collector"
	"github.com/Aikkad/mac-trading-academy/internal/desk"
	"github.com/Aikkad/mac-trading-academy/internal/model"
	"github.com/Aikkad/mac-trading-academy/internal/paper"
	"github.com/Aikkad/mac-trading-academy/internal/strategy"
)

// Input bounds of the dashboard controls.
const (
	minFast, maxFast = 5, 50
	minSlow, maxSlow = 10, 200
	minRSI, maxRSI   = 2, 100
)

var errBadRequest = errors.New("bad request")

// Handler serves the API routes.
type Handler struct {
	desk     *desk.Desk
	account  *paper.Account
	defaults Defaults
}

// NewHandler creates a Handler.
func NewHandler(d *desk.Desk, acct *paper.Account, defaults Defaults) *Handler {
	return &Handler{desk: d, account: acct, defaults: defaults}
}

// number marshals NaN and infinities as null.
type number float64

func (n number) MarshalJSON() ([]byte, error) {
	f := float64(n)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, f, 'f', -1, 64), nil
}

func numbers(xs []float64) []number {
	out := make([]number, len(xs))
	for i, x := range xs {
		out[i] = number(x)
	}
	return out
}

type summaryJSON struct {
	Price     number `json:"price"`
	ChangePct number `json:"change_pct"`
	Volume    int64  `json:"volume"`
	RSI       number `json:"rsi"`
	High      number `json:"high"`
	Low       number `json:"low"`
}

type indicatorsJSON struct {
	Symbol     string      `json:"symbol"`
	Interval   string      `json:"interval"`
	PeriodDays int         `json:"period_days"`
	FastWindow int         `json:"fast_window"`
	SlowWindow int         `json:"slow_window"`
	RSIWindow  int         `json:"rsi_window"`
	Time       []time.Time `json:"time"`
	Bars       []model.Bar `json:"bars"`
	MAFast     []number    `json:"ma_fast"`
	MASlow     []number    `json:"ma_slow"`
	RSI        []number    `json:"rsi"`
	Up         []bool      `json:"up"`
	Summary    summaryJSON `json:"summary"`
	Warning    string      `json:"warning,omitempty"`
}

type backtestJSON struct {
	Symbol         string        `json:"symbol"`
	FastWindow     int           `json:"fast_window"`
	SlowWindow     int           `json:"slow_window"`
	Time           []time.Time   `json:"time"`
	Signal         []int         `json:"signal"`
	Returns        []number      `json:"returns"`
	Curve          []number      `json:"cumulative_return_curve"`
	TotalReturnPct number        `json:"total_return_pct"`
	Crosses        []model.Cross `json:"crosses"`
}

// GetIndicators returns the indicator series and headline metrics.
func (h *Handler) GetIndicators(c *gin.Context) {
	req, params, err := h.parse(c)
	if err != nil {
		writeError(c, err)
		return
	}
	snap, err := h.desk.Load(c.Request.Context(), req, params)
	if err != nil {
		writeError(c, err)
		return
	}

	ind := snap.Indicators
	resp := indicatorsJSON{
		Symbol:     snap.Series.Symbol(),
		Interval:   string(snap.Series.Interval()),
		PeriodDays: snap.Series.PeriodDays(),
		FastWindow: ind.FastWindow,
		SlowWindow: ind.SlowWindow,
		RSIWindow:  ind.RSIWindow,
		Time:       snap.Series.Times(),
		Bars:       snap.Series.Bars(),
		MAFast:     numbers(ind.MAFast),
		MASlow:     numbers(ind.MASlow),
		RSI:        numbers(ind.RSI),
		Up:         ind.Up,
		Summary: summaryJSON{
			Price:     number(snap.Summary.Price),
			ChangePct: number(snap.Summary.ChangePct),
			Volume:    snap.Summary.Volume,
			RSI:       number(snap.Summary.RSI),
			High:      number(snap.Summary.High),
			Low:       number(snap.Summary.Low),
		},
	}
	if snap.ShortHistory {
		resp.Warning = fmt.Sprintf("not enough history for MA%d: %d bars", ind.SlowWindow, snap.Series.Len())
	}
	c.JSON(http.StatusOK, resp)
}

// GetBacktest runs the crossover backtest.
func (h *Handler) GetBacktest(c *gin.Context) {
	req, params, err := h.parse(c)
	if err != nil {
		writeError(c, err)
		return
	}
	res, err := h.desk.Backtest(c.Request.Context(), req, params.FastWindow, params.SlowWindow)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, backtestJSON{
		Symbol:         req.Symbol,
		FastWindow:     res.FastWindow,
		SlowWindow:     res.SlowWindow,
		Time:           res.Time,
		Signal:         res.Signal,
		Returns:        numbers(res.Returns),
		Curve:          numbers(res.CumulativeReturnCurve),
		TotalReturnPct: number(res.TotalReturnPct),
		Crosses:        strategy.Crossovers(res),
	})
}

// GetChart renders the dashboard as SVG. With markers=1 the crossover
// entries and exits are drawn on the price pane.
func (h *Handler) GetChart(c *gin.Context) {
	req, params, err := h.parse(c)
	if err != nil {
		writeError(c, err)
		return
	}
	snap, err := h.desk.Load(c.Request.Context(), req, params)
	if err != nil {
		writeError(c, err)
		return
	}

	opt := chart.Options{}
	if c.Query("markers") == "1" {
		if res, err := strategy.RunBacktest(snap.Series, params.FastWindow, params.SlowWindow); err == nil {
			opt.Crosses = strategy.Crossovers(res)
		}
	}
	svg, err := chart.RenderDashboardSVG(snap, opt)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"warning": err.Error()})
		return
	}
	c.Data(http.StatusOK, "image/svg+xml", svg)
}

// GetStatement returns the paper account marked at the latest closes.
func (h *Handler) GetStatement(c *gin.Context) {
	marks := h.desk.Marks(c.Request.Context(), h.account.Symbols(), h.defaults.Request.PeriodDays, model.Interval1d)
	c.JSON(http.StatusOK, gin.H{
		"statement": h.account.Statement(marks),
		"fills":     h.account.Fills(),
	})
}

type orderRequest struct {
	Symbol   string `json:"symbol" binding:"required"`
	Side     string `json:"side" binding:"required"`
	Qty      int64  `json:"qty" binding:"required"`
	Interval string `json:"interval"`
	Days     int    `json:"days"`
}

// PostOrder fills a paper order at the last close.
func (h *Handler) PostOrder(c *gin.Context) {
	var body orderRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	side, ok := model.ParseSide(body.Side)
	if !ok {
		writeError(c, fmt.Errorf("%w: side must be buy or sell", errBadRequest))
		return
	}
	if body.Qty < paper.MinQty || body.Qty > paper.MaxQty {
		writeError(c, fmt.Errorf("%w: qty %d not in [%d, %d]", paper.ErrInvalidQuantity, body.Qty, paper.MinQty, paper.MaxQty))
		return
	}

	req := h.defaults.Request
	req.Symbol = strings.ToUpper(strings.TrimSpace(body.Symbol))
	if body.Interval != "" {
		iv, err := model.ParseInterval(body.Interval)
		if err != nil {
			writeError(c, err)
			return
		}
		req.Interval = iv
	}
	if body.Days != 0 {
		req.PeriodDays = body.Days
	}
	if err := model.ValidatePeriod(req.PeriodDays); err != nil {
		writeError(c, err)
		return
	}

	fill, err := h.desk.Trade(c.Request.Context(), h.account, req, side, body.Qty)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, fill)
}

func (h *Handler) parse(c *gin.Context) (desk.Request, desk.Params, error) {
	req := h.defaults.Request
	params := h.defaults.Params

	if s := strings.ToUpper(strings.TrimSpace(c.Query("symbol"))); s != "" {
		req.Symbol = s
	}
	if s := c.Query("interval"); s != "" {
		iv, err := model.ParseInterval(s)
		if err != nil {
			return req, params, err
		}
		req.Interval = iv
	}

	var err error
	if req.PeriodDays, err = intQuery(c, "days", req.PeriodDays, model.MinPeriodDays, model.MaxPeriodDays); err != nil {
		return req, params, err
	}
	if params.FastWindow, err = intQuery(c, "fast", params.FastWindow, minFast, maxFast); err != nil {
		return req, params, err
	}
	if params.SlowWindow, err = intQuery(c, "slow", params.SlowWindow, minSlow, maxSlow); err != nil {
		return req, params, err
	}
	if params.RSIWindow, err = intQuery(c, "rsi", params.RSIWindow, minRSI, maxRSI); err != nil {
		return req, params, err
	}
	return req, params, nil
}

func intQuery(c *gin.Context, name string, def, lo, hi int) (int, error) {
	s := c.Query(name)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", errBadRequest, name)
	}
	if v < lo || v > hi {
		return 0, fmt.Errorf("%w: %s must be within [%d, %d]", errBadRequest, name, lo, hi)
	}
	return v, nil
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, strategy.ErrInsufficientHistory), errors.Is(err, strategy.ErrDataIntegrity):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"warning": err.Error()})
	case errors.Is(err, paper.ErrInsufficientFunds), errors.Is(err, paper.ErrInsufficientPosition):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, errBadRequest),
		errors.Is(err, model.ErrInvalidInterval),
		errors.Is(err, model.ErrInvalidPeriod),
		errors.Is(err, strategy.ErrInvalidWindow),
		errors.Is(err, paper.ErrInvalidQuantity),
		errors.Is(err, paper.ErrInvalidPrice):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, collector.ErrNoDataAvailable):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	}
}
