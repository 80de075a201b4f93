package paper

import (
	"errors"
	"math"
	"testing"

	"github.com/Aikkad/mac-trading-academy/internal/model"
)

func newTestAccount(t *testing.T) *Account {
	t.Helper()
	a, err := NewAccount(DefaultCapital)
	if err != nil {
		t.Fatalf("NewAccount: %v", err)
	}
	return a
}

func TestNewAccount_CapitalBounds(t *testing.T) {
	for _, c := range []float64{999, 100001, 0, -5} {
		if _, err := NewAccount(c); !errors.Is(err, ErrInvalidCapital) {
			t.Errorf("capital %.0f: expected ErrInvalidCapital, got %v", c, err)
		}
	}
	for _, c := range []float64{1000, 100000} {
		if _, err := NewAccount(c); err != nil {
			t.Errorf("capital %.0f: unexpected error %v", c, err)
		}
	}
}

func TestBuySell_RoundTrip(t *testing.T) {
	a := newTestAccount(t)

	fill, err := a.Buy("AAPL", 10, 150.25)
	if err != nil {
		t.Fatalf("Buy: %v", err)
	}
	if fill.Side != model.SideBuy || fill.Qty != 10 || fill.Amount != 1502.5 || fill.ID == "" {
		t.Errorf("unexpected fill %+v", fill)
	}
	if _, err := a.Buy("AAPL", 10, 160.25); err != nil {
		t.Fatalf("Buy: %v", err)
	}

	st := a.Statement(map[string]float64{"AAPL": 170})
	if len(st.Positions) != 1 {
		t.Fatalf("expected 1 position, got %d", len(st.Positions))
	}
	p := st.Positions[0]
	if p.Qty != 20 || p.AvgCost != 155.25 {
		t.Errorf("unexpected position %+v", p)
	}
	if p.UnrealizedPnL != 295 {
		t.Errorf("expected unrealized 295, got %v", p.UnrealizedPnL)
	}
	if st.Cash != 10000-1502.5-1602.5 {
		t.Errorf("unexpected cash %v", st.Cash)
	}

	if _, err := a.Sell("AAPL", 5, 170); err != nil {
		t.Fatalf("Sell: %v", err)
	}
	st = a.Statement(map[string]float64{"AAPL": 170})
	if st.RealizedPnL != 73.75 {
		t.Errorf("expected realized 73.75, got %v", st.RealizedPnL)
	}
	if st.Positions[0].Qty != 15 {
		t.Errorf("expected 15 left, got %d", st.Positions[0].Qty)
	}
	if math.Abs(st.Equity-(st.Cash+15*170)) > 1e-9 {
		t.Errorf("equity %v does not match cash + value", st.Equity)
	}
	if st.Fills != 3 {
		t.Errorf("expected 3 fills, got %d", st.Fills)
	}
}

func TestSell_ClosesPosition(t *testing.T) {
	a := newTestAccount(t)
	if _, err := a.Buy("MSFT", 3, 100); err != nil {
		t.Fatalf("Buy: %v", err)
	}
	if _, err := a.Sell("MSFT", 3, 90); err != nil {
		t.Fatalf("Sell: %v", err)
	}
	st := a.Statement(nil)
	if len(st.Positions) != 0 {
		t.Errorf("expected no positions, got %+v", st.Positions)
	}
	if st.RealizedPnL != -30 || st.Cash != 9970 || st.Equity != 9970 {
		t.Errorf("unexpected statement %+v", st)
	}
}

func TestOrderValidation(t *testing.T) {
	a := newTestAccount(t)
	tests := []struct {
		name  string
		side  model.Side
		qty   int64
		price float64
		want  error
	}{
		{"zero qty", model.SideBuy, 0, 10, ErrInvalidQuantity},
		{"qty above max", model.SideBuy, 101, 10, ErrInvalidQuantity},
		{"zero price", model.SideBuy, 1, 0, ErrInvalidPrice},
		{"NaN price", model.SideBuy, 1, math.NaN(), ErrInvalidPrice},
		{"too expensive", model.SideBuy, 100, 101, ErrInsufficientFunds},
		{"no position", model.SideSell, 1, 10, ErrInsufficientPosition},
	}
	for _, tt := range tests {
		if _, err := a.Execute(tt.side, "AAPL", tt.qty, tt.price); !errors.Is(err, tt.want) {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, err)
		}
	}
	if n := len(a.Fills()); n != 0 {
		t.Errorf("rejected orders must not create fills, got %d", n)
	}
}

func TestStatement_UnmarkedPositionAtCost(t *testing.T) {
	a := newTestAccount(t)
	if _, err := a.Buy("TSLA", 2, 250); err != nil {
		t.Fatalf("Buy: %v", err)
	}
	st := a.Statement(nil)
	if st.Equity != DefaultCapital {
		t.Errorf("expected equity at capital when unmarked, got %v", st.Equity)
	}
	if got := a.Symbols(); len(got) != 1 || got[0] != "TSLA" {
		t.Errorf("unexpected symbols %v", got)
	}
}

func TestReset(t *testing.T) {
	a := newTestAccount(t)
	if _, err := a.Buy("AAPL", 1, 100); err != nil {
		t.Fatalf("Buy: %v", err)
	}
	a.Reset()
	st := a.Statement(nil)
	if st.Cash != DefaultCapital || len(st.Positions) != 0 || st.Fills != 0 {
		t.Errorf("unexpected statement after reset %+v", st)
	}
}
