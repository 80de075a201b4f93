package model

import (
	"errors"
	"testing"
	"time"
)

var t0 = time.Date(2025, 3, 3, 14, 30, 0, 0, time.UTC)

func bar(offset time.Duration, o, h, l, c float64) Bar {
	return Bar{Time: t0.Add(offset), Open: o, High: h, Low: l, Close: c, Volume: 100}
}

func TestBarValidate(t *testing.T) {
	tests := []struct {
		name    string
		bar     Bar
		wantErr bool
	}{
		{"valid", bar(0, 10, 12, 9, 11), false},
		{"doji", bar(0, 10, 10, 10, 10), false},
		{"low above open", bar(0, 10, 12, 10.5, 11), true},
		{"high below close", bar(0, 10, 10.5, 9, 11), true},
		{"negative volume", Bar{Time: t0, Open: 1, High: 1, Low: 1, Close: 1, Volume: -1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.bar.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidBar) {
				t.Errorf("expected ErrInvalidBar, got %v", err)
			}
		})
	}
}

func TestNewBarSeries_RequiresStrictlyIncreasingTime(t *testing.T) {
	bars := []Bar{bar(0, 1, 1, 1, 1), bar(0, 2, 2, 2, 2)}
	if _, err := NewBarSeries("X", Interval1d, 30, bars); !errors.Is(err, ErrInvalidSeries) {
		t.Fatalf("expected ErrInvalidSeries for duplicate timestamps, got %v", err)
	}

	bars = []Bar{bar(time.Hour, 1, 1, 1, 1), bar(0, 2, 2, 2, 2)}
	if _, err := NewBarSeries("X", Interval1d, 30, bars); !errors.Is(err, ErrInvalidSeries) {
		t.Fatalf("expected ErrInvalidSeries for descending timestamps, got %v", err)
	}
}

func TestNewBarSeries_WrapsBarError(t *testing.T) {
	bars := []Bar{bar(0, 10, 9, 8, 10)}
	_, err := NewBarSeries("X", Interval1d, 30, bars)
	if !errors.Is(err, ErrInvalidSeries) || !errors.Is(err, ErrInvalidBar) {
		t.Fatalf("expected both ErrInvalidSeries and ErrInvalidBar, got %v", err)
	}
}

func TestBarSeries_OwnsItsBars(t *testing.T) {
	bars := []Bar{bar(0, 1, 2, 1, 2), bar(time.Hour, 2, 3, 2, 3)}
	s, err := NewBarSeries("X", Interval1h, 5, bars)
	if err != nil {
		t.Fatalf("NewBarSeries: %v", err)
	}
	if s.Symbol() != "X" || s.Interval() != Interval1h || s.PeriodDays() != 5 {
		t.Errorf("unexpected identity %s %s %d", s.Symbol(), s.Interval(), s.PeriodDays())
	}
	bars[0].Close = 99
	if s.Bar(0).Close != 2 {
		t.Error("series must not alias the input slice")
	}
	out := s.Bars()
	out[1].Close = 99
	if s.Bar(1).Close != 3 {
		t.Error("Bars() must return a copy")
	}

	closes := s.Closes()
	if len(closes) != 2 || closes[0] != 2 || closes[1] != 3 {
		t.Errorf("unexpected closes %v", closes)
	}
	last, ok := s.Last()
	if !ok || last.Close != 3 {
		t.Errorf("unexpected last bar %+v ok=%v", last, ok)
	}
}

func TestBarSeries_Empty(t *testing.T) {
	s, err := NewBarSeries("X", Interval1d, 30, nil)
	if err != nil {
		t.Fatalf("NewBarSeries: %v", err)
	}
	if !s.Empty() || s.Len() != 0 {
		t.Error("expected empty series")
	}
	if _, ok := s.Last(); ok {
		t.Error("Last on empty series should report !ok")
	}
}

func TestParseInterval(t *testing.T) {
	for _, iv := range Intervals {
		got, err := ParseInterval(string(iv))
		if err != nil || got != iv {
			t.Errorf("ParseInterval(%q) = %q, %v", iv, got, err)
		}
	}
	for _, bad := range []string{"", "2d", "1H", "1w", "daily"} {
		if _, err := ParseInterval(bad); !errors.Is(err, ErrInvalidInterval) {
			t.Errorf("ParseInterval(%q): expected ErrInvalidInterval, got %v", bad, err)
		}
	}
	if Interval1M.Duration() <= Interval1m.Duration() {
		t.Error("1M must be a month, 1m a minute")
	}
	if !Interval15m.Intraday() || Interval1d.Intraday() {
		t.Error("unexpected Intraday classification")
	}
}

func TestValidatePeriod(t *testing.T) {
	for _, d := range []int{MinPeriodDays, 30, MaxPeriodDays} {
		if err := ValidatePeriod(d); err != nil {
			t.Errorf("ValidatePeriod(%d): %v", d, err)
		}
	}
	for _, d := range []int{0, MinPeriodDays - 1, MaxPeriodDays + 1} {
		if err := ValidatePeriod(d); !errors.Is(err, ErrInvalidPeriod) {
			t.Errorf("ValidatePeriod(%d): expected ErrInvalidPeriod, got %v", d, err)
		}
	}
}

func TestParseSide(t *testing.T) {
	if s, ok := ParseSide("buy"); !ok || s != SideBuy {
		t.Errorf("ParseSide(buy) = %q, %v", s, ok)
	}
	if s, ok := ParseSide("SELL"); !ok || s != SideSell {
		t.Errorf("ParseSide(SELL) = %q, %v", s, ok)
	}
	for _, in := range []string{"bUy", "Buy", "buY"} {
		if s, ok := ParseSide(in); !ok || s != SideBuy {
			t.Errorf("ParseSide(%s) = %q, %v", in, s, ok)
		}
	}
	if s, ok := ParseSide("sElL"); !ok || s != SideSell {
		t.Errorf("ParseSide(sElL) = %q, %v", s, ok)
	}
	if _, ok := ParseSide(" buy"); ok {
		t.Error("ParseSide should not trim")
	}
	if _, ok := ParseSide("short"); ok {
		t.Error("ParseSide(short) should fail")
	}
}
