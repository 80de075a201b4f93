package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Aikkad/mac-trading-academy/internal/cache"
	"github.com/Aikkad/mac-trading-academy/internal/model"
)

// stubProvider answers from a per-symbol table and records requests.
type stubProvider struct {
	name    string
	results map[string]func() (*model.BarSeries, error)
	calls   []string
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Fetch(_ context.Context, symbol string, _ int, _ model.Interval) (*model.BarSeries, error) {
	s.calls = append(s.calls, symbol)
	if fn, ok := s.results[symbol]; ok {
		return fn()
	}
	return nil, fmt.Errorf("%s: unknown symbol %s", s.name, symbol)
}

func seriesOf(t *testing.T, symbol string, n int) func() (*model.BarSeries, error) {
	t.Helper()
	bars := generateMockBars(100, n, model.Interval1d)
	return func() (*model.BarSeries, error) {
		return model.NewBarSeries(symbol, model.Interval1d, n, bars)
	}
}

func emptySeries(symbol string) func() (*model.BarSeries, error) {
	return func() (*model.BarSeries, error) {
		return model.NewBarSeries(symbol, model.Interval1d, 30, nil)
	}
}

func TestFallback_PrimarySucceeds(t *testing.T) {
	primary := &stubProvider{name: "p", results: map[string]func() (*model.BarSeries, error){"AAPL": seriesOf(t, "AAPL", 30)}}
	secondary := &stubProvider{name: "s"}
	fp := NewFallbackProvider(primary, secondary, nil, nil)

	s, err := fp.Fetch(context.Background(), "AAPL", 30, model.Interval1d)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if s.Len() != 30 {
		t.Errorf("expected 30 bars, got %d", s.Len())
	}
	if len(secondary.calls) != 0 {
		t.Errorf("secondary should not be called, got %v", secondary.calls)
	}
}

func TestFallback_NormalizedSymbolRetry(t *testing.T) {
	primary := &stubProvider{name: "p", results: map[string]func() (*model.BarSeries, error){"^GSPC": seriesOf(t, "^GSPC", 30)}}
	fp := NewFallbackProvider(primary, nil, nil, nil)

	s, err := fp.Fetch(context.Background(), "spx500", 30, model.Interval1d)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if s.Symbol() != "^GSPC" {
		t.Errorf("expected series for ^GSPC, got %s", s.Symbol())
	}
	if got := strings.Join(primary.calls, ","); got != "spx500,^GSPC" {
		t.Errorf("unexpected call order %q", got)
	}
}

func TestFallback_EmptyPrimaryFallsToSecondary(t *testing.T) {
	primary := &stubProvider{name: "p", results: map[string]func() (*model.BarSeries, error){"MSFT": emptySeries("MSFT")}}
	secondary := &stubProvider{name: "s", results: map[string]func() (*model.BarSeries, error){"MSFT": seriesOf(t, "MSFT", 10)}}
	fp := NewFallbackProvider(primary, secondary, nil, nil)

	s, err := fp.Fetch(context.Background(), "MSFT", 10, model.Interval1d)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if s.Len() != 10 {
		t.Errorf("expected 10 bars from secondary, got %d", s.Len())
	}
	if len(primary.calls) != 1 {
		t.Errorf("normalized retry should be skipped for an already normalized symbol, calls=%v", primary.calls)
	}
}

func TestFallback_AllStagesFail(t *testing.T) {
	primary := &stubProvider{name: "p"}
	secondary := &stubProvider{name: "s", results: map[string]func() (*model.BarSeries, error){"NOPE": emptySeries("NOPE")}}
	fp := NewFallbackProvider(primary, secondary, nil, nil)

	_, err := fp.Fetch(context.Background(), "nope", 30, model.Interval1d)
	if !errors.Is(err, ErrNoDataAvailable) {
		t.Fatalf("expected ErrNoDataAvailable, got %v", err)
	}
	if len(primary.calls) != 2 || len(secondary.calls) != 1 {
		t.Errorf("expected 3 stages, got primary=%v secondary=%v", primary.calls, secondary.calls)
	}
}

func TestFallback_ValidatesRequest(t *testing.T) {
	fp := NewFallbackProvider(&stubProvider{name: "p"}, nil, nil, nil)
	ctx := context.Background()

	if _, err := fp.Fetch(ctx, "AAPL", 4, model.Interval1d); !errors.Is(err, model.ErrInvalidPeriod) {
		t.Errorf("period 4: expected ErrInvalidPeriod, got %v", err)
	}
	if _, err := fp.Fetch(ctx, "AAPL", 731, model.Interval1d); !errors.Is(err, model.ErrInvalidPeriod) {
		t.Errorf("period 731: expected ErrInvalidPeriod, got %v", err)
	}
	if _, err := fp.Fetch(ctx, "AAPL", 30, model.Interval("2h")); !errors.Is(err, model.ErrInvalidInterval) {
		t.Errorf("expected ErrInvalidInterval, got %v", err)
	}
	if _, err := fp.Fetch(ctx, "  ", 30, model.Interval1d); !errors.Is(err, ErrNoDataAvailable) {
		t.Errorf("expected ErrNoDataAvailable for blank symbol, got %v", err)
	}
}

func TestFallback_CustomAliases(t *testing.T) {
	fp := NewFallbackProvider(&stubProvider{name: "p"}, nil, map[string]string{"cac": "^FCHI"}, nil)
	if got := fp.Normalize(" cac "); got != "^FCHI" {
		t.Errorf("expected ^FCHI, got %q", got)
	}
	if got := fp.Normalize("spx"); got != "^GSPC" {
		t.Errorf("default aliases should be kept, got %q", got)
	}
	if got := fp.Normalize("tsla"); got != "TSLA" {
		t.Errorf("expected TSLA, got %q", got)
	}
}

func TestCachedProvider_MemoizesByExactTuple(t *testing.T) {
	mock := &MockFetcher{Price: 150}
	cp := NewCachedProvider(mock, cache.NewMemoryCache(), nil)
	ctx := context.Background()

	first, err := cp.Fetch(ctx, "AAPL", 30, model.Interval1d)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	second, err := cp.Fetch(ctx, "AAPL", 30, model.Interval1d)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if first != second {
		t.Error("expected the cached series to be returned")
	}
	if n := len(mock.Calls()); n != 1 {
		t.Errorf("expected 1 upstream call, got %d", n)
	}

	if _, err := cp.Fetch(ctx, "AAPL", 60, model.Interval1d); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if _, err := cp.Fetch(ctx, "AAPL", 30, model.Interval1h); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if n := len(mock.Calls()); n != 3 {
		t.Errorf("expected 3 upstream calls for 3 distinct tuples, got %d", n)
	}
}

func TestCachedProvider_DoesNotCacheFailures(t *testing.T) {
	mock := &MockFetcher{Err: ErrNoDataAvailable}
	cp := NewCachedProvider(mock, cache.NewMemoryCache(), nil)
	for i := 0; i < 2; i++ {
		if _, err := cp.Fetch(context.Background(), "ZZZ", 30, model.Interval1d); !errors.Is(err, ErrNoDataAvailable) {
			t.Fatalf("expected ErrNoDataAvailable, got %v", err)
		}
	}
	if n := len(mock.Calls()); n != 2 {
		t.Errorf("failures must not be cached, got %d calls", n)
	}
}

const yahooBody = `{"chart":{"result":[{
	"timestamp":[1735829400,1735915800,1735915800,1736175000,1736261400],
	"indicators":{"quote":[{
		"open":  [100, 101, 101.5, null, 104],
		"high":  [102, 103, 103.5, null, 103],
		"low":   [99, 100, 100.5, null, 101],
		"close": [101, 102, 103, null, 102],
		"volume":[1000, 2000, 2500, null, 4000]
	}]}
}],"error":null}}`

func TestYahooFetcher_ParsesAndCleans(t *testing.T) {
	var gotPath, gotQuery, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotQuery, gotUA = r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent")
		w.Write([]byte(yahooBody))
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL
	s, err := f.Fetch(context.Background(), "AAPL", 30, model.Interval1h)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if gotPath != "/v8/finance/chart/AAPL" {
		t.Errorf("unexpected path %q", gotPath)
	}
	if !strings.Contains(gotQuery, "interval=60m") || !strings.Contains(gotQuery, "range=30d") {
		t.Errorf("unexpected query %q", gotQuery)
	}
	if gotUA == "" {
		t.Error("expected a User-Agent header")
	}
	// null bar skipped, duplicate timestamp keeps the later bar,
	// last bar dropped because open 104 > high 103.
	if s.Len() != 2 {
		t.Fatalf("expected 2 bars, got %d", s.Len())
	}
	if s.Bar(1).Close != 103 || s.Bar(1).Volume != 2500 {
		t.Errorf("expected the later duplicate bar, got %+v", s.Bar(1))
	}
	if s.Bar(0).Time.Location() != time.UTC {
		t.Errorf("expected UTC timestamps")
	}
}

func TestYahooFetcher_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`))
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL
	if _, err := f.Fetch(context.Background(), "XXXX", 30, model.Interval1d); !errors.Is(err, ErrNoDataAvailable) {
		t.Fatalf("expected ErrNoDataAvailable, got %v", err)
	}
}

func TestYahooFetcher_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL
	if _, err := f.Fetch(context.Background(), "XXXX", 30, model.Interval1d); !errors.Is(err, ErrNoDataAvailable) {
		t.Fatalf("expected ErrNoDataAvailable, got %v", err)
	}
}

func TestVsTraderFetcher_WeeklyFallsBackToDailyAggregation(t *testing.T) {
	// Mon 2025-01-06 .. Fri 2025-01-10, then Mon 2025-01-13.
	daily := `[
		{"timestamp":1736150400,"open":10,"high":11,"low":9,"close":10.5,"volume":100},
		{"timestamp":1736236800,"open":10.5,"high":12,"low":10,"close":11,"volume":200},
		{"timestamp":1736496000,"open":11,"high":11.5,"low":8,"close":9,"volume":300},
		{"timestamp":1736755200,"open":9,"high":10,"low":8.5,"close":9.5,"volume":400}
	]`
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		if r.URL.Query().Get("interval") != "1d" {
			http.Error(w, "unsupported interval", http.StatusBadRequest)
			return
		}
		w.Write([]byte(daily))
	}))
	defer srv.Close()

	f := NewVsTraderFetcher(srv.URL, "secret", "")
	s, err := f.Fetch(context.Background(), "AAPL", 30, model.Interval1W)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if auth != "Bearer secret" {
		t.Errorf("unexpected Authorization header %q", auth)
	}
	if s.Len() != 2 {
		t.Fatalf("expected 2 weekly bars, got %d", s.Len())
	}
	w := s.Bar(0)
	if w.Open != 10 || w.High != 12 || w.Low != 8 || w.Close != 9 || w.Volume != 600 {
		t.Errorf("unexpected first weekly bar %+v", w)
	}
	if s.Interval() != model.Interval1W {
		t.Errorf("expected interval 1W, got %s", s.Interval())
	}
}

func TestVsTraderFetcher_WeeklyFallbackOrdersDailyBars(t *testing.T) {
	// One ISO week, Mon 2025-03-03 .. Fri 2025-03-07, served newest first.
	daily := `[
		{"timestamp":1741305600,"open":104,"high":105,"low":103,"close":104.5,"volume":10},
		{"timestamp":1741219200,"open":103,"high":104,"low":102,"close":103.5,"volume":10},
		{"timestamp":1741132800,"open":102,"high":103,"low":101,"close":102.5,"volume":10},
		{"timestamp":1741046400,"open":101,"high":102,"low":100,"close":101.5,"volume":10},
		{"timestamp":1740960000,"open":100,"high":101,"low":99,"close":100.5,"volume":10}
	]`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("interval") != "1d" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(daily))
	}))
	defer srv.Close()

	f := NewVsTraderFetcher(srv.URL, "", "")
	s, err := f.Fetch(context.Background(), "AAPL", 30, model.Interval1W)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("expected 1 weekly bar, got %d", s.Len())
	}
	w := s.Bar(0)
	if !w.Time.Equal(time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("expected week to start 2025-03-03, got %s", w.Time)
	}
	if w.Open != 100 || w.Close != 104.5 || w.High != 105 || w.Low != 99 || w.Volume != 50 {
		t.Errorf("unexpected weekly bar %+v", w)
	}
}

func TestAggregateBars_Monthly(t *testing.T) {
	mk := func(y int, m time.Month, d int, c float64) model.Bar {
		return model.Bar{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC), Open: c, High: c + 1, Low: c - 1, Close: c, Volume: 1}
	}
	out := aggregateBars([]model.Bar{
		mk(2025, 1, 30, 10), mk(2025, 1, 31, 12), mk(2025, 2, 3, 11), mk(2025, 3, 3, 15),
	}, monthKey)
	if len(out) != 3 {
		t.Fatalf("expected 3 monthly bars, got %d", len(out))
	}
	if out[0].Open != 10 || out[0].Close != 12 || out[0].High != 13 || out[0].Volume != 2 {
		t.Errorf("unexpected January bar %+v", out[0])
	}
}

func TestMockFetcher_GeneratesValidSeries(t *testing.T) {
	m := &MockFetcher{Price: 50}
	for _, iv := range model.Intervals {
		s, err := m.Fetch(context.Background(), "DEMO", 30, iv)
		if err != nil {
			t.Fatalf("%s: %v", iv, err)
		}
		if iv == model.Interval1d && s.Len() != 30 {
			t.Errorf("expected 30 daily bars, got %d", s.Len())
		}
		if s.Len() > mockBarLimit {
			t.Errorf("%s: %d bars exceeds limit", iv, s.Len())
		}
	}
}
