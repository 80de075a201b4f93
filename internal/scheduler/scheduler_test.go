package scheduler

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Aikkad/mac-trading-academy/internal/collector"
	"github.com/Aikkad/mac-trading-academy/internal/desk"
	"github.com/Aikkad/mac-trading-academy/internal/model"
	"github.com/Aikkad/mac-trading-academy/internal/paper"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []string
}

func (r *recordingSender) SendWithRetry(_ context.Context, text string, _ int, _ time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, text)
	return nil
}

func bars(closes ...float64) []model.Bar {
	start := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	out := make([]model.Bar, len(closes))
	for i, c := range closes {
		out[i] = model.Bar{Time: start.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c, Volume: 1}
	}
	return out
}

func newTestScheduler(t *testing.T, f *collector.MockFetcher, n Sender) *Scheduler {
	t.Helper()
	acct, err := paper.NewAccount(paper.DefaultCapital)
	if err != nil {
		t.Fatalf("NewAccount: %v", err)
	}
	defaults := desk.Request{Symbol: "AAPL", PeriodDays: 30, Interval: model.Interval1d}
	params := desk.Params{FastWindow: 2, SlowWindow: 3, RSIWindow: 2}
	return NewScheduler(context.Background(), desk.New(f, nil), acct, n, defaults, params, []string{"AAPL", "MSFT"})
}

func TestHandleCommand_Routing(t *testing.T) {
	s := newTestScheduler(t, &collector.MockFetcher{Bars: bars(10, 11, 9, 12, 8, 13)}, nil)
	ctx := context.Background()

	tests := []struct {
		command string
		want    string
	}{
		{"/help", "Commands:"},
		{"", "Commands:"},
		{"/unknown", "Commands:"},
		{"/quote aapl", "<b>AAPL</b>"},
		{"/quote@AcademyBot msft 1h 10", "<b>MSFT</b> | 1h 10d"},
		{"/quote aapl 2d", "invalid interval"},
		{"/quote", "Usage: /quote"},
		{"/backtest TEST 2 3", "+62.50%"},
		{"/backtest TEST two 3", "must be integers"},
		{"/backtest TEST 20 50", "insufficient history"},
		{"/buy AAPL 5", "BUY 5 AAPL @ 13.00"},
		{"/sell AAPL 9", "insufficient position"},
		{"/buy AAPL lots", "QTY must be an integer"},
		{"/ledger", "AAPL x5"},
	}
	for _, tt := range tests {
		got := s.HandleCommand(ctx, tt.command)
		if !strings.Contains(got, tt.want) {
			t.Errorf("HandleCommand(%q) = %q, want substring %q", tt.command, got, tt.want)
		}
	}
}

func TestHandleCommand_NoData(t *testing.T) {
	s := newTestScheduler(t, &collector.MockFetcher{Err: collector.ErrNoDataAvailable}, nil)
	if got := s.HandleCommand(context.Background(), "/quote ZZZZ"); !strings.Contains(got, "No data for ZZZZ") {
		t.Errorf("unexpected reply %q", got)
	}
}

func TestHandleCommand_PaperDisabled(t *testing.T) {
	s := newTestScheduler(t, &collector.MockFetcher{Bars: bars(1, 2, 3)}, nil)
	s.Account = nil
	for _, cmd := range []string{"/buy AAPL 1", "/ledger"} {
		if got := s.HandleCommand(context.Background(), cmd); got != "Paper trading is disabled" {
			t.Errorf("%s: unexpected reply %q", cmd, got)
		}
	}
}

func TestRefreshTask_PushesWatchlist(t *testing.T) {
	f := &collector.MockFetcher{Bars: bars(10, 11, 9, 12, 8, 13)}
	sender := &recordingSender{}
	s := newTestScheduler(t, f, sender)

	s.RunRefreshNow()

	if calls := f.Calls(); len(calls) != 2 || calls[0] != "AAPL" || calls[1] != "MSFT" {
		t.Errorf("unexpected fetches %v", calls)
	}
	if len(sender.sent) != 2 || !strings.Contains(sender.sent[1], "MSFT") {
		t.Errorf("unexpected pushes %v", sender.sent)
	}
}

func TestRegister_RejectsBadCron(t *testing.T) {
	s := newTestScheduler(t, &collector.MockFetcher{}, nil)
	if err := s.Register("not a cron"); err == nil {
		t.Fatal("expected error for invalid cron expression")
	}
	if err := s.Register("0 0 22 * * 1-5"); err != nil {
		t.Fatalf("Register: %v", err)
	}
}
