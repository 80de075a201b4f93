package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Aikkad/mac-trading-academy/internal/collector"
	"github.com/Aikkad/mac-trading-academy/internal/desk"
	"github.com/Aikkad/mac-trading-academy/internal/model"
	"github.com/Aikkad/mac-trading-academy/internal/notifier"
	"github.com/Aikkad/mac-trading-academy/internal/paper"
	"github.com/Aikkad/mac-trading-academy/internal/strategy"
)

// Sender delivers bot messages.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int, base time.Duration) error
}

// Scheduler runs the watchlist refresh job and answers bot commands.
type Scheduler struct {
	Cron      *cron.Cron
	Desk      *desk.Desk
	Account   *paper.Account // nil disables /buy, /sell and /ledger
	Notifier  Sender         // nil disables pushes
	Defaults  desk.Request
	Params    desk.Params
	Watchlist []string
	Ctx       context.Context
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, d *desk.Desk, acct *paper.Account, n Sender, defaults desk.Request, params desk.Params, watchlist []string) *Scheduler {
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Desk:      d,
		Account:   acct,
		Notifier:  n,
		Defaults:  defaults,
		Params:    params,
		Watchlist: watchlist,
		Ctx:       ctx,
	}
}

// Register adds the watchlist refresh job.
func (s *Scheduler) Register(refreshCron string) error {
	if _, err := s.Cron.AddFunc(refreshCron, s.refreshTask); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// RunRefreshNow executes the refresh job immediately.
func (s *Scheduler) RunRefreshNow() {
	s.refreshTask()
}

// refreshTask loads every watchlist symbol, which also warms the fetch cache,
// and pushes one dashboard per symbol.
func (s *Scheduler) refreshTask() {
	log.Printf("[INFO] refreshing %d symbols", len(s.Watchlist))
	for _, sym := range s.Watchlist {
		req := s.Defaults
		req.Symbol = sym
		snap, err := s.Desk.Load(s.Ctx, req, s.Params)
		if err != nil {
			log.Printf("[ERROR] refresh %s: %v", req, err)
			s.trySend(describeError(sym, err))
			continue
		}
		s.trySend(notifier.FormatDashboard(snap))
	}
}

const helpText = `Commands:
/quote SYM [interval] [days]
/backtest SYM [FAST SLOW]
/buy SYM QTY
/sell SYM QTY
/ledger
/help`

// HandleCommand processes a bot command and returns the reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return helpText
	}
	name := strings.ToLower(fields[0])
	if at := strings.IndexByte(name, '@'); at > 0 {
		name = name[:at]
	}
	args := fields[1:]

	switch name {
	case "/quote":
		return s.quote(ctx, args)
	case "/backtest":
		return s.backtest(ctx, args)
	case "/buy":
		return s.trade(ctx, model.SideBuy, args)
	case "/sell":
		return s.trade(ctx, model.SideSell, args)
	case "/ledger":
		return s.ledger(ctx)
	default:
		return helpText
	}
}

func (s *Scheduler) quote(ctx context.Context, args []string) string {
	if len(args) == 0 || len(args) > 3 {
		return "Usage: /quote SYM [interval] [days]"
	}
	req := s.Defaults
	req.Symbol = strings.ToUpper(args[0])
	if len(args) > 1 {
		iv, err := model.ParseInterval(args[1])
		if err != nil {
			return fmt.Sprintf("❌ %v (use one of %v)", err, model.Intervals)
		}
		req.Interval = iv
	}
	if len(args) > 2 {
		days, err := strconv.Atoi(args[2])
		if err != nil {
			return "❌ days must be an integer"
		}
		req.PeriodDays = days
	}

	snap, err := s.Desk.Load(ctx, req, s.Params)
	if err != nil {
		return describeError(req.Symbol, err)
	}
	return notifier.FormatDashboard(snap)
}

func (s *Scheduler) backtest(ctx context.Context, args []string) string {
	if len(args) != 1 && len(args) != 3 {
		return "Usage: /backtest SYM [FAST SLOW]"
	}
	req := s.Defaults
	req.Symbol = strings.ToUpper(args[0])
	fast, slow := s.Params.FastWindow, s.Params.SlowWindow
	if len(args) == 3 {
		var err1, err2 error
		fast, err1 = strconv.Atoi(args[1])
		slow, err2 = strconv.Atoi(args[2])
		if err1 != nil || err2 != nil {
			return "❌ FAST and SLOW must be integers"
		}
	}

	res, err := s.Desk.Backtest(ctx, req, fast, slow)
	if err != nil {
		return describeError(req.Symbol, err)
	}
	return notifier.FormatBacktest(req.Symbol, res)
}

func (s *Scheduler) trade(ctx context.Context, side model.Side, args []string) string {
	if s.Account == nil {
		return "Paper trading is disabled"
	}
	if len(args) != 2 {
		return fmt.Sprintf("Usage: /%s SYM QTY", strings.ToLower(string(side)))
	}
	qty, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return "❌ QTY must be an integer"
	}
	req := s.Defaults
	req.Symbol = strings.ToUpper(args[0])

	fill, err := s.Desk.Trade(ctx, s.Account, req, side, qty)
	if err != nil {
		return describeError(req.Symbol, err)
	}
	return notifier.FormatFill(fill)
}

func (s *Scheduler) ledger(ctx context.Context) string {
	if s.Account == nil {
		return "Paper trading is disabled"
	}
	marks := s.Desk.Marks(ctx, s.Account.Symbols(), s.Defaults.PeriodDays, model.Interval1d)
	return notifier.FormatStatement(s.Account.Statement(marks))
}

func describeError(symbol string, err error) string {
	switch {
	case errors.Is(err, collector.ErrNoDataAvailable):
		return fmt.Sprintf("❌ No data for %s", symbol)
	case errors.Is(err, strategy.ErrInsufficientHistory), errors.Is(err, strategy.ErrDataIntegrity):
		return fmt.Sprintf("⚠️ %s: %v", symbol, err)
	default:
		return fmt.Sprintf("❌ %s: %v", symbol, err)
	}
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3, time.Second); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
