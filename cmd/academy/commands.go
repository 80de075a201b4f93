package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/Aikkad/mac-trading-academy/internal/api"
	"github.com/Aikkad/mac-trading-academy/internal/chart"
	"github.com/Aikkad/mac-trading-academy/internal/desk"
	"github.com/Aikkad/mac-trading-academy/internal/metrics"
	"github.com/Aikkad/mac-trading-academy/internal/model"
	"github.com/Aikkad/mac-trading-academy/internal/notifier"
	"github.com/Aikkad/mac-trading-academy/internal/paper"
	"github.com/Aikkad/mac-trading-academy/internal/scheduler"
	"github.com/Aikkad/mac-trading-academy/internal/strategy"
)

var requestFlags = []cli.Flag{
	&cli.StringFlag{Name: "symbol", Aliases: []string{"s"}, Usage: "ticker symbol (default from config)"},
	&cli.StringFlag{Name: "interval", Aliases: []string{"i"}, Usage: "bar interval: 1m 5m 15m 1h 1d 1W 1M"},
	&cli.IntFlag{Name: "days", Aliases: []string{"d"}, Usage: "history length in days"},
	&cli.IntFlag{Name: "fast", Usage: "fast moving average window"},
	&cli.IntFlag{Name: "slow", Usage: "slow moving average window"},
	&cli.IntFlag{Name: "rsi", Usage: "RSI window"},
}

// requestFrom overlays command-line flags on the configured defaults.
func requestFrom(c *cli.Context, req desk.Request, params desk.Params) (desk.Request, desk.Params, error) {
	if s := c.String("symbol"); s != "" {
		req.Symbol = strings.ToUpper(s)
	}
	if s := c.String("interval"); s != "" {
		iv, err := model.ParseInterval(s)
		if err != nil {
			return req, params, err
		}
		req.Interval = iv
	}
	if c.IsSet("days") {
		req.PeriodDays = c.Int("days")
	}
	if c.IsSet("fast") {
		params.FastWindow = c.Int("fast")
	}
	if c.IsSet("slow") {
		params.SlowWindow = c.Int("slow")
	}
	if c.IsSet("rsi") {
		params.RSIWindow = c.Int("rsi")
	}
	return req, params, nil
}

// oneShot loads config, builds a desk and runs fn with the resolved request.
func oneShot(c *cli.Context, fn func(ctx context.Context, d *desk.Desk, req desk.Request, params desk.Params) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	d, store := newDesk(cfg, nil)
	defer store.Close()

	req, params, err := defaultRequest(cfg)
	if err != nil {
		return err
	}
	if req, params, err = requestFrom(c, req, params); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Context, timeout)
	defer cancel()
	return fn(ctx, d, req, params)
}

var serveCommand = &cli.Command{
	Name:  "serve",
	Usage: "run the HTTP API, the Telegram bot and the refresh job",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "refresh-now", Usage: "run the watchlist refresh once at startup", EnvVars: []string{"RUN_ON_START"}},
	},
	Action: func(c *cli.Context) error {
		log.Println("[INFO] academy starting...")
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		req, params, err := defaultRequest(cfg)
		if err != nil {
			return err
		}

		m := metrics.NewMetrics()
		d, store := newDesk(cfg, m)
		defer store.Close()

		acct, err := paper.NewAccount(cfg.Paper.Capital)
		if err != nil {
			return fmt.Errorf("init paper account: %w", err)
		}

		ctx, cancel := context.WithCancel(c.Context)
		defer cancel()

		var sender scheduler.Sender
		var tn *notifier.TelegramNotifier
		if cfg.TelegramEnabled() {
			tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
			sender = tn
		} else {
			log.Println("[WARN] telegram credentials not set, bot disabled")
		}

		sched := scheduler.NewScheduler(ctx, d, acct, sender, req, params, cfg.Schedule.Watchlist)
		if err := sched.Register(cfg.Schedule.RefreshCron); err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()

		if tn != nil {
			go tn.StartPolling(ctx, sched.HandleCommand)
			log.Println("[INFO] Telegram polling started")
		}
		if c.Bool("refresh-now") {
			go sched.RunRefreshNow()
		}

		srv := api.NewServer(cfg.HTTP.Addr, d, acct, m, api.Defaults{Request: req, Params: params})
		errCh := make(chan error, 1)
		go func() { errCh <- srv.Start() }()

		log.Println("[INFO] academy is running. Press Ctrl+C to stop.")
		select {
		case <-ctx.Done():
			log.Println("[INFO] shutdown signal received, stopping...")
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("http server: %w", err)
			}
		}
		if err := srv.Shutdown(); err != nil {
			log.Printf("[ERROR] http shutdown: %v", err)
		}
		log.Println("[INFO] academy stopped")
		return nil
	},
}

var indicatorsCommand = &cli.Command{
	Name:  "indicators",
	Usage: "print moving averages and RSI for the latest bars",
	Flags: append([]cli.Flag{
		&cli.IntFlag{Name: "rows", Value: 10, Usage: "number of trailing bars to print"},
	}, requestFlags...),
	Action: func(c *cli.Context) error {
		return oneShot(c, func(ctx context.Context, d *desk.Desk, req desk.Request, params desk.Params) error {
			snap, err := d.Load(ctx, req, params)
			if err != nil {
				return err
			}
			ind := snap.Indicators
			s := snap.Summary
			fmt.Printf("%s %s %dd  price %s  change %s%%  RSI %s\n",
				snap.Series.Symbol(), req.Interval, req.PeriodDays, cell(s.Price), cell(s.ChangePct), cell(s.RSI))
			if snap.ShortHistory {
				fmt.Printf("warning: %d bars, MA%d not available\n", snap.Series.Len(), ind.SlowWindow)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "time\tclose\tMA%d\tMA%d\tRSI%d\tdir\n", ind.FastWindow, ind.SlowWindow, ind.RSIWindow)
			start := max(0, snap.Series.Len()-c.Int("rows"))
			for i := start; i < snap.Series.Len(); i++ {
				b := snap.Series.Bar(i)
				dir := "down"
				if ind.Up[i] {
					dir = "up"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", b.Time.Format("2006-01-02 15:04"),
					cell(b.Close), cell(ind.MAFast[i]), cell(ind.MASlow[i]), cell(ind.RSI[i]), dir)
			}
			return w.Flush()
		})
	},
}

var backtestCommand = &cli.Command{
	Name:  "backtest",
	Usage: "run the moving-average crossover backtest",
	Flags: requestFlags,
	Action: func(c *cli.Context) error {
		return oneShot(c, func(ctx context.Context, d *desk.Desk, req desk.Request, params desk.Params) error {
			res, err := d.Backtest(ctx, req, params.FastWindow, params.SlowWindow)
			if errors.Is(err, strategy.ErrInsufficientHistory) || errors.Is(err, strategy.ErrDataIntegrity) {
				fmt.Printf("warning: %v\n", err)
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Printf("%s MA%d/MA%d over %d bars: total return %s%%\n",
				req.Symbol, res.FastWindow, res.SlowWindow, len(res.Signal), cell(res.TotalReturnPct))
			for _, x := range strategy.Crossovers(res) {
				fmt.Printf("  %s  %-5s equity %s\n", res.Time[x.Index].Format("2006-01-02 15:04"), x.Kind, cell(res.CumulativeReturnCurve[x.Index]))
			}
			return nil
		})
	},
}

var chartCommand = &cli.Command{
	Name:  "chart",
	Usage: "render the dashboard as an SVG file",
	Flags: append([]cli.Flag{
		&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Value: "dashboard.svg", Usage: "output file"},
		&cli.BoolFlag{Name: "markers", Usage: "draw crossover entries and exits"},
	}, requestFlags...),
	Action: func(c *cli.Context) error {
		return oneShot(c, func(ctx context.Context, d *desk.Desk, req desk.Request, params desk.Params) error {
			snap, err := d.Load(ctx, req, params)
			if err != nil {
				return err
			}
			opt := chart.Options{}
			if c.Bool("markers") {
				if res, err := strategy.RunBacktest(snap.Series, params.FastWindow, params.SlowWindow); err == nil {
					opt.Crosses = strategy.Crossovers(res)
				}
			}
			svg, err := chart.RenderDashboardSVG(snap, opt)
			if err != nil {
				return err
			}
			if err := os.WriteFile(c.String("out"), svg, 0o644); err != nil {
				return fmt.Errorf("write chart: %w", err)
			}
			log.Printf("[INFO] wrote %s (%d bytes)", c.String("out"), len(svg))
			return nil
		})
	},
}

// cell formats a value for terminal output, printing undefined values as "-".
func cell(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "-"
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}
