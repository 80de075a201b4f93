package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
)

var (
	configPath string
	timeout    time.Duration
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	app := cli.NewApp()
	app.Name = "academy"
	app.Usage = "market dashboard, crossover backtests and paper trading"
	app.EnableBashCompletion = true
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Value:       "configs/config.yaml",
			Usage:       "path to the YAML config file",
			EnvVars:     []string{"CONFIG_PATH"},
			Destination: &configPath,
		},
		&cli.DurationFlag{
			Name:        "timeout",
			Value:       30 * time.Second,
			Usage:       "deadline for one-shot commands",
			Destination: &timeout,
		},
	}
	app.Commands = []*cli.Command{
		serveCommand,
		indicatorsCommand,
		backtestCommand,
		chartCommand,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Fatalf("[FATAL] %v", err)
	}
}
