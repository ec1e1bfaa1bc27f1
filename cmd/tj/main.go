// Package main is the entry point of tj, the trade journal client.
//
// Configuration comes from the environment (and an optional .env file),
// logs go to stderr and command output to stdout.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/aristath/tradejournal/internal/cli"
	"github.com/aristath/tradejournal/internal/config"
	"github.com/aristath/tradejournal/internal/di"
	"github.com/aristath/tradejournal/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true, Output: os.Stderr})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
		Output: os.Stderr,
	})
	logger.SetGlobalLogger(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = cli.Execute(ctx, cli.Options{
		Wire: func() (*di.Container, error) {
			container, jobs, err := di.Wire(cfg, log)
			if err != nil {
				return nil, err
			}
			// Drafts past retention are pruned on every run; the daily
			// schedule only matters for long sessions.
			if err := container.Scheduler.RunNow(jobs.DraftRetention); err != nil {
				log.Warn().Err(err).Msg("Draft retention failed")
			}
			container.Scheduler.Start()
			return container, nil
		},
	})
	stop()
	if err != nil {
		os.Exit(1)
	}
}
