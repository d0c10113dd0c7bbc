package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"mangaalert/internal/app"
	"mangaalert/internal/config"
	"mangaalert/internal/logging"
	"mangaalert/internal/runlock"
)

func main() {
	if err := run(); err != nil {
		slog.Error("scraper_failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := logging.Setup(cfg, "scraper")

	watchlist, err := config.LoadWatchlist(cfg.WatchlistPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	runner, err := a.NewScrapeRunner(watchlist)
	if err != nil {
		return err
	}

	err = app.RunExclusive(ctx, a.Locker, "scraper", logger, func(ctx context.Context) error {
		summary, err := runner.Run(ctx)
		if err != nil {
			return err
		}
		if summary.Sources > 0 && summary.Failed == summary.Sources {
			return errors.New("every source failed")
		}
		return nil
	})
	if errors.Is(err, runlock.ErrLocked) {
		logger.Warn("scraper_already_running")
		return nil
	}
	return err
}
