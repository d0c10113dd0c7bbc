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
		slog.Error("notifier_failed", "error", err)
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
	logger := logging.Setup(cfg, "notifier")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	sender, err := a.NewSender(ctx)
	if err != nil {
		return err
	}
	scheduler, err := a.NewScheduler(sender)
	if err != nil {
		return err
	}

	err = app.RunExclusive(ctx, a.Locker, "notifier", logger, func(ctx context.Context) error {
		_, err := scheduler.RunAlertCycle(ctx)
		return err
	})
	if errors.Is(err, runlock.ErrLocked) {
		logger.Warn("notifier_already_running")
		return nil
	}
	return err
}
