package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"mangaalert/internal/api"
	"mangaalert/internal/app"
	"mangaalert/internal/auth"
	"mangaalert/internal/config"
	"mangaalert/internal/logging"
	"mangaalert/internal/subscription"
)

func main() {
	if err := run(); err != nil {
		slog.Error("api_server_failed", "error", err)
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
	logger := logging.Setup(cfg, "api-server")
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

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

	deps := api.HandlerDeps{
		Subscriptions: subscription.NewService(a.Subscriptions, watchlist.Titles(), cfg.MaxSubscribers, logger),
		Admin:         auth.NewAdminAuth(cfg),
		Releases:      a.Releases,
		Locker:        a.Locker,
		Location:      cfg.Location(),
		Logger:        logger,
	}
	if cfg.AdminEnabled() {
		sender, err := a.NewSender(ctx)
		if err != nil {
			return err
		}
		if deps.Alerts, err = a.NewScheduler(sender); err != nil {
			return err
		}
		if deps.Scraper, err = a.NewScrapeRunner(watchlist); err != nil {
			return err
		}
	} else {
		logger.Warn("admin_routes_disabled", "reason", "JWT_SECRET or ADMIN_PASSWORD_HASH not set")
	}

	router := api.NewRouter(api.NewHandler(deps), api.RouterOptions{
		CORSOrigins:            cfg.CORSOrigins,
		SubscribeRatePerMinute: cfg.SubscribeRatePerMinute,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("api_server_listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("received_shutdown_signal")
	case err := <-errChan:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server_stopped_gracefully")
	return nil
}
