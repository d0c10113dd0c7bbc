// Package app wires config, storage and collaborators for the binaries.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"gorm.io/gorm"

	"mangaalert/database"
	"mangaalert/internal/alerting"
	"mangaalert/internal/config"
	"mangaalert/internal/email"
	"mangaalert/internal/ingestion"
	"mangaalert/internal/ingestion/publishers"
	"mangaalert/internal/repository"
	"mangaalert/internal/runlock"
	"mangaalert/internal/secrets"
)

// App holds the handles one process needs. Stores are passed explicitly to
// the components built from it.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Secrets *secrets.Cached
	Locker  runlock.Locker

	Pool          *pgxpool.Pool
	DB            *gorm.DB
	Releases      repository.ReleaseRepository
	Subscriptions repository.SubscriptionRepository
	Ledger        repository.AlertLedger
}

var migrateSchema = func(ctx context.Context, db *gorm.DB) error {
	return database.Migrate(db.WithContext(ctx))
}

// Open connects to Postgres, brings the schema up to date unless
// DB_AUTO_MIGRATE is off, and builds the repositories. Connection failures
// come back as *database.ConnectionError.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	provider, err := secrets.New(ctx, cfg.SecretsBackend, cfg.SecretsDir, cfg.AWSRegion)
	if err != nil {
		return nil, err
	}
	cached := secrets.NewCached(provider)

	locker, err := runlock.New(cfg)
	if err != nil {
		return nil, err
	}

	pool, err := database.NewConnector(cfg, cached, logger).Connect(ctx)
	if err != nil {
		return nil, err
	}
	db, err := database.OpenGorm(pool)
	if err != nil {
		pool.Close()
		return nil, err
	}
	if err := ensureSchema(ctx, cfg, db, logger); err != nil {
		pool.Close()
		return nil, err
	}

	return &App{
		Config:        cfg,
		Logger:        logger,
		Secrets:       cached,
		Locker:        locker,
		Pool:          pool,
		DB:            db,
		Releases:      repository.NewReleaseRepository(db),
		Subscriptions: repository.NewSubscriptionRepository(db),
		Ledger:        repository.NewAlertLedger(db),
	}, nil
}

func ensureSchema(ctx context.Context, cfg *config.Config, db *gorm.DB, logger *slog.Logger) error {
	if !cfg.DBAutoMigrate {
		logger.Debug("schema_migration_skipped")
		return nil
	}
	if err := migrateSchema(ctx, db); err != nil {
		return err
	}
	logger.Debug("schema_migrated")
	return nil
}

func (a *App) Close() {
	if a.Pool != nil {
		a.Pool.Close()
	}
}

// NewSender builds the email sender; the SendGrid key is read from secrets.
func (a *App) NewSender(ctx context.Context) (email.Sender, error) {
	return email.New(ctx, a.Config, a.Secrets, a.Logger)
}

func (a *App) NewScheduler(sender email.Sender) (*alerting.Scheduler, error) {
	policy, err := alerting.ParseLedgerErrorPolicy(a.Config.AlertLedgerErrorPolicy)
	if err != nil {
		return nil, err
	}
	return alerting.NewScheduler(a.Releases, a.Subscriptions, a.Ledger, sender, alerting.Options{
		Policy:             policy,
		IsolateHorizons:    a.Config.AlertIsolateHorizons,
		Location:           a.Config.Location(),
		UnsubscribeBaseURL: a.Config.UnsubscribeBaseURL,
	}, a.Logger), nil
}

func (a *App) NewScrapeRunner(wl *config.Watchlist) (*ingestion.Runner, error) {
	fetcher := publishers.NewFetcher(a.Config.ScrapeTimeout, a.Config.ScrapeRatePerSecond)
	sources, err := publishers.FromWatchlist(wl, fetcher)
	if err != nil {
		return nil, err
	}
	ingestor := ingestion.NewIngestor(a.Releases, a.Logger)
	return ingestion.NewRunner(sources, ingestor, a.Config.ScrapeWorkers, a.Logger), nil
}

// RunExclusive runs job under the named run lock. A held lock is reported as
// runlock.ErrLocked without running job.
func RunExclusive(ctx context.Context, locker runlock.Locker, name string, logger *slog.Logger, job func(ctx context.Context) error) error {
	release, err := locker.Acquire(ctx, name)
	if err != nil {
		if errors.Is(err, runlock.ErrLocked) {
			return err
		}
		return fmt.Errorf("acquire run lock %s: %w", name, err)
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("run_lock_release_failed", "lock", name, "error", err)
		}
	}()
	return job(ctx)
}
