package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"mangaalert/internal/config"
	"mangaalert/internal/models"
	"mangaalert/internal/secrets"
)

// ConnectionError reports a store or credential failure. It is fatal to the
// whole batch that needed the connection.
type ConnectionError struct {
	Op  string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("database %s: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// Invalidator drops a cached secret so the next lookup hits the backend.
type Invalidator interface {
	Invalidate(name string)
}

type opener func(ctx context.Context, cfg *pgxpool.Config) (*pgxpool.Pool, error)

// Connector opens the Postgres pool. Credentials come from DB_USERNAME /
// DB_PASSWORD when both are set, otherwise from the secret named DBSecretName.
// An authentication failure against secret-sourced credentials triggers one
// refresh of the secret and one retry.
type Connector struct {
	cfg     *config.Config
	secrets secrets.Provider
	logger  *slog.Logger
	open    opener
}

func NewConnector(cfg *config.Config, provider secrets.Provider, logger *slog.Logger) *Connector {
	return &Connector{
		cfg:     cfg,
		secrets: provider,
		logger:  logger,
		open:    openAndPing,
	}
}

// Connect returns a verified pool or a *ConnectionError.
func (c *Connector) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	if c.cfg.DatabaseURL != "" {
		poolCfg, err := pgxpool.ParseConfig(c.cfg.DatabaseURL)
		if err != nil {
			return nil, &ConnectionError{Op: "parse url", Err: err}
		}
		c.applyPoolSettings(poolCfg)
		pool, err := c.open(ctx, poolCfg)
		if err != nil {
			return nil, &ConnectionError{Op: "connect", Err: err}
		}
		return pool, nil
	}

	fromSecret := c.cfg.DBUsername == "" || c.cfg.DBPassword == ""
	pool, err := c.connectWithCredentials(ctx)
	if err == nil {
		return pool, nil
	}
	if !fromSecret || !IsAuthFailure(err) {
		return nil, &ConnectionError{Op: "connect", Err: err}
	}

	c.logger.Warn("db_auth_failed_refreshing_credentials", "secret", c.cfg.DBSecretName)
	if inv, ok := c.secrets.(Invalidator); ok {
		inv.Invalidate(c.cfg.DBSecretName)
	}
	pool, err = c.connectWithCredentials(ctx)
	if err != nil {
		return nil, &ConnectionError{Op: "connect after credential refresh", Err: err}
	}
	c.logger.Info("db_connected_after_credential_refresh")
	return pool, nil
}

func (c *Connector) connectWithCredentials(ctx context.Context) (*pgxpool.Pool, error) {
	user, password, err := c.credentials(ctx)
	if err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf("host=%s port=%d dbname=%s sslmode=%s", c.cfg.DBHost, c.cfg.DBPort, c.cfg.DBName, c.cfg.DBSSLMode)
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	poolCfg.ConnConfig.User = user
	poolCfg.ConnConfig.Password = password
	c.applyPoolSettings(poolCfg)

	return c.open(ctx, poolCfg)
}

func (c *Connector) credentials(ctx context.Context) (string, string, error) {
	if c.cfg.DBUsername != "" && c.cfg.DBPassword != "" {
		return c.cfg.DBUsername, c.cfg.DBPassword, nil
	}
	if c.secrets == nil {
		return "", "", errors.New("no database credentials configured")
	}
	values, err := c.secrets.GetSecret(ctx, c.cfg.DBSecretName)
	if err != nil {
		return "", "", fmt.Errorf("load database secret: %w", err)
	}
	if values["username"] == "" || values["password"] == "" {
		return "", "", fmt.Errorf("secret %s lacks username or password", c.cfg.DBSecretName)
	}
	return values["username"], values["password"], nil
}

func (c *Connector) applyPoolSettings(poolCfg *pgxpool.Config) {
	if c.cfg.DBMaxConns > 0 {
		poolCfg.MaxConns = int32(c.cfg.DBMaxConns)
	}
	poolCfg.MaxConnIdleTime = 5 * time.Minute
}

func openAndPing(ctx context.Context, poolCfg *pgxpool.Config) (*pgxpool.Pool, error) {
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, err
	}
	// pgxpool connects lazily; ping so auth failures surface here
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// IsAuthFailure reports whether err is a Postgres authentication rejection.
func IsAuthFailure(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "28P01" || pgErr.Code == "28000"
	}
	return false
}

// OpenGorm wraps the pool in a gorm handle used by the repositories.
func OpenGorm(pool *pgxpool.Pool) (*gorm.DB, error) {
	sqlDB := stdlib.OpenDBFromPool(pool)
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, &ConnectionError{Op: "open gorm", Err: err}
	}
	return db, nil
}

// Migrate creates or updates the schema, including the identity unique indexes.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Release{},
		&models.Subscriber{},
		&models.Subscription{},
		&models.AlertRecord{},
	); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}
