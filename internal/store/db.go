package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"careermatch/internal/config"
	"careermatch/internal/errors"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as database/sql driver
)

// PoolOptions controls database pool and connectivity behavior.
type PoolOptions struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

var openDB = sql.Open

// PoolOptionsFromConfig maps store configuration onto pool options.
func PoolOptionsFromConfig(cfg *config.StoreConfig) PoolOptions {
	return PoolOptions{
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.ConnMaxIdleTime,
		PingTimeout:     cfg.PingTimeout,
	}
}

// Connect opens a pgx-backed *sql.DB for databaseURL and verifies connectivity.
func Connect(ctx context.Context, databaseURL string, opts PoolOptions, logger *errors.Logger) (*sql.DB, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "database URL is empty", nil)
	}

	db, err := openDB("pgx", databaseURL)
	if err != nil {
		return nil, errors.NewStorageError(errors.ErrCodeStoreFailed, "failed to open database", err)
	}

	applyPoolOptions(db, opts)

	pingTimeout := opts.PingTimeout
	if pingTimeout <= 0 {
		pingTimeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, errors.NewStorageError(errors.ErrCodeStoreFailed, "failed to ping database", err)
	}

	if logger != nil {
		stats := db.Stats()
		logger.Info("Database connected",
			"open", stats.OpenConnections,
			"idle", stats.Idle,
			"max_open", stats.MaxOpenConnections)
	}
	return db, nil
}

func applyPoolOptions(db *sql.DB, opts PoolOptions) {
	if opts.MaxOpenConns <= 0 {
		opts.MaxOpenConns = 10
	}
	if opts.MaxIdleConns <= 0 {
		opts.MaxIdleConns = 5
	}
	if opts.ConnMaxLifetime <= 0 {
		opts.ConnMaxLifetime = time.Hour
	}
	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(opts.MaxIdleConns)
	db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	if opts.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(opts.ConnMaxIdleTime)
	}
}

// Open returns the profile store selected by cfg.Driver.
func Open(ctx context.Context, cfg *config.StoreConfig, logger *errors.Logger) (ProfileStore, error) {
	switch cfg.Driver {
	case "", DriverFile:
		return NewFileStore(cfg.Path), nil
	case DriverMemory:
		return NewMemoryStore(), nil
	case DriverPostgres:
		db, err := Connect(ctx, cfg.DatabaseURL, PoolOptionsFromConfig(cfg), logger)
		if err != nil {
			return nil, err
		}
		if cfg.AutoMigrate {
			if err := Migrate(ctx, db); err != nil {
				db.Close()
				return nil, errors.NewStorageError(errors.ErrCodeStoreFailed, "failed to apply migrations", err)
			}
		}
		return NewPostgresStore(db), nil
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("unknown store driver %q", cfg.Driver), nil)
	}
}
