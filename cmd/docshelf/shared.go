package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/docshelfhq/docshelf/internal/config"
	"github.com/docshelfhq/docshelf/internal/observability"
	"github.com/docshelfhq/docshelf/internal/storage"
	pgstore "github.com/docshelfhq/docshelf/internal/storage/postgres"
	sqlitestore "github.com/docshelfhq/docshelf/internal/storage/sqlite"
	"github.com/docshelfhq/docshelf/internal/workspace"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// initWorkspace creates the workspace, resolving the root from config or defaults.
func initWorkspace(cfg *config.Config) (*workspace.Workspace, error) {
	root := cfg.Workspace
	if root == "" {
		return workspace.Default()
	}
	return workspace.New(root)
}

// initStore creates the appropriate storage backend from config.
func initStore(cfg *config.Config, ws *workspace.Workspace, logger *slog.Logger, metrics *observability.MetricsCollector) (storage.Store, error) {
	driver := cfg.StorageDriverName()

	switch driver {
	case storage.DriverPostgres:
		return initPostgresStore(cfg, logger, metrics)
	case storage.DriverSQLite:
		return initSQLiteStore(cfg, ws, logger, metrics)
	default:
		return nil, fmt.Errorf("unknown storage driver: %q", driver)
	}
}

func initSQLiteStore(cfg *config.Config, ws *workspace.Workspace, logger *slog.Logger, metrics *observability.MetricsCollector) (storage.Store, error) {
	dbPath := ws.DatabasePath()
	journalMode := "wal"

	if cfg.Storage != nil && cfg.Storage.SQLite != nil {
		if cfg.Storage.SQLite.Path != "" {
			dbPath = cfg.Storage.SQLite.Path
		}
		if cfg.Storage.SQLite.JournalMode != "" {
			journalMode = cfg.Storage.SQLite.JournalMode
		}
	}

	return sqlitestore.Open(sqlitestore.Config{
		Path:        dbPath,
		JournalMode: journalMode,
	}, logger, queryMetrics(metrics))
}

func initPostgresStore(cfg *config.Config, logger *slog.Logger, metrics *observability.MetricsCollector) (storage.Store, error) {
	var dsn string
	if cfg.Storage != nil && cfg.Storage.Postgres != nil {
		dsn = cfg.Storage.Postgres.DSN
	}
	if envDSN := os.Getenv("DOCSHELF_DB_DSN"); envDSN != "" {
		dsn = envDSN
	}
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is required (set storage.postgres.dsn or DOCSHELF_DB_DSN)")
	}

	pgCfg := pgstore.Config{DSN: dsn}
	if cfg.Storage != nil && cfg.Storage.Postgres != nil {
		pgCfg.MaxOpenConns = cfg.Storage.Postgres.MaxOpenConns
		pgCfg.MaxIdleConns = cfg.Storage.Postgres.MaxIdleConns
		pgCfg.ConnMaxLifetime = time.Duration(cfg.Storage.Postgres.ConnMaxLifetimeS) * time.Second
	}

	pgDB, err := pgstore.Open(pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}

	return pgstore.NewStore(pgDB, queryMetrics(metrics)), nil
}

// queryMetrics converts a possibly-nil collector into the storage metrics
// interface without producing a typed-nil interface value.
func queryMetrics(m *observability.MetricsCollector) pgstore.QueryMetrics {
	if m == nil {
		return nil
	}
	return m
}
