package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/showsync/database"
	"github.com/stacklok/showsync/internal/config"
	"github.com/stacklok/showsync/internal/db"
	"github.com/stacklok/showsync/internal/store/postgres"
)

// DatabaseFactory creates components backed by PostgreSQL
type DatabaseFactory struct {
	baseFactory
	pool *pgxpool.Pool
}

var _ Factory = (*DatabaseFactory)(nil)

// NewDatabaseFactory connects to the configured database, waiting for it to
// become reachable, and applies pending migrations.
func NewDatabaseFactory(ctx context.Context, cfg *config.Config, tracer trace.Tracer) (*DatabaseFactory, error) {
	if cfg.Database == nil {
		return nil, fmt.Errorf("database configuration is required for %s storage", config.StorageTypePostgres)
	}

	slog.Info("Creating database-backed storage factory")

	pool, err := db.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	if err := postgres.WaitForPool(ctx, pool, cfg.Database.GetConnectTimeout()); err != nil {
		pool.Close()
		return nil, err
	}

	connStr, err := cfg.Database.GetConnectionString()
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to build connection string: %w", err)
	}
	if err := database.MigrateUp(database.DialectPostgres, connStr); err != nil {
		pool.Close()
		return nil, err
	}

	return newDatabaseFactory(cfg, pool, tracer)
}

func newDatabaseFactory(cfg *config.Config, pool *pgxpool.Pool, tracer trace.Tracer) (*DatabaseFactory, error) {
	var opts []postgres.Option
	if tracer != nil {
		opts = append(opts, postgres.WithTracer(tracer))
	}

	st, err := postgres.New(pool, opts...)
	if err != nil {
		pool.Close()
		return nil, err
	}

	return &DatabaseFactory{
		baseFactory: baseFactory{config: cfg, store: st},
		pool:        pool,
	}, nil
}

// Cleanup closes the connection pool
func (f *DatabaseFactory) Cleanup() {
	if f.pool != nil {
		slog.Info("Closing database connection pool")
		f.pool.Close()
	}
}
