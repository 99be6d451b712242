package storage

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/showsync/internal/config"
	"github.com/stacklok/showsync/internal/store/sqlite"
)

// SQLiteFactory creates components backed by the embedded SQLite database
type SQLiteFactory struct {
	baseFactory
}

var _ Factory = (*SQLiteFactory)(nil)

// NewSQLiteFactory migrates and opens the database at cfg.GetSQLitePath()
func NewSQLiteFactory(ctx context.Context, cfg *config.Config, tracer trace.Tracer) (*SQLiteFactory, error) {
	path := cfg.GetSQLitePath()
	slog.Info("Creating SQLite storage factory", "path", path)

	var opts []sqlite.Option
	if tracer != nil {
		opts = append(opts, sqlite.WithTracer(tracer))
	}

	st, err := sqlite.Open(ctx, path, opts...)
	if err != nil {
		return nil, err
	}

	return &SQLiteFactory{baseFactory{config: cfg, store: st}}, nil
}

// Cleanup closes the database
func (f *SQLiteFactory) Cleanup() {
	if err := f.store.Close(); err != nil {
		slog.Warn("Failed to close SQLite store", "error", err)
	}
}
