// Package storage creates the storage-dependent components of the service as
// a family, so the catalog, the watermark and the pass status always agree on
// where they live.
package storage

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/showsync/internal/config"
	"github.com/stacklok/showsync/internal/status"
	"github.com/stacklok/showsync/internal/store"
	"github.com/stacklok/showsync/internal/store/postgres"
	"github.com/stacklok/showsync/internal/store/sqlite"
	"github.com/stacklok/showsync/internal/sync/state"
)

//go:generate mockgen -destination=mocks/mock_factory.go -package=mocks -source=factory.go Factory

// Factory creates storage-dependent components.
//
// The store is opened once, when the factory is created, and every call to
// Store returns that same instance.
type Factory interface {
	// Store returns the catalog store
	Store() store.Store

	// CreateWatermarkStore returns the watermark persistence matching the store
	CreateWatermarkStore(ctx context.Context) (state.WatermarkStore, error)

	// CreateStatusPersistence returns where pass statuses survive restarts
	CreateStatusPersistence(ctx context.Context) (status.Persistence, error)

	// Cleanup closes the store and any connection pool behind it
	Cleanup()
}

// Option configures a factory
type Option func(*options)

type options struct {
	tracerProvider trace.TracerProvider
}

// WithTracerProvider enables query spans on database-backed stores
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) {
		o.tracerProvider = tp
	}
}

func (o *options) tracer(name string) trace.Tracer {
	if o.tracerProvider == nil {
		return nil
	}
	return o.tracerProvider.Tracer(name)
}

// NewStorageFactory opens the configured storage backend
func NewStorageFactory(ctx context.Context, cfg *config.Config, opts ...Option) (Factory, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	switch cfg.GetStorageType() {
	case config.StorageTypeSQLite:
		return NewSQLiteFactory(ctx, cfg, o.tracer(sqlite.TracerName))
	case config.StorageTypePostgres:
		return NewDatabaseFactory(ctx, cfg, o.tracer(postgres.TracerName))
	case config.StorageTypeMemory:
		return NewMemoryFactory(cfg)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.GetStorageType())
	}
}

// baseFactory holds what every backend shares. Pass statuses always live in
// the data directory.
type baseFactory struct {
	config *config.Config
	store  store.Store
}

func (b *baseFactory) Store() store.Store {
	return b.store
}

func (b *baseFactory) CreateWatermarkStore(_ context.Context) (state.WatermarkStore, error) {
	return state.NewWatermarkStore(b.config, b.store)
}

func (b *baseFactory) CreateStatusPersistence(_ context.Context) (status.Persistence, error) {
	return status.NewFilePersistence(b.config.GetDataDir()), nil
}
