package app

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/gofrs/flock"

	"github.com/stacklok/showsync/internal/api"
	"github.com/stacklok/showsync/internal/app/storage"
	"github.com/stacklok/showsync/internal/auth"
	"github.com/stacklok/showsync/internal/catalog"
	"github.com/stacklok/showsync/internal/config"
	"github.com/stacklok/showsync/internal/service"
	"github.com/stacklok/showsync/internal/sources/tvdb"
	"github.com/stacklok/showsync/internal/sources/tvrage"
	"github.com/stacklok/showsync/internal/status"
	pkgsync "github.com/stacklok/showsync/internal/sync"
	"github.com/stacklok/showsync/internal/sync/coordinator"
	"github.com/stacklok/showsync/internal/sync/state"
	"github.com/stacklok/showsync/internal/telemetry"
)

const (
	defaultHTTPAddress     = ":8080"
	defaultRequestTimeout  = 10 * time.Second
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 15 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 30 * time.Second

	// LockFileName is the advisory lock taken in the data directory so that
	// only one process writes the catalog at a time
	LockFileName = "showsync.lock"
)

// SyncAppOptions is a function that configures the app builder
type SyncAppOptions func(*syncAppConfig) error

// syncAppConfig collects the builder inputs. Overrides exist mostly for tests;
// anything left nil is built from config.
type syncAppConfig struct {
	config *config.Config

	storageFactory storage.Factory
	syncManager    pkgsync.Manager
	telemetry      *telemetry.Telemetry

	// HTTP server options
	address        string
	middlewares    []func(http.Handler) http.Handler
	requestTimeout time.Duration
	readTimeout    time.Duration
	writeTimeout   time.Duration
	idleTimeout    time.Duration
}

func baseConfig(opts ...SyncAppOptions) (*syncAppConfig, error) {
	cfg := &syncAppConfig{
		address:        defaultHTTPAddress,
		requestTimeout: defaultRequestTimeout,
		readTimeout:    defaultReadTimeout,
		writeTimeout:   defaultWriteTimeout,
		idleTimeout:    defaultIdleTimeout,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.config == nil {
		return nil, fmt.Errorf("config is required")
	}

	return cfg, nil
}

// NewSyncApp builds the application: it takes the data directory lock, opens
// storage and wires the sync engine, the coordinator and the HTTP server.
// Nothing runs until Start.
func NewSyncApp(
	ctx context.Context,
	opts ...SyncAppOptions,
) (*SyncApp, error) {
	cfg, err := baseConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build base configuration: %w", err)
	}

	lock, err := acquireLock(cfg.config.GetDataDir())
	if err != nil {
		return nil, err
	}

	// Release everything acquired so far if a later step fails
	components := &AppComponents{}
	cleanupNeeded := true
	defer func() {
		if !cleanupNeeded {
			return
		}
		if components.Storage != nil {
			components.Storage.Cleanup()
		}
		if components.Telemetry != nil {
			_ = components.Telemetry.Shutdown(context.WithoutCancel(ctx))
		}
		_ = lock.Unlock()
	}()

	if cfg.telemetry == nil {
		cfg.telemetry, err = telemetry.New(ctx, telemetry.WithTelemetryConfig(cfg.config.Telemetry))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
		}
	}
	components.Telemetry = cfg.telemetry

	if cfg.storageFactory == nil {
		cfg.storageFactory, err = storage.NewStorageFactory(ctx, cfg.config,
			storage.WithTracerProvider(cfg.telemetry.TracerProvider()))
		if err != nil {
			return nil, fmt.Errorf("failed to create storage factory: %w", err)
		}
	}
	components.Storage = cfg.storageFactory

	if err := buildSyncComponents(ctx, cfg, components); err != nil {
		return nil, err
	}

	httpServer, err := buildHTTPServer(ctx, cfg, components)
	if err != nil {
		return nil, fmt.Errorf("failed to build HTTP server: %w", err)
	}

	appCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	cleanupNeeded = false

	return &SyncApp{
		config:     cfg.config,
		components: components,
		httpServer: httpServer,
		lock:       lock,
		ctx:        appCtx,
		cancelFunc: cancel,
	}, nil
}

// WithConfig sets the configuration
func WithConfig(config *config.Config) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.config = config
		return nil
	}
}

// WithAddress sets the HTTP server address
func WithAddress(addr string) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		host, port, err := net.SplitHostPort(addr)
		if err != nil {
			return fmt.Errorf("invalid address %q: %w", addr, err)
		}
		if strings.TrimSpace(port) == "" {
			return fmt.Errorf("invalid address %q: missing port", addr)
		}
		if host == "" {
			host = "0.0.0.0"
		}

		if _, err := netip.ParseAddrPort(net.JoinHostPort(host, port)); err != nil {
			return fmt.Errorf("address is not a valid port: %w", err)
		}

		cfg.address = addr
		return nil
	}
}

// WithMiddlewares replaces the default HTTP middlewares
func WithMiddlewares(mw ...func(http.Handler) http.Handler) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.middlewares = mw
		return nil
	}
}

// WithStorageFactory allows injecting a custom storage factory (for testing)
func WithStorageFactory(f storage.Factory) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.storageFactory = f
		return nil
	}
}

// WithSyncManager allows injecting a custom sync manager (for testing)
func WithSyncManager(sm pkgsync.Manager) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.syncManager = sm
		return nil
	}
}

// WithTelemetry uses already initialized telemetry instead of building it from config
func WithTelemetry(t *telemetry.Telemetry) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.telemetry = t
		return nil
	}
}

// acquireLock takes the data directory lock without blocking
func acquireLock(dataDir string) (*flock.Flock, error) {
	if err := os.MkdirAll(dataDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", dataDir, err)
	}

	lock := flock.New(filepath.Join(dataDir, LockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock %s: %w", lock.Path(), err)
	}
	if !locked {
		return nil, fmt.Errorf("another showsync process is using %s", dataDir)
	}

	slog.Debug("Data directory locked", "path", lock.Path())
	return lock, nil
}

// buildSyncComponents wires the watermark, the provider clients, the sync
// manager and the coordinator.
func buildSyncComponents(
	ctx context.Context,
	b *syncAppConfig,
	components *AppComponents,
) error {
	slog.Info("Initializing sync components")

	st := b.storageFactory.Store()
	cat := catalog.New(st, catalog.NewLockRegistry())

	watermarks, err := b.storageFactory.CreateWatermarkStore(ctx)
	if err != nil {
		return fmt.Errorf("failed to create watermark store: %w", err)
	}

	persistence, err := b.storageFactory.CreateStatusPersistence(ctx)
	if err != nil {
		return fmt.Errorf("failed to create status persistence: %w", err)
	}
	components.Status = status.NewTracker(ctx, persistence)

	if b.syncManager == nil {
		b.syncManager, err = buildSyncManager(b, cat, watermarks, components.Status)
		if err != nil {
			return err
		}
	}
	components.SyncManager = b.syncManager

	components.SyncCoordinator = coordinator.New(b.syncManager, b.config)
	components.CatalogService = service.New(cat, st, watermarks, b.syncManager, components.Status)

	slog.Info("Sync components initialized successfully")
	return nil
}

func buildSyncManager(
	b *syncAppConfig,
	cat catalog.Catalog,
	watermarks state.WatermarkStore,
	recorder status.Recorder,
) (pkgsync.Manager, error) {
	apiKey, err := b.config.Provider.GetAPIKey()
	if err != nil {
		return nil, fmt.Errorf("failed to read provider api key: %w", err)
	}

	provider, err := tvdb.NewClient(b.config.Provider.Endpoint,
		tvdb.WithAPIKey(apiKey),
		tvdb.WithRequestTimeout(b.config.GetRequestTimeout()),
		tvdb.WithFetchTimeout(b.config.GetFetchTimeout()),
		tvdb.WithTracer(b.telemetry.Tracer(tvdb.TracerName)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider client: %w", err)
	}

	tracer := b.telemetry.Tracer(pkgsync.TracerName)
	meterProvider := b.telemetry.MeterProvider()
	syncMetrics, err := telemetry.NewSyncMetrics(meterProvider)
	if err != nil {
		return nil, fmt.Errorf("failed to create sync metrics: %w", err)
	}
	catalogMetrics, err := telemetry.NewCatalogMetrics(meterProvider)
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog metrics: %w", err)
	}

	updaterOpts := []pkgsync.UpdaterOption{
		pkgsync.WithUpdaterMetrics(syncMetrics),
		pkgsync.WithUpdaterTracer(tracer),
	}
	if b.config.Supplemental != nil && b.config.Supplemental.Endpoint != "" {
		supplemental, err := tvrage.NewClient(b.config.Supplemental.Endpoint,
			tvrage.WithTracer(b.telemetry.Tracer(tvrage.TracerName)))
		if err != nil {
			return nil, fmt.Errorf("failed to create supplemental client: %w", err)
		}
		updaterOpts = append(updaterOpts, pkgsync.WithSupplementalSource(supplemental))
		slog.Info("Supplemental episode discovery enabled", "endpoint", b.config.Supplemental.Endpoint)
	}

	st := b.storageFactory.Store()
	updater := pkgsync.NewUpdater(st, provider, cat.Locks(), updaterOpts...)

	return pkgsync.NewManager(cat, watermarks, provider, updater,
		pkgsync.WithStalenessThreshold(b.config.GetStalenessThreshold()),
		pkgsync.WithRecorder(recorder),
		pkgsync.WithSyncMetrics(syncMetrics),
		pkgsync.WithCatalogMetrics(catalogMetrics),
		pkgsync.WithTracer(tracer),
	), nil
}

// buildHTTPServer builds the HTTP server with router and middleware
//
//nolint:unparam // we prefer having a similar interface
func buildHTTPServer(
	_ context.Context,
	b *syncAppConfig,
	components *AppComponents,
) (*http.Server, error) {
	slog.Info("Initializing HTTP server")

	if b.middlewares == nil {
		b.middlewares = []func(http.Handler) http.Handler{
			middleware.RequestID,
			middleware.RealIP,
			middleware.Recoverer,
			middleware.Timeout(b.requestTimeout),
			api.LoggingMiddleware,
			telemetry.TracingMiddleware(components.Telemetry.TracerProvider()),
		}
	}

	// Authentication is innermost so logging and tracing see rejected requests
	authMiddleware, err := auth.NewMiddleware(b.config)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth middleware: %w", err)
	}
	b.middlewares = append(b.middlewares, authMiddleware)

	// Metrics go first so rejected and timed out requests are counted too
	metricsMiddleware, err := telemetry.MetricsMiddleware(components.Telemetry.MeterProvider())
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics middleware: %w", err)
	}
	if metricsMiddleware != nil {
		b.middlewares = append([]func(http.Handler) http.Handler{metricsMiddleware}, b.middlewares...)
	}

	router := api.NewServer(components.CatalogService,
		api.WithMiddlewares(b.middlewares...),
		api.WithMetricsHandler(components.Telemetry.MetricsHandler()),
	)

	server := &http.Server{
		Addr:         b.address,
		Handler:      router,
		ReadTimeout:  b.readTimeout,
		WriteTimeout: b.writeTimeout,
		IdleTimeout:  b.idleTimeout,
	}

	slog.Info("HTTP server configured", "address", b.address)
	return server, nil
}
