// Package app wires the sync engine, its storage and the HTTP API into a
// runnable service.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"

	"github.com/stacklok/showsync/internal/config"
)

// SyncApp encapsulates all components needed to run the sync service.
// It provides lifecycle management and graceful shutdown capabilities.
type SyncApp struct {
	config     *config.Config
	components *AppComponents
	httpServer *http.Server
	lock       *flock.Flock

	// Lifecycle management
	ctx        context.Context
	cancelFunc context.CancelFunc
}

// Start runs the sync coordinator and the HTTP server. It blocks until Stop is
// called or either of them fails; a failure of one stops the other.
func (app *SyncApp) Start() error {
	g, ctx := errgroup.WithContext(app.ctx)

	g.Go(func() error {
		if err := app.components.SyncCoordinator.Start(ctx); err != nil {
			return fmt.Errorf("sync coordinator failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		slog.Info("Server listening", "address", app.httpServer.Addr)
		if err := app.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		if app.ctx.Err() != nil {
			// Stop owns the shutdown
			return nil
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
		defer cancel()
		if err := app.httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP server shutdown failed", "error", err)
		}
		return nil
	})

	return g.Wait()
}

// Stop gracefully stops the application with the given timeout.
// The coordinator goes first so an in-flight pass completes before the
// storage behind it is closed.
func (app *SyncApp) Stop(timeout time.Duration) error {
	slog.Info("Shutting down server...")

	if err := app.components.SyncCoordinator.Stop(); err != nil {
		slog.Error("Failed to stop sync coordinator", "error", err)
	}

	if app.cancelFunc != nil {
		app.cancelFunc()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs []error
	if err := app.httpServer.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server forced to shutdown: %w", err))
	}
	if err := app.close(shutdownCtx); err != nil {
		errs = append(errs, err)
	}

	slog.Info("Server shutdown complete")
	return errors.Join(errs...)
}

// Close releases storage, telemetry and the process lock without starting or
// stopping the server. It is used by one-shot commands.
func (app *SyncApp) Close(ctx context.Context) error {
	if app.cancelFunc != nil {
		app.cancelFunc()
	}
	return app.close(ctx)
}

func (app *SyncApp) close(ctx context.Context) error {
	var errs []error

	if app.components.Telemetry != nil {
		if err := app.components.Telemetry.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if app.components.Storage != nil {
		app.components.Storage.Cleanup()
	}
	if app.lock != nil {
		if err := app.lock.Unlock(); err != nil {
			errs = append(errs, fmt.Errorf("failed to release lock %s: %w", app.lock.Path(), err))
		}
	}

	return errors.Join(errs...)
}

// GetConfig returns the application configuration
func (app *SyncApp) GetConfig() *config.Config {
	return app.config
}

// GetHTTPServer returns the HTTP server (useful for testing to get the actual port)
func (app *SyncApp) GetHTTPServer() *http.Server {
	return app.httpServer
}

// Components returns the wired application components
func (app *SyncApp) Components() *AppComponents {
	return app.components
}
