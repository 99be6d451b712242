package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/stacklok/showsync/internal/config"
	pkgsync "github.com/stacklok/showsync/internal/sync"
)

// Coordinator owns the background loop that triggers full sync passes
type Coordinator interface {
	// Start runs the loop until the context is cancelled or Stop is called.
	// It blocks, and it is the only caller of Manager.RunFullSync.
	Start(ctx context.Context) error

	// Stop asks the loop to exit and waits for it. A pass in flight completes first.
	Stop() error
}

// defaultCoordinator is the default implementation of Coordinator
type defaultCoordinator struct {
	manager  pkgsync.Manager
	schedule schedule
	now      func() time.Time

	// Lifecycle management
	mu         sync.Mutex
	cancelFunc context.CancelFunc
	done       chan struct{}
}

// Option is a function that configures the coordinator
type Option func(*defaultCoordinator)

// WithInterval overrides the configured pass interval
func WithInterval(d time.Duration) Option {
	return func(c *defaultCoordinator) {
		c.schedule.interval = d
	}
}

// WithTick overrides the configured tick
func WithTick(d time.Duration) Option {
	return func(c *defaultCoordinator) {
		c.schedule.tick = d
	}
}

// WithRunOnStart makes the first pass run on the first tick
func WithRunOnStart(runOnStart bool) Option {
	return func(c *defaultCoordinator) {
		c.schedule.runOnStart = runOnStart
	}
}

// WithClock overrides time.Now for interval checks
func WithClock(now func() time.Time) Option {
	return func(c *defaultCoordinator) {
		c.now = now
	}
}

// New creates a new coordinator with injected dependencies
func New(manager pkgsync.Manager, cfg *config.Config, opts ...Option) Coordinator {
	c := &defaultCoordinator{
		manager:  manager,
		schedule: scheduleFromConfig(cfg),
		now:      time.Now,
		done:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Start implements Coordinator
func (c *defaultCoordinator) Start(ctx context.Context) error {
	if c.schedule.tick <= 0 || c.schedule.interval <= 0 {
		return fmt.Errorf("invalid schedule: tick %s, interval %s", c.schedule.tick, c.schedule.interval)
	}

	coordCtx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	if c.cancelFunc != nil {
		c.mu.Unlock()
		cancel()
		return fmt.Errorf("coordinator already started")
	}
	c.cancelFunc = cancel
	c.mu.Unlock()

	defer func() {
		close(c.done)
		slog.Info("Background sync coordinator shutting down")
	}()

	slog.Info("Starting background sync coordinator",
		"interval", c.schedule.interval,
		"tick", c.schedule.tick,
		"run_on_start", c.schedule.runOnStart)

	var lastRun time.Time
	if !c.schedule.runOnStart {
		lastRun = c.now()
	}

	ticker := time.NewTicker(c.schedule.tick)
	defer ticker.Stop()

	for {
		select {
		case <-coordCtx.Done():
			slog.Info("Sync coordinator stopping")
			return nil
		case <-ticker.C:
		}

		// A tick and a cancellation may be ready together; cancellation wins.
		if coordCtx.Err() != nil {
			slog.Info("Sync coordinator stopping")
			return nil
		}

		now := c.now()
		if now.Sub(lastRun) < c.schedule.interval {
			continue
		}
		lastRun = now
		c.runPass(coordCtx)
	}
}

// Stop implements Coordinator
func (c *defaultCoordinator) Stop() error {
	c.mu.Lock()
	cancel := c.cancelFunc
	c.mu.Unlock()

	if cancel != nil {
		slog.Info("Stopping sync coordinator")
		cancel()
		// Wait for coordinator to finish
		<-c.done
	}
	return nil
}

// runPass runs one full pass. The pass ignores loop cancellation so that it
// always runs to completion, and neither its error nor a panic stops the loop.
func (c *defaultCoordinator) runPass(ctx context.Context) {
	passCtx := context.WithoutCancel(ctx)
	startTime := time.Now()

	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(passCtx, "Sync pass panicked",
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()

	result, syncErr := c.manager.RunFullSync(passCtx)
	if syncErr != nil {
		slog.ErrorContext(passCtx, "Scheduled sync failed",
			"reason", syncErr.Reason,
			"error", syncErr.Message,
			"duration", time.Since(startTime))
		return
	}

	if result.Skipped {
		slog.InfoContext(passCtx, "Scheduled sync skipped", "run_id", result.RunID)
		return
	}
	slog.InfoContext(passCtx, "Scheduled sync completed",
		"run_id", result.RunID,
		"series_updated", result.SeriesUpdated,
		"series_failed", result.SeriesFailed,
		"watermark", result.WatermarkAfter,
		"duration", time.Since(startTime))
}
