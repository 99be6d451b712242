package app

import (
	"github.com/stacklok/showsync/internal/app/storage"
	"github.com/stacklok/showsync/internal/service"
	"github.com/stacklok/showsync/internal/status"
	pkgsync "github.com/stacklok/showsync/internal/sync"
	"github.com/stacklok/showsync/internal/sync/coordinator"
	"github.com/stacklok/showsync/internal/telemetry"
)

// AppComponents groups all application components
//
//nolint:revive // This name is fine
type AppComponents struct {
	// SyncCoordinator triggers full passes on the configured interval
	SyncCoordinator coordinator.Coordinator

	// SyncManager runs full and single-series passes
	SyncManager pkgsync.Manager

	// Status tracks the phase of the last pass of each mode
	Status *status.Tracker

	// CatalogService backs the HTTP API
	CatalogService service.CatalogService

	// Storage owns the catalog store and its connections
	Storage storage.Factory

	// Telemetry owns the tracer and meter providers
	Telemetry *telemetry.Telemetry
}
