package storage

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/stacklok/showsync/internal/config"
	"github.com/stacklok/showsync/internal/store/inmemory"
)

// MemoryFactory keeps the catalog in process memory. The watermark and pass
// statuses are still written to the data directory.
type MemoryFactory struct {
	baseFactory
}

var _ Factory = (*MemoryFactory)(nil)

// NewMemoryFactory creates the data directory and an empty in-memory store
func NewMemoryFactory(cfg *config.Config) (*MemoryFactory, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", dataDir, err)
	}

	slog.Info("Creating in-memory storage factory", "data_dir", dataDir)
	return &MemoryFactory{baseFactory{config: cfg, store: inmemory.New()}}, nil
}

// Cleanup is a no-op
func (*MemoryFactory) Cleanup() {}
