package state

import (
	"fmt"
	"path/filepath"

	"github.com/stacklok/showsync/internal/config"
	"github.com/stacklok/showsync/internal/store"
)

// NewWatermarkStore selects the watermark persistence for the configured storage type.
//
// Database-backed catalogs keep the watermark next to the data it describes.
// The memory catalog keeps it in <dataDir>/watermark.json so restarts still resume.
func NewWatermarkStore(cfg *config.Config, st store.WatermarkStore) (WatermarkStore, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	switch cfg.GetStorageType() {
	case config.StorageTypeMemory:
		return NewFileWatermark(filepath.Join(cfg.GetDataDir(), WatermarkFileName)), nil
	case config.StorageTypeSQLite, config.StorageTypePostgres:
		if st == nil {
			return nil, fmt.Errorf("store is required when storage type is %s", cfg.GetStorageType())
		}
		return NewStoreWatermark(st), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.GetStorageType())
	}
}
