// Package status tracks sync pass progress for the HTTP API and keeps the
// last outcome of each pass mode on disk across restarts.
package status

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

//go:generate mockgen -destination=mocks/mock_persistence.go -package=mocks -source=persistence.go Persistence

const (
	// StatusFileName is the name of the status file
	StatusFileName = "status.json"
)

// Persistence stores the last pass status of every mode
type Persistence interface {
	// Save replaces the stored statuses
	Save(ctx context.Context, statuses map[Mode]PassStatus) error

	// Load returns the stored statuses, or an empty map on first run
	Load(ctx context.Context) (map[Mode]PassStatus, error)
}

type filePersistence struct {
	path string
}

// NewFilePersistence stores statuses in <dir>/status.json
func NewFilePersistence(dir string) Persistence {
	return &filePersistence{path: filepath.Join(dir, StatusFileName)}
}

// Save writes the statuses to a temporary file and renames it into place
func (f *filePersistence) Save(_ context.Context, statuses map[Mode]PassStatus) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0750); err != nil {
		return fmt.Errorf("failed to create status directory: %w", err)
	}

	data, err := json.MarshalIndent(statuses, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal status: %w", err)
	}

	tempPath := f.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary status file: %w", err)
	}
	if err := os.Rename(tempPath, f.path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename status file: %w", err)
	}
	return nil
}

// Load reads the status file
func (f *filePersistence) Load(_ context.Context) (map[Mode]PassStatus, error) {
	// #nosec G304 -- path is built from the configured data directory
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[Mode]PassStatus{}, nil
		}
		return nil, fmt.Errorf("failed to read status file: %w", err)
	}

	statuses := map[Mode]PassStatus{}
	if err := json.Unmarshal(data, &statuses); err != nil {
		return nil, fmt.Errorf("failed to unmarshal status file: %w", err)
	}
	return statuses, nil
}
