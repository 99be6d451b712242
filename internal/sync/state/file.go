package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/stacklok/showsync/internal/store"
)

const (
	// WatermarkFileName is the name of the watermark file inside the data directory
	WatermarkFileName = "watermark.json"
)

type watermarkFile struct {
	Watermark int64     `json:"watermark"`
	WrittenAt time.Time `json:"writtenAt"`
}

// fileWatermark keeps the watermark in a JSON file, replaced atomically on every write
type fileWatermark struct {
	mu   sync.Mutex
	path string
}

// NewFileWatermark creates a WatermarkStore persisted at path
func NewFileWatermark(path string) WatermarkStore {
	return &fileWatermark{path: path}
}

func (f *fileWatermark) Get(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	// #nosec G304 -- path comes from configuration
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, store.Wrap("read watermark file", err)
	}

	var wf watermarkFile
	if err := json.Unmarshal(data, &wf); err != nil {
		return 0, store.Wrap("decode watermark file", err)
	}
	return wf.Watermark, nil
}

func (f *fileWatermark) Set(_ context.Context, value int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(f.path), 0750); err != nil {
		return store.Wrap("create watermark directory", err)
	}

	data, err := json.MarshalIndent(watermarkFile{Watermark: value, WrittenAt: time.Now().UTC()}, "", "  ")
	if err != nil {
		return store.Wrap("encode watermark file", err)
	}

	// Write to a temporary file first so readers never see a partial file
	tempPath := f.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return store.Wrap("write watermark file", err)
	}
	if err := os.Rename(tempPath, f.path); err != nil {
		_ = os.Remove(tempPath)
		return store.Wrap("write watermark file", fmt.Errorf("rename: %w", err))
	}
	return nil
}
