// Package state persists the sync watermark: the provider timestamp of the
// last successful full pass. Zero means the catalog was never synchronized.
package state

import (
	"context"
)

// WatermarkStore reads and writes the sync watermark.
// A Set followed by a Get in the same process observes the written value.
//
//go:generate mockgen -destination=mocks/mock_watermark_store.go -package=mocks github.com/stacklok/showsync/internal/sync/state WatermarkStore
type WatermarkStore interface {
	// Get returns the stored watermark, or 0 when none has been written.
	Get(ctx context.Context) (int64, error)
	// Set durably replaces the stored watermark.
	Set(ctx context.Context, value int64) error
}
