package state

import (
	"context"
	"log/slog"

	"github.com/stacklok/showsync/internal/store"
)

// storeWatermark keeps the watermark in the catalog store's sync_info row
type storeWatermark struct {
	store store.WatermarkStore
}

// NewStoreWatermark creates a WatermarkStore backed by the catalog store
func NewStoreWatermark(st store.WatermarkStore) WatermarkStore {
	return &storeWatermark{store: st}
}

func (s *storeWatermark) Get(ctx context.Context) (int64, error) {
	value, err := s.store.GetWatermark(ctx)
	if err != nil {
		return 0, store.Wrap("get watermark", err)
	}
	return value, nil
}

func (s *storeWatermark) Set(ctx context.Context, value int64) error {
	if err := s.store.SetWatermark(ctx, value); err != nil {
		return store.Wrap("set watermark", err)
	}
	slog.DebugContext(ctx, "Watermark stored", "watermark", value)
	return nil
}
