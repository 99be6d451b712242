package state

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/stacklok/showsync/internal/config"
	"github.com/stacklok/showsync/internal/store"
	"github.com/stacklok/showsync/internal/store/inmemory"
	storemocks "github.com/stacklok/showsync/internal/store/mocks"
)

func TestWatermarkStores_ReadAfterWrite(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		build func(t *testing.T) WatermarkStore
	}{
		{
			name: "store",
			build: func(*testing.T) WatermarkStore {
				return NewStoreWatermark(inmemory.New())
			},
		},
		{
			name: "file",
			build: func(t *testing.T) WatermarkStore {
				return NewFileWatermark(filepath.Join(t.TempDir(), "nested", WatermarkFileName))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			wm := tt.build(t)

			got, err := wm.Get(ctx)
			require.NoError(t, err)
			assert.Zero(t, got, "unset watermark reads as zero")

			require.NoError(t, wm.Set(ctx, 1_600_000_000))
			got, err = wm.Get(ctx)
			require.NoError(t, err)
			assert.Equal(t, int64(1_600_000_000), got)

			require.NoError(t, wm.Set(ctx, 1_600_000_100))
			got, err = wm.Get(ctx)
			require.NoError(t, err)
			assert.Equal(t, int64(1_600_000_100), got)
		})
	}
}

func TestFileWatermark_SurvivesReopen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), WatermarkFileName)

	require.NoError(t, NewFileWatermark(path).Set(ctx, 42))

	got, err := NewFileWatermark(path).Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temporary file is renamed away")
}

func TestFileWatermark_Corrupt(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), WatermarkFileName)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	_, err := NewFileWatermark(path).Get(context.Background())
	require.Error(t, err)
	assert.True(t, store.IsStorageError(err))
}

func TestStoreWatermark_WrapsErrors(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	st := storemocks.NewMockStore(ctrl)
	st.EXPECT().GetWatermark(gomock.Any()).Return(int64(0), assert.AnError)
	st.EXPECT().SetWatermark(gomock.Any(), int64(5)).Return(assert.AnError)

	wm := NewStoreWatermark(st)

	_, err := wm.Get(context.Background())
	require.ErrorIs(t, err, assert.AnError)
	assert.True(t, store.IsStorageError(err))

	err = wm.Set(context.Background(), 5)
	require.ErrorIs(t, err, assert.AnError)
	assert.True(t, store.IsStorageError(err))
}

func TestNewWatermarkStore(t *testing.T) {
	t.Parallel()

	dataDir := t.TempDir()
	tests := []struct {
		name     string
		cfg      *config.Config
		st       store.WatermarkStore
		wantFile bool
		wantErr  bool
	}{
		{name: "nil config", cfg: nil, wantErr: true},
		{name: "sqlite default", cfg: &config.Config{}, st: inmemory.New()},
		{name: "sqlite without store", cfg: &config.Config{}, wantErr: true},
		{
			name:     "memory uses file",
			cfg:      &config.Config{Storage: &config.StorageConfig{Type: config.StorageTypeMemory, DataDir: dataDir}},
			wantFile: true,
		},
		{
			name:    "unknown type",
			cfg:     &config.Config{Storage: &config.StorageConfig{Type: "tape"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			wm, err := NewWatermarkStore(tt.cfg, tt.st)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.wantFile {
				fw, ok := wm.(*fileWatermark)
				require.True(t, ok)
				assert.Equal(t, filepath.Join(dataDir, WatermarkFileName), fw.path)
				return
			}
			assert.IsType(t, &storeWatermark{}, wm)
		})
	}
}
