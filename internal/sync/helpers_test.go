package sync

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stacklok/showsync/internal/catalog"
	"github.com/stacklok/showsync/internal/store"
	"github.com/stacklok/showsync/internal/store/inmemory"
)

// countingStore counts row writes so tests can assert idempotence
type countingStore struct {
	store.Store
	seriesWrites  atomic.Int32
	episodeWrites atomic.Int32
}

func newCountingStore() *countingStore {
	return &countingStore{Store: inmemory.New()}
}

func (c *countingStore) SaveSeries(ctx context.Context, series *catalog.Series) error {
	c.seriesWrites.Add(1)
	return c.Store.SaveSeries(ctx, series)
}

func (c *countingStore) SaveEpisode(ctx context.Context, episode *catalog.Episode) error {
	c.episodeWrites.Add(1)
	return c.Store.SaveEpisode(ctx, episode)
}

func (c *countingStore) resetCounts() {
	c.seriesWrites.Store(0)
	c.episodeWrites.Store(0)
}

func seedSeries(t *testing.T, st store.Store, ids ...int64) {
	t.Helper()
	for _, id := range ids {
		require.NoError(t, st.SaveSeries(context.Background(), &catalog.Series{ID: id, Name: seriesName(id)}))
	}
}

func seedEpisode(t *testing.T, st store.Store, ep catalog.Episode) {
	t.Helper()
	require.NoError(t, st.SaveEpisode(context.Background(), &ep))
}

func seriesName(id int64) string {
	return fmt.Sprintf("Series %d", id)
}

func snapshot(id int64, name string) *catalog.Series {
	return &catalog.Series{ID: id, Name: name, Status: "Continuing"}
}

func episode(seriesID int64, season, number int, name string) *catalog.Episode {
	return &catalog.Episode{
		EpisodeKey: catalog.EpisodeKey{SeriesID: seriesID, Season: season, Number: number},
		Name:       name,
	}
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

// recordingFinalizer captures Finalize calls
type recordingFinalizer struct {
	calls map[int64][]catalog.Episode
	err   error
}

func (f *recordingFinalizer) Finalize(_ context.Context, series catalog.Series, episodes []catalog.Episode) error {
	if f.calls == nil {
		f.calls = map[int64][]catalog.Episode{}
	}
	f.calls[series.ID] = append([]catalog.Episode(nil), episodes...)
	return f.err
}
