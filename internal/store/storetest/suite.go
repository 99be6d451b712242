// Package storetest provides a behavioural test suite shared by every store.Store implementation.
package storetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/showsync/internal/catalog"
	"github.com/stacklok/showsync/internal/store"
)

// Factory returns a fresh, empty store for a single subtest
type Factory func(t *testing.T) store.Store

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Run executes the conformance suite against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	t.Run("series round trip", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		_, err := s.GetSeries(ctx, 1)
		require.ErrorIs(t, err, store.ErrNotFound)

		series := &catalog.Series{
			ID:         1,
			Name:       "Show",
			Overview:   "About things",
			Network:    "NET",
			Status:     "Continuing",
			FirstAired: day(2010, time.April, 1),
			Runtime:    45,
			Genres:     []string{"Drama", "Crime"},
		}
		require.NoError(t, s.SaveSeries(ctx, series))
		assert.False(t, series.UpdatedAt.IsZero())

		got, err := s.GetSeries(ctx, 1)
		require.NoError(t, err)
		assert.Empty(t, catalog.DiffSeries(got, series))

		series.Status = "Ended"
		require.NoError(t, s.SaveSeries(ctx, series))
		got, err = s.GetSeries(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "Ended", got.Status)

		require.NoError(t, s.SaveSeries(ctx, &catalog.Series{ID: 3, Name: "Other"}))
		all, err := s.ListSeries(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, int64(1), all[0].ID)
		assert.Equal(t, int64(3), all[1].ID)
		assert.True(t, all[1].FirstAired.IsZero())
	})

	t.Run("episode get or create never duplicates", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.SaveSeries(ctx, &catalog.Series{ID: 10, Name: "Show"}))

		key := catalog.EpisodeKey{SeriesID: 10, Season: 1, Number: 1}
		_, err := s.GetEpisode(ctx, key)
		require.ErrorIs(t, err, store.ErrNotFound)

		var wg sync.WaitGroup
		for i := range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ep := &catalog.Episode{EpisodeKey: key, RemoteID: 500, Name: "Pilot", AirDate: day(2010, time.April, i+1)}
				assert.NoError(t, s.SaveEpisode(ctx, ep))
			}()
		}
		wg.Wait()

		episodes, err := s.ListEpisodes(ctx, 10)
		require.NoError(t, err)
		require.Len(t, episodes, 1)
		assert.Equal(t, key, episodes[0].EpisodeKey)

		// A snapshot without a remote id keeps the stored one.
		require.NoError(t, s.SaveEpisode(ctx, &catalog.Episode{EpisodeKey: key, Name: "Renamed"}))
		got, err := s.GetEpisode(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, int64(500), got.RemoteID)
		assert.Equal(t, "Renamed", got.Name)
		assert.True(t, got.AirDate.IsZero())
	})

	t.Run("episodes listed in key order", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.SaveSeries(ctx, &catalog.Series{ID: 20}))
		require.NoError(t, s.SaveSeries(ctx, &catalog.Series{ID: 21}))

		for _, k := range []catalog.EpisodeKey{
			{SeriesID: 20, Season: 2, Number: 1},
			{SeriesID: 20, Season: 1, Number: 2},
			{SeriesID: 21, Season: 1, Number: 1},
			{SeriesID: 20, Season: 1, Number: 1},
		} {
			require.NoError(t, s.SaveEpisode(ctx, &catalog.Episode{EpisodeKey: k}))
		}

		episodes, err := s.ListEpisodes(ctx, 20)
		require.NoError(t, err)
		require.Len(t, episodes, 3)
		assert.Equal(t, "20/S01E01", episodes[0].String())
		assert.Equal(t, "20/S01E02", episodes[1].String())
		assert.Equal(t, "20/S02E01", episodes[2].String())
	})

	t.Run("newest episode", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.SaveSeries(ctx, &catalog.Series{ID: 30}))

		newest, err := s.NewestEpisode(ctx, 30)
		require.NoError(t, err)
		assert.Nil(t, newest)

		episodes := []catalog.Episode{
			{EpisodeKey: catalog.EpisodeKey{SeriesID: 30, Season: 1, Number: 1}, AirDate: day(2020, time.January, 1)},
			{EpisodeKey: catalog.EpisodeKey{SeriesID: 30, Season: 1, Number: 2}, AirDate: day(2020, time.January, 8)},
			// unknown air date never wins
			{EpisodeKey: catalog.EpisodeKey{SeriesID: 30, Season: 1, Number: 3}},
		}
		for i := range episodes {
			require.NoError(t, s.SaveEpisode(ctx, &episodes[i]))
		}

		newest, err = s.NewestEpisode(ctx, 30)
		require.NoError(t, err)
		require.NotNil(t, newest)
		assert.Equal(t, 2, newest.Number)
		assert.Equal(t, day(2020, time.January, 8), newest.AirDate.UTC())
	})

	t.Run("watermark", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		w, err := s.GetWatermark(ctx)
		require.NoError(t, err)
		assert.Zero(t, w)

		require.NoError(t, s.SetWatermark(ctx, 1_700_000_000))
		w, err = s.GetWatermark(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1_700_000_000), w)

		require.NoError(t, s.SetWatermark(ctx, 1_700_000_500))
		w, err = s.GetWatermark(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1_700_000_500), w)
	})
}
