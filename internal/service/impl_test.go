package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/stacklok/showsync/internal/catalog"
	"github.com/stacklok/showsync/internal/filtering"
	"github.com/stacklok/showsync/internal/service"
	"github.com/stacklok/showsync/internal/status"
	"github.com/stacklok/showsync/internal/store"
	"github.com/stacklok/showsync/internal/store/inmemory"
	pkgsync "github.com/stacklok/showsync/internal/sync"
	syncmocks "github.com/stacklok/showsync/internal/sync/mocks"
	"github.com/stacklok/showsync/internal/sync/state"
	statemocks "github.com/stacklok/showsync/internal/sync/state/mocks"
)

type fixture struct {
	svc        service.CatalogService
	store      store.Store
	manager    *syncmocks.MockManager
	watermarks *statemocks.MockWatermarkStore
	tracker    *status.Tracker
	locks      *catalog.LockRegistry
}

func newFixture(t *testing.T, seriesIDs ...int64) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	ctx := context.Background()

	st := inmemory.New()
	for _, id := range seriesIDs {
		require.NoError(t, st.SaveSeries(ctx, &catalog.Series{ID: id, Name: fmt.Sprintf("Series %d", id)}))
	}

	f := &fixture{
		store:      st,
		manager:    syncmocks.NewMockManager(ctrl),
		watermarks: statemocks.NewMockWatermarkStore(ctrl),
		tracker:    status.NewTracker(ctx, nil),
		locks:      catalog.NewLockRegistry(),
	}
	f.svc = service.New(catalog.New(st, f.locks), st, f.watermarks, f.manager, f.tracker)
	return f
}

func ids(series []catalog.Series) []int64 {
	out := make([]int64, 0, len(series))
	for _, s := range series {
		out = append(out, s.ID)
	}
	return out
}

func TestCheckReadiness(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.watermarks.EXPECT().Get(gomock.Any()).Return(int64(0), nil)
	require.NoError(t, f.svc.CheckReadiness(context.Background()))

	f.watermarks.EXPECT().Get(gomock.Any()).Return(int64(0), &store.Error{Op: "get watermark", Err: errors.New("disk")})
	err := f.svc.CheckReadiness(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage not reachable")
}

func TestListSeries_Pagination(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 5, 1, 20, 9, 3)
	ctx := context.Background()

	page, err := f.svc.ListSeries(ctx, service.ListSeriesOptions{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3}, ids(page.Series))
	require.NotEmpty(t, page.NextCursor)

	page, err = f.svc.ListSeries(ctx, service.ListSeriesOptions{Limit: 2, Cursor: page.NextCursor})
	require.NoError(t, err)
	assert.Equal(t, []int64{5, 9}, ids(page.Series))

	page, err = f.svc.ListSeries(ctx, service.ListSeriesOptions{Limit: 2, Cursor: page.NextCursor})
	require.NoError(t, err)
	assert.Equal(t, []int64{20}, ids(page.Series))
	assert.Empty(t, page.NextCursor)

	page, err = f.svc.ListSeries(ctx, service.ListSeriesOptions{})
	require.NoError(t, err)
	assert.Len(t, page.Series, 5)
	assert.Empty(t, page.NextCursor)

	_, err = f.svc.ListSeries(ctx, service.ListSeriesOptions{Cursor: "%%%"})
	require.ErrorIs(t, err, service.ErrInvalidCursor)
}

func TestListSeries_Filter(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 5, 1, 20, 9, 3, 10)
	ctx := context.Background()

	page, err := f.svc.ListSeries(ctx, service.ListSeriesOptions{
		Filter: &filtering.Criteria{NameInclude: []string{"series 1*"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 10}, ids(page.Series))

	criteria := &filtering.Criteria{NameExclude: []string{"*0"}}
	page, err = f.svc.ListSeries(ctx, service.ListSeriesOptions{Limit: 3, Filter: criteria})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3, 5}, ids(page.Series))

	page, err = f.svc.ListSeries(ctx, service.ListSeriesOptions{Limit: 3, Cursor: page.NextCursor, Filter: criteria})
	require.NoError(t, err)
	assert.Equal(t, []int64{9}, ids(page.Series))
	assert.Empty(t, page.NextCursor)

	_, err = f.svc.ListSeries(ctx, service.ListSeriesOptions{
		Filter: &filtering.Criteria{NameInclude: []string{"series["}},
	})
	require.ErrorIs(t, err, service.ErrInvalidFilter)
}

func TestGetSeries(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 7)
	ctx := context.Background()

	for _, key := range []catalog.EpisodeKey{{SeriesID: 7, Season: 2, Number: 1}, {SeriesID: 7, Season: 1, Number: 2}} {
		require.NoError(t, f.store.SaveEpisode(ctx, &catalog.Episode{
			EpisodeKey: key,
			Name:       key.String(),
			AirDate:    time.Date(2020, 1, key.Number, 0, 0, 0, 0, time.UTC),
		}))
	}

	detail, err := f.svc.GetSeries(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), detail.Series.ID)
	require.Len(t, detail.Episodes, 2)
	assert.Equal(t, 1, detail.Episodes[0].Season)
	assert.Equal(t, 2, detail.Episodes[1].Season)

	_, err = f.svc.GetSeries(ctx, 404)
	require.ErrorIs(t, err, service.ErrSeriesNotFound)
}

func TestGetSeries_WaitsForSeriesLock(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 7)
	ctx := context.Background()

	release, err := f.locks.Acquire(ctx, 7)
	require.NoError(t, err)

	// An update in progress has written the series but not its episodes yet
	require.NoError(t, f.store.SaveSeries(ctx, &catalog.Series{ID: 7, Name: "half-applied"}))

	type getResult struct {
		detail *service.SeriesDetail
		err    error
	}
	done := make(chan getResult, 1)
	go func() {
		detail, err := f.svc.GetSeries(ctx, 7)
		done <- getResult{detail: detail, err: err}
	}()

	select {
	case res := <-done:
		t.Fatalf("GetSeries returned while the series lock was held: %+v", res)
	case <-time.After(50 * time.Millisecond):
	}

	episode := catalog.Episode{EpisodeKey: catalog.EpisodeKey{SeriesID: 7, Season: 1, Number: 1}, Name: "Pilot"}
	require.NoError(t, f.store.SaveSeries(ctx, &catalog.Series{ID: 7, Name: "Complete"}))
	require.NoError(t, f.store.SaveEpisode(ctx, &episode))
	release()

	select {
	case res := <-done:
		require.NoError(t, res.err)
		assert.Equal(t, "Complete", res.detail.Series.Name)
		require.Len(t, res.detail.Episodes, 1)
		assert.Equal(t, "Pilot", res.detail.Episodes[0].Name)
	case <-time.After(5 * time.Second):
		t.Fatal("GetSeries did not return after the series lock was released")
	}
}

func TestGetSeries_CancelledWhileWaiting(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 7)
	release, err := f.locks.Acquire(context.Background(), 7)
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = f.svc.GetSeries(ctx, 7)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSyncStatus(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.tracker.Update(context.Background(), status.ModeFull, func(s *status.PassStatus) {
		s.Phase = status.PhaseIdle
		s.RunID = "run-1"
	})

	all := f.svc.SyncStatus()
	require.Contains(t, all, status.ModeFull)
	assert.Equal(t, "run-1", all[status.ModeFull].RunID)
}

func TestSyncSeries_DetachedFromCaller(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 7)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f.manager.EXPECT().RunSeriesSync(gomock.Any(), int64(7), true).DoAndReturn(
		func(ctx context.Context, _ int64, _ bool) (*pkgsync.Result, *pkgsync.Error) {
			assert.NoError(t, ctx.Err())
			return &pkgsync.Result{RunID: "run", SeriesUpdated: 1}, nil
		})

	result, syncErr := f.svc.SyncSeries(ctx, 7, true)
	require.Nil(t, syncErr)
	assert.Equal(t, 1, result.SeriesUpdated)
}

var _ state.WatermarkStore = (*statemocks.MockWatermarkStore)(nil)
