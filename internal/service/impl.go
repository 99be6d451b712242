package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/stacklok/showsync/internal/catalog"
	"github.com/stacklok/showsync/internal/filtering"
	"github.com/stacklok/showsync/internal/status"
	"github.com/stacklok/showsync/internal/store"
	pkgsync "github.com/stacklok/showsync/internal/sync"
	"github.com/stacklok/showsync/internal/sync/state"
)

type catalogService struct {
	catalog    catalog.Catalog
	episodes   store.EpisodeStore
	watermarks state.WatermarkStore
	manager    pkgsync.Manager
	status     status.Reader
	filter     filtering.FilterService
}

var _ CatalogService = (*catalogService)(nil)

// New creates the CatalogService
func New(
	cat catalog.Catalog,
	episodes store.EpisodeStore,
	watermarks state.WatermarkStore,
	manager pkgsync.Manager,
	statusReader status.Reader,
) CatalogService {
	return &catalogService{
		catalog:    cat,
		episodes:   episodes,
		watermarks: watermarks,
		manager:    manager,
		status:     statusReader,
		filter:     filtering.NewDefaultFilterService(),
	}
}

func (s *catalogService) CheckReadiness(ctx context.Context) error {
	if _, err := s.watermarks.Get(ctx); err != nil {
		return fmt.Errorf("storage not reachable: %w", err)
	}
	return nil
}

func (s *catalogService) ListSeries(ctx context.Context, opts ListSeriesOptions) (*SeriesPage, error) {
	afterID, err := DecodeCursor(opts.Cursor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}
	limit = min(limit, MaxPageSize)

	all, err := s.catalog.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list series: %w", err)
	}
	all, err = s.filter.Apply(ctx, all, opts.Filter)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
	}

	start := sort.Search(len(all), func(i int) bool { return all[i].ID > afterID })
	end := min(start+limit, len(all))

	page := &SeriesPage{Series: all[start:end]}
	if end < len(all) {
		page.NextCursor = EncodeCursor(all[end-1].ID)
	}
	return page, nil
}

// GetSeries reads the series and its episodes under the series lock, so an
// update in progress is never observed half applied.
func (s *catalogService) GetSeries(ctx context.Context, seriesID int64) (*SeriesDetail, error) {
	var detail *SeriesDetail
	err := s.catalog.Locks().WithLock(ctx, seriesID, func(ctx context.Context) error {
		series, err := s.catalog.Get(ctx, seriesID)
		if errors.Is(err, store.ErrNotFound) {
			return ErrSeriesNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get series %d: %w", seriesID, err)
		}

		episodes, err := s.episodes.ListEpisodes(ctx, seriesID)
		if err != nil {
			return fmt.Errorf("failed to list episodes of series %d: %w", seriesID, err)
		}
		catalog.SortEpisodes(episodes)

		detail = &SeriesDetail{Series: *series, Episodes: episodes}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

func (s *catalogService) SyncStatus() map[status.Mode]status.PassStatus {
	return s.status.All()
}

func (s *catalogService) SyncSeries(ctx context.Context, seriesID int64, force bool) (*pkgsync.Result, *pkgsync.Error) {
	// A disconnecting client must not cut an update short
	ctx = context.WithoutCancel(ctx)

	slog.InfoContext(ctx, "Manual series sync requested", "series_id", seriesID, "force", force)
	return s.manager.RunSeriesSync(ctx, seriesID, force)
}
