// Package inmemory provides a map-backed implementation of store.Store
package inmemory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/stacklok/showsync/internal/catalog"
	"github.com/stacklok/showsync/internal/store"
)

type memStore struct {
	mu        sync.RWMutex // Protects series, episodes, watermark
	series    map[int64]catalog.Series
	episodes  map[catalog.EpisodeKey]catalog.Episode
	watermark int64
	now       func() time.Time
}

var _ store.Store = (*memStore)(nil)

// Option is a functional option for the in-memory store
type Option func(*memStore)

// WithClock overrides the clock used for UpdatedAt stamps
func WithClock(now func() time.Time) Option {
	return func(s *memStore) {
		s.now = now
	}
}

// New creates an empty in-memory store
func New(opts ...Option) store.Store {
	s := &memStore{
		series:   make(map[int64]catalog.Series),
		episodes: make(map[catalog.EpisodeKey]catalog.Episode),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *memStore) ListSeries(_ context.Context) ([]catalog.Series, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]catalog.Series, 0, len(s.series))
	for _, series := range s.series {
		result = append(result, cloneSeries(series))
	}
	slices.SortFunc(result, func(a, b catalog.Series) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return result, nil
}

func (s *memStore) GetSeries(_ context.Context, seriesID int64) (*catalog.Series, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	series, ok := s.series[seriesID]
	if !ok {
		return nil, fmt.Errorf("series %d: %w", seriesID, store.ErrNotFound)
	}
	series = cloneSeries(series)
	return &series, nil
}

func (s *memStore) SaveSeries(_ context.Context, series *catalog.Series) error {
	if series == nil || series.ID == 0 {
		return store.Wrap("save series", fmt.Errorf("series id is required"))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := cloneSeries(*series)
	stored.UpdatedAt = s.now()
	s.series[series.ID] = stored
	series.UpdatedAt = stored.UpdatedAt
	return nil
}

func (s *memStore) GetEpisode(_ context.Context, key catalog.EpisodeKey) (*catalog.Episode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ep, ok := s.episodes[key]
	if !ok {
		return nil, fmt.Errorf("episode %s: %w", key, store.ErrNotFound)
	}
	return &ep, nil
}

func (s *memStore) ListEpisodes(_ context.Context, seriesID int64) ([]catalog.Episode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []catalog.Episode
	for key, ep := range s.episodes {
		if key.SeriesID == seriesID {
			result = append(result, ep)
		}
	}
	catalog.SortEpisodes(result)
	return result, nil
}

func (s *memStore) SaveEpisode(_ context.Context, episode *catalog.Episode) error {
	if episode == nil || episode.SeriesID == 0 {
		return store.Wrap("save episode", fmt.Errorf("episode series id is required"))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *episode
	if existing, ok := s.episodes[episode.EpisodeKey]; ok && stored.RemoteID == 0 {
		stored.RemoteID = existing.RemoteID
	}
	stored.UpdatedAt = s.now()
	s.episodes[episode.EpisodeKey] = stored
	episode.UpdatedAt = stored.UpdatedAt
	return nil
}

func (s *memStore) NewestEpisode(_ context.Context, seriesID int64) (*catalog.Episode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var newest *catalog.Episode
	for key, ep := range s.episodes {
		if key.SeriesID != seriesID || ep.AirDate.IsZero() || key.Season < 0 || key.Number < 0 {
			continue
		}
		if newest == nil || ep.AirDate.After(newest.AirDate) ||
			(ep.AirDate.Equal(newest.AirDate) && key.Compare(newest.EpisodeKey) > 0) {
			candidate := ep
			newest = &candidate
		}
	}
	return newest, nil
}

func (s *memStore) GetWatermark(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.watermark, nil
}

func (s *memStore) SetWatermark(_ context.Context, value int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watermark = value
	return nil
}

func (*memStore) Close() error {
	return nil
}

func cloneSeries(series catalog.Series) catalog.Series {
	series.Genres = slices.Clone(series.Genres)
	return series
}
