package sync

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/showsync/internal/catalog"
	"github.com/stacklok/showsync/internal/otel"
	"github.com/stacklok/showsync/internal/sources"
	"github.com/stacklok/showsync/internal/store"
	"github.com/stacklok/showsync/internal/telemetry"
)

// TracerName is the name used for sync engine spans
const TracerName = "github.com/stacklok/showsync/sync"

// EntityStore is the part of the store the updater writes through
type EntityStore interface {
	store.SeriesStore
	store.EpisodeStore
}

// Finalizer runs after a series update that refreshed the series,
// with the episodes written during that update.
type Finalizer interface {
	Finalize(ctx context.Context, series catalog.Series, episodes []catalog.Episode) error
}

// NopFinalizer does nothing
type NopFinalizer struct{}

// Finalize implements Finalizer
func (NopFinalizer) Finalize(context.Context, catalog.Series, []catalog.Episode) error {
	return nil
}

// SeriesResult describes one applied series update
type SeriesResult struct {
	SeriesID int64

	// Updated is true when the series snapshot was refreshed from the provider
	Updated bool
	// SeriesWritten is true when the refreshed snapshot differed from the stored row
	SeriesWritten bool

	EpisodesUpdated int
	EpisodesFailed  int
	// EpisodesDiscovered counts episodes created by supplemental discovery
	EpisodesDiscovered int
}

// SeriesUpdater applies one series update
type SeriesUpdater interface {
	UpdateSeries(ctx context.Context, series catalog.Series, force bool, cs *sources.ChangeSet) (*SeriesResult, error)
}

// Updater is the default SeriesUpdater
type Updater struct {
	store        EntityStore
	fetcher      sources.SeriesFetcher
	supplemental sources.SupplementalSource
	locks        *catalog.LockRegistry
	finalizer    Finalizer

	metrics *telemetry.SyncMetrics
	tracer  trace.Tracer
}

var _ SeriesUpdater = (*Updater)(nil)

// UpdaterOption configures an Updater
type UpdaterOption func(*Updater)

// WithSupplementalSource enables supplemental episode discovery
func WithSupplementalSource(source sources.SupplementalSource) UpdaterOption {
	return func(u *Updater) {
		u.supplemental = source
	}
}

// WithFinalizer sets the hook run after refreshed series
func WithFinalizer(finalizer Finalizer) UpdaterOption {
	return func(u *Updater) {
		u.finalizer = finalizer
	}
}

// WithUpdaterMetrics sets the sync metrics
func WithUpdaterMetrics(metrics *telemetry.SyncMetrics) UpdaterOption {
	return func(u *Updater) {
		u.metrics = metrics
	}
}

// WithUpdaterTracer sets the tracer
func WithUpdaterTracer(tracer trace.Tracer) UpdaterOption {
	return func(u *Updater) {
		u.tracer = tracer
	}
}

// NewUpdater creates an Updater. Locks must be the registry shared with every
// other writer of the catalog.
func NewUpdater(
	st EntityStore,
	fetcher sources.SeriesFetcher,
	locks *catalog.LockRegistry,
	opts ...UpdaterOption,
) *Updater {
	u := &Updater{
		store:     st,
		fetcher:   fetcher,
		locks:     locks,
		finalizer: NopFinalizer{},
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// workingSet holds the episodes written during one series update.
// It lives for exactly one UpdateSeries call.
type workingSet struct {
	episodes []catalog.Episode
}

func (w *workingSet) add(ep catalog.Episode) {
	w.episodes = append(w.episodes, ep)
}

func (w *workingSet) release() {
	clear(w.episodes)
	w.episodes = nil
}

// UpdateSeries implements SeriesUpdater.
//
// It returns a *sources.FetchError when the series snapshot or, in force mode,
// the episode list could not be fetched, and a *store.Error when persistence
// failed. Single episode fetch failures are counted in the result instead.
func (u *Updater) UpdateSeries(
	ctx context.Context, series catalog.Series, force bool, cs *sources.ChangeSet,
) (_ *SeriesResult, err error) {
	ctx, span := otel.StartSpan(ctx, u.tracer, "sync.UpdateSeries",
		trace.WithAttributes(
			otel.AttrSeriesID.Int64(series.ID),
			otel.AttrForce.Bool(force),
		),
	)
	defer func() { otel.End(span, err) }()

	result := &SeriesResult{
		SeriesID: series.ID,
		Updated:  force || cs.IsUnknown() || cs.SeriesChanged(series.ID),
	}
	ws := &workingSet{}
	defer ws.release()

	if result.Updated {
		slog.InfoContext(ctx, "Updating series", "series_id", series.ID, "name", series.Name, "force", force)
		refreshed, err := u.refreshSeries(ctx, series.ID, result)
		if err != nil {
			return result, err
		}
		series = *refreshed
	}

	// Changed episodes are only applied together with their series
	switch {
	case force:
		if err := u.resyncEpisodes(ctx, series.ID, ws, result); err != nil {
			return result, err
		}
	case result.Updated:
		keys := cs.EpisodesFor(series.ID)
		if len(keys) > 0 {
			slog.DebugContext(ctx, "Changed episodes for series", "series_id", series.ID, "episodes", keys)
		}
		for _, key := range keys {
			if err := u.refreshEpisode(ctx, key, ws, result); err != nil {
				if !isFetchError(err) {
					return result, err
				}
				result.EpisodesFailed++
				u.metrics.RecordFetchFailure(ctx, telemetry.FetchKindEpisode)
				slog.WarnContext(ctx, "Failed to update episode, continuing", "episode", key.String(), "error", err)
			}
		}
	}

	discovered, err := u.DiscoverEpisodes(ctx, series)
	switch {
	case err == nil:
		for _, ep := range discovered {
			ws.add(ep)
		}
		result.EpisodesDiscovered = len(discovered)
	case store.IsStorageError(err):
		return result, err
	default:
		u.metrics.RecordFetchFailure(ctx, telemetry.FetchKindSupplemental)
		slog.WarnContext(ctx, "Supplemental episode lookup failed", "series_id", series.ID, "error", err)
	}

	u.metrics.RecordEpisodesUpdated(ctx, int64(result.EpisodesUpdated+result.EpisodesDiscovered))
	if result.Updated {
		u.metrics.RecordSeriesUpdated(ctx, force)
		if err := u.finalizer.Finalize(ctx, series, ws.episodes); err != nil {
			slog.WarnContext(ctx, "Series finalizer failed", "series_id", series.ID, "error", err)
		}
		slog.InfoContext(ctx, "Series update complete",
			"series_id", series.ID,
			"series_written", result.SeriesWritten,
			"episodes_updated", result.EpisodesUpdated,
			"episodes_failed", result.EpisodesFailed,
			"episodes_discovered", result.EpisodesDiscovered,
		)
	}
	return result, nil
}

// DiscoverEpisodes asks the supplemental source for episodes airing after the
// newest stored episode and creates the ones the catalog does not have.
// Existing episodes are left as the provider wrote them.
//
// It returns nothing when no supplemental source is configured or the series
// has no episode with a known air date.
func (u *Updater) DiscoverEpisodes(ctx context.Context, series catalog.Series) ([]catalog.Episode, error) {
	if u.supplemental == nil {
		return nil, nil
	}

	newest, err := u.store.NewestEpisode(ctx, series.ID)
	if err != nil {
		return nil, store.Wrap("newest episode", err)
	}
	if newest == nil {
		slog.DebugContext(ctx, "No dated episode stored, skipping supplemental lookup", "series_id", series.ID)
		return nil, nil
	}
	slog.DebugContext(ctx, "Newest stored episode", "series_id", series.ID, "episode", newest.EpisodeKey.String())

	found, err := u.supplemental.EpisodesAiringAfter(ctx, series, newest.AirDate)
	if err != nil {
		return nil, err
	}

	var created []catalog.Episode
	for _, ep := range found {
		ep.SeriesID = series.ID
		err := u.locks.WithLock(ctx, series.ID, func(ctx context.Context) error {
			_, err := u.store.GetEpisode(ctx, ep.EpisodeKey)
			switch {
			case err == nil:
				return nil
			case !errors.Is(err, store.ErrNotFound):
				return store.Wrap("get episode", err)
			}
			if err := u.store.SaveEpisode(ctx, &ep); err != nil {
				return store.Wrap("save episode", err)
			}
			created = append(created, ep)
			return nil
		})
		if err != nil {
			return created, err
		}
		slog.InfoContext(ctx, "Added episode from supplemental source", "episode", ep.EpisodeKey.String())
	}
	return created, nil
}

// refreshSeries fetches the series snapshot and writes it when it differs
// from the stored row. It returns the snapshot.
func (u *Updater) refreshSeries(ctx context.Context, seriesID int64, result *SeriesResult) (*catalog.Series, error) {
	var snapshot *catalog.Series
	err := u.locks.WithLock(ctx, seriesID, func(ctx context.Context) error {
		var err error
		snapshot, err = u.fetcher.FetchSeries(ctx, seriesID)
		if err != nil {
			return err
		}
		snapshot.ID = seriesID

		stored, err := u.store.GetSeries(ctx, seriesID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return store.Wrap("get series", err)
		}

		changed := catalog.DiffSeries(stored, snapshot)
		if len(changed) == 0 {
			slog.DebugContext(ctx, "Series snapshot unchanged", "series_id", seriesID)
			return nil
		}
		slog.DebugContext(ctx, "Series snapshot changed", "series_id", seriesID, "fields", changed)
		if err := u.store.SaveSeries(ctx, snapshot); err != nil {
			return store.Wrap("save series", err)
		}
		result.SeriesWritten = true
		return nil
	})
	if err != nil {
		if isFetchError(err) {
			u.metrics.RecordFetchFailure(ctx, telemetry.FetchKindSeries)
		}
		return nil, err
	}
	return snapshot, nil
}

// refreshEpisode fetches one episode and writes it when it differs from the stored row
func (u *Updater) refreshEpisode(
	ctx context.Context, key catalog.EpisodeKey, ws *workingSet, result *SeriesResult,
) error {
	return u.locks.WithLock(ctx, key.SeriesID, func(ctx context.Context) error {
		snapshot, err := u.fetcher.FetchEpisode(ctx, key)
		if err != nil {
			return err
		}
		snapshot.EpisodeKey = key
		return u.saveEpisode(ctx, snapshot, ws, result)
	})
}

// resyncEpisodes fetches the whole episode list and writes every changed episode
func (u *Updater) resyncEpisodes(ctx context.Context, seriesID int64, ws *workingSet, result *SeriesResult) error {
	slog.InfoContext(ctx, "Forcing update of every episode", "series_id", seriesID)

	err := u.locks.WithLock(ctx, seriesID, func(ctx context.Context) error {
		episodes, err := u.fetcher.FetchEpisodes(ctx, seriesID)
		if err != nil {
			return err
		}
		for i := range episodes {
			episodes[i].SeriesID = seriesID
			if err := u.saveEpisode(ctx, &episodes[i], ws, result); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil && isFetchError(err) {
		u.metrics.RecordFetchFailure(ctx, telemetry.FetchKindEpisodeList)
	}
	return err
}

// saveEpisode is get-or-create keyed on (series, season, number). The caller holds the series lock.
func (u *Updater) saveEpisode(
	ctx context.Context, snapshot *catalog.Episode, ws *workingSet, result *SeriesResult,
) error {
	stored, err := u.store.GetEpisode(ctx, snapshot.EpisodeKey)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return store.Wrap("get episode", err)
	}

	changed := catalog.DiffEpisode(stored, snapshot)
	if len(changed) == 0 {
		return nil
	}
	slog.DebugContext(ctx, "Updating episode", "episode", snapshot.EpisodeKey.String(), "fields", changed)
	if err := u.store.SaveEpisode(ctx, snapshot); err != nil {
		return store.Wrap("save episode", err)
	}
	ws.add(*snapshot)
	result.EpisodesUpdated++
	return nil
}
