package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/showsync/internal/catalog"
	"github.com/stacklok/showsync/internal/otel"
	"github.com/stacklok/showsync/internal/sources"
	"github.com/stacklok/showsync/internal/status"
	"github.com/stacklok/showsync/internal/store"
	"github.com/stacklok/showsync/internal/sync/state"
	"github.com/stacklok/showsync/internal/telemetry"
)

// DefaultStalenessThreshold is how old the watermark may get before an
// unknown delta forces every series to refresh.
const DefaultStalenessThreshold = 24 * time.Hour

// Pass outcomes used for metrics
const (
	outcomeOK      = "ok"
	outcomeSkipped = "skipped"
	outcomeFailed  = "failed"
)

// Result summarizes a pass that was not aborted
type Result struct {
	RunID string

	// Skipped is true when the delta was unknown and the watermark still fresh
	Skipped bool
	// Forced is true when the staleness policy forced every series to refresh
	Forced bool

	WatermarkBefore int64
	// WatermarkAfter equals WatermarkBefore for skipped and single-series passes
	WatermarkAfter int64

	SeriesChecked   int
	SeriesUpdated   int
	SeriesFailed    int
	EpisodesUpdated int

	// Series holds per-series outcomes of the series that were processed
	Series []*SeriesResult
}

func (r *Result) add(res *SeriesResult) {
	r.Series = append(r.Series, res)
	if res.Updated {
		r.SeriesUpdated++
	}
	r.EpisodesUpdated += res.EpisodesUpdated + res.EpisodesDiscovered
}

// Manager runs sync passes
//
//go:generate mockgen -destination=mocks/mock_manager.go -package=mocks github.com/stacklok/showsync/internal/sync Manager
type Manager interface {
	// RunFullSync runs one pass over the whole catalog and advances the watermark.
	// Only the scheduler calls it, so passes never overlap.
	RunFullSync(ctx context.Context) (*Result, *Error)

	// RunSeriesSync runs a pass over one series. It never writes the watermark.
	RunSeriesSync(ctx context.Context, seriesID int64, force bool) (*Result, *Error)
}

type defaultManager struct {
	catalog    catalog.Catalog
	watermarks state.WatermarkStore
	delta      sources.DeltaClient
	updater    SeriesUpdater

	staleness time.Duration
	now       func() time.Time
	recorder  status.Recorder

	syncMetrics    *telemetry.SyncMetrics
	catalogMetrics *telemetry.CatalogMetrics
	tracer         trace.Tracer
}

// Option configures the manager
type Option func(*defaultManager)

// WithStalenessThreshold overrides DefaultStalenessThreshold
func WithStalenessThreshold(d time.Duration) Option {
	return func(m *defaultManager) {
		if d > 0 {
			m.staleness = d
		}
	}
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(m *defaultManager) {
		m.now = now
	}
}

// WithRecorder reports pass progress to recorder
func WithRecorder(recorder status.Recorder) Option {
	return func(m *defaultManager) {
		m.recorder = recorder
	}
}

// WithSyncMetrics sets the sync metrics
func WithSyncMetrics(metrics *telemetry.SyncMetrics) Option {
	return func(m *defaultManager) {
		m.syncMetrics = metrics
	}
}

// WithCatalogMetrics sets the catalog metrics
func WithCatalogMetrics(metrics *telemetry.CatalogMetrics) Option {
	return func(m *defaultManager) {
		m.catalogMetrics = metrics
	}
}

// WithTracer sets the tracer used for pass spans
func WithTracer(tracer trace.Tracer) Option {
	return func(m *defaultManager) {
		m.tracer = tracer
	}
}

// NewManager creates the default Manager
func NewManager(
	cat catalog.Catalog,
	watermarks state.WatermarkStore,
	delta sources.DeltaClient,
	updater SeriesUpdater,
	opts ...Option,
) Manager {
	m := &defaultManager{
		catalog:    cat,
		watermarks: watermarks,
		delta:      delta,
		updater:    updater,
		staleness:  DefaultStalenessThreshold,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// RunFullSync implements Manager
func (m *defaultManager) RunFullSync(ctx context.Context) (*Result, *Error) {
	runID := uuid.NewString()
	startedAt := m.now()

	ctx, span := otel.StartSpan(ctx, m.tracer, "sync.RunFullSync",
		trace.WithAttributes(otel.AttrRunID.String(runID)))
	defer span.End()

	m.record(ctx, status.ModeFull, func(s *status.PassStatus) {
		*s = status.PassStatus{
			Phase:       status.PhaseFetchingDelta,
			RunID:       runID,
			StartedAt:   &startedAt,
			LastSuccess: s.LastSuccess,
		}
	})

	slog.InfoContext(ctx, "Beginning sync of all series", "run_id", runID)
	result, syncErr := m.runFullSync(ctx, runID)
	m.finish(ctx, status.ModeFull, startedAt, result, syncErr)
	if syncErr != nil {
		otel.RecordError(span, syncErr)
		slog.ErrorContext(ctx, "Sync pass failed", "run_id", runID, "reason", syncErr.Reason, "error", syncErr.Message)
		return nil, syncErr
	}
	return result, nil
}

func (m *defaultManager) runFullSync(ctx context.Context, runID string) (*Result, *Error) {
	watermark, err := m.watermarks.Get(ctx)
	if err != nil {
		return nil, storageFailed("read watermark", err)
	}
	result := &Result{RunID: runID, WatermarkBefore: watermark, WatermarkAfter: watermark}
	m.record(ctx, status.ModeFull, func(s *status.PassStatus) { s.WatermarkBefore = watermark })

	cs, syncErr := m.queryChanges(ctx, watermark)
	if syncErr != nil {
		return nil, syncErr
	}

	switch {
	case cs.IsUnknown():
		age := m.now().Sub(time.Unix(watermark, 0))
		if age < m.staleness {
			slog.InfoContext(ctx, "No usable response from the provider, skipping pass",
				"run_id", runID, "last_sync_age", age.Round(time.Second))
			result.Skipped = true
			return result, nil
		}
		slog.WarnContext(ctx, "No usable response from the provider and the last sync is stale, forcing every series to update",
			"run_id", runID, "last_sync_age", age.Round(time.Second), "threshold", m.staleness)
		result.Forced = true
	case watermark == 0:
		slog.InfoContext(ctx, "No previous sync recorded, establishing the baseline watermark", "run_id", runID)
	default:
		slog.DebugContext(ctx, "Series changed since last sync",
			"run_id", runID,
			"since", watermark,
			"now", cs.NewWatermark,
			"series", cs.SeriesIDs(),
			"episodes", cs.EpisodeCount(),
		)
	}

	series, err := m.catalog.List(ctx)
	if err != nil {
		return nil, storageFailed("list catalog", err)
	}
	m.catalogMetrics.RecordSeriesTotal(ctx, int64(len(series)))
	m.record(ctx, status.ModeFull, func(s *status.PassStatus) {
		s.Phase = status.PhaseApplying
		s.Forced = result.Forced
	})

	for _, s := range series {
		result.SeriesChecked++
		if !result.Forced && !cs.SeriesChanged(s.ID) {
			slog.DebugContext(ctx, "Skipping series, provider reports no change", "series_id", s.ID, "name", s.Name)
			continue
		}

		res, err := m.updater.UpdateSeries(ctx, s, false, cs.ForSeries(s.ID))
		if err != nil {
			if !isFetchError(err) {
				return nil, &Error{
					Err:     err,
					Message: fmt.Sprintf("Pass aborted while updating series %d: %v", s.ID, err),
					Reason:  abortReason(err),
				}
			}
			result.SeriesFailed++
			slog.WarnContext(ctx, "Failed to update series, continuing", "series_id", s.ID, "error", err)
		} else {
			result.add(res)
		}
		m.record(ctx, status.ModeFull, func(st *status.PassStatus) { progress(st, result) })
	}

	m.record(ctx, status.ModeFull, func(s *status.PassStatus) { s.Phase = status.PhaseAdvancing })

	next := cs.NewWatermark
	if next == 0 {
		next = m.now().Unix()
	}
	if next < watermark {
		slog.WarnContext(ctx, "Provider time is behind the stored watermark, keeping the stored value",
			"run_id", runID, "provider_time", next, "watermark", watermark)
		next = watermark
	}
	if err := m.watermarks.Set(ctx, next); err != nil {
		return nil, storageFailed("write watermark", err)
	}
	result.WatermarkAfter = next
	m.syncMetrics.RecordWatermark(ctx, next)

	slog.InfoContext(ctx, "Sync pass complete",
		"run_id", runID,
		"watermark", next,
		"series_checked", result.SeriesChecked,
		"series_updated", result.SeriesUpdated,
		"series_failed", result.SeriesFailed,
		"episodes_updated", result.EpisodesUpdated,
	)
	return result, nil
}

// RunSeriesSync implements Manager
func (m *defaultManager) RunSeriesSync(ctx context.Context, seriesID int64, force bool) (*Result, *Error) {
	runID := uuid.NewString()
	startedAt := m.now()

	ctx, span := otel.StartSpan(ctx, m.tracer, "sync.RunSeriesSync",
		trace.WithAttributes(
			otel.AttrRunID.String(runID),
			otel.AttrSeriesID.Int64(seriesID),
			otel.AttrForce.Bool(force),
		))
	defer span.End()

	m.record(ctx, status.ModeSeries, func(s *status.PassStatus) {
		*s = status.PassStatus{
			Phase:       status.PhaseFetchingDelta,
			RunID:       runID,
			SeriesID:    seriesID,
			Forced:      force,
			StartedAt:   &startedAt,
			LastSuccess: s.LastSuccess,
		}
	})

	result, syncErr := m.runSeriesSync(ctx, runID, seriesID, force)
	m.finish(ctx, status.ModeSeries, startedAt, result, syncErr)
	if syncErr != nil {
		otel.RecordError(span, syncErr)
		slog.ErrorContext(ctx, "Series sync failed",
			"run_id", runID, "series_id", seriesID, "reason", syncErr.Reason, "error", syncErr.Message)
		return nil, syncErr
	}
	return result, nil
}

func (m *defaultManager) runSeriesSync(ctx context.Context, runID string, seriesID int64, force bool) (*Result, *Error) {
	series, err := m.catalog.Get(ctx, seriesID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &Error{
				Err:     err,
				Message: fmt.Sprintf("Series %d is not in the catalog", seriesID),
				Reason:  ReasonSeriesNotFound,
			}
		}
		return nil, storageFailed("get series", err)
	}

	watermark, err := m.watermarks.Get(ctx)
	if err != nil {
		return nil, storageFailed("read watermark", err)
	}
	result := &Result{RunID: runID, Forced: force, WatermarkBefore: watermark, WatermarkAfter: watermark, SeriesChecked: 1}

	cs, syncErr := m.queryChanges(ctx, watermark)
	if syncErr != nil {
		return nil, syncErr
	}
	m.record(ctx, status.ModeSeries, func(s *status.PassStatus) {
		s.Phase = status.PhaseApplying
		s.WatermarkBefore = watermark
	})

	// The updater always runs supplemental discovery, so it is called even
	// when the provider reports no change for this series.
	res, err := m.updater.UpdateSeries(ctx, *series, force, cs.ForSeries(seriesID))
	if err != nil {
		if !isFetchError(err) {
			return nil, &Error{
				Err:     err,
				Message: fmt.Sprintf("Failed to update series %d: %v", seriesID, err),
				Reason:  abortReason(err),
			}
		}
		result.SeriesFailed++
		slog.WarnContext(ctx, "Failed to update series", "run_id", runID, "series_id", seriesID, "error", err)
	} else {
		result.add(res)
	}
	return result, nil
}

// queryChanges wraps the delta query in the FetchingDelta phase
func (m *defaultManager) queryChanges(ctx context.Context, watermark int64) (*sources.ChangeSet, *Error) {
	cs, err := m.delta.QueryChanges(ctx, watermark)
	if err == nil {
		return cs, nil
	}

	var parseErr *sources.ParseError
	if errors.As(err, &parseErr) {
		return nil, &Error{
			Err:     err,
			Message: fmt.Sprintf("Provider returned a malformed delta: %v", err),
			Reason:  ReasonParseError,
		}
	}
	return nil, &Error{
		Err:     err,
		Message: fmt.Sprintf("Delta query failed: %v", err),
		Reason:  ReasonDeltaFailed,
	}
}

// finish records the terminal phase and pass metrics
func (m *defaultManager) finish(ctx context.Context, mode status.Mode, startedAt time.Time, result *Result, syncErr *Error) {
	finishedAt := m.now()

	outcome := outcomeOK
	switch {
	case syncErr != nil:
		outcome = outcomeFailed
	case result.Skipped:
		outcome = outcomeSkipped
	}
	metricMode := telemetry.PassModeFull
	if mode == status.ModeSeries {
		metricMode = telemetry.PassModeSeries
	}
	m.syncMetrics.RecordPassDuration(ctx, metricMode, finishedAt.Sub(startedAt), outcome)

	m.record(ctx, mode, func(s *status.PassStatus) {
		s.FinishedAt = &finishedAt
		switch {
		case syncErr != nil:
			s.Phase = status.PhaseFailed
			s.Message = syncErr.Message
		case result.Skipped:
			s.Phase = status.PhaseSkipped
			s.Message = "Provider did not answer and the last sync is recent"
			s.WatermarkAfter = result.WatermarkAfter
		default:
			s.Phase = status.PhaseIdle
			s.Message = "Sync completed successfully"
			s.LastSuccess = &finishedAt
			progress(s, result)
			s.WatermarkAfter = result.WatermarkAfter
		}
	})
}

func (m *defaultManager) record(ctx context.Context, mode status.Mode, fn func(*status.PassStatus)) {
	if m.recorder == nil {
		return
	}
	m.recorder.Update(ctx, mode, fn)
}

func progress(s *status.PassStatus, result *Result) {
	s.SeriesChecked = result.SeriesChecked
	s.SeriesUpdated = result.SeriesUpdated
	s.SeriesFailed = result.SeriesFailed
	s.EpisodesUpdated = result.EpisodesUpdated
}

func storageFailed(op string, err error) *Error {
	err = store.Wrap(op, err)
	return &Error{
		Err:     err,
		Message: fmt.Sprintf("Storage failed: %v", err),
		Reason:  ReasonStorageFailed,
	}
}
