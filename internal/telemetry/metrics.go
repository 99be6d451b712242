// Package telemetry provides OpenTelemetry instrumentation for the sync service.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// CatalogMetricsMeterName is the name used for the catalog metrics meter
	CatalogMetricsMeterName = "github.com/stacklok/showsync/catalog"

	// SyncMetricsMeterName is the name used for the sync metrics meter
	SyncMetricsMeterName = "github.com/stacklok/showsync/sync"
)

// Pass modes used as the "mode" attribute
const (
	PassModeFull   = "full"
	PassModeSeries = "series"
)

// Fetch failure kinds used as the "kind" attribute
const (
	FetchKindSeries       = "series"
	FetchKindEpisode      = "episode"
	FetchKindEpisodeList  = "episode_list"
	FetchKindSupplemental = "supplemental"
)

// CatalogMetrics holds the OpenTelemetry instruments for catalog metrics
type CatalogMetrics struct {
	seriesTotal metric.Int64Gauge
}

// NewCatalogMetrics creates a new CatalogMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewCatalogMetrics(provider metric.MeterProvider) (*CatalogMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(CatalogMetricsMeterName)

	seriesTotal, err := meter.Int64Gauge(
		"showsync_catalog_series_total",
		metric.WithDescription("Number of series tracked in the local catalog"),
		metric.WithUnit("{series}"),
	)
	if err != nil {
		return nil, err
	}

	return &CatalogMetrics{
		seriesTotal: seriesTotal,
	}, nil
}

// RecordSeriesTotal records the number of series seen by the last full pass
func (m *CatalogMetrics) RecordSeriesTotal(ctx context.Context, count int64) {
	if m == nil || m.seriesTotal == nil {
		return
	}
	m.seriesTotal.Record(ctx, count)
}

// SyncMetrics holds the OpenTelemetry instruments for sync pass metrics
type SyncMetrics struct {
	passDuration    metric.Float64Histogram
	seriesUpdated   metric.Int64Counter
	episodesUpdated metric.Int64Counter
	fetchFailures   metric.Int64Counter
	watermark       metric.Int64Gauge
}

// NewSyncMetrics creates a new SyncMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewSyncMetrics(provider metric.MeterProvider) (*SyncMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(SyncMetricsMeterName)

	passDuration, err := meter.Float64Histogram(
		"showsync_sync_pass_duration_seconds",
		metric.WithDescription("Duration of sync passes in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 900),
	)
	if err != nil {
		return nil, err
	}

	seriesUpdated, err := meter.Int64Counter(
		"showsync_series_updated_total",
		metric.WithDescription("Number of series updates applied"),
		metric.WithUnit("{series}"),
	)
	if err != nil {
		return nil, err
	}

	episodesUpdated, err := meter.Int64Counter(
		"showsync_episodes_updated_total",
		metric.WithDescription("Number of episode rows written"),
		metric.WithUnit("{episode}"),
	)
	if err != nil {
		return nil, err
	}

	fetchFailures, err := meter.Int64Counter(
		"showsync_fetch_failures_total",
		metric.WithDescription("Number of failed provider fetches"),
		metric.WithUnit("{failure}"),
	)
	if err != nil {
		return nil, err
	}

	watermark, err := meter.Int64Gauge(
		"showsync_sync_watermark_seconds",
		metric.WithDescription("Provider timestamp of the last successful full pass"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &SyncMetrics{
		passDuration:    passDuration,
		seriesUpdated:   seriesUpdated,
		episodesUpdated: episodesUpdated,
		fetchFailures:   fetchFailures,
		watermark:       watermark,
	}, nil
}

// RecordPassDuration records the duration and outcome of a sync pass
func (m *SyncMetrics) RecordPassDuration(ctx context.Context, mode string, duration time.Duration, outcome string) {
	if m == nil || m.passDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("mode", mode),
		attribute.String("outcome", outcome),
	}

	m.passDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordSeriesUpdated counts one applied series update
func (m *SyncMetrics) RecordSeriesUpdated(ctx context.Context, forced bool) {
	if m == nil || m.seriesUpdated == nil {
		return
	}
	m.seriesUpdated.Add(ctx, 1, metric.WithAttributes(attribute.Bool("forced", forced)))
}

// RecordEpisodesUpdated counts written episode rows
func (m *SyncMetrics) RecordEpisodesUpdated(ctx context.Context, count int64) {
	if m == nil || m.episodesUpdated == nil || count == 0 {
		return
	}
	m.episodesUpdated.Add(ctx, count)
}

// RecordFetchFailure counts a failed provider fetch of the given kind
func (m *SyncMetrics) RecordFetchFailure(ctx context.Context, kind string) {
	if m == nil || m.fetchFailures == nil {
		return
	}
	m.fetchFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

// RecordWatermark records the watermark written at the end of a pass
func (m *SyncMetrics) RecordWatermark(ctx context.Context, value int64) {
	if m == nil || m.watermark == nil {
		return
	}
	m.watermark.Record(ctx, value)
}
