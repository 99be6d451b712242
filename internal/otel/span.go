// Package otel holds the span helpers and attribute keys shared by the sync
// engine, the provider clients and the stores.
package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/showsync/internal/catalog"
)

// Attribute keys used on every span that concerns a series, an episode or a pass
const (
	AttrSeriesID      = attribute.Key("series.id")
	AttrSeason        = attribute.Key("episode.season")
	AttrEpisodeNumber = attribute.Key("episode.number")
	AttrWatermark     = attribute.Key("sync.watermark")
	AttrForce         = attribute.Key("sync.force")
	AttrRunID         = attribute.Key("sync.run_id")
	AttrResultCount   = attribute.Key("result.count")
)

// errorStatus is the span status description for failures. Error text, which
// may hold SQL or connection strings, only goes into the exception event.
const errorStatus = "operation failed"

// EpisodeAttributes identifies an episode on a span
func EpisodeAttributes(key catalog.EpisodeKey) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrSeriesID.Int64(key.SeriesID),
		AttrSeason.Int(key.Season),
		AttrEpisodeNumber.Int(key.Number),
	}
}

// StartSpan starts a span on tracer. A nil tracer yields the span already in ctx,
// which is a no-op span when there is none.
func StartSpan(
	ctx context.Context,
	tracer trace.Tracer,
	name string,
	opts ...trace.SpanStartOption,
) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, name, opts...)
}

// RecordError marks span as failed. Nil spans and nil errors are ignored.
func RecordError(span trace.Span, err error) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, errorStatus)
}

// End records err, if any, and ends span. Meant for `defer func() { otel.End(span, err) }()`.
func End(span trace.Span, err error) {
	RecordError(span, err)
	span.End()
}
