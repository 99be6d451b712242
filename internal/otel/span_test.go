package otel

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/showsync/internal/catalog"
)

func recordingTracer(t *testing.T) (trace.Tracer, *tracetest.InMemoryExporter) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return tp.Tracer("showsync-test"), exporter
}

func attrs(kvs []attribute.KeyValue) map[attribute.Key]attribute.Value {
	out := make(map[attribute.Key]attribute.Value, len(kvs))
	for _, kv := range kvs {
		out[kv.Key] = kv.Value
	}
	return out
}

func TestStartSpan(t *testing.T) {
	t.Parallel()

	t.Run("nil tracer", func(t *testing.T) {
		t.Parallel()
		ctx, span := StartSpan(context.Background(), nil, "sync.RunFullSync")
		require.NotNil(t, ctx)
		assert.False(t, span.SpanContext().IsValid())
		assert.NotPanics(t, func() { End(span, errors.New("ignored")) })
	})

	t.Run("nil tracer keeps the parent span", func(t *testing.T) {
		t.Parallel()
		tracer, _ := recordingTracer(t)
		ctx, parent := tracer.Start(context.Background(), "parent")
		defer parent.End()

		_, span := StartSpan(ctx, nil, "child")
		assert.Equal(t, parent.SpanContext(), span.SpanContext())
	})

	t.Run("recording tracer", func(t *testing.T) {
		t.Parallel()
		tracer, exporter := recordingTracer(t)

		_, span := StartSpan(context.Background(), tracer, "tvdb.FetchEpisode",
			trace.WithAttributes(EpisodeAttributes(catalog.EpisodeKey{SeriesID: 42, Season: 3, Number: 7})...))
		End(span, nil)

		spans := exporter.GetSpans()
		require.Len(t, spans, 1)
		assert.Equal(t, "tvdb.FetchEpisode", spans[0].Name)
		assert.Equal(t, codes.Unset, spans[0].Status.Code)

		got := attrs(spans[0].Attributes)
		assert.Equal(t, int64(42), got[AttrSeriesID].AsInt64())
		assert.Equal(t, int64(3), got[AttrSeason].AsInt64())
		assert.Equal(t, int64(7), got[AttrEpisodeNumber].AsInt64())
	})
}

func TestEnd(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		err           error
		wantCode      codes.Code
		wantException bool
	}{
		{name: "success", wantCode: codes.Unset},
		{name: "failure", err: errors.New("pq: password authentication failed"), wantCode: codes.Error, wantException: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tracer, exporter := recordingTracer(t)

			_, span := tracer.Start(context.Background(), "store.SaveSeries")
			End(span, tt.err)

			spans := exporter.GetSpans()
			require.Len(t, spans, 1)
			assert.Equal(t, tt.wantCode, spans[0].Status.Code)
			if tt.wantException {
				// The error text stays out of the status
				assert.Equal(t, errorStatus, spans[0].Status.Description)
				require.NotEmpty(t, spans[0].Events)
				assert.Equal(t, "exception", spans[0].Events[0].Name)
			} else {
				assert.Empty(t, spans[0].Events)
			}
		})
	}
}

func TestRecordError_NilSpan(t *testing.T) {
	t.Parallel()
	assert.NotPanics(t, func() { RecordError(nil, errors.New("boom")) })
	assert.NotPanics(t, func() { RecordError(nil, nil) })
}
