package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// DefaultMetricsInterval is the default OTLP push interval
const DefaultMetricsInterval = 60 * time.Second

// NewMeterProvider creates a MeterProvider for the configured exporter: a
// periodic OTLP HTTP push, or a pull reader registered with the prometheus
// registerer given through WithPrometheusRegisterer. A nil or disabled
// metrics config yields a no-op provider.
//
// The SDK provider is installed as the global provider and must be shut down by the caller.
func NewMeterProvider(ctx context.Context, mc *MetricsConfig, opts ...ProviderOption) (metric.MeterProvider, error) {
	if mc == nil || !mc.Enabled {
		slog.Info("Metrics disabled, using no-op meter provider")
		return noop.NewMeterProvider(), nil
	}
	settings := newExportSettings(opts)

	res, err := settings.resource(ctx)
	if err != nil {
		return nil, err
	}

	reader, err := newMetricReader(ctx, mc, settings)
	if err != nil {
		return nil, err
	}

	mp := sdkmetric.NewMeterProvider(sdkmetric.WithResource(res), sdkmetric.WithReader(reader))
	otel.SetMeterProvider(mp)

	slog.Info("Metrics initialized",
		"exporter", mc.GetExporter(),
		"endpoint", settings.endpoint,
		"instance_id", settings.instanceID)
	return mp, nil
}

func newMetricReader(ctx context.Context, mc *MetricsConfig, settings *exportSettings) (sdkmetric.Reader, error) {
	switch exporter := mc.GetExporter(); exporter {
	case ExporterPrometheus:
		if settings.registerer == nil {
			return nil, fmt.Errorf("prometheus exporter requires a registerer")
		}
		reader, err := otelprom.New(otelprom.WithRegisterer(settings.registerer))
		if err != nil {
			return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
		}
		return reader, nil

	case ExporterOTLP:
		exporterOpts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(settings.endpoint)}
		if settings.insecure {
			exporterOpts = append(exporterOpts, otlpmetrichttp.WithInsecure())
		}
		exp, err := otlpmetrichttp.New(ctx, exporterOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP metrics exporter: %w", err)
		}
		return sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(mc.GetInterval())), nil

	default:
		return nil, fmt.Errorf("unknown metrics exporter %q", exporter)
	}
}
