package telemetry

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// exportSettings is shared by the tracer and meter provider constructors
type exportSettings struct {
	serviceName    string
	serviceVersion string
	instanceID     string
	endpoint       string
	insecure       bool

	// registerer receives the prometheus collector; metrics only
	registerer prometheus.Registerer
}

// ProviderOption configures NewTracerProvider and NewMeterProvider
type ProviderOption func(*exportSettings)

// WithService sets the service name and version reported on every span and metric
func WithService(name, version string) ProviderOption {
	return func(s *exportSettings) {
		s.serviceName = name
		s.serviceVersion = version
	}
}

// WithInstanceID sets service.instance.id. A random ID is used otherwise.
func WithInstanceID(id string) ProviderOption {
	return func(s *exportSettings) {
		s.instanceID = id
	}
}

// WithOTLPEndpoint sets the OTLP HTTP collector address and whether to skip TLS
func WithOTLPEndpoint(endpoint string, insecure bool) ProviderOption {
	return func(s *exportSettings) {
		s.endpoint = endpoint
		s.insecure = insecure
	}
}

// WithPrometheusRegisterer sets where the prometheus exporter registers its collector
func WithPrometheusRegisterer(reg prometheus.Registerer) ProviderOption {
	return func(s *exportSettings) {
		s.registerer = reg
	}
}

func newExportSettings(opts []ProviderOption) *exportSettings {
	s := &exportSettings{
		serviceName:    DefaultServiceName,
		serviceVersion: "unknown",
		endpoint:       DefaultEndpoint,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.instanceID == "" {
		s.instanceID = uuid.NewString()
	}
	return s
}

// resource builds the OTel resource. resource.New avoids schema URL conflicts with resource.Default().
func (s *exportSettings) resource(ctx context.Context) (*resource.Resource, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(s.serviceName),
			semconv.ServiceVersion(s.serviceVersion),
			semconv.ServiceInstanceID(s.instanceID),
		),
		resource.WithHost(),
		resource.WithTelemetrySDK(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return res, nil
}
