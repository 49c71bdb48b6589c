package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

func TestSetup_NoopWhenDisabled(t *testing.T) {
	before := otel.GetTracerProvider()

	for _, cfg := range []Config{
		{},
		{Enabled: true},
		{Enabled: false, Endpoint: "http://localhost:4318"},
	} {
		shutdown, err := Setup(context.Background(), cfg)
		require.NoError(t, err)
		assert.NoError(t, shutdown(context.Background()))
	}
	assert.Equal(t, before, otel.GetTracerProvider())
}

func TestSetup_CreatesProvider(t *testing.T) {
	before := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(before) })

	// Non-routable address; nothing is exported before shutdown
	shutdown, err := Setup(context.Background(), Config{
		Enabled:     true,
		Endpoint:    "http://192.0.2.1:4318",
		ServiceName: "balanceguard-test",
	})
	require.NoError(t, err)
	assert.IsType(t, &sdktrace.TracerProvider{}, otel.GetTracerProvider())
	assert.NoError(t, shutdown(context.Background()))
}

func TestNewProvider_Resource(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	provider, err := NewProvider(context.Background(), Config{}, sdktrace.WithSyncer(exporter))
	require.NoError(t, err)
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	_, span := provider.Tracer("test").Start(context.Background(), "op")
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	name, ok := spans[0].Resource.Set().Value(semconv.ServiceNameKey)
	require.True(t, ok)
	assert.Equal(t, "balanceguard", name.AsString())
}

func TestSampler(t *testing.T) {
	assert.Equal(t, sdktrace.AlwaysSample().Description(), sampler(0).Description())
	assert.Equal(t, sdktrace.AlwaysSample().Description(), sampler(1).Description())
	assert.Contains(t, sampler(0.25).Description(), "TraceIDRatioBased{0.25}")
}
