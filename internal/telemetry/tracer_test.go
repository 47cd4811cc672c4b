// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

func TestNewProvider_Disabled(t *testing.T) {
	provider, err := NewProvider(context.Background(), Config{
		Enabled:     false,
		ServiceName: "playguard-devserver",
		Exporter:    "grpc",
	})
	require.NoError(t, err)
	assert.Nil(t, provider.tp)

	_, span := otel.Tracer("test").Start(context.Background(), "session.start")
	assert.False(t, span.IsRecording(), "disabled telemetry must not record")
	span.End()

	assert.NoError(t, provider.Shutdown(context.Background()))
}

func TestNewProvider_UnsupportedExporter(t *testing.T) {
	_, err := NewProvider(context.Background(), Config{
		Enabled:     true,
		ServiceName: "playguard-devserver",
		Exporter:    "carrier-pigeon",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "carrier-pigeon")
}

func TestNewProvider_HTTPExporterRecordsRootSpans(t *testing.T) {
	provider, err := NewProvider(context.Background(), Config{
		Enabled:      true,
		ServiceName:  "playguard-soak",
		Role:         RoleSoak,
		Exporter:     "http",
		Endpoint:     "127.0.0.1:1",
		SamplingRate: 1,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	_, span := Tracer("test").Start(context.Background(), "session.start")
	assert.True(t, span.IsRecording())
	span.End()
}

func TestResourceAttributes(t *testing.T) {
	got := attribute.NewSet(ResourceAttributes(Config{
		ServiceName:    "playguard-devserver",
		ServiceVersion: "v2.1.0",
		Role:           RoleDevServer,
		DeviceStore:    "badger",
	})...)

	for key, want := range map[attribute.Key]string{
		"service.namespace": Namespace,
		"service.name":      "playguard-devserver",
		"service.version":   "v2.1.0",
		RoleKey:             RoleDevServer,
		DeviceStoreKey:      "badger",
	} {
		v, ok := got.Value(key)
		if assert.True(t, ok, "missing %s", key) {
			assert.Equal(t, want, v.AsString(), key)
		}
	}
	_, ok := got.Value("deployment.environment")
	assert.False(t, ok, "empty environment is omitted")
}

func TestRootSampler(t *testing.T) {
	assert.Equal(t, "AlwaysOnSampler", rootSampler(1.5).Description())
	assert.Equal(t, "AlwaysOffSampler", rootSampler(0).Description())
	assert.Contains(t, rootSampler(0.25).Description(), "TraceIDRatioBased")
}

func TestSessionAttributes(t *testing.T) {
	attrs := attribute.NewSet(SessionAttributes("c-1", "l-1", "active")...)
	v, ok := attrs.Value(ContentIDKey)
	require.True(t, ok)
	assert.Equal(t, "c-1", v.AsString())
	assert.Equal(t, 3, attrs.Len())
}
