package otel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func resetGlobal(t *testing.T) {
	t.Helper()
	t.Cleanup(func() { otel.SetTracerProvider(noop.NewTracerProvider()) })
}

func TestSetup_DisabledWithoutEndpoint(t *testing.T) {
	resetGlobal(t)
	before := otel.GetTracerProvider()

	shutdown, err := Setup(context.Background(), "", "thb-test")
	require.NoError(t, err)
	assert.Equal(t, before, otel.GetTracerProvider())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, shutdown(ctx))
}

func TestSetup_InstallsProvider(t *testing.T) {
	resetGlobal(t)
	core, logs := observer.New(zap.InfoLevel)

	// TEST-NET address; nothing is exported because no span is recorded.
	shutdown, err := Setup(context.Background(), "http://192.0.2.1:4318", "thb-test",
		WithLogger(zap.New(core)),
		WithHeaders(map[string]string{"authorization": "Bearer token"}),
		WithVersion("1.2.3"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = shutdown(context.Background()) })

	_, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider)
	assert.True(t, ok)

	entries := logs.FilterMessage("trace export enabled").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "thb-test", fields["service"])
	assert.Equal(t, int64(1), fields["headers"])
	assert.Equal(t, 1.0, fields["sample_ratio"])
}

func TestSampler(t *testing.T) {
	root := sdktrace.SamplingParameters{
		ParentContext: context.Background(),
		TraceID:       trace.TraceID{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 1},
		Name:          "turn",
	}

	tests := []struct {
		name  string
		ratio float64
		want  sdktrace.SamplingDecision
	}{
		{name: "all", ratio: 1, want: sdktrace.RecordAndSample},
		{name: "above one", ratio: 5, want: sdktrace.RecordAndSample},
		{name: "none", ratio: 0, want: sdktrace.Drop},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := settings{sampleRatio: tt.ratio}
			assert.Equal(t, tt.want, s.sampler().ShouldSample(root).Decision)
		})
	}
}
