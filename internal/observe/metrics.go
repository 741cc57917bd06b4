// Package observe provides application-wide observability primitives:
// OpenTelemetry metrics, tracing, and the HTTP surface that exposes them.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can be
// scraped from the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all metrics.
const meterName = "github.com/Kayla538/AI-Interview-Prep-Assistant"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms per pipeline stage ---

	// SessionConnectDuration tracks how long live session establishment
	// takes, from dial to setup acknowledgement.
	SessionConnectDuration metric.Float64Histogram

	// LLMDuration tracks suggested-answer generation latency.
	LLMDuration metric.Float64Histogram

	// TTSDuration tracks speech synthesis latency.
	TTSDuration metric.Float64Histogram

	// --- Counters ---

	// FramesSent counts captured audio frames forwarded to the live
	// session.
	FramesSent metric.Int64Counter

	// ChunksPlayed counts model audio chunks handed to the playback
	// device.
	ChunksPlayed metric.Int64Counter

	// Interruptions counts model-turn interruptions signalled by the
	// session.
	Interruptions metric.Int64Counter

	// Turns counts completed model turns.
	Turns metric.Int64Counter

	// Suggestions counts generated answer suggestions. Use with attribute:
	//   attribute.String("status", ...)
	Suggestions metric.Int64Counter

	// ProviderErrors counts provider errors. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("kind", ...)
	ProviderErrors metric.Int64Counter

	// --- Gauges ---

	// ActiveSessions tracks the number of live meeting sessions.
	ActiveSessions metric.Int64UpDownCounter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) optimised
// for voice-pipeline latencies.
var latencyBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.SessionConnectDuration, err = m.Float64Histogram("copilot.session.connect.duration",
		metric.WithDescription("Latency of live session establishment."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.LLMDuration, err = m.Float64Histogram("copilot.llm.duration",
		metric.WithDescription("Latency of suggested-answer generation."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.TTSDuration, err = m.Float64Histogram("copilot.tts.duration",
		metric.WithDescription("Latency of speech synthesis."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.FramesSent, err = m.Int64Counter("copilot.audio.frames_sent",
		metric.WithDescription("Captured audio frames forwarded to the live session."),
	); err != nil {
		return nil, err
	}
	if met.ChunksPlayed, err = m.Int64Counter("copilot.audio.chunks_played",
		metric.WithDescription("Model audio chunks handed to the playback device."),
	); err != nil {
		return nil, err
	}
	if met.Interruptions, err = m.Int64Counter("copilot.session.interruptions",
		metric.WithDescription("Model-turn interruptions signalled by the session."),
	); err != nil {
		return nil, err
	}
	if met.Turns, err = m.Int64Counter("copilot.session.turns",
		metric.WithDescription("Completed model turns."),
	); err != nil {
		return nil, err
	}
	if met.Suggestions, err = m.Int64Counter("copilot.suggestions",
		metric.WithDescription("Generated answer suggestions by status."),
	); err != nil {
		return nil, err
	}

	// Error counters.
	if met.ProviderErrors, err = m.Int64Counter("copilot.provider.errors",
		metric.WithDescription("Total provider errors by provider and kind."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActiveSessions, err = m.Int64UpDownCounter("copilot.active_sessions",
		metric.WithDescription("Number of live meeting sessions."),
	); err != nil {
		return nil, err
	}

	// HTTP middleware histogram.
	if met.HTTPRequestDuration, err = m.Float64Histogram("copilot.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordSuggestion records a generated suggestion with its outcome status.
func (m *Metrics) RecordSuggestion(ctx context.Context, status string) {
	m.Suggestions.Add(ctx, 1,
		metric.WithAttributes(attribute.String("status", status)),
	)
}

// RecordProviderError records a provider error counter increment.
func (m *Metrics) RecordProviderError(ctx context.Context, provider, kind string) {
	m.ProviderErrors.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("kind", kind),
		),
	)
}
