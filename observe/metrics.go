// Package observe holds the OpenTelemetry instruments for the scanner.
// Tests should build Metrics with NewMetrics over a provider backed by a
// ManualReader.
package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/soocke/serialscan"

// Decode outcomes used as the "outcome" attribute.
const (
	OutcomeFound    = "found"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
	OutcomeSkipped  = "skipped"
)

// Metrics holds all instruments. A nil *Metrics records nothing.
type Metrics struct {
	// DecodeAttempts counts decoder invocations by tier and outcome.
	DecodeAttempts metric.Int64Counter
	// DecodeDuration tracks decoder latency by tier.
	DecodeDuration metric.Float64Histogram
	// FramesProcessed counts frames that went through the pipeline.
	FramesProcessed metric.Int64Counter
	// ScansCompleted counts reported serials by source tier.
	ScansCompleted metric.Int64Counter
	// CameraErrors counts refused camera requests.
	CameraErrors metric.Int64Counter
	// ActiveSessions is 1 while a capture session runs.
	ActiveSessions metric.Int64UpDownCounter
}

var latencyBuckets = []float64{
	0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5,
}

// NewMetrics creates every instrument on mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.DecodeAttempts, err = m.Int64Counter("serialscan.decode.attempts",
		metric.WithDescription("Decoder invocations by tier and outcome."),
	); err != nil {
		return nil, err
	}
	if met.DecodeDuration, err = m.Float64Histogram("serialscan.decode.duration",
		metric.WithDescription("Decoder latency by tier."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.FramesProcessed, err = m.Int64Counter("serialscan.frames.processed",
		metric.WithDescription("Frames run through the detection pipeline."),
	); err != nil {
		return nil, err
	}
	if met.ScansCompleted, err = m.Int64Counter("serialscan.scans.completed",
		metric.WithDescription("Serials reported by source."),
	); err != nil {
		return nil, err
	}
	if met.CameraErrors, err = m.Int64Counter("serialscan.camera.errors",
		metric.WithDescription("Camera requests refused by the host."),
	); err != nil {
		return nil, err
	}
	if met.ActiveSessions, err = m.Int64UpDownCounter("serialscan.capture.active_sessions",
		metric.WithDescription("Running capture sessions."),
	); err != nil {
		return nil, err
	}
	return met, nil
}

// RecordDecode records one decoder invocation.
func (m *Metrics) RecordDecode(ctx context.Context, tier, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.DecodeAttempts.Add(ctx, 1, metric.WithAttributes(
		attribute.String("tier", tier),
		attribute.String("outcome", outcome),
	))
	if outcome != OutcomeSkipped {
		m.DecodeDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("tier", tier)))
	}
}

// RecordFrame counts one processed frame.
func (m *Metrics) RecordFrame(ctx context.Context) {
	if m == nil {
		return
	}
	m.FramesProcessed.Add(ctx, 1)
}

// RecordScan counts one reported serial.
func (m *Metrics) RecordScan(ctx context.Context, source string) {
	if m == nil {
		return
	}
	m.ScansCompleted.Add(ctx, 1, metric.WithAttributes(attribute.String("source", source)))
}

// RecordCameraError counts a refused camera request.
func (m *Metrics) RecordCameraError(ctx context.Context) {
	if m == nil {
		return
	}
	m.CameraErrors.Add(ctx, 1)
}

// SessionStarted and SessionEnded track the active session gauge.
func (m *Metrics) SessionStarted(ctx context.Context) {
	if m == nil {
		return
	}
	m.ActiveSessions.Add(ctx, 1)
}

func (m *Metrics) SessionEnded(ctx context.Context) {
	if m == nil {
		return
	}
	m.ActiveSessions.Add(ctx, -1)
}
