package observe

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Provider bundles the SDK meter provider with the reader used to pull
// metrics for the log reporter.
type Provider struct {
	MeterProvider *sdkmetric.MeterProvider
	Reader        *sdkmetric.ManualReader
}

// NewProvider builds a meter provider with a ManualReader and registers it
// globally. Nothing leaves the process.
func NewProvider(ctx context.Context, serviceVersion string) (*Provider, error) {
	res, err := resource.New(ctx,
		resource.WithTelemetrySDK(),
		resource.WithAttributes(
			semconv.ServiceName("serialscan"),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, err
	}
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)
	otel.SetMeterProvider(mp)
	return &Provider{MeterProvider: mp, Reader: reader}, nil
}

// Shutdown flushes and stops the meter provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	return p.MeterProvider.Shutdown(ctx)
}

// Snapshot collects the current value of every int64 sum, keyed by metric
// name and summed over attribute sets.
func (p *Provider) Snapshot(ctx context.Context) (map[string]int64, error) {
	var rm metricdata.ResourceMetrics
	if err := p.Reader.Collect(ctx, &rm); err != nil {
		return nil, err
	}
	return sums(rm), nil
}

func sums(rm metricdata.ResourceMetrics) map[string]int64 {
	out := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			s, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			var total int64
			for _, dp := range s.DataPoints {
				total += dp.Value
			}
			out[m.Name] = total
		}
	}
	return out
}

// StartReporter logs a metrics snapshot every interval at debug level until
// ctx is cancelled.
func (p *Provider) StartReporter(ctx context.Context, logger *slog.Logger, interval time.Duration) {
	if logger == nil || interval <= 0 {
		return
	}
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				snap, err := p.Snapshot(ctx)
				if err != nil {
					logger.Debug("metrics collect", "error", err)
					continue
				}
				attrs := make([]any, 0, len(snap)*2)
				for k, v := range snap {
					attrs = append(attrs, k, v)
				}
				logger.Debug("metrics.snapshot", attrs...)
			}
		}
	}()
}
