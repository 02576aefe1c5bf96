package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

const meterName = "github.com/nezhar/voicevault"

// InitMeter installs a global meter provider exporting over OTLP HTTP.
// The caller shuts the provider down on exit.
func InitMeter(ctx context.Context, cfg Config, svc ServiceInfo) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(svc)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.MetricInterval))),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)
	return mp, nil
}

// Metrics holds the worker's instruments.
type Metrics struct {
	jobsClaimed     metric.Int64Counter
	jobsCompleted   metric.Int64Counter
	jobsFailed      metric.Int64Counter
	jobsAbandoned   metric.Int64Counter
	jobDuration     metric.Float64Histogram
	chunks          metric.Int64Histogram
	providerLatency metric.Float64Histogram
}

// NewMetrics creates the instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	if m.jobsClaimed, err = meter.Int64Counter("voicevault.jobs.claimed",
		metric.WithDescription("Entries claimed by the worker")); err != nil {
		return nil, fmt.Errorf("creating voicevault.jobs.claimed: %w", err)
	}
	if m.jobsCompleted, err = meter.Int64Counter("voicevault.jobs.completed",
		metric.WithDescription("Entries that finished their stage")); err != nil {
		return nil, fmt.Errorf("creating voicevault.jobs.completed: %w", err)
	}
	if m.jobsFailed, err = meter.Int64Counter("voicevault.jobs.failed",
		metric.WithDescription("Entries moved to ERROR, by error code")); err != nil {
		return nil, fmt.Errorf("creating voicevault.jobs.failed: %w", err)
	}
	if m.jobsAbandoned, err = meter.Int64Counter("voicevault.jobs.abandoned",
		metric.WithDescription("Entries failed by the reaper after repeated interruptions")); err != nil {
		return nil, fmt.Errorf("creating voicevault.jobs.abandoned: %w", err)
	}
	if m.jobDuration, err = meter.Float64Histogram("voicevault.job.duration",
		metric.WithDescription("Time from claim to final status"),
		metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("creating voicevault.job.duration: %w", err)
	}
	if m.chunks, err = meter.Int64Histogram("voicevault.chunks",
		metric.WithDescription("Chunks per transcribed entry")); err != nil {
		return nil, fmt.Errorf("creating voicevault.chunks: %w", err)
	}
	if m.providerLatency, err = meter.Float64Histogram("voicevault.provider.duration",
		metric.WithDescription("Transcription provider call latency"),
		metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("creating voicevault.provider.duration: %w", err)
	}
	return m, nil
}

// NopMetrics returns instruments that record nothing.
func NopMetrics() *Metrics {
	m, _ := NewMetrics(noop.NewMeterProvider().Meter(meterName))
	return m
}

// JobClaimed counts a claim.
func (m *Metrics) JobClaimed(ctx context.Context, mode string) {
	m.jobsClaimed.Add(ctx, 1, metric.WithAttributes(attribute.String("mode", mode)))
}

// JobCompleted counts a successful stage and records its duration.
func (m *Metrics) JobCompleted(ctx context.Context, mode string, d time.Duration) {
	attrs := metric.WithAttributes(attribute.String("mode", mode), attribute.String("outcome", "ok"))
	m.jobsCompleted.Add(ctx, 1, metric.WithAttributes(attribute.String("mode", mode)))
	m.jobDuration.Record(ctx, d.Seconds(), attrs)
}

// JobFailed counts a stage that ended in ERROR.
func (m *Metrics) JobFailed(ctx context.Context, mode, code string, d time.Duration) {
	m.jobsFailed.Add(ctx, 1, metric.WithAttributes(
		attribute.String("mode", mode),
		attribute.String("code", code),
	))
	m.jobDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("mode", mode),
		attribute.String("outcome", "error"),
	))
}

// JobAbandoned counts an entry failed by the reaper.
func (m *Metrics) JobAbandoned(ctx context.Context) {
	m.jobsAbandoned.Add(ctx, 1)
}

// Chunks records how many chunks an entry was split into.
func (m *Metrics) Chunks(ctx context.Context, n int) {
	m.chunks.Record(ctx, int64(n))
}

// ProviderCall records one transcription request.
func (m *Metrics) ProviderCall(ctx context.Context, provider, status string, d time.Duration) {
	m.providerLatency.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("status", status),
	))
}
