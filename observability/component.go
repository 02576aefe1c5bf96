package observability

import (
	"context"
	"errors"
	"sync"

	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/nezhar/voicevault/component"
	"github.com/nezhar/voicevault/logger"
)

// Component owns the tracer and meter providers.
type Component struct {
	cfg Config
	svc ServiceInfo
	log *logger.Logger

	mu      sync.Mutex
	tp      *sdktrace.TracerProvider
	mp      *sdkmetric.MeterProvider
	metrics *Metrics
}

var _ component.Component = (*Component)(nil)

// NewComponent creates the telemetry component. Metrics() is usable before
// Start and records nothing until then.
func NewComponent(cfg Config, svc ServiceInfo, log *logger.Logger) *Component {
	cfg.ApplyDefaults()
	return &Component{
		cfg:     cfg,
		svc:     svc,
		log:     log.WithComponent("observability"),
		metrics: NopMetrics(),
	}
}

// Name implements component.Component.
func (c *Component) Name() string { return "observability" }

// Start installs the exporters when enabled.
func (c *Component) Start(ctx context.Context) error {
	if err := c.cfg.Validate(); err != nil {
		return err
	}
	if !c.cfg.Enabled {
		c.log.Debug("Telemetry export disabled")
		return nil
	}

	tp, err := InitTracer(ctx, c.cfg, c.svc)
	if err != nil {
		return err
	}
	mp, err := InitMeter(ctx, c.cfg, c.svc)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return err
	}
	metrics, err := NewMetrics(otel.Meter(meterName))
	if err != nil {
		_ = tp.Shutdown(ctx)
		_ = mp.Shutdown(ctx)
		return err
	}

	c.mu.Lock()
	c.tp, c.mp, c.metrics = tp, mp, metrics
	c.mu.Unlock()

	c.log.Info("Telemetry export enabled", map[string]interface{}{
		"endpoint":    c.cfg.Endpoint,
		"sample_rate": c.cfg.SampleRate,
	})
	return nil
}

// Stop flushes and shuts down the providers.
func (c *Component) Stop(ctx context.Context) error {
	c.mu.Lock()
	tp, mp := c.tp, c.mp
	c.tp, c.mp = nil, nil
	c.mu.Unlock()

	var errs []error
	if tp != nil {
		errs = append(errs, tp.Shutdown(ctx))
	}
	if mp != nil {
		errs = append(errs, mp.Shutdown(ctx))
	}
	return errors.Join(errs...)
}

// Health implements component.Component.
func (c *Component) Health(ctx context.Context) component.Health {
	h := component.Healthy(c.Name())
	if !c.cfg.Enabled {
		h.Message = "disabled"
	}
	return h
}

// Metrics returns the worker instruments.
func (c *Component) Metrics() *Metrics {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.metrics
}
