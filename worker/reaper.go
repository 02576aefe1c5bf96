package worker

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/nezhar/voicevault/component"
	"github.com/nezhar/voicevault/entry"
	"github.com/nezhar/voicevault/logger"
	"github.com/nezhar/voicevault/observability"
)

// AbandonMessage is stored on entries the reaper gives up on.
const AbandonMessage = "Processing was interrupted repeatedly and has been stopped."

// Reaper moves entries whose claims keep expiring to ERROR, so a file that
// crashes or stalls every worker does not circulate forever.
type Reaper struct {
	store   entry.Store
	cfg     Config
	metrics *observability.Metrics
	log     *logger.Logger

	cron   *cron.Cron
	cancel context.CancelFunc

	mu      sync.Mutex
	lastErr error
	started bool
}

var _ component.Component = (*Reaper)(nil)

// NewReaper creates a reaper running on cfg.ReapSchedule.
func NewReaper(store entry.Store, cfg Config, metrics *observability.Metrics, log *logger.Logger) (*Reaper, error) {
	if store == nil {
		return nil, fmt.Errorf("reaper: store is required")
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("worker config: %w", err)
	}
	if metrics == nil {
		metrics = observability.NopMetrics()
	}
	if log == nil {
		log = logger.Nop()
	}
	log = log.WithComponent("reaper")
	cl := cronLogger{log: log}
	return &Reaper{
		store:   store,
		cfg:     cfg,
		metrics: metrics,
		log:     log,
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
	}, nil
}

// ReapOnce abandons every exhausted entry and returns how many it moved.
func (r *Reaper) ReapOnce(ctx context.Context) (int, error) {
	entries, err := r.store.ListExhausted(ctx, r.cfg.MaxAttempts)
	if err != nil {
		return 0, err
	}
	reaped := 0
	for _, e := range entries {
		ok, err := r.store.Abandon(ctx, e.ID, r.cfg.MaxAttempts, truncate(AbandonMessage, r.cfg.ErrorMessageMax))
		if err != nil {
			return reaped, err
		}
		if !ok {
			continue
		}
		reaped++
		r.metrics.JobAbandoned(ctx)
		r.log.WithEntry(e.ID).Warn("Entry abandoned after repeated interrupted attempts", map[string]interface{}{
			"status":   string(e.Status),
			"attempts": e.Attempts,
		})
	}
	return reaped, nil
}

func (r *Reaper) Name() string { return "reaper" }

func (r *Reaper) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return fmt.Errorf("reaper already started")
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	if _, err := r.cron.AddFunc(r.cfg.ReapSchedule, func() { r.tick(runCtx) }); err != nil {
		cancel()
		return fmt.Errorf("reaper schedule %q: %w", r.cfg.ReapSchedule, err)
	}
	r.cancel = cancel
	r.started = true
	r.cron.Start()
	r.log.Info("Reaper started", map[string]interface{}{
		"schedule":     r.cfg.ReapSchedule,
		"max_attempts": r.cfg.MaxAttempts,
	})
	return nil
}

func (r *Reaper) tick(ctx context.Context) {
	n, err := r.ReapOnce(ctx)
	r.mu.Lock()
	r.lastErr = err
	r.mu.Unlock()
	if err != nil {
		r.log.WithError(err).Error("Reaping failed")
		return
	}
	if n > 0 {
		r.log.Info("Reaped entries", map[string]interface{}{"count": n})
	}
}

func (r *Reaper) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return nil
	}
	r.started = false
	cancel := r.cancel
	r.mu.Unlock()

	cancel()
	select {
	case <-r.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Reaper) Health(ctx context.Context) component.Health {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch {
	case !r.started:
		return component.Unhealthy(r.Name(), "not started")
	case r.lastErr != nil:
		return component.Degraded(r.Name(), r.lastErr.Error())
	}
	return component.Healthy(r.Name())
}

// cronLogger adapts the service logger to cron.Logger.
type cronLogger struct {
	log *logger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.log.Debug(msg, logger.Fields(keysAndValues...))
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.log.WithError(err).Error(msg, logger.Fields(keysAndValues...))
}
