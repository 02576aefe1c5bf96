package worker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/nezhar/voicevault/entry"
	apperrors "github.com/nezhar/voicevault/errors"
	"github.com/nezhar/voicevault/logger"
	"github.com/nezhar/voicevault/observability"
	"github.com/nezhar/voicevault/resilience"
)

// processFunc runs one stage on a claimed entry inside a private temp dir
// and returns the patch that completes it.
type processFunc func(ctx context.Context, e *entry.Entry, dir string, log *logger.Logger) (entry.Patch, error)

// Loop claims and processes entries for one mode.
type Loop struct {
	mode    Mode
	cfg     Config
	deps    Deps
	claim   entry.ClaimRequest
	process processFunc
	log     *logger.Logger
}

// New creates a loop for mode. The mode decides which entries are claimed
// and how they are processed.
func New(mode Mode, cfg Config, deps Deps) (*Loop, error) {
	if mode != ModeDownload && mode != ModeTranscribe {
		return nil, fmt.Errorf("unknown worker mode %q", mode)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("worker config: %w", err)
	}
	if err := deps.check(mode); err != nil {
		return nil, fmt.Errorf("worker %s: %w", mode, err)
	}
	deps.applyDefaults()
	if deps.Owner == "" {
		deps.Owner = NewOwner()
	}

	l := &Loop{
		mode:  mode,
		cfg:   cfg,
		deps:  deps,
		claim: mode.claim(deps.Owner, cfg),
		log: deps.Logger.WithComponent("worker").WithFields(map[string]interface{}{
			"mode":  string(mode),
			"owner": deps.Owner,
		}),
	}
	switch mode {
	case ModeDownload:
		l.process = l.download
	case ModeTranscribe:
		l.process = l.transcribe
	}
	return l, nil
}

// NewOwner returns a lease owner id unique to this process.
func NewOwner() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "worker"
	}
	if len(host) > 64 {
		host = host[:64]
	}
	return fmt.Sprintf("%s-%d-%s", host, os.Getpid(), uuid.NewString()[:8])
}

// Mode returns the loop's mode.
func (l *Loop) Mode() Mode { return l.mode }

// Owner returns the lease owner id.
func (l *Loop) Owner() string { return l.deps.Owner }

// Run polls until ctx is cancelled. Store errors are logged and the loop
// keeps going.
func (l *Loop) Run(ctx context.Context) error {
	l.log.Info("Worker loop started", map[string]interface{}{
		"poll_interval": l.cfg.PollInterval.String(),
		"lease_ttl":     l.cfg.LeaseTTL.String(),
		"max_attempts":  l.cfg.MaxAttempts,
	})
	for {
		processed, err := l.RunOnce(ctx)
		if ctx.Err() != nil {
			l.log.Info("Worker loop stopped")
			return nil
		}
		if err != nil {
			l.log.WithError(err).Error("Claiming an entry failed")
		}
		if processed {
			continue
		}

		timer := time.NewTimer(l.cfg.PollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			l.log.Info("Worker loop stopped")
			return nil
		case <-timer.C:
		}
	}
}

// RunOnce claims and processes at most one entry. It reports whether an
// entry was claimed; the error is a claim failure only, since job failures
// are recorded on the entry.
func (l *Loop) RunOnce(ctx context.Context) (bool, error) {
	if l.gated() {
		l.log.Debug("Provider gate open, not claiming")
		return false, nil
	}
	e, err := l.deps.Store.Claim(ctx, l.claim)
	if err != nil {
		return false, err
	}
	if e == nil {
		return false, nil
	}
	l.handle(ctx, e)
	return true, nil
}

func (l *Loop) gated() bool {
	return l.mode == ModeTranscribe && l.deps.Breaker != nil &&
		l.deps.Breaker.State() == resilience.StateOpen
}

func (l *Loop) handle(ctx context.Context, e *entry.Entry) {
	start := l.deps.Clock()
	ctx, span := observability.StartSpan(ctx, "worker."+l.mode.String(),
		attribute.String(observability.AttrEntryID, e.ID),
		attribute.String(observability.AttrMode, l.mode.String()),
	)
	defer span.End()

	log := l.log.WithEntry(e.ID).WithContext(ctx)
	l.deps.Metrics.JobClaimed(ctx, l.mode.String())
	log.Info("Entry claimed", map[string]interface{}{
		"attempt":     e.Attempts,
		"source_type": string(e.SourceType),
	})

	jobCtx, cancel := context.WithCancelCause(ctx)
	heartbeat := l.heartbeat(jobCtx, cancel, e.ID, log)
	patch, jobErr := l.run(jobCtx, e, log)
	cancel(nil)
	<-heartbeat

	switch {
	case errors.Is(context.Cause(jobCtx), entry.ErrLeaseLost):
		log.Warn("Lease lost while processing, result discarded")
		observability.SetSpanError(ctx, entry.ErrLeaseLost)
		return
	case jobErr != nil && ctx.Err() != nil:
		log.Info("Shutdown interrupted processing, releasing entry")
		l.release(ctx, e, log)
		return
	}

	if jobErr != nil {
		msg := UserMessage(jobErr, l.cfg.ErrorMessageMax)
		code := errorCode(jobErr)
		log.WithError(jobErr).Error("Processing failed", map[string]interface{}{
			"code":          code,
			"error_message": msg,
		})
		span.SetAttributes(attribute.String(observability.AttrErrorCode, code))
		observability.SetSpanError(ctx, jobErr)
		patch = entry.Patch{Status: entry.StatusError, ErrorMessage: &msg}
	}

	if err := l.finish(ctx, e, patch, log); err != nil {
		log.WithError(err).Error("Storing the job result failed; the lease will expire and the entry will be claimed again")
		observability.SetSpanError(ctx, err)
		return
	}

	elapsed := l.deps.Clock().Sub(start)
	if jobErr != nil {
		l.deps.Metrics.JobFailed(ctx, l.mode.String(), errorCode(jobErr), elapsed)
		return
	}
	l.deps.Metrics.JobCompleted(ctx, l.mode.String(), elapsed)
	log.Info("Entry processed", map[string]interface{}{
		"status":      string(patch.Status),
		"duration_ms": elapsed.Milliseconds(),
	})
}

// run executes the mode's process function in a temp dir that is removed
// on every exit path. A panic becomes an internal error.
func (l *Loop) run(ctx context.Context, e *entry.Entry, log *logger.Logger) (p entry.Patch, err error) {
	dir, err := os.MkdirTemp(l.cfg.WorkDir, "voicevault-")
	if err != nil {
		return p, apperrors.Internal(fmt.Errorf("create work dir: %w", err))
	}
	defer func() {
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			log.WithError(rmErr).Warn("Removing work dir failed", map[string]interface{}{"dir": dir})
		}
	}()
	defer func() {
		if r := recover(); r != nil {
			log.Error("Panic while processing", map[string]interface{}{
				"panic": fmt.Sprint(r),
				"stack": string(debug.Stack()),
			})
			p, err = entry.Patch{}, apperrors.Internal(fmt.Errorf("panic: %v", r))
		}
	}()
	return l.process(ctx, e, dir, log)
}

// heartbeat renews the lease every LeaseTTL/3 until ctx ends. Losing the
// lease cancels the job with entry.ErrLeaseLost.
func (l *Loop) heartbeat(ctx context.Context, cancel context.CancelCauseFunc, id string, log *logger.Logger) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(l.cfg.LeaseTTL / 3)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			err := l.deps.Store.Renew(ctx, id, l.deps.Owner, l.cfg.LeaseTTL)
			switch {
			case err == nil:
				log.Debug("Lease renewed")
			case errors.Is(err, entry.ErrLeaseLost):
				cancel(entry.ErrLeaseLost)
				return
			case ctx.Err() != nil:
				return
			default:
				log.WithError(err).Warn("Renewing lease failed")
			}
		}
	}()
	return done
}

// finish writes the job result, retrying transient store failures. It
// runs past shutdown so a finished job is not lost.
func (l *Loop) finish(ctx context.Context, e *entry.Entry, p entry.Patch, log *logger.Logger) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.cfg.FinishTimeout)
	defer cancel()
	_, err := resilience.Retry(ctx, l.retryConfig(log), func(ctx context.Context) (*entry.Entry, error) {
		return l.deps.Store.Update(ctx, e.ID, l.deps.Owner, p)
	})
	return err
}

// release gives the entry back unchanged so another worker can claim it
// without waiting for the lease to expire.
func (l *Loop) release(ctx context.Context, e *entry.Entry, log *logger.Logger) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.cfg.FinishTimeout)
	defer cancel()
	if _, err := l.deps.Store.Update(ctx, e.ID, l.deps.Owner, entry.Patch{}); err != nil {
		log.WithError(err).Warn("Releasing entry failed; it will be claimed again after the lease expires")
	}
}

func (l *Loop) retryConfig(log *logger.Logger) resilience.RetryConfig {
	cfg := resilience.DefaultRetryConfig()
	cfg.OnRetry = func(attempt int, err error, backoff time.Duration) {
		log.WithError(err).Warn("Storage call failed, retrying", map[string]interface{}{
			"attempt": attempt,
			"backoff": backoff.String(),
		})
	}
	return cfg
}

// stage runs fn inside a child span named after the stage.
func stage[T any](ctx context.Context, name string, fn func(ctx context.Context) (T, error)) (T, error) {
	ctx, span := observability.StartSpan(ctx, "worker.stage."+name)
	defer span.End()
	v, err := fn(ctx)
	if err != nil {
		observability.SetSpanError(ctx, err)
	}
	return v, err
}
