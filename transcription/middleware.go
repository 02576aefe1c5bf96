package transcription

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	apperrors "github.com/nezhar/voicevault/errors"
	"github.com/nezhar/voicevault/logger"
	"github.com/nezhar/voicevault/observability"
	"github.com/nezhar/voicevault/resilience"
)

// Middleware wraps a Provider with cross-cutting behavior.
type Middleware func(Provider) Provider

// Chain composes middlewares. The first is outermost:
// Chain(a, b, c)(p) is a(b(c(p))).
func Chain(middlewares ...Middleware) Middleware {
	return func(inner Provider) Provider {
		for i := len(middlewares) - 1; i >= 0; i-- {
			inner = middlewares[i](inner)
		}
		return inner
	}
}

// wrapped delegates identity to inner and replaces Transcribe.
type wrapped struct {
	inner      Provider
	transcribe func(ctx context.Context, req Request) (*Response, error)
}

func (w *wrapped) Name() string                         { return w.inner.Name() }
func (w *wrapped) IsAvailable(ctx context.Context) bool { return w.inner.IsAvailable(ctx) }
func (w *wrapped) Transcribe(ctx context.Context, req Request) (*Response, error) {
	return w.transcribe(ctx, req)
}

// WithLogging logs each call. A payload-too-large rejection is logged as a
// chunker defect.
func WithLogging(log *logger.Logger) Middleware {
	return func(inner Provider) Provider {
		log := log.WithComponent("transcription")
		return &wrapped{inner: inner, transcribe: func(ctx context.Context, req Request) (*Response, error) {
			start := time.Now()
			resp, err := inner.Transcribe(ctx, req)
			fields := map[string]interface{}{
				"provider":   inner.Name(),
				"filename":   req.Filename,
				"size_bytes": req.Size,
				"duration":   time.Since(start).String(),
			}
			l := log.WithContext(ctx)
			switch {
			case err == nil:
				fields["chars"] = len(resp.Text)
				l.Debug("Chunk transcribed", fields)
			case apperrors.HasCode(err, apperrors.ErrCodeProviderPayloadTooLarge):
				l.WithError(err).Error("Provider rejected chunk as too large; chunk size limit is misconfigured", fields)
			default:
				l.WithError(err).Warn("Transcription call failed", fields)
			}
			return resp, err
		}}
	}
}

// WithTracing opens a span around each call.
func WithTracing() Middleware {
	return func(inner Provider) Provider {
		return &wrapped{inner: inner, transcribe: func(ctx context.Context, req Request) (*Response, error) {
			ctx, span := observability.StartSpan(ctx, "transcription."+inner.Name(),
				attribute.String(observability.AttrProvider, inner.Name()),
				attribute.Int64("voicevault.chunk_size", req.Size),
			)
			defer span.End()

			resp, err := inner.Transcribe(ctx, req)
			if err != nil {
				if appErr, ok := apperrors.AsAppError(err); ok {
					span.SetAttributes(attribute.String(observability.AttrErrorCode, string(appErr.Code)))
				}
				observability.SetSpanError(ctx, err)
			}
			return resp, err
		}}
	}
}

// WithMetrics records call latency by provider and outcome.
func WithMetrics(metrics *observability.Metrics) Middleware {
	return func(inner Provider) Provider {
		return &wrapped{inner: inner, transcribe: func(ctx context.Context, req Request) (*Response, error) {
			start := time.Now()
			resp, err := inner.Transcribe(ctx, req)
			status := "ok"
			if err != nil {
				status = "error"
				if appErr, ok := apperrors.AsAppError(err); ok {
					status = string(appErr.Code)
				}
			}
			metrics.ProviderCall(ctx, inner.Name(), status, time.Since(start))
			return resp, err
		}}
	}
}

// WithRateLimit waits for a token before each call.
func WithRateLimit(limiter *resilience.RateLimiter) Middleware {
	return func(inner Provider) Provider {
		return &wrapped{inner: inner, transcribe: func(ctx context.Context, req Request) (*Response, error) {
			if err := limiter.Wait(ctx); err != nil {
				return nil, err
			}
			return inner.Transcribe(ctx, req)
		}}
	}
}
