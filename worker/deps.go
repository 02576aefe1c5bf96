package worker

import (
	"context"
	"errors"
	"time"

	"github.com/nezhar/voicevault/entry"
	apperrors "github.com/nezhar/voicevault/errors"
	"github.com/nezhar/voicevault/fetcher"
	"github.com/nezhar/voicevault/logger"
	"github.com/nezhar/voicevault/media"
	"github.com/nezhar/voicevault/observability"
	"github.com/nezhar/voicevault/resilience"
	"github.com/nezhar/voicevault/storage"
	"github.com/nezhar/voicevault/transcription"
)

// Normalizer converts media into canonical audio.
type Normalizer interface {
	Normalize(ctx context.Context, in, out string) (*media.Audio, error)
}

// Splitter cuts canonical audio into transcription-sized chunks.
type Splitter interface {
	Split(ctx context.Context, audio *media.Audio, dir string) ([]media.Chunk, error)
}

// Deps are the collaborators of a Loop. Store and Blobs are always
// required; Fetcher is required in download mode; Normalizer, Splitter and
// Provider in transcribe mode.
type Deps struct {
	Store entry.Store
	Blobs storage.Storage

	Fetcher fetcher.Resolver

	Normalizer Normalizer
	Splitter   Splitter
	Provider   transcription.Provider
	// Breaker gates claiming on provider health. Optional.
	Breaker *resilience.CircuitBreaker

	Metrics *observability.Metrics
	Logger  *logger.Logger
	// Owner identifies this worker in leases. Generated when empty.
	Owner string
	// Clock overrides time.Now for job durations.
	Clock func() time.Time
}

func (d *Deps) check(mode Mode) error {
	var missing []error
	need := func(ok bool, name string) {
		if !ok {
			missing = append(missing, errors.New(name+" is required"))
		}
	}
	need(d.Store != nil, "store")
	need(d.Blobs != nil, "blob storage")
	switch mode {
	case ModeDownload:
		need(d.Fetcher != nil, "fetcher")
	case ModeTranscribe:
		need(d.Normalizer != nil, "normalizer")
		need(d.Splitter != nil, "splitter")
		need(d.Provider != nil, "transcription provider")
	}
	return errors.Join(missing...)
}

func (d *Deps) applyDefaults() {
	if d.Metrics == nil {
		d.Metrics = observability.NopMetrics()
	}
	if d.Logger == nil {
		d.Logger = logger.Nop()
	}
	if d.Clock == nil {
		d.Clock = time.Now
	}
}

// NewBreaker builds the provider gate from cfg. Only outages trip it:
// credential, throttling, timeout and availability failures. A bad chunk
// does not.
func NewBreaker(cfg BreakerConfig, log *logger.Logger) *resilience.CircuitBreaker {
	log = log.WithComponent("worker")
	return resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Name:             "transcription",
		MaxFailures:      cfg.MaxFailures,
		Timeout:          cfg.Cooldown,
		HalfOpenMaxCalls: 1,
		IsFailure:        isProviderOutage,
		OnStateChange: func(name string, from, to resilience.State) {
			log.Warn("Provider gate changed state", map[string]interface{}{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
		},
	})
}

func isProviderOutage(err error) bool {
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		return false
	}
	switch appErr.Code {
	case apperrors.ErrCodeProviderAuth,
		apperrors.ErrCodeProviderRateLimited,
		apperrors.ErrCodeProviderTimeout,
		apperrors.ErrCodeProviderUnavailable:
		return true
	}
	return false
}
