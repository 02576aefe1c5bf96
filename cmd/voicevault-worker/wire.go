package main

import (
	"context"
	"fmt"

	"github.com/nezhar/voicevault/bootstrap"
	"github.com/nezhar/voicevault/component"
	"github.com/nezhar/voicevault/database"
	"github.com/nezhar/voicevault/entry"
	"github.com/nezhar/voicevault/fetcher"
	"github.com/nezhar/voicevault/media"
	"github.com/nezhar/voicevault/observability"
	"github.com/nezhar/voicevault/process"
	"github.com/nezhar/voicevault/resilience"
	"github.com/nezhar/voicevault/storage"
	_ "github.com/nezhar/voicevault/storage/local"
	_ "github.com/nezhar/voicevault/storage/minio"
	_ "github.com/nezhar/voicevault/storage/s3"
	"github.com/nezhar/voicevault/transcription"
	"github.com/nezhar/voicevault/transcription/backend"
	"github.com/nezhar/voicevault/worker"
)

// infra are the components that must be running before the loop is built.
type infra struct {
	telemetry *observability.Component
	db        *database.Component
	blobs     *storage.Component
}

func registerInfra(app *bootstrap.App[*workerConfig]) (*infra, error) {
	cfg := app.Cfg
	in := &infra{
		telemetry: observability.NewComponent(cfg.Observability, observability.ServiceInfo{
			Name:        cfg.Name,
			Version:     cfg.Version,
			Environment: cfg.Environment,
		}, app.Logger),
		db:    database.NewComponent(cfg.Database, app.Logger).WithAutoMigrate(&entry.Entry{}),
		blobs: storage.NewComponent(cfg.Storage, app.Logger),
	}
	for _, c := range []component.Component{in.telemetry, in.db, in.blobs} {
		if err := app.RegisterComponent(c); err != nil {
			return nil, err
		}
	}
	return in, nil
}

// requiredBinaries lists the external tools a mode shells out to.
func requiredBinaries(mode worker.Mode, cfg *workerConfig) []string {
	switch mode {
	case worker.ModeDownload:
		return []string{cfg.Fetcher.YTDLPPath}
	case worker.ModeTranscribe:
		return []string{cfg.Media.FFmpegPath, cfg.Media.FFprobePath}
	}
	return nil
}

// buildDeps assembles the loop's collaborators from the running
// infrastructure.
func buildDeps(mode worker.Mode, app *bootstrap.App[*workerConfig], in *infra) (worker.Deps, error) {
	cfg, log := app.Cfg, app.Logger
	metrics := in.telemetry.Metrics()
	runner := process.NewExecutor(cfg.Process, log)

	deps := worker.Deps{
		Store:   entry.NewGormStore(in.db.DB().GormDB),
		Blobs:   in.blobs.Storage(),
		Metrics: metrics,
		Logger:  log,
	}

	switch mode {
	case worker.ModeDownload:
		f, err := fetcher.New(cfg.Fetcher, runner, log)
		if err != nil {
			return deps, fmt.Errorf("fetcher: %w", err)
		}
		deps.Fetcher = f

	case worker.ModeTranscribe:
		deps.Normalizer = media.NewNormalizer(cfg.Media, runner, log)
		deps.Splitter = media.NewChunker(cfg.Media, runner, log)

		p, err := backend.New(cfg.Transcription, log)
		if err != nil {
			return deps, err
		}
		mws := []transcription.Middleware{
			transcription.WithLogging(log),
			transcription.WithTracing(),
			transcription.WithMetrics(metrics),
		}
		if rpm := cfg.Transcription.RequestsPerMinute; rpm > 0 {
			limiter := resilience.NewRateLimiter(resilience.PerMinute(cfg.Transcription.Provider, rpm))
			mws = append(mws, transcription.WithRateLimit(limiter))
		}
		deps.Provider = transcription.Chain(mws...)(p)
		deps.Breaker = worker.NewBreaker(cfg.Worker.Breaker, log)
	}
	return deps, nil
}

// probeProvider warns when the provider does not answer at startup. The
// worker still starts; the gate handles outages while running.
func probeProvider(ctx context.Context, deps worker.Deps, app *bootstrap.App[*workerConfig]) {
	if deps.Provider == nil {
		return
	}
	if !deps.Provider.IsAvailable(ctx) {
		app.Logger.Warn("Transcription provider is not reachable", map[string]interface{}{
			"provider": deps.Provider.Name(),
		})
	}
}
