// Package observability wires OpenTelemetry tracing and metrics for the
// worker. When disabled, the global no-op providers stay in place and every
// instrument is still safe to call.
//
//	obs := observability.NewComponent(cfg, "voicevault-worker", version.Version, "production", log)
//	app.RegisterComponent(obs)
//
//	ctx, span := observability.StartSpan(ctx, "worker.transcribe")
//	defer span.End()
//	obs.Metrics().JobCompleted(ctx, "transcribe", time.Since(start))
package observability
