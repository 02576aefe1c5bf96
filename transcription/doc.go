// Package transcription turns audio chunks into text.
//
// A single Provider is chosen at startup from configuration:
//
//   - transcription/remote: OpenAI-compatible audio API (Groq by default)
//   - transcription/selfhosted: whisper HTTP sidecar
//
// Provider failures are reported as *errors.AppError with a PROVIDER_*
// code. TranscribeChunks calls the provider once per chunk, in order, and
// joins the results; the first failure aborts the whole entry.
//
// # Usage
//
//	p, err := backend.New(cfg, log)
//	p = transcription.Chain(
//		transcription.WithLogging(log),
//		transcription.WithMetrics(metrics),
//	)(p)
//	text, err := transcription.TranscribeChunks(ctx, p, chunks)
package transcription
