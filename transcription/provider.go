package transcription

import (
	"context"
	"io"
)

// Provider is the interface that transcription backends implement.
type Provider interface {
	// Name identifies the backend in logs, metrics and error details.
	Name() string
	// IsAvailable reports whether the backend is reachable.
	IsAvailable(ctx context.Context) bool
	// Transcribe recognizes the speech in one audio chunk.
	Transcribe(ctx context.Context, req Request) (*Response, error)
}

// Request holds one audio chunk to transcribe.
type Request struct {
	// Audio is read once and not closed by the provider.
	Audio    io.Reader
	Filename string
	MimeType string
	// Size is the chunk size in bytes, reported when the provider rejects it.
	Size int64
	// Language overrides the configured language when set.
	Language string
}

// Response holds the result of a transcription call.
type Response struct {
	Text     string    `json:"text"`
	Segments []Segment `json:"segments,omitempty"`
	// Duration is the audio duration in seconds, when the backend reports it.
	Duration float64 `json:"duration,omitempty"`
	Language string  `json:"language,omitempty"`
}

// Segment is a time-aligned portion of a transcript.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}
