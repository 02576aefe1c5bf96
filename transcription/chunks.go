package transcription

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	apperrors "github.com/nezhar/voicevault/errors"
	"github.com/nezhar/voicevault/media"
	"github.com/nezhar/voicevault/observability"
)

// AudioMimeType is the content type of canonical chunks.
const AudioMimeType = "audio/mpeg"

// TranscribeChunks transcribes chunks in order and joins the trimmed texts
// with single spaces. Calls share no context. The first failure is returned
// and no partial transcript is produced.
func TranscribeChunks(ctx context.Context, p Provider, chunks []media.Chunk) (string, error) {
	if len(chunks) == 0 {
		return "", apperrors.ChunkingFailed("no chunks to transcribe", nil)
	}

	texts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		text, err := transcribeChunk(ctx, p, c, len(chunks))
		if err != nil {
			return "", err
		}
		texts = append(texts, text)
	}

	transcript := Join(texts)
	if transcript == "" {
		return "", apperrors.ProviderInvalid(p.Name(), fmt.Errorf("empty transcript for %d chunks", len(chunks))).
			WithDetail("reason", "empty transcript")
	}
	return transcript, nil
}

func transcribeChunk(ctx context.Context, p Provider, c media.Chunk, total int) (string, error) {
	ctx, span := observability.StartSpan(ctx, "transcription.chunk",
		attribute.Int(observability.AttrChunkIndex, c.Index),
		attribute.Int(observability.AttrChunkCount, total),
	)
	defer span.End()

	f, err := os.Open(c.Path)
	if err != nil {
		err = apperrors.ChunkingFailed("chunk file missing", err)
		observability.SetSpanError(ctx, err)
		return "", err
	}
	defer f.Close()

	resp, err := p.Transcribe(ctx, Request{
		Audio:    f,
		Filename: filepath.Base(c.Path),
		MimeType: AudioMimeType,
		Size:     c.Size,
	})
	if err != nil {
		observability.SetSpanError(ctx, err)
		return "", fmt.Errorf("chunk %d/%d: %w", c.Index+1, total, err)
	}
	return resp.Text, nil
}

// Join concatenates texts in order with single spaces, skipping empty ones.
func Join(texts []string) string {
	parts := make([]string, 0, len(texts))
	for _, t := range texts {
		if t = strings.TrimSpace(t); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}
