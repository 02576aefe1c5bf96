package worker

import (
	"context"
	"errors"
	"path"
	"path/filepath"
	"strings"

	"github.com/nezhar/voicevault/entry"
	apperrors "github.com/nezhar/voicevault/errors"
	"github.com/nezhar/voicevault/logger"
	"github.com/nezhar/voicevault/media"
	"github.com/nezhar/voicevault/storage"
	"github.com/nezhar/voicevault/transcription"
)

// transcribe normalizes the entry's file, transcribes it chunk by chunk and
// moves the entry to READY.
func (l *Loop) transcribe(ctx context.Context, e *entry.Entry, dir string, log *logger.Logger) (entry.Patch, error) {
	key := strings.TrimSpace(entry.Str(e.FilePath))
	if key == "" {
		return entry.Patch{}, apperrors.InvalidInput("file_path", "no file is available for transcription")
	}

	src := filepath.Join(dir, "source"+path.Ext(key))
	if _, err := stage(ctx, "load", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, l.fetchBlob(ctx, key, src, log)
	}); err != nil {
		return entry.Patch{}, err
	}

	audio, err := stage(ctx, "normalize", func(ctx context.Context) (*media.Audio, error) {
		return l.deps.Normalizer.Normalize(ctx, src, filepath.Join(dir, e.ID+media.CanonicalExt))
	})
	if err != nil {
		return entry.Patch{}, err
	}

	chunkDir := filepath.Join(dir, "chunks")
	chunks, err := stage(ctx, "chunk", func(ctx context.Context) ([]media.Chunk, error) {
		if err := mkdir(chunkDir); err != nil {
			return nil, err
		}
		return l.deps.Splitter.Split(ctx, audio, chunkDir)
	})
	if err != nil {
		return entry.Patch{}, err
	}
	l.deps.Metrics.Chunks(ctx, len(chunks))
	log.Info("Audio ready for transcription", map[string]interface{}{
		"chunks":      len(chunks),
		"bytes":       audio.Size,
		"duration_ms": audio.Duration.Milliseconds(),
	})

	text, err := stage(ctx, "transcribe", func(ctx context.Context) (string, error) {
		return transcription.TranscribeChunks(ctx, l.deps.Provider, chunks)
	})
	l.recordProvider(ctx, err)
	if err != nil {
		return entry.Patch{}, err
	}

	p := entry.Patch{Status: entry.StatusReady, Transcript: &text}
	if canonical := storage.CanonicalKey(e.ID); canonical != key {
		if err := l.upload(ctx, canonical, audio.Path, log); err != nil {
			log.WithError(err).Warn("Storing canonical audio failed, keeping the original file", map[string]interface{}{
				"key": canonical,
			})
		} else {
			p.FilePath = &canonical
		}
	}
	return p, nil
}

// recordProvider feeds the provider outcome into the gate. Cancellation
// says nothing about the provider and is not recorded.
func (l *Loop) recordProvider(ctx context.Context, err error) {
	if l.deps.Breaker == nil || ctx.Err() != nil {
		return
	}
	if errors.Is(err, context.Canceled) {
		return
	}
	l.deps.Breaker.Record(err)
}
