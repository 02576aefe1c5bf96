package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	apperrors "github.com/nezhar/voicevault/errors"
	"github.com/nezhar/voicevault/logger"
	"github.com/nezhar/voicevault/process"
)

// Span is a time range of the source audio.
type Span struct {
	Start    time.Duration
	Duration time.Duration
}

// End returns the exclusive end of the span.
func (s Span) End() time.Duration { return s.Start + s.Duration }

// Chunk is one cut of the canonical audio, small enough for a single
// transcription request.
type Chunk struct {
	Index    int
	Path     string
	Start    time.Duration
	Duration time.Duration
	Size     int64
}

// PlanChunks splits a file of size bytes and the given duration into spans
// whose expected size stays under limit. Sizing targets 90% of the limit to
// absorb bitrate variation. Spans have equal duration, with the nanosecond
// remainder spread over the first spans, and tile [0, duration) exactly.
func PlanChunks(size int64, duration time.Duration, limit int64) []Span {
	if duration <= 0 || limit <= 0 {
		return nil
	}
	if size <= limit {
		return []Span{{Start: 0, Duration: duration}}
	}

	target := limit * 9 / 10
	if target <= 0 {
		target = 1
	}
	n := (size + target - 1) / target

	base := duration / time.Duration(n)
	rem := duration % time.Duration(n)

	spans := make([]Span, 0, n)
	var start time.Duration
	for i := int64(0); i < n; i++ {
		d := base
		if time.Duration(i) < rem {
			d++
		}
		spans = append(spans, Span{Start: start, Duration: d})
		start += d
	}
	return spans
}

// Chunker cuts canonical audio into transcription-sized chunks.
type Chunker struct {
	runner process.Runner
	ffmpeg string
	limit  int64
	log    *logger.Logger
}

// NewChunker creates a Chunker.
func NewChunker(cfg Config, runner process.Runner, log *logger.Logger) *Chunker {
	cfg.ApplyDefaults()
	return &Chunker{
		runner: runner,
		ffmpeg: cfg.FFmpegPath,
		limit:  cfg.ChunkSizeLimit,
		log:    log.WithComponent("chunker"),
	}
}

// Limit returns the configured chunk size limit.
func (c *Chunker) Limit() int64 { return c.limit }

// Split cuts audio into chunks under dir, in order. Audio within the limit
// is returned as a single chunk without copying.
func (c *Chunker) Split(ctx context.Context, audio *Audio, dir string) ([]Chunk, error) {
	if audio.Duration <= 0 {
		return nil, apperrors.ChunkingFailed("audio has zero duration", nil)
	}

	spans := PlanChunks(audio.Size, audio.Duration, c.limit)
	if len(spans) == 1 {
		return []Chunk{{Index: 0, Path: audio.Path, Start: 0, Duration: audio.Duration, Size: audio.Size}}, nil
	}

	chunks := make([]Chunk, 0, len(spans))
	for i, span := range spans {
		out := filepath.Join(dir, fmt.Sprintf("chunk_%03d%s", i, CanonicalExt))
		res, err := c.runner.Run(ctx, process.Command{
			Binary: c.ffmpeg,
			Args:   cutArgs(audio.Path, out, span),
		})
		if err != nil {
			return nil, apperrors.ChunkingFailed(fmt.Sprintf("cut chunk %d: %s", i, res.StderrTail(1)), err)
		}

		fi, err := os.Stat(out)
		if err != nil {
			return nil, apperrors.ChunkingFailed(fmt.Sprintf("chunk %d missing", i), err)
		}
		if fi.Size() == 0 {
			return nil, apperrors.ChunkingFailed(fmt.Sprintf("chunk %d is empty", i), nil)
		}
		if fi.Size() > c.limit {
			return nil, apperrors.ChunkingFailed(
				fmt.Sprintf("chunk %d is %d bytes, over the %d byte limit", i, fi.Size(), c.limit), nil)
		}

		chunks = append(chunks, Chunk{
			Index:    i,
			Path:     out,
			Start:    span.Start,
			Duration: span.Duration,
			Size:     fi.Size(),
		})
	}

	c.log.WithContext(ctx).Info("Audio split into chunks", map[string]interface{}{
		"chunks":      len(chunks),
		"bytes":       audio.Size,
		"duration_ms": audio.Duration.Milliseconds(),
	})
	return chunks, nil
}

func cutArgs(in, out string, span Span) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-loglevel", "error",
		"-y",
		"-ss", seconds(span.Start),
		"-t", seconds(span.Duration),
		"-i", in,
		"-c", "copy",
		out,
	}
}

func seconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 6, 64)
}
