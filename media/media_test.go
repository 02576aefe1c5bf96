package media

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/nezhar/voicevault/errors"
	"github.com/nezhar/voicevault/logger"
)

func testConfig(limit int64) Config {
	return Config{ChunkSizeLimit: limit}
}

func TestPlanChunksSingleSpan(t *testing.T) {
	spans := PlanChunks(100, 90*time.Second, 100)
	require.Len(t, spans, 1)
	assert.Equal(t, Span{Start: 0, Duration: 90 * time.Second}, spans[0])
}

func TestPlanChunksThirtyOfTwentyFive(t *testing.T) {
	const mb = 1 << 20
	spans := PlanChunks(30*mb, 40*time.Minute, 25*mb)
	require.Len(t, spans, 2)
	assert.Equal(t, 20*time.Minute, spans[0].Duration)
	assert.Equal(t, 20*time.Minute, spans[1].Start)
}

func TestPlanChunksDegenerateInput(t *testing.T) {
	assert.Nil(t, PlanChunks(100, 0, 10))
	assert.Nil(t, PlanChunks(100, time.Second, 0))
}

func TestPlanChunksTilesDuration(t *testing.T) {
	sizes := []int64{101, 999, 1000, 1001, 4567, 123457, 10_000_000}
	durations := []time.Duration{time.Second, 7*time.Second + 3, 61 * time.Minute, 3*time.Hour + 17*time.Millisecond}
	limits := []int64{100, 250, 1000}

	for _, size := range sizes {
		for _, d := range durations {
			for _, limit := range limits {
				spans := PlanChunks(size, d, limit)
				require.NotEmpty(t, spans)

				var cursor time.Duration
				minD, maxD := spans[0].Duration, spans[0].Duration
				for _, s := range spans {
					if s.Start != cursor {
						t.Fatalf("gap or overlap at %s (size=%d d=%s limit=%d)", cursor, size, d, limit)
					}
					cursor = s.End()
					minD = min(minD, s.Duration)
					maxD = max(maxD, s.Duration)
				}
				assert.Equal(t, d, cursor, "spans must end at the duration")
				assert.LessOrEqual(t, maxD-minD, time.Duration(1), "no degenerate tail")

				if size > limit {
					// Expected bytes per span at a constant bitrate.
					perSpan := float64(size) * float64(maxD) / float64(d)
					assert.LessOrEqual(t, perSpan, float64(limit)*0.9+1)
				}
			}
		}
	}
}

func TestPlanChunksDeterministic(t *testing.T) {
	a := PlanChunks(5000, 17*time.Minute, 700)
	b := PlanChunks(5000, 17*time.Minute, 700)
	assert.Equal(t, a, b)
}

func TestParseDuration(t *testing.T) {
	d, err := parseDuration("12.500000\n")
	require.NoError(t, err)
	assert.Equal(t, 12500*time.Millisecond, d)

	for _, bad := range []string{"N/A", "", "-1"} {
		_, err := parseDuration(bad)
		assert.Error(t, err, bad)
	}
}

func TestNormalizeTranscodes(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.webm")
	writeFakeMedia(t, in, fakeMedia{Codec: "opus", Channels: 2, Rate: 48000, BitRate: 128000, Seconds: 12.5}, 4096)

	tools := &fakeTools{bytesPerSecond: 100}
	n := NewNormalizer(testConfig(1000), tools, logger.Nop())

	audio, err := n.Normalize(context.Background(), in, filepath.Join(dir, "out.mp3"))
	require.NoError(t, err)
	assert.Equal(t, 12500*time.Millisecond, audio.Duration)
	assert.Equal(t, int64(1250), audio.Size)

	calls := tools.ffmpegCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, transcodeArgs(in, audio.Path), calls[0].Args)

	got, err := readFakeMedia(audio.Path)
	require.NoError(t, err)
	assert.Equal(t, "mp3", got.Codec)
	assert.Equal(t, 1, got.Channels)
	assert.Equal(t, 16000, got.Rate)
}

func TestNormalizeIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.m4a")
	writeFakeMedia(t, in, fakeMedia{Codec: "aac", Channels: 2, Rate: 44100, BitRate: 192000, Seconds: 30}, 2048)

	tools := &fakeTools{bytesPerSecond: 50}
	n := NewNormalizer(testConfig(1000), tools, logger.Nop())
	ctx := context.Background()

	first, err := n.Normalize(ctx, in, filepath.Join(dir, "once.mp3"))
	require.NoError(t, err)
	second, err := n.Normalize(ctx, first.Path, filepath.Join(dir, "twice.mp3"))
	require.NoError(t, err)

	a, _ := os.ReadFile(first.Path)
	b, _ := os.ReadFile(second.Path)
	assert.True(t, bytes.Equal(a, b), "normalizing canonical audio must not change it")
	assert.Equal(t, first.Duration, second.Duration)
	assert.Len(t, tools.ffmpegCalls(), 1, "canonical input is copied, not transcoded")
}

func TestNormalizeRejectsDurationDrift(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.wav")
	writeFakeMedia(t, in, fakeMedia{Codec: "pcm_s16le", Channels: 1, Rate: 16000, Seconds: 10}, 512)

	tools := &fakeTools{bytesPerSecond: 10, drift: 0.2}
	n := NewNormalizer(testConfig(1000), tools, logger.Nop())

	_, err := n.Normalize(context.Background(), in, filepath.Join(dir, "out.mp3"))
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeConversionFailed))

	tools.drift = 0.04
	_, err = n.Normalize(context.Background(), in, filepath.Join(dir, "out.mp3"))
	assert.NoError(t, err, "drift within tolerance is accepted")
}

func TestNormalizeMeasuresAudioTrack(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.mp4")
	// The video track outlasts the audio by two seconds.
	writeFakeMedia(t, in, fakeMedia{Codec: "aac", Channels: 2, Rate: 48000, BitRate: 128000, Seconds: 12, AudioSeconds: 10}, 1024)

	tools := &fakeTools{bytesPerSecond: 10}
	n := NewNormalizer(testConfig(1000), tools, logger.Nop())

	audio, err := n.Normalize(context.Background(), in, filepath.Join(dir, "out.mp3"))
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, audio.Duration)

	tools.drift = 0.2
	_, err = n.Normalize(context.Background(), in, filepath.Join(dir, "out.mp3"))
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeConversionFailed), "drift is measured against the audio track")
}

func TestNormalizeFailures(t *testing.T) {
	dir := t.TempDir()
	corrupt := filepath.Join(dir, "corrupt.bin")
	require.NoError(t, os.WriteFile(corrupt, []byte("not media"), 0o600))

	n := NewNormalizer(testConfig(1000), &fakeTools{bytesPerSecond: 10}, logger.Nop())
	_, err := n.Normalize(context.Background(), corrupt, filepath.Join(dir, "out.mp3"))
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeConversionFailed))

	in := filepath.Join(dir, "in.ogg")
	writeFakeMedia(t, in, fakeMedia{Codec: "vorbis", Channels: 2, Rate: 44100, Seconds: 3}, 64)
	failing := NewNormalizer(testConfig(1000), &fakeTools{failFFmpeg: true}, logger.Nop())
	_, err = failing.Normalize(context.Background(), in, filepath.Join(dir, "out.mp3"))
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeConversionFailed, appErr.Code)
	assert.Contains(t, appErr.Details["reason"], "Invalid data found")
	assert.NotContains(t, appErr.Message, dir, "user message must not leak paths")

	silent := filepath.Join(dir, "silent.mp3")
	writeFakeMedia(t, silent, fakeMedia{Codec: "mp3", Channels: 1, Rate: 16000, BitRate: 64000, Seconds: 0}, 64)
	_, err = n.Normalize(context.Background(), silent, filepath.Join(dir, "out2.mp3"))
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeConversionFailed))
}

func TestSplitWithinLimitIsSingleChunk(t *testing.T) {
	tools := &fakeTools{bytesPerSecond: 10}
	c := NewChunker(testConfig(1000), tools, logger.Nop())
	audio := &Audio{Path: "/tmp/x.mp3", Duration: time.Minute, Size: 600}

	chunks, err := c.Split(context.Background(), audio, t.TempDir())
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, audio.Path, chunks[0].Path)
	assert.Empty(t, tools.ffmpegCalls())
}

func TestSplitCoversAudio(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "canonical.mp3")
	m := canonicalMedia
	m.Seconds = 300
	writeFakeMedia(t, src, m, 3000)

	tools := &fakeTools{bytesPerSecond: 10}
	c := NewChunker(testConfig(1000), tools, logger.Nop())
	audio := &Audio{Path: src, Duration: 300 * time.Second, Size: 3000}

	chunks, err := c.Split(context.Background(), audio, dir)
	require.NoError(t, err)
	require.Len(t, chunks, 4) // ceil(3000 / 900)

	var total time.Duration
	for i, ch := range chunks {
		assert.Equal(t, i, ch.Index)
		assert.Equal(t, total, ch.Start)
		assert.LessOrEqual(t, ch.Size, c.Limit())
		assert.FileExists(t, ch.Path)
		total += ch.Duration
	}
	assert.Equal(t, audio.Duration, total)

	calls := tools.ffmpegCalls()
	require.Len(t, calls, 4)
	assert.Equal(t, "75.000000", argValue(calls[1].Args, "-ss"))
	assert.Equal(t, "75.000000", argValue(calls[1].Args, "-t"))
}

func TestSplitRejectsOversizedChunk(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "canonical.mp3")
	m := canonicalMedia
	m.Seconds = 100
	writeFakeMedia(t, src, m, 2000)

	tools := &fakeTools{bytesPerSecond: 20, chunkSize: 1500}
	c := NewChunker(testConfig(1000), tools, logger.Nop())

	_, err := c.Split(context.Background(), &Audio{Path: src, Duration: 100 * time.Second, Size: 2000}, dir)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeChunkingFailed))
}

func TestSplitZeroDuration(t *testing.T) {
	c := NewChunker(testConfig(1000), &fakeTools{}, logger.Nop())
	_, err := c.Split(context.Background(), &Audio{Path: "x", Size: 5000}, t.TempDir())
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeChunkingFailed))
}

func TestSplitFFmpegFailure(t *testing.T) {
	c := NewChunker(testConfig(1000), &fakeTools{failFFmpeg: true}, logger.Nop())
	_, err := c.Split(context.Background(), &Audio{Path: "x", Duration: time.Minute, Size: 5000}, t.TempDir())
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeChunkingFailed))
}

func TestStreamInfoCanonical(t *testing.T) {
	assert.True(t, StreamInfo{Codec: "mp3", Channels: 1, SampleRate: 16000, BitRate: 64000}.IsCanonical())
	assert.False(t, StreamInfo{Codec: "mp3", Channels: 2, SampleRate: 16000, BitRate: 64000}.IsCanonical())
	assert.False(t, StreamInfo{Codec: "mp3", Channels: 1, SampleRate: 16000}.IsCanonical())
}
