package media

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	apperrors "github.com/nezhar/voicevault/errors"
	"github.com/nezhar/voicevault/logger"
	"github.com/nezhar/voicevault/process"
)

// Canonical audio encoding: mono 16 kHz mp3 at a constant 64 kbit/s.
const (
	CanonicalCodec      = "mp3"
	CanonicalChannels   = 1
	CanonicalSampleRate = 16000
	CanonicalBitRate    = 64000
	CanonicalMimeType   = "audio/mpeg"
	CanonicalExt        = ".mp3"
)

// DurationTolerance is the largest duration change normalization may cause.
const DurationTolerance = 50 * time.Millisecond

// Audio is a canonical audio file on disk.
type Audio struct {
	Path     string
	Duration time.Duration
	Size     int64
}

// Normalizer converts arbitrary media into canonical audio.
type Normalizer struct {
	runner process.Runner
	ffmpeg string
	probe  *Prober
	log    *logger.Logger
}

// NewNormalizer creates a Normalizer.
func NewNormalizer(cfg Config, runner process.Runner, log *logger.Logger) *Normalizer {
	cfg.ApplyDefaults()
	return &Normalizer{
		runner: runner,
		ffmpeg: cfg.FFmpegPath,
		probe:  NewProber(runner, cfg.FFprobePath),
		log:    log.WithComponent("normalizer"),
	}
}

// Normalize writes the canonical form of in to out. Input that is already
// canonical is copied unchanged, so normalizing twice yields identical bytes.
// The output must keep the input's duration within DurationTolerance.
func (n *Normalizer) Normalize(ctx context.Context, in, out string) (*Audio, error) {
	info, err := n.probe.Stream(ctx, in)
	if err != nil {
		return nil, apperrors.ConversionFailed("probe input stream", err)
	}
	// The audio track is the reference; a video container may run longer.
	inDur := info.Duration
	if inDur <= 0 {
		if inDur, err = n.probe.Duration(ctx, in); err != nil {
			return nil, apperrors.ConversionFailed("probe input duration", err)
		}
	}
	if inDur <= 0 {
		return nil, apperrors.ConversionFailed("input has no duration", nil)
	}

	log := n.log.WithContext(ctx)
	if info.IsCanonical() {
		if err := copyFile(in, out); err != nil {
			return nil, apperrors.ConversionFailed("copy canonical input", err)
		}
		log.Debug("Input already canonical, copied", map[string]interface{}{"duration_ms": inDur.Milliseconds()})
		return stat(out, inDur)
	}

	res, err := n.runner.Run(ctx, process.Command{
		Binary: n.ffmpeg,
		Args:   transcodeArgs(in, out),
	})
	if err != nil {
		return nil, apperrors.ConversionFailed("ffmpeg: "+res.StderrTail(1), err)
	}

	outDur, err := n.probe.Duration(ctx, out)
	if err != nil {
		return nil, apperrors.ConversionFailed("probe output duration", err)
	}
	if drift := (outDur - inDur).Abs(); drift > DurationTolerance {
		return nil, apperrors.ConversionFailed(
			fmt.Sprintf("duration changed by %s (input %s, output %s)", drift, inDur, outDur), nil)
	}

	log.Info("Audio normalized", map[string]interface{}{
		"codec":       info.Codec,
		"channels":    info.Channels,
		"sample_rate": info.SampleRate,
		"duration_ms": outDur.Milliseconds(),
	})
	return stat(out, outDur)
}

func transcodeArgs(in, out string) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-loglevel", "error",
		"-y",
		"-i", in,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "libmp3lame",
		"-b:a", "64k",
		out,
	}
}

func stat(path string, d time.Duration) (*Audio, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, apperrors.ConversionFailed("output missing", err)
	}
	if fi.Size() == 0 {
		return nil, apperrors.ConversionFailed("output is empty", nil)
	}
	return &Audio{Path: path, Duration: d, Size: fi.Size()}, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
