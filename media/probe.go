package media

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nezhar/voicevault/process"
)

// StreamInfo describes the first audio stream of a file.
type StreamInfo struct {
	Codec      string
	Channels   int
	SampleRate int
	BitRate    int64

	// Duration is zero when the container does not report one per stream.
	Duration time.Duration
}

// IsCanonical reports whether the stream already has the canonical encoding.
func (s StreamInfo) IsCanonical() bool {
	return s.Codec == CanonicalCodec &&
		s.Channels == CanonicalChannels &&
		s.SampleRate == CanonicalSampleRate &&
		s.BitRate == CanonicalBitRate
}

// Prober reads media metadata with ffprobe.
type Prober struct {
	runner process.Runner
	binary string
}

// NewProber creates a Prober running binary through runner.
func NewProber(runner process.Runner, binary string) *Prober {
	return &Prober{runner: runner, binary: binary}
}

// Duration returns the container duration of path.
func (p *Prober) Duration(ctx context.Context, path string) (time.Duration, error) {
	res, err := p.runner.Run(ctx, process.Command{
		Binary: p.binary,
		Args: []string{
			"-v", "quiet",
			"-show_entries", "format=duration",
			"-of", "default=noprint_wrappers=1:nokey=1",
			path,
		},
	})
	if err != nil {
		return 0, fmt.Errorf("ffprobe duration: %w", err)
	}
	return parseDuration(string(res.Stdout))
}

func parseDuration(out string) (time.Duration, error) {
	raw := strings.TrimSpace(out)
	secs, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe duration: unparseable %q", raw)
	}
	if secs < 0 {
		return 0, fmt.Errorf("ffprobe duration: negative %q", raw)
	}
	return time.Duration(secs * float64(time.Second)), nil
}

type ffprobeStreams struct {
	Streams []struct {
		CodecName  string `json:"codec_name"`
		Channels   int    `json:"channels"`
		SampleRate string `json:"sample_rate"`
		BitRate    string `json:"bit_rate"`
		Duration   string `json:"duration"`
	} `json:"streams"`
}

// Stream returns the encoding of the first audio stream in path.
func (p *Prober) Stream(ctx context.Context, path string) (*StreamInfo, error) {
	res, err := p.runner.Run(ctx, process.Command{
		Binary: p.binary,
		Args: []string{
			"-v", "quiet",
			"-select_streams", "a:0",
			"-show_entries", "stream=codec_name,channels,sample_rate,bit_rate,duration",
			"-of", "json",
			path,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("ffprobe stream: %w", err)
	}

	var out ffprobeStreams
	if err := json.Unmarshal(res.Stdout, &out); err != nil {
		return nil, fmt.Errorf("ffprobe stream: decode: %w", err)
	}
	if len(out.Streams) == 0 {
		return nil, fmt.Errorf("ffprobe stream: no audio stream")
	}

	s := out.Streams[0]
	info := &StreamInfo{Codec: s.CodecName, Channels: s.Channels}
	// Missing or "N/A" values stay zero and simply fail the canonical check.
	info.SampleRate, _ = strconv.Atoi(s.SampleRate)
	info.BitRate, _ = strconv.ParseInt(s.BitRate, 10, 64)
	if s.Duration != "" {
		info.Duration, _ = parseDuration(s.Duration)
	}
	return info, nil
}
