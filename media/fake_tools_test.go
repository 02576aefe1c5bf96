package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/nezhar/voicevault/process"
)

// fakeMedia is the header the fake tools write at the start of each file.
type fakeMedia struct {
	Codec    string
	Channels int
	Rate     int
	BitRate  int64
	Seconds  float64

	// AudioSeconds is the audio stream duration; zero reports "N/A".
	AudioSeconds float64
}

func (m fakeMedia) header() string {
	return fmt.Sprintf("%s %d %d %d %f %f\n", m.Codec, m.Channels, m.Rate, m.BitRate, m.Seconds, m.AudioSeconds)
}

var canonicalMedia = fakeMedia{Codec: "mp3", Channels: 1, Rate: 16000, BitRate: 64000}

func writeFakeMedia(t *testing.T, path string, m fakeMedia, size int64) {
	t.Helper()
	if err := os.WriteFile(path, padded(m.header(), size), 0o600); err != nil {
		t.Fatal(err)
	}
}

func padded(header string, size int64) []byte {
	if size < int64(len(header)) {
		size = int64(len(header))
	}
	data := make([]byte, size)
	copy(data, header)
	return data
}

func readFakeMedia(path string) (fakeMedia, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return fakeMedia{}, err
	}
	line, _, _ := strings.Cut(string(data), "\n")
	var m fakeMedia
	if _, err := fmt.Sscanf(line, "%s %d %d %d %f %f", &m.Codec, &m.Channels, &m.Rate, &m.BitRate, &m.Seconds, &m.AudioSeconds); err != nil {
		return fakeMedia{}, fmt.Errorf("corrupt media: %w", err)
	}
	return m, nil
}

// fakeTools emulates ffmpeg and ffprobe over fakeMedia files.
type fakeTools struct {
	mu sync.Mutex

	// bytesPerSecond sizes ffmpeg outputs.
	bytesPerSecond float64
	// drift is added to transcoded durations.
	drift float64
	// failFFmpeg makes every ffmpeg call exit non-zero.
	failFFmpeg bool
	// chunkSize overrides the size of cut chunks when non-zero.
	chunkSize int64

	calls []process.Command
}

func (f *fakeTools) ffmpegCalls() []process.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []process.Command
	for _, c := range f.calls {
		if c.Binary == "ffmpeg" {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeTools) Run(_ context.Context, cmd process.Command) (*process.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, cmd)
	f.mu.Unlock()

	switch cmd.Binary {
	case "ffprobe":
		return f.probe(cmd.Args)
	case "ffmpeg":
		return f.ffmpeg(cmd.Args)
	}
	return nil, fmt.Errorf("%w: %s", process.ErrBinaryNotFound, cmd.Binary)
}

func (f *fakeTools) probe(args []string) (*process.Result, error) {
	m, err := readFakeMedia(args[len(args)-1])
	if err != nil {
		return &process.Result{ExitCode: 1}, errors.New("exit status 1")
	}
	if argValue(args, "-show_entries") == "format=duration" {
		return &process.Result{Stdout: []byte(strconv.FormatFloat(m.Seconds, 'f', 6, 64) + "\n")}, nil
	}
	dur := "N/A"
	if m.AudioSeconds > 0 {
		dur = strconv.FormatFloat(m.AudioSeconds, 'f', 6, 64)
	}
	out := fmt.Sprintf(`{"programs":[],"streams":[{"codec_name":%q,"channels":%d,"sample_rate":"%d","bit_rate":"%d","duration":%q}]}`,
		m.Codec, m.Channels, m.Rate, m.BitRate, dur)
	return &process.Result{Stdout: []byte(out)}, nil
}

func (f *fakeTools) ffmpeg(args []string) (*process.Result, error) {
	if f.failFFmpeg {
		return &process.Result{ExitCode: 1, Stderr: []byte("banner\nin.bin: Invalid data found when processing input\n")},
			errors.New("exit status 1")
	}
	in, out := argValue(args, "-i"), args[len(args)-1]
	src, err := readFakeMedia(in)
	if err != nil {
		return &process.Result{ExitCode: 1}, err
	}

	dst := canonicalMedia
	size := int64(0)
	if argValue(args, "-c") == "copy" {
		dur, _ := strconv.ParseFloat(argValue(args, "-t"), 64)
		dst.Seconds = dur
		dst.AudioSeconds = dur
		size = int64(dur * f.bytesPerSecond)
		if f.chunkSize > 0 {
			size = f.chunkSize
		}
	} else {
		// ffmpeg -vn keeps only the audio track.
		dst.Seconds = src.Seconds + f.drift
		if src.AudioSeconds > 0 {
			dst.Seconds = src.AudioSeconds + f.drift
		}
		dst.AudioSeconds = dst.Seconds
		size = int64(dst.Seconds * f.bytesPerSecond)
	}
	if err := os.WriteFile(out, padded(dst.header(), size), 0o600); err != nil {
		return &process.Result{ExitCode: 1}, err
	}
	return &process.Result{}, nil
}

func argValue(args []string, flag string) string {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}
