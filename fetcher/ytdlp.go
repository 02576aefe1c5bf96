package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	apperrors "github.com/nezhar/voicevault/errors"
	"github.com/nezhar/voicevault/logger"
	"github.com/nezhar/voicevault/process"
)

// outputBase is the file name yt-dlp writes to, before the extension.
const outputBase = "media"

// YTDLP downloads from video platforms with yt-dlp.
type YTDLP struct {
	cfg    Config
	runner process.Runner
	log    *logger.Logger
}

var _ Resolver = (*YTDLP)(nil)

// NewYTDLP creates a yt-dlp resolver.
func NewYTDLP(cfg Config, runner process.Runner, log *logger.Logger) *YTDLP {
	cfg.ApplyDefaults()
	return &YTDLP{cfg: cfg, runner: runner, log: log.WithComponent("ytdlp")}
}

// ytInfo is the subset of yt-dlp's info JSON the worker reads.
type ytInfo struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Ext      string `json:"ext"`
	Filename string `json:"_filename"`
}

// Resolve runs yt-dlp and returns the extracted audio.
func (y *YTDLP) Resolve(ctx context.Context, rawURL, dir string) (*Media, error) {
	log := y.log.WithContext(ctx)

	res, err := y.runner.Run(ctx, process.Command{Binary: y.cfg.YTDLPPath, Args: y.args(rawURL, dir)})
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("yt-dlp: %w", ctx.Err())
		}
		if errors.Is(err, process.ErrBinaryNotFound) {
			return nil, apperrors.Internal(err)
		}
		log.Warn("yt-dlp failed", map[string]interface{}{
			"error":  err.Error(),
			"stderr": res.StderrTail(5),
		})
		return nil, ClassifyYTDLP(output(res), y.cfg.MaxFileSize, err)
	}

	path, err := findOutput(dir)
	if err != nil {
		// yt-dlp exits 0 when it skips a file over --max-filesize.
		if classified := ClassifyYTDLP(output(res), y.cfg.MaxFileSize, err); !apperrors.HasCode(classified, apperrors.ErrCodeFetchNetwork) {
			return nil, classified
		}
		return nil, apperrors.FetchNetwork(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, apperrors.FetchNetwork(err)
	}
	if info.Size() > y.cfg.MaxFileSize {
		return nil, apperrors.FetchTooLarge(y.cfg.MaxFileSize)
	}

	title := parseInfo(res.Stdout).Title
	media := &Media{
		Path:     path,
		Filename: filenameFor(title, filepath.Ext(path)),
		Title:    strings.TrimSpace(title),
		Size:     info.Size(),
	}
	log.Info("Media downloaded", map[string]interface{}{
		"filename": media.Filename,
		"size":     media.Size,
	})
	return media, nil
}

func (y *YTDLP) args(rawURL, dir string) []string {
	args := []string{
		"--format", "bestaudio/best",
		"--no-playlist",
		"--extract-audio",
		"--audio-format", "mp3",
		"--max-filesize", strconv.FormatInt(y.cfg.MaxFileSize, 10),
		"--socket-timeout", strconv.Itoa(int(y.cfg.SocketTimeout.Seconds())),
		"--no-progress",
		"--print-json",
		"--output", filepath.Join(dir, outputBase+".%(ext)s"),
	}
	if y.cfg.CookiesFile != "" {
		if _, err := os.Stat(y.cfg.CookiesFile); err == nil {
			args = append(args, "--cookies", y.cfg.CookiesFile)
		}
	}
	return append(args, "--", rawURL)
}

// findOutput returns the finished file yt-dlp wrote into dir.
func findOutput(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, outputBase+".*"))
	if err != nil {
		return "", err
	}
	for _, m := range matches {
		switch filepath.Ext(m) {
		case ".part", ".ytdl", ".json", ".temp":
			continue
		}
		return m, nil
	}
	return "", errors.New("yt-dlp produced no output file")
}

// parseInfo reads the last JSON object yt-dlp printed.
func parseInfo(stdout []byte) ytInfo {
	lines := bytes.Split(bytes.TrimSpace(stdout), []byte("\n"))
	for i := len(lines) - 1; i >= 0; i-- {
		line := bytes.TrimSpace(lines[i])
		if len(line) == 0 || line[0] != '{' {
			continue
		}
		var info ytInfo
		if json.Unmarshal(line, &info) == nil {
			return info
		}
	}
	return ytInfo{}
}

func output(res *process.Result) string {
	if res == nil {
		return ""
	}
	return string(res.Stderr) + "\n" + string(res.Stdout)
}

var (
	accessDeniedPatterns = []string{
		"sign in to confirm",
		"private video",
		"this video is private",
		"video unavailable",
		"members-only",
		"--cookies for the authentication",
		"http error 401",
		"http error 403",
	}
	unsupportedPatterns = []string{
		"unsupported url",
		"is not a valid url",
	}
	tooLargePatterns = []string{
		"larger than max-filesize",
		"file is larger than",
	}
)

// ClassifyYTDLP maps yt-dlp output onto the fetch error codes. Anything not
// recognized is treated as a network failure. limit is the size cap that
// was passed to yt-dlp.
func ClassifyYTDLP(out string, limit int64, cause error) *apperrors.AppError {
	lower := strings.ToLower(out)
	switch {
	case containsAny(lower, tooLargePatterns):
		return apperrors.FetchTooLarge(limit).WithCause(cause)
	case containsAny(lower, accessDeniedPatterns):
		return apperrors.FetchAccessDenied(cause)
	case containsAny(lower, unsupportedPatterns):
		return apperrors.FetchUnsupported("").WithCause(cause)
	default:
		return apperrors.FetchNetwork(cause)
	}
}

func containsAny(s string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
