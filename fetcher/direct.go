package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	apperrors "github.com/nezhar/voicevault/errors"
	"github.com/nezhar/voicevault/httpclient"
	"github.com/nezhar/voicevault/logger"
	"github.com/nezhar/voicevault/storage"
)

// Direct downloads a media file over HTTP(S).
type Direct struct {
	client  *httpclient.Client
	maxSize int64
	timeout time.Duration
	log     *logger.Logger
}

var _ Resolver = (*Direct)(nil)

// NewDirect creates a direct downloader.
func NewDirect(cfg Config, log *logger.Logger) (*Direct, error) {
	cfg.ApplyDefaults()
	client, err := httpclient.New(httpclient.Config{Timeout: cfg.DirectTimeout})
	if err != nil {
		return nil, err
	}
	return &Direct{
		client:  client,
		maxSize: cfg.MaxFileSize,
		timeout: cfg.DirectTimeout,
		log:     log.WithComponent("direct"),
	}, nil
}

// Resolve streams rawURL into dir, failing as soon as the body exceeds the
// size limit.
func (d *Direct) Resolve(ctx context.Context, rawURL, dir string) (*Media, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	resp, err := d.client.DoStream(ctx, httpclient.Request{Method: http.MethodGet, Path: rawURL})
	if err != nil {
		return nil, classifyHTTP(ctx, err)
	}
	defer func() { _ = resp.Close() }()

	if resp.ContentLength > d.maxSize {
		return nil, apperrors.FetchTooLarge(d.maxSize)
	}
	contentType := resp.Headers["Content-Type"]
	if !isMediaType(contentType) && !(strings.TrimSpace(contentType) == "" && hasMediaExtension(rawURL)) {
		return nil, apperrors.FetchUnsupported("the link does not point to an audio or video file")
	}

	name := remoteFilename(rawURL, resp.Headers["Content-Disposition"], contentType)
	dst := filepath.Join(dir, outputBase+filepath.Ext(name))

	size, err := copyLimited(dst, resp.Body, d.maxSize)
	if err != nil {
		_ = os.Remove(dst)
		if errors.Is(err, errTooLarge) {
			return nil, apperrors.FetchTooLarge(d.maxSize)
		}
		if ctx.Err() != nil {
			return nil, classifyHTTP(ctx, ctx.Err())
		}
		return nil, apperrors.FetchNetwork(err)
	}

	d.log.WithContext(ctx).Info("Media downloaded", map[string]interface{}{
		"filename": name,
		"size":     size,
	})
	return &Media{
		Path:     dst,
		Filename: name,
		Title:    strings.TrimSuffix(name, filepath.Ext(name)),
		Size:     size,
	}, nil
}

var errTooLarge = errors.New("download exceeds size limit")

// copyLimited writes at most limit bytes of r to path.
func copyLimited(path string, r io.Reader, limit int64) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(f, io.LimitReader(r, limit+1))
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return n, err
	}
	if n > limit {
		return n, errTooLarge
	}
	return n, nil
}

func classifyHTTP(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return fmt.Errorf("direct download: %w", ctx.Err())
	}
	code, _ := httpclient.CodeOf(err)
	switch code {
	case httpclient.ErrCodeAuth:
		return apperrors.FetchAccessDenied(err)
	case httpclient.ErrCodeNotFound:
		return apperrors.FetchUnsupported("nothing was found at this address").WithCause(err)
	default:
		return apperrors.FetchNetwork(err)
	}
}

func isMediaType(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return strings.HasPrefix(mt, "audio/") || strings.HasPrefix(mt, "video/") || mt == "application/octet-stream"
}

// hasMediaExtension reports whether the path of rawURL ends in a known
// media extension. Servers that omit Content-Type are trusted on that basis.
func hasMediaExtension(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return mediaExtensions[strings.ToLower(path.Ext(u.Path))]
}

// typeExtensions maps common media content types to a file extension.
var typeExtensions = map[string]string{
	"audio/mpeg":  ".mp3",
	"audio/mp4":   ".m4a",
	"audio/aac":   ".aac",
	"audio/wav":   ".wav",
	"audio/x-wav": ".wav",
	"audio/flac":  ".flac",
	"audio/ogg":   ".ogg",
	"audio/opus":  ".opus",
	"audio/webm":  ".weba",
	"video/mp4":   ".mp4",
	"video/webm":  ".webm",
}

// remoteFilename picks a filename from Content-Disposition, then the URL
// path. A name without a media extension gets one from the content type.
func remoteFilename(rawURL, disposition, contentType string) string {
	var name string
	if _, params, err := mime.ParseMediaType(disposition); err == nil {
		name = params["filename"]
	}
	if name == "" {
		if u, err := url.Parse(rawURL); err == nil {
			name = path.Base(u.Path)
		}
	}
	name = storage.SafeFilename(name)

	if !mediaExtensions[strings.ToLower(filepath.Ext(name))] {
		mt, _, _ := mime.ParseMediaType(contentType)
		if ext, ok := typeExtensions[mt]; ok {
			name += ext
		}
	}
	return name
}
