package fetcher

import (
	"context"
	"net/url"
	"strings"
	"unicode"

	apperrors "github.com/nezhar/voicevault/errors"
	"github.com/nezhar/voicevault/logger"
	"github.com/nezhar/voicevault/process"
)

// Media is a downloaded file.
type Media struct {
	Path string
	// Filename is the name the file is stored under.
	Filename string
	// Title is the source's title, empty if it has none.
	Title string
	Size  int64
}

// Resolver downloads the media behind rawURL into dir.
type Resolver interface {
	Resolve(ctx context.Context, rawURL, dir string) (*Media, error)
}

// mediaExtensions mark a URL as a direct link to a media file.
var mediaExtensions = map[string]bool{
	".mp3": true, ".m4a": true, ".aac": true, ".wav": true, ".flac": true,
	".ogg": true, ".oga": true, ".opus": true, ".weba": true, ".webm": true,
	".mp4": true, ".m4v": true, ".mov": true, ".mkv": true,
}

// Fetcher routes a URL to yt-dlp or a direct download.
type Fetcher struct {
	platform Resolver
	direct   Resolver
	hosts    []string
	log      *logger.Logger
}

var _ Resolver = (*Fetcher)(nil)

// New builds the dispatching resolver.
func New(cfg Config, runner process.Runner, log *logger.Logger) (*Fetcher, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	direct, err := NewDirect(cfg, log)
	if err != nil {
		return nil, err
	}
	return &Fetcher{
		platform: NewYTDLP(cfg, runner, log),
		direct:   direct,
		hosts:    cfg.Hosts(),
		log:      log.WithComponent("fetcher"),
	}, nil
}

// Resolve downloads rawURL into dir.
func (f *Fetcher) Resolve(ctx context.Context, rawURL, dir string) (*Media, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, apperrors.FetchUnsupported("the address is not a valid http(s) URL")
	}

	switch {
	case matchHost(u.Hostname(), f.hosts):
		f.log.WithContext(ctx).Debug("Resolving via yt-dlp", map[string]interface{}{"host": u.Hostname()})
		return f.platform.Resolve(ctx, u.String(), dir)
	case hasMediaExtension(u.String()):
		f.log.WithContext(ctx).Debug("Resolving via direct download", map[string]interface{}{"host": u.Hostname()})
		return f.direct.Resolve(ctx, u.String(), dir)
	default:
		return nil, apperrors.FetchUnsupported("supported sources are " + strings.Join(f.hosts, ", ") + " and direct links to audio or video files")
	}
}

// matchHost reports whether host is one of hosts or a subdomain of one.
func matchHost(host string, hosts []string) bool {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	for _, h := range hosts {
		h = strings.ToLower(strings.TrimSpace(h))
		if h == "" {
			continue
		}
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}

// filenameFor builds a storage filename from a title: letters, digits,
// spaces, dashes and underscores only, at most 100 runes.
func filenameFor(title, ext string) string {
	var b strings.Builder
	n := 0
	for _, r := range title {
		if n == 100 {
			break
		}
		if isFilenameRune(r) {
			b.WriteRune(r)
			n++
		}
	}
	name := strings.TrimSpace(b.String())
	if name == "" {
		name = "media"
	}
	return name + ext
}

func isFilenameRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '_'
}
