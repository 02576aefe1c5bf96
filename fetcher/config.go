package fetcher

import (
	"time"

	"github.com/nezhar/voicevault/validation"
)

// DefaultMaxFileSize matches the largest upload the API accepts.
const DefaultMaxFileSize int64 = 25 << 20

// DefaultHosts are the platforms handed to yt-dlp.
var DefaultHosts = []string{"youtube.com", "youtu.be", "vimeo.com", "soundcloud.com"}

// Config configures media fetching.
type Config struct {
	// YTDLPPath is the yt-dlp executable.
	YTDLPPath string `yaml:"ytdlp_path" mapstructure:"ytdlp_path" validate:"required"`
	// CookiesFile is passed to yt-dlp when the file exists.
	CookiesFile string `yaml:"cookies_file" mapstructure:"cookies_file"`
	// MaxFileSize caps downloads in bytes.
	MaxFileSize int64 `yaml:"max_file_size" mapstructure:"max_file_size" validate:"gt=0"`
	// ExtraHosts are added to DefaultHosts.
	ExtraHosts []string `yaml:"extra_hosts" mapstructure:"extra_hosts"`
	// SocketTimeout is yt-dlp's per-connection timeout.
	SocketTimeout time.Duration `yaml:"socket_timeout" mapstructure:"socket_timeout" validate:"gt=0"`
	// DirectTimeout bounds a whole direct download.
	DirectTimeout time.Duration `yaml:"direct_timeout" mapstructure:"direct_timeout" validate:"gt=0"`
}

// ApplyDefaults fills in zero values.
func (c *Config) ApplyDefaults() {
	if c.YTDLPPath == "" {
		c.YTDLPPath = "yt-dlp"
	}
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = DefaultMaxFileSize
	}
	if c.SocketTimeout <= 0 {
		c.SocketTimeout = 30 * time.Second
	}
	if c.DirectTimeout <= 0 {
		c.DirectTimeout = 10 * time.Minute
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	return validation.Struct(c)
}

// Hosts returns the default and extra platform hosts.
func (c *Config) Hosts() []string {
	hosts := append([]string{}, DefaultHosts...)
	return append(hosts, c.ExtraHosts...)
}
