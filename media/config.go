package media

import "github.com/nezhar/voicevault/validation"

// DefaultChunkSizeLimit is the largest file the default provider accepts.
const DefaultChunkSizeLimit int64 = 25 * 1024 * 1024

// Config configures the audio tools.
type Config struct {
	FFmpegPath  string `yaml:"ffmpeg_path" mapstructure:"ffmpeg_path"`
	FFprobePath string `yaml:"ffprobe_path" mapstructure:"ffprobe_path"`

	// ChunkSizeLimit is the maximum size in bytes of one transcription request.
	ChunkSizeLimit int64 `yaml:"chunk_size_limit" mapstructure:"chunk_size_limit" validate:"gt=0"`
}

// ApplyDefaults fills in zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.FFmpegPath == "" {
		c.FFmpegPath = "ffmpeg"
	}
	if c.FFprobePath == "" {
		c.FFprobePath = "ffprobe"
	}
	if c.ChunkSizeLimit <= 0 {
		c.ChunkSizeLimit = DefaultChunkSizeLimit
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	return validation.Struct(c)
}
