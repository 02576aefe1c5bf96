package transcription

import (
	"time"

	"github.com/nezhar/voicevault/validation"
)

// Backend names accepted in Config.Provider.
const (
	ProviderRemote     = "remote"
	ProviderSelfHosted = "selfhosted"
)

const (
	DefaultModel          = "whisper-large-v3-turbo"
	DefaultRemoteEndpoint = "https://api.groq.com/openai/v1"
	DefaultLanguage       = "en"
	DefaultTimeout        = 5 * time.Minute
)

// Config selects and configures the transcription backend.
type Config struct {
	Provider string `yaml:"provider" mapstructure:"provider" validate:"oneof=remote selfhosted"`
	Model    string `yaml:"model" mapstructure:"model" validate:"required"`
	// Endpoint is the API base URL for remote and the sidecar URL for selfhosted.
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint" validate:"required,url"`
	APIKey   string `yaml:"api_key" mapstructure:"api_key" validate:"required_if=Provider remote"`
	Language string `yaml:"language" mapstructure:"language"`
	// Timeout bounds a single chunk request.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gt=0"`
	// RequestsPerMinute throttles calls to the backend. Zero disables it.
	RequestsPerMinute int `yaml:"requests_per_minute" mapstructure:"requests_per_minute" validate:"gte=0"`
}

// ApplyDefaults fills in zero values. The remote endpoint defaults to Groq;
// selfhosted has no default endpoint.
func (c *Config) ApplyDefaults() {
	if c.Provider == "" {
		c.Provider = ProviderRemote
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Endpoint == "" && c.Provider == ProviderRemote {
		c.Endpoint = DefaultRemoteEndpoint
	}
	if c.Language == "" {
		c.Language = DefaultLanguage
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	return validation.Struct(c)
}
