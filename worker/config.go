package worker

import (
	"time"

	"github.com/nezhar/voicevault/validation"
)

// Config tunes the processing loop.
type Config struct {
	// PollInterval is the sleep between polls when nothing is claimable.
	PollInterval time.Duration `yaml:"poll_interval" mapstructure:"poll_interval" validate:"gt=0"`
	// LeaseTTL is how long a claim lasts without a heartbeat.
	LeaseTTL time.Duration `yaml:"lease_ttl" mapstructure:"lease_ttl" validate:"gte=1s"`
	// MaxAttempts is how many times an entry may be claimed in one status
	// before the reaper gives up on it.
	MaxAttempts int `yaml:"max_attempts" mapstructure:"max_attempts" validate:"min=1"`
	// ErrorMessageMax bounds the stored error message, in characters.
	ErrorMessageMax int `yaml:"error_message_max" mapstructure:"error_message_max" validate:"min=20"`
	// WorkDir holds per-job temporary directories. Empty uses the OS default.
	WorkDir string `yaml:"work_dir" mapstructure:"work_dir"`
	// ReapSchedule is the cron spec of the lease reaper.
	ReapSchedule string `yaml:"reap_schedule" mapstructure:"reap_schedule" validate:"required"`
	// FinishTimeout bounds writing a job result, including after shutdown
	// has begun.
	FinishTimeout time.Duration `yaml:"finish_timeout" mapstructure:"finish_timeout" validate:"gt=0"`

	Breaker BreakerConfig `yaml:"breaker" mapstructure:"breaker"`
}

// BreakerConfig configures the provider gate of transcribe workers.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive provider outages that stop
	// claiming.
	MaxFailures int `yaml:"max_failures" mapstructure:"max_failures" validate:"min=1"`
	// Cooldown is how long claiming stays stopped before one probe entry.
	Cooldown time.Duration `yaml:"cooldown" mapstructure:"cooldown" validate:"gt=0"`
}

// ApplyDefaults fills in zero values.
func (c *Config) ApplyDefaults() {
	if c.PollInterval <= 0 {
		c.PollInterval = 10 * time.Second
	}
	if c.LeaseTTL <= 0 {
		c.LeaseTTL = 30 * time.Minute
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.ErrorMessageMax <= 0 {
		c.ErrorMessageMax = 500
	}
	if c.ReapSchedule == "" {
		c.ReapSchedule = "@every 1m"
	}
	if c.FinishTimeout <= 0 {
		c.FinishTimeout = 30 * time.Second
	}
	if c.Breaker.MaxFailures <= 0 {
		c.Breaker.MaxFailures = 3
	}
	if c.Breaker.Cooldown <= 0 {
		c.Breaker.Cooldown = 2 * time.Minute
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	return validation.Struct(c)
}
