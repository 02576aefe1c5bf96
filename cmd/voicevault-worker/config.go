package main

import (
	"errors"
	"fmt"

	"github.com/nezhar/voicevault/config"
	"github.com/nezhar/voicevault/database"
	"github.com/nezhar/voicevault/fetcher"
	"github.com/nezhar/voicevault/media"
	"github.com/nezhar/voicevault/observability"
	"github.com/nezhar/voicevault/process"
	"github.com/nezhar/voicevault/storage"
	"github.com/nezhar/voicevault/transcription"
	"github.com/nezhar/voicevault/version"
	"github.com/nezhar/voicevault/worker"
)

const serviceName = "voicevault-worker"

// workerConfig is the full configuration of one worker process.
type workerConfig struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	// Mode is download or transcribe. The --mode flag overrides it.
	Mode string `yaml:"mode" mapstructure:"mode"`

	Database      database.Config      `yaml:"database" mapstructure:"database"`
	Storage       storage.Config       `yaml:"storage" mapstructure:"storage"`
	Media         media.Config         `yaml:"media" mapstructure:"media"`
	Fetcher       fetcher.Config       `yaml:"fetcher" mapstructure:"fetcher"`
	Transcription transcription.Config `yaml:"transcription" mapstructure:"transcription"`
	Worker        worker.Config        `yaml:"worker" mapstructure:"worker"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
	Process       process.Config       `yaml:"process" mapstructure:"process"`
}

func (c *workerConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = serviceName
	}
	if c.Version == "" {
		c.Version = version.Get().Short()
	}
	c.ServiceConfig.ApplyDefaults()
	c.Database.ApplyDefaults()
	c.Storage.ApplyDefaults()
	c.Media.ApplyDefaults()
	c.Fetcher.ApplyDefaults()
	c.Transcription.ApplyDefaults()
	c.Worker.ApplyDefaults()
	c.Observability.ApplyDefaults()
}

// Validate checks the shared sections plus the ones the mode uses. A
// download worker needs no transcription credentials.
func (c *workerConfig) Validate() error {
	mode, err := worker.ParseMode(c.Mode)
	if err != nil {
		return err
	}

	errs := []error{
		c.ServiceConfig.Validate(),
		section("database", c.Database.Validate()),
		section("storage", c.Storage.Validate()),
		section("worker", c.Worker.Validate()),
		section("observability", c.Observability.Validate()),
	}
	switch mode {
	case worker.ModeDownload:
		errs = append(errs, section("fetcher", c.Fetcher.Validate()))
	case worker.ModeTranscribe:
		errs = append(errs,
			section("media", c.Media.Validate()),
			section("transcription", c.Transcription.Validate()),
		)
	}
	return errors.Join(errs...)
}

func section(name string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", name, err)
}
