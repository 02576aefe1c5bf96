// Package backend builds the configured transcription provider.
package backend

import (
	"fmt"

	"github.com/nezhar/voicevault/logger"
	"github.com/nezhar/voicevault/transcription"
	"github.com/nezhar/voicevault/transcription/remote"
	"github.com/nezhar/voicevault/transcription/selfhosted"
)

// New returns the provider named by cfg.Provider. The choice is made once;
// there is no fallback between backends.
func New(cfg transcription.Config, log *logger.Logger) (transcription.Provider, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("transcription config: %w", err)
	}

	var (
		p   transcription.Provider
		err error
	)
	switch cfg.Provider {
	case transcription.ProviderRemote:
		p, err = remote.New(cfg)
	case transcription.ProviderSelfHosted:
		p, err = selfhosted.New(cfg)
	default:
		return nil, fmt.Errorf("unknown transcription provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	log.WithComponent("transcription").Info("Transcription provider configured", map[string]interface{}{
		"provider": cfg.Provider,
		"model":    cfg.Model,
		"endpoint": cfg.Endpoint,
		"language": cfg.Language,
		"api_key":  keyState(cfg.APIKey),
	})
	return p, nil
}

func keyState(key string) string {
	if key == "" {
		return "not set"
	}
	return "configured"
}
