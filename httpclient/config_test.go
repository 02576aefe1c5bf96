package httpclient

import (
	"testing"
	"time"
)

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	if cfg.Timeout != 30*time.Second {
		t.Errorf("timeout = %v", cfg.Timeout)
	}
	if cfg.UserAgent != "voicevault-worker" {
		t.Errorf("user agent = %q", cfg.UserAgent)
	}
}

func TestConfig_ApplyDefaults_PreservesExisting(t *testing.T) {
	cfg := Config{Timeout: 5 * time.Minute, UserAgent: "custom"}
	cfg.ApplyDefaults()
	if cfg.Timeout != 5*time.Minute || cfg.UserAgent != "custom" {
		t.Errorf("explicit values overwritten: %+v", cfg)
	}
}

func TestConfig_Validate(t *testing.T) {
	if err := (&Config{Timeout: time.Second}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := (&Config{Timeout: -time.Second}).Validate(); err == nil {
		t.Error("expected error for negative timeout")
	}
}
