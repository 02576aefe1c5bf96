package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nezhar/voicevault/transcription"
	"github.com/nezhar/voicevault/worker"
)

func TestWorkerConfigDefaults(t *testing.T) {
	cfg := &workerConfig{Mode: "download"}
	cfg.ApplyDefaults()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, serviceName, cfg.Name)
	assert.NotEmpty(t, cfg.Version)
	assert.Equal(t, "development", cfg.Environment)
}

func TestWorkerConfigValidatesByMode(t *testing.T) {
	cfg := &workerConfig{Mode: "download"}
	cfg.ApplyDefaults()
	require.NoError(t, cfg.Validate(), "download workers need no transcription key")

	cfg.Mode = "transcribe"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transcription:")

	cfg.Transcription.APIKey = "gsk_test"
	assert.NoError(t, cfg.Validate())
}

func TestWorkerConfigRejectsUnknownMode(t *testing.T) {
	cfg := &workerConfig{Mode: "summarize"}
	cfg.ApplyDefaults()
	assert.Error(t, cfg.Validate())
}

func TestRequiredBinaries(t *testing.T) {
	cfg := &workerConfig{}
	cfg.ApplyDefaults()
	assert.Equal(t, []string{"yt-dlp"}, requiredBinaries(worker.ModeDownload, cfg))
	assert.Equal(t, []string{"ffmpeg", "ffprobe"}, requiredBinaries(worker.ModeTranscribe, cfg))
}

func TestSelfHostedNeedsEndpoint(t *testing.T) {
	cfg := &workerConfig{Mode: "transcribe", Transcription: transcription.Config{Provider: transcription.ProviderSelfHosted}}
	cfg.ApplyDefaults()
	require.Error(t, cfg.Validate())

	cfg.Transcription.Endpoint = "http://whisper:9000"
	assert.NoError(t, cfg.Validate())
}
