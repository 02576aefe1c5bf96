package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nezhar/voicevault/logger"
	"github.com/nezhar/voicevault/transcription"
	"github.com/nezhar/voicevault/transcription/remote"
	"github.com/nezhar/voicevault/transcription/selfhosted"
)

func TestNewRemote(t *testing.T) {
	p, err := New(transcription.Config{APIKey: "k"}, logger.Nop())
	require.NoError(t, err)
	assert.IsType(t, &remote.Provider{}, p)
	assert.Equal(t, "remote", p.Name())
}

func TestNewSelfHosted(t *testing.T) {
	p, err := New(transcription.Config{Provider: "selfhosted", Endpoint: "http://whisper:9000"}, logger.Nop())
	require.NoError(t, err)
	assert.IsType(t, &selfhosted.Provider{}, p)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := New(transcription.Config{Provider: "remote"}, logger.Nop())
	assert.Error(t, err)

	_, err = New(transcription.Config{Provider: "local", Endpoint: "http://x"}, logger.Nop())
	assert.Error(t, err)
}
