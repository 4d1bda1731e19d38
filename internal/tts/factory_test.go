package tts

import (
	"testing"

	"safira/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewTTSService(t *testing.T) {
	logger := zap.NewNop()

	coqui, err := NewTTSService(&config.TTSConfig{Engine: "coqui", ModelName: "xtts_v2"}, logger)
	require.NoError(t, err)
	assert.Equal(t, "coqui", coqui.Name())

	piper, err := NewTTSService(&config.TTSConfig{Engine: "piper", PiperURL: "http://piper:5500"}, logger)
	require.NoError(t, err)
	assert.Equal(t, "piper", piper.Name())

	_, err = NewTTSService(&config.TTSConfig{Engine: "espeak"}, logger)
	assert.Error(t, err)
}
