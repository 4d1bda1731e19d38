package whisper

import (
	"testing"

	"safira/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewTranscriber(t *testing.T) {
	logger := zap.NewNop()

	engine, err := NewTranscriber(&config.WhisperConfig{
		Engine:     "whispercpp",
		BinaryPath: "whisper-cli",
		ModelPath:  "/models/ggml-large-v3.bin",
		Language:   "pt",
		Device:     "cpu",
		BeamSize:   5,
		Threads:    4,
	}, logger)
	require.NoError(t, err)
	assert.Equal(t, "whispercpp", engine.Name())

	engine, err = NewTranscriber(&config.WhisperConfig{
		Engine:    "remote",
		RemoteURL: "http://whisper:9000",
		Language:  "pt",
	}, logger)
	require.NoError(t, err)
	assert.Equal(t, "remote", engine.Name())

	_, err = NewTranscriber(&config.WhisperConfig{Engine: "vosk"}, logger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "неподдерживаемый")
}
