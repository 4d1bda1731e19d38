package whisper

import (
	"fmt"

	"safira/internal/config"

	"go.uber.org/zap"
)

// NewTranscriber создает движок распознавания речи на основе конфигурации
func NewTranscriber(cfg *config.WhisperConfig, logger *zap.Logger) (Transcriber, error) {
	switch cfg.Engine {
	case "whispercpp":
		return NewWhisperCppService(logger, cfg.BinaryPath, cfg.ModelPath, cfg.Language, cfg.Device, cfg.BeamSize, cfg.Threads), nil
	case "remote":
		return NewRemoteService(cfg.RemoteURL, cfg.Language, logger), nil
	default:
		return nil, fmt.Errorf("неподдерживаемый движок распознавания: %s. Поддерживаются: 'whispercpp', 'remote'", cfg.Engine)
	}
}
