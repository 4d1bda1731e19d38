package tts

import (
	"fmt"

	"safira/internal/config"

	"go.uber.org/zap"
)

// NewTTSService создает TTS движок на основе конфигурации
func NewTTSService(cfg *config.TTSConfig, logger *zap.Logger) (TTSService, error) {
	switch cfg.Engine {
	case "coqui":
		return NewCoquiService(logger, cfg.ModelName), nil
	case "piper":
		return NewPiperService(logger, cfg.PiperURL), nil
	default:
		return nil, fmt.Errorf("неподдерживаемый TTS движок: %s. Поддерживаются: 'coqui', 'piper'", cfg.Engine)
	}
}
