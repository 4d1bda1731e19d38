package tts

import "context"

// SynthesisRequest представляет запрос на синтез речи
type SynthesisRequest struct {
	Text       string // текст для озвучивания
	Language   string // код языка (pt, en, ru, ...)
	SpeakerWAV string // путь к wav с образцом голоса для клонирования, опционально
}

// TTSService представляет интерфейс для Text-to-Speech сервиса
type TTSService interface {
	// Synthesize преобразует текст в wav аудио
	Synthesize(ctx context.Context, req SynthesisRequest) ([]byte, error)

	// Name возвращает имя движка для логов и метрик
	Name() string
}
