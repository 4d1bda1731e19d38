package whisper

import "context"

// Segment представляет фрагмент распознанной речи
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Result представляет результат транскрибации
type Result struct {
	Text         string    `json:"text"`
	Language     string    `json:"language"`
	LanguageProb float64   `json:"language_probability"`
	Duration     float64   `json:"duration"`
	Segments     []Segment `json:"segments,omitempty"`
}

// Transcriber представляет интерфейс движка распознавания речи.
// На вход подается wav файл mono/16kHz (см. audio.Converter)
type Transcriber interface {
	Transcribe(ctx context.Context, wavPath string) (*Result, error)

	// Name возвращает имя движка для логов и метрик
	Name() string
}
