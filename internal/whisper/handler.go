package whisper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"strings"
	"time"

	"safira/internal/audio"
	"safira/internal/store"
	"safira/pkg/models"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Максимальная длительность сегмента при VAD разбиении, секунды.
// Окно контекста Whisper — 30 секунд
const maxVADSegmentDuration = 30.0

// WAVConverter приводит загруженный файл к формату движка
type WAVConverter interface {
	ToWhisperWAV(ctx context.Context, inputFile string) (string, error)
}

// VADSplitter разрезает длинное аудио на сегменты речи
type VADSplitter interface {
	SplitBySilence(ctx context.Context, inputFile string, maxSegmentDuration float64) ([]audio.SpeechSegment, error)
	CleanupSegments(segments []audio.SpeechSegment)
}

// TranscriptionMetrics записывает метрики запросов транскрибации
type TranscriptionMetrics interface {
	RecordTranscription(engine string, success bool, seconds float64)
}

// Handler обрабатывает HTTP запросы сервиса транскрибации
type Handler struct {
	engine    Transcriber
	converter WAVConverter
	splitter  VADSplitter
	records   store.TranscriptionRepository
	metrics   TranscriptionMetrics
	logger    *zap.Logger
}

// NewHandler создает новый обработчик сервиса транскрибации
func NewHandler(engine Transcriber, converter WAVConverter, logger *zap.Logger) *Handler {
	return &Handler{
		engine:    engine,
		converter: converter,
		logger:    logger,
	}
}

// WithVAD включает разбиение длинного аудио по паузам
func (h *Handler) WithVAD(splitter VADSplitter) *Handler {
	h.splitter = splitter
	return h
}

// WithRecords подключает журнал транскрибаций
func (h *Handler) WithRecords(repo store.TranscriptionRepository) *Handler {
	h.records = repo
	return h
}

// WithMetrics подключает метрики запросов
func (h *Handler) WithMetrics(m TranscriptionMetrics) *Handler {
	h.metrics = m
	return h
}

// RegisterRoutes регистрирует маршруты сервиса
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/transcribe", h.Transcribe)
}

// Transcribe принимает multipart аудио файл и возвращает текст
func (h *Handler) Transcribe(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		h.record(false, 0)
		writeError(w, http.StatusBadRequest, "поле 'file' отсутствует")
		return
	}
	defer file.Close()

	ctx := r.Context()

	// Сохраняем загрузку как есть; формат приведет ffmpeg
	rawPath, err := h.saveUpload(file)
	if err != nil {
		h.record(false, 0)
		h.logger.Error("ошибка сохранения загрузки", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "ошибка сохранения файла")
		return
	}
	defer h.removeFile(rawPath)

	wavPath, err := h.converter.ToWhisperWAV(ctx, rawPath)
	if err != nil {
		h.record(false, 0)
		h.logger.Error("ошибка конвертации аудио", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "ошибка конвертации аудио")
		return
	}
	defer h.removeFile(wavPath)

	start := time.Now()
	result, err := h.transcribe(ctx, wavPath)
	if err != nil {
		h.record(false, 0)
		h.logger.Error("ошибка транскрибации", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "ошибка транскрибации")
		return
	}

	h.record(true, time.Since(start).Seconds())
	h.saveRecord(ctx, header.Filename, result)

	writeJSON(w, http.StatusOK, map[string]any{
		"transcription":        result.Text,
		"language":             result.Language,
		"language_probability": round3(result.LanguageProb),
	})
}

// transcribe выбирает путь распознавания: целиком или по VAD сегментам
func (h *Handler) transcribe(ctx context.Context, wavPath string) (*Result, error) {
	if h.splitter == nil {
		return h.engine.Transcribe(ctx, wavPath)
	}

	segments, err := h.splitter.SplitBySilence(ctx, wavPath, maxVADSegmentDuration)
	if err != nil {
		return nil, fmt.Errorf("ошибка разделения аудио на сегменты: %w", err)
	}

	if len(segments) == 0 {
		h.logger.Warn("не найдено сегментов речи, распознаем файл целиком")
		return h.engine.Transcribe(ctx, wavPath)
	}

	defer h.splitter.CleanupSegments(segments)

	var parts []string
	combined := &Result{}

	for i, segment := range segments {
		if segment.FilePath == "" {
			continue
		}

		segResult, err := h.engine.Transcribe(ctx, segment.FilePath)
		if err != nil {
			h.logger.Error("ошибка транскрибации сегмента",
				zap.Int("segment", i),
				zap.Error(err))
			continue
		}

		if segResult.Text != "" {
			parts = append(parts, segResult.Text)
		}

		// Язык берем из первого успешно распознанного сегмента
		if combined.Language == "" && segResult.Language != "" {
			combined.Language = segResult.Language
			combined.LanguageProb = segResult.LanguageProb
		}

		combined.Duration += segResult.Duration
	}

	if len(parts) == 0 {
		return nil, fmt.Errorf("не удалось транскрибировать ни одного сегмента")
	}

	combined.Text = strings.Join(parts, " ")
	return combined, nil
}

// HealthHandler возвращает статус здоровья сервиса
func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// saveUpload сохраняет тело загрузки во временный файл
func (h *Handler) saveUpload(file io.Reader) (string, error) {
	tmp, err := os.CreateTemp("", "upload_*.bin")
	if err != nil {
		return "", fmt.Errorf("ошибка создания временного файла: %w", err)
	}
	defer tmp.Close()

	if _, err := io.Copy(tmp, file); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("ошибка записи временного файла: %w", err)
	}

	return tmp.Name(), nil
}

// saveRecord пишет результат в журнал; отказ журнала не ломает ответ
func (h *Handler) saveRecord(ctx context.Context, filename string, result *Result) {
	if h.records == nil {
		return
	}

	rec := &models.TranscriptionRecord{
		Filename:     filename,
		Text:         result.Text,
		Language:     result.Language,
		LanguageProb: result.LanguageProb,
		DurationSec:  result.Duration,
		EngineName:   h.engine.Name(),
	}

	if err := h.records.Create(ctx, rec); err != nil {
		h.logger.Error("ошибка записи в журнал транскрибаций", zap.Error(err))
	}
}

func (h *Handler) removeFile(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		h.logger.Warn("ошибка удаления временного файла",
			zap.String("file", path),
			zap.Error(err))
	}
}

func (h *Handler) record(success bool, seconds float64) {
	if h.metrics != nil {
		h.metrics.RecordTranscription(h.engine.Name(), success, seconds)
	}
}

// round3 округляет до трех знаков после запятой
func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
