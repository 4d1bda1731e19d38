package tts

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// AudioTranscoder перекодирует wav в ogg/opus для JSON ответа
type AudioTranscoder interface {
	WAVToOggOpus(ctx context.Context, wavData []byte) ([]byte, error)
}

// SynthesisMetrics записывает метрики запросов синтеза
type SynthesisMetrics interface {
	RecordSynthesis(endpoint, engine string, success bool, seconds float64)
}

// Handler обрабатывает HTTP запросы сервиса синтеза речи
type Handler struct {
	engine          TTSService
	transcoder      AudioTranscoder
	metrics         SynthesisMetrics
	defaultLanguage string
	audioDir        string
	logger          *zap.Logger
}

// NewHandler создает новый обработчик TTS сервиса
func NewHandler(engine TTSService, transcoder AudioTranscoder, defaultLanguage, audioDir string, logger *zap.Logger) *Handler {
	return &Handler{
		engine:          engine,
		transcoder:      transcoder,
		defaultLanguage: defaultLanguage,
		audioDir:        audioDir,
		logger:          logger,
	}
}

// WithMetrics подключает метрики запросов
func (h *Handler) WithMetrics(m SynthesisMetrics) *Handler {
	h.metrics = m
	return h
}

// RegisterRoutes регистрирует маршруты TTS сервиса
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/tts", h.SynthesizeWAV)
	r.Post("/tts/json", h.SynthesizeJSON)

	// Раздача сгенерированных файлов, как в остальной инфраструктуре Safira
	fileServer := http.StripPrefix("/audio/", http.FileServer(http.Dir(h.audioDir)))
	r.Get("/audio/*", fileServer.ServeHTTP)
}

// ttsRequest представляет тело запроса на синтез
type ttsRequest struct {
	Text       string `json:"text"`
	LanguageID string `json:"language_id"`
	SpeakerWAV string `json:"speaker_wav,omitempty"`
}

// parseRequest разбирает и валидирует тело запроса
func (h *Handler) parseRequest(r *http.Request) (SynthesisRequest, bool) {
	var req ttsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return SynthesisRequest{}, false
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		return SynthesisRequest{}, false
	}

	language := req.LanguageID
	if language == "" {
		language = h.defaultLanguage
	}

	return SynthesisRequest{
		Text:       text,
		Language:   language,
		SpeakerWAV: req.SpeakerWAV,
	}, true
}

// SynthesizeWAV возвращает синтезированную речь как wav поток
func (h *Handler) SynthesizeWAV(w http.ResponseWriter, r *http.Request) {
	req, ok := h.parseRequest(r)
	if !ok {
		h.record("wav", false, 0)
		writeError(w, http.StatusBadRequest, "поле 'text' пустое")
		return
	}

	start := time.Now()
	wavData, err := h.engine.Synthesize(r.Context(), req)
	if err != nil {
		h.record("wav", false, 0)
		h.logger.Error("ошибка синтеза аудио", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "ошибка синтеза аудио")
		return
	}

	h.record("wav", true, time.Since(start).Seconds())

	w.Header().Set("Content-Type", "audio/wav")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(wavData)
}

// SynthesizeJSON возвращает синтезированную речь как base64 ogg/opus
func (h *Handler) SynthesizeJSON(w http.ResponseWriter, r *http.Request) {
	req, ok := h.parseRequest(r)
	if !ok {
		h.record("json", false, 0)
		writeError(w, http.StatusBadRequest, "поле 'text' пустое")
		return
	}

	start := time.Now()
	wavData, err := h.engine.Synthesize(r.Context(), req)
	if err != nil {
		h.record("json", false, 0)
		h.logger.Error("ошибка синтеза аудио", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "ошибка синтеза аудио")
		return
	}

	oggData, err := h.transcoder.WAVToOggOpus(r.Context(), wavData)
	if err != nil {
		h.record("json", false, 0)
		h.logger.Error("ошибка перекодирования аудио", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "ошибка перекодирования аудио")
		return
	}

	h.record("json", true, time.Since(start).Seconds())

	// base64.StdEncoding не вставляет переносы строк, клиенты Safira
	// ожидают непрерывную base64 строку
	writeJSON(w, http.StatusOK, map[string]any{
		"file": map[string]string{
			"filename": "tts.ogg",
			"mimetype": "audio/ogg; codecs=opus",
			"data":     base64.StdEncoding.EncodeToString(oggData),
		},
	})
}

// HealthHandler возвращает статус здоровья сервиса
func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) record(endpoint string, success bool, seconds float64) {
	if h.metrics != nil {
		h.metrics.RecordSynthesis(endpoint, h.engine.Name(), success, seconds)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
