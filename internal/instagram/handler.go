package instagram

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"safira/internal/store"
	"safira/pkg/models"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Gateway описывает операции DM шлюза, которые использует HTTP слой
type Gateway interface {
	UserIDFromUsername(ctx context.Context, username string) (int64, error)
	SendDirectText(ctx context.Context, userID int64, text string) (string, error)
	Inbox(ctx context.Context, limit int) ([]Thread, error)
	ThreadMessages(ctx context.Context, threadID string) ([]ThreadItem, error)
}

// DMMetrics записывает метрики операций шлюза
type DMMetrics interface {
	RecordDMRequest(operation string, success bool)
}

// Handler обрабатывает HTTP запросы DM шлюза
type Handler struct {
	gateway    Gateway
	dmLog      store.DMLogRepository
	metrics    DMMetrics
	inboxLimit int
	logger     *zap.Logger
}

// NewHandler создает новый обработчик DM шлюза
func NewHandler(gateway Gateway, inboxLimit int, logger *zap.Logger) *Handler {
	return &Handler{
		gateway:    gateway,
		inboxLimit: inboxLimit,
		logger:     logger,
	}
}

// WithDMLog подключает журнал отправленных сообщений
func (h *Handler) WithDMLog(repo store.DMLogRepository) *Handler {
	h.dmLog = repo
	return h
}

// WithMetrics подключает метрики операций
func (h *Handler) WithMetrics(m DMMetrics) *Handler {
	h.metrics = m
	return h
}

// RegisterRoutes регистрирует маршруты шлюза
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/dm/send", h.SendDM)
	r.Get("/dm/inbox", h.GetInbox)
	r.Get("/dm/thread", h.GetThread)
}

// sendRequest представляет тело запроса на отправку сообщения
type sendRequest struct {
	Username string `json:"username"`
	Message  string `json:"message"`
}

// SendDM отправляет текстовое direct-сообщение по username
func (h *Handler) SendDM(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.record("send", false)
		writeError(w, http.StatusBadRequest, "некорректное тело запроса")
		return
	}

	if strings.TrimSpace(req.Username) == "" || strings.TrimSpace(req.Message) == "" {
		h.record("send", false)
		writeError(w, http.StatusBadRequest, "поля 'username' и 'message' обязательны")
		return
	}

	ctx := r.Context()

	userID, err := h.gateway.UserIDFromUsername(ctx, req.Username)
	if err != nil {
		h.record("send", false)
		h.logSend(ctx, req, 0, "", models.DMStatusFailed)
		h.writeGatewayError(w, "ошибка определения получателя", err)
		return
	}

	threadID, err := h.gateway.SendDirectText(ctx, userID, req.Message)
	if err != nil {
		h.record("send", false)
		h.logSend(ctx, req, userID, "", models.DMStatusFailed)
		h.writeGatewayError(w, "ошибка отправки сообщения", err)
		return
	}

	h.record("send", true)
	h.logSend(ctx, req, userID, threadID, models.DMStatusSent)

	writeJSON(w, http.StatusOK, map[string]any{
		"status": "sent",
		"to":     req.Username,
	})
}

// GetInbox возвращает последние треды входящих
func (h *Handler) GetInbox(w http.ResponseWriter, r *http.Request) {
	threads, err := h.gateway.Inbox(r.Context(), h.inboxLimit)
	if err != nil {
		h.record("inbox", false)
		h.writeGatewayError(w, "ошибка получения inbox", err)
		return
	}

	if threads == nil {
		threads = []Thread{}
	}

	h.record("inbox", true)
	writeJSON(w, http.StatusOK, map[string]any{"threads": threads})
}

// GetThread возвращает сообщения треда
func (h *Handler) GetThread(w http.ResponseWriter, r *http.Request) {
	threadID := r.URL.Query().Get("thread_id")
	if threadID == "" {
		h.record("thread", false)
		writeError(w, http.StatusBadRequest, "параметр 'thread_id' обязателен")
		return
	}

	messages, err := h.gateway.ThreadMessages(r.Context(), threadID)
	if err != nil {
		h.record("thread", false)
		h.writeGatewayError(w, "ошибка получения треда", err)
		return
	}

	if messages == nil {
		messages = []ThreadItem{}
	}

	h.record("thread", true)
	writeJSON(w, http.StatusOK, map[string]any{"messages": messages})
}

// HealthHandler возвращает статус здоровья сервиса
func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// logSend пишет попытку отправки в журнал; отказ журнала не ломает ответ
func (h *Handler) logSend(ctx context.Context, req sendRequest, userID int64, threadID, status string) {
	if h.dmLog == nil {
		return
	}

	entry := &models.DMLogEntry{
		Username: req.Username,
		UserID:   userID,
		ThreadID: threadID,
		Message:  req.Message,
		Status:   status,
	}

	if err := h.dmLog.Create(ctx, entry); err != nil {
		h.logger.Error("ошибка записи в журнал сообщений", zap.Error(err))
	}
}

// writeGatewayError транслирует ошибку клиента Instagram в HTTP статус:
// ошибки upstream API отдаем как 502, остальное как 500
func (h *Handler) writeGatewayError(w http.ResponseWriter, message string, err error) {
	h.logger.Error(message, zap.Error(err))

	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		writeError(w, http.StatusBadGateway, message+": "+upstream.Message)
		return
	}

	writeError(w, http.StatusInternalServerError, message)
}

func (h *Handler) record(operation string, success bool) {
	if h.metrics != nil {
		h.metrics.RecordDMRequest(operation, success)
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
