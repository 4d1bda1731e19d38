package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// RemoteService распознает речь через внешний ASR сервер
// (faster-whisper за webservice API)
type RemoteService struct {
	apiURL     string
	language   string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewRemoteService создает новый клиент удаленного ASR сервера
func NewRemoteService(apiURL, language string, logger *zap.Logger) *RemoteService {
	return &RemoteService{
		apiURL:   strings.TrimRight(apiURL, "/"),
		language: language,
		httpClient: &http.Client{
			Timeout: 60 * time.Second, // Обработка аудио занимает время
		},
		logger: logger,
	}
}

func (s *RemoteService) Name() string {
	return "remote"
}

// remoteResponse представляет ответ ASR сервера
type remoteResponse struct {
	Text         string  `json:"text"`
	Language     string  `json:"language"`
	LanguageProb float64 `json:"language_probability"`
	Duration     float64 `json:"duration"`
	Segments     []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

// Transcribe распознает речь из wav файла через удаленный сервер
func (s *RemoteService) Transcribe(ctx context.Context, wavPath string) (*Result, error) {
	if _, err := os.Stat(wavPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("аудио файл не найден: %s", wavPath)
	}

	file, err := os.Open(wavPath)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия файла: %w", err)
	}
	defer file.Close()

	// Создаем multipart запрос
	var requestBody bytes.Buffer
	writer := multipart.NewWriter(&requestBody)

	part, err := writer.CreateFormFile("audio_file", filepath.Base(wavPath))
	if err != nil {
		return nil, fmt.Errorf("ошибка создания формы: %w", err)
	}

	if _, err = io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("ошибка копирования файла: %w", err)
	}

	writer.Close()

	params := []string{
		"output=json",
		"task=transcribe",
	}
	if s.language != "" && s.language != "auto" {
		params = append(params, "language="+s.language)
	}

	apiURL := s.apiURL + "/asr?" + strings.Join(params, "&")

	req, err := http.NewRequestWithContext(ctx, "POST", apiURL, &requestBody)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	s.logger.Info("отправка запроса на транскрибацию",
		zap.String("file", wavPath),
		zap.String("api_url", s.apiURL))

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка отправки запроса: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения ответа: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ошибка ASR API (статус %d): %s", resp.StatusCode, string(body))
	}

	var remote remoteResponse
	if err := json.Unmarshal(body, &remote); err != nil {
		return nil, fmt.Errorf("ошибка парсинга ответа: %w, тело: %s", err, string(body))
	}

	result := &Result{
		Text:         strings.TrimSpace(remote.Text),
		Language:     remote.Language,
		LanguageProb: remote.LanguageProb,
		Duration:     remote.Duration,
	}
	for _, seg := range remote.Segments {
		result.Segments = append(result.Segments, Segment{
			Start: seg.Start,
			End:   seg.End,
			Text:  strings.TrimSpace(seg.Text),
		})
	}

	s.logger.Info("транскрибация завершена",
		zap.String("file", wavPath),
		zap.String("language", result.Language),
		zap.Float64("duration", result.Duration))

	return result, nil
}

// HealthCheck проверяет доступность ASR сервера
func (s *RemoteService) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", s.apiURL+"/", nil)
	if err != nil {
		return fmt.Errorf("ошибка создания запроса: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ошибка отправки запроса: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("нездоровый статус ASR API: %d", resp.StatusCode)
	}

	return nil
}
