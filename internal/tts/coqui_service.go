package tts

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CoquiService предоставляет функциональность Text-to-Speech через Coqui TTS CLI
// (модель XTTS v2, мультиязычный синтез с клонированием голоса по speaker_wav)
type CoquiService struct {
	logger    *zap.Logger
	modelName string
	ttsPath   string // Путь к исполняемому файлу TTS
}

// NewCoquiService создает новый Coqui TTS сервис
func NewCoquiService(logger *zap.Logger, modelName string) *CoquiService {
	return &CoquiService{
		logger:    logger,
		modelName: modelName,
	}
}

func (s *CoquiService) Name() string {
	return "coqui"
}

// Synthesize преобразует текст в аудио через Coqui TTS
func (s *CoquiService) Synthesize(ctx context.Context, req SynthesisRequest) ([]byte, error) {
	cleanText := s.cleanText(req.Text)
	if cleanText == "" {
		return nil, fmt.Errorf("пустой текст после очистки")
	}

	// Проверяем, что Coqui TTS установлен
	if err := s.checkCoquiTTS(); err != nil {
		return nil, fmt.Errorf("coqui tts не установлен: %w", err)
	}

	s.logger.Info("🎵 генерируем аудио через Coqui TTS",
		zap.String("language", req.Language),
		zap.Int("text_length", len(cleanText)),
		zap.Bool("speaker_wav", req.SpeakerWAV != ""))

	// Синтез XTTS на CPU медленный, даем щедрый таймаут
	ctx, cancel := context.WithTimeout(ctx, 120*time.Second)
	defer cancel()

	audioData, err := s.generateAudio(ctx, cleanText, req.Language, req.SpeakerWAV)
	if err != nil {
		return nil, fmt.Errorf("ошибка генерации аудио: %w", err)
	}

	s.logger.Info("🎵 аудио успешно сгенерировано",
		zap.Int("audio_size", len(audioData)))

	return audioData, nil
}

// checkCoquiTTS проверяет, что Coqui TTS установлен
func (s *CoquiService) checkCoquiTTS() error {
	if s.ttsPath != "" {
		return nil
	}

	// Пробуем разные пути к TTS
	ttsPaths := []string{
		"tts",                  // Глобальный путь
		"/usr/local/bin/tts",   // Симлинк
		"/opt/tts_env/bin/tts", // Volume mount
	}

	var lastErr error
	for _, ttsPath := range ttsPaths {
		cmd := exec.Command(ttsPath, "--version")
		output, err := cmd.Output()
		if err == nil {
			s.logger.Debug("coqui tts найден",
				zap.String("path", ttsPath),
				zap.String("version", strings.TrimSpace(string(output))))
			s.ttsPath = ttsPath
			return nil
		}
		lastErr = err
	}

	return fmt.Errorf("coqui tts не найден ни в одном из путей: %w", lastErr)
}

// generateAudio генерирует аудио через Coqui TTS CLI
func (s *CoquiService) generateAudio(ctx context.Context, text, language, speakerWAV string) ([]byte, error) {
	tempAudioFile := filepath.Join(os.TempDir(), fmt.Sprintf("coqui_%s.wav", uuid.New().String()))
	defer s.cleanupFile(tempAudioFile)

	args := []string{
		"--text", text,
		"--model_name", s.modelName,
		"--out_path", tempAudioFile,
	}
	if language != "" {
		args = append(args, "--language_idx", language)
	}
	if speakerWAV != "" {
		args = append(args, "--speaker_wav", speakerWAV)
	}

	cmd := exec.CommandContext(ctx, s.ttsPath, args...)

	if output, err := cmd.CombinedOutput(); err != nil {
		s.logger.Error("ошибка выполнения coqui tts",
			zap.Error(err),
			zap.String("output", string(output)))
		return nil, fmt.Errorf("ошибка выполнения coqui tts: %w", err)
	}

	// Проверяем, что аудио файл был создан
	if _, err := os.Stat(tempAudioFile); os.IsNotExist(err) {
		return nil, fmt.Errorf("аудио файл не был создан: %s", tempAudioFile)
	}

	audioData, err := os.ReadFile(tempAudioFile)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения аудио: %w", err)
	}

	return audioData, nil
}

// cleanupFile удаляет временный файл
func (s *CoquiService) cleanupFile(filename string) {
	if err := os.Remove(filename); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("ошибка удаления временного файла",
			zap.String("filename", filename),
			zap.Error(err))
	}
}

// cleanText очищает текст от разметки и лишних пробелов
func (s *CoquiService) cleanText(text string) string {
	for _, tag := range []string{"<b>", "</b>", "<i>", "</i>"} {
		text = strings.ReplaceAll(text, tag, "")
	}

	text = strings.TrimSpace(text)
	for strings.Contains(text, "  ") {
		text = strings.ReplaceAll(text, "  ", " ")
	}

	return text
}
