package audio

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Converter выполняет преобразования аудио через FFmpeg
type Converter struct {
	logger *zap.Logger
}

// NewConverter создает новый конвертер аудио
func NewConverter(logger *zap.Logger) *Converter {
	return &Converter{
		logger: logger,
	}
}

// ToWhisperWAV приводит входной файл к формату, который ожидает Whisper:
// mono, 16 кГц. Возвращает путь к временному wav файлу, удаление — на вызывающем
func (c *Converter) ToWhisperWAV(ctx context.Context, inputFile string) (string, error) {
	outputFile := filepath.Join(os.TempDir(), fmt.Sprintf("%s.wav", uuid.New().String()))

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-y",
		"-i", inputFile,
		"-ac", "1",
		"-ar", "16000",
		outputFile)

	if output, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("ошибка конвертации в wav: %w, вывод: %s", err, output)
	}

	if _, err := os.Stat(outputFile); os.IsNotExist(err) {
		return "", fmt.Errorf("wav файл не был создан: %s", outputFile)
	}

	c.logger.Debug("аудио сконвертировано для Whisper",
		zap.String("input", inputFile),
		zap.String("output", outputFile))

	return outputFile, nil
}

// WAVToOggOpus перекодирует wav данные в ogg/opus
func (c *Converter) WAVToOggOpus(ctx context.Context, wavData []byte) ([]byte, error) {
	id := uuid.New().String()
	inputFile := filepath.Join(os.TempDir(), fmt.Sprintf("%s.wav", id))
	outputFile := filepath.Join(os.TempDir(), fmt.Sprintf("%s.ogg", id))

	if err := os.WriteFile(inputFile, wavData, 0644); err != nil {
		return nil, fmt.Errorf("ошибка записи временного wav файла: %w", err)
	}
	defer c.cleanupFile(inputFile)
	defer c.cleanupFile(outputFile)

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-y",
		"-i", inputFile,
		"-c:a", "libopus",
		outputFile)

	if output, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("ошибка перекодирования в ogg/opus: %w, вывод: %s", err, output)
	}

	oggData, err := os.ReadFile(outputFile)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения ogg файла: %w", err)
	}

	c.logger.Debug("wav перекодирован в ogg/opus",
		zap.Int("wav_size", len(wavData)),
		zap.Int("ogg_size", len(oggData)))

	return oggData, nil
}

// cleanupFile удаляет временный файл
func (c *Converter) cleanupFile(filename string) {
	if err := os.Remove(filename); err != nil && !os.IsNotExist(err) {
		c.logger.Warn("ошибка удаления временного файла",
			zap.String("filename", filename),
			zap.Error(err))
	}
}
