package whisper

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// WhisperCppService распознает речь через whisper.cpp CLI.
// Модель ggml загружается бинарем при каждом вызове; для длинных очередей
// запросов остается вариант remote движка с постоянно загруженной моделью
type WhisperCppService struct {
	logger     *zap.Logger
	binaryPath string
	modelPath  string
	language   string
	device     string
	beamSize   int
	threads    int
}

// NewWhisperCppService создает новый whisper.cpp движок
func NewWhisperCppService(logger *zap.Logger, binaryPath, modelPath, language, device string, beamSize, threads int) *WhisperCppService {
	return &WhisperCppService{
		logger:     logger,
		binaryPath: binaryPath,
		modelPath:  modelPath,
		language:   language,
		device:     device,
		beamSize:   beamSize,
		threads:    threads,
	}
}

func (s *WhisperCppService) Name() string {
	return "whispercpp"
}

// cppOutput представляет JSON вывод whisper.cpp (-oj)
type cppOutput struct {
	Result struct {
		Language string `json:"language"`
	} `json:"result"`
	Transcription []struct {
		Offsets struct {
			From int64 `json:"from"`
			To   int64 `json:"to"`
		} `json:"offsets"`
		Text string `json:"text"`
	} `json:"transcription"`
}

// Transcribe распознает речь из wav файла
func (s *WhisperCppService) Transcribe(ctx context.Context, wavPath string) (*Result, error) {
	if _, err := os.Stat(wavPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("аудио файл не найден: %s", wavPath)
	}

	// -of задает префикс выходного файла, whisper.cpp добавит .json
	outPrefix := filepath.Join(os.TempDir(), "whisper_"+uuid.New().String())
	outFile := outPrefix + ".json"
	defer s.cleanupFile(outFile)

	args := s.buildArgs(wavPath, outPrefix)

	s.logger.Info("запуск whisper.cpp",
		zap.String("file", wavPath),
		zap.String("model", s.modelPath),
		zap.String("language", s.language),
		zap.String("device", s.device),
		zap.Int("beam_size", s.beamSize))

	start := time.Now()
	cmd := exec.CommandContext(ctx, s.binaryPath, args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		s.logger.Error("ошибка выполнения whisper.cpp",
			zap.Error(err),
			zap.String("output", string(output)))
		return nil, fmt.Errorf("ошибка выполнения whisper.cpp: %w", err)
	}

	data, err := os.ReadFile(outFile)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения результата whisper.cpp: %w", err)
	}

	result, err := parseCppOutput(data)
	if err != nil {
		return nil, err
	}

	// whisper.cpp не возвращает уверенность определения языка;
	// при явно заданном языке считаем ее единицей
	if s.language != "" && s.language != "auto" {
		result.Language = s.language
		result.LanguageProb = 1.0
	}

	s.logger.Info("транскрибация завершена",
		zap.String("file", wavPath),
		zap.String("language", result.Language),
		zap.Int("text_length", len(result.Text)),
		zap.Duration("elapsed", time.Since(start)))

	return result, nil
}

// buildArgs собирает аргументы вызова whisper.cpp
func (s *WhisperCppService) buildArgs(wavPath, outPrefix string) []string {
	args := []string{
		"-m", s.modelPath,
		"-f", wavPath,
		"-l", s.language,
		"-bs", strconv.Itoa(s.beamSize),
		"-t", strconv.Itoa(s.threads),
		"-oj",
		"-of", outPrefix,
		"-np", // без прогресса в stderr
	}

	// При device=cpu запрещаем GPU, иначе whisper.cpp выберет его сам
	if s.device == "cpu" {
		args = append(args, "-ng")
	}

	return args
}

// parseCppOutput парсит JSON вывод whisper.cpp в Result
func parseCppOutput(data []byte) (*Result, error) {
	var out cppOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("ошибка парсинга вывода whisper.cpp: %w", err)
	}

	result := &Result{
		Language: out.Result.Language,
	}

	var parts []string
	for _, seg := range out.Transcription {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}

		segment := Segment{
			Start: float64(seg.Offsets.From) / 1000.0,
			End:   float64(seg.Offsets.To) / 1000.0,
			Text:  text,
		}
		result.Segments = append(result.Segments, segment)
		parts = append(parts, text)

		if segment.End > result.Duration {
			result.Duration = segment.End
		}
	}

	result.Text = strings.Join(parts, " ")
	return result, nil
}

// cleanupFile удаляет временный файл
func (s *WhisperCppService) cleanupFile(filename string) {
	if err := os.Remove(filename); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("ошибка удаления временного файла",
			zap.String("filename", filename),
			zap.Error(err))
	}
}
