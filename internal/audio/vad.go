package audio

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Splitter разрезает аудио на сегменты речи по паузам (FFmpeg silencedetect)
type Splitter struct {
	logger *zap.Logger
}

// NewSplitter создает новый VAD сплиттер
func NewSplitter(logger *zap.Logger) *Splitter {
	return &Splitter{
		logger: logger,
	}
}

// SilenceSegment представляет сегмент тишины
type SilenceSegment struct {
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

// SpeechSegment представляет сегмент речи
type SpeechSegment struct {
	Start    float64 `json:"start"`
	End      float64 `json:"end"`
	Duration float64 `json:"duration"`
	FilePath string  `json:"file_path"`
}

// SplitBySilence разделяет аудио на сегменты речи не длиннее maxSegmentDuration секунд
func (s *Splitter) SplitBySilence(ctx context.Context, inputFile string, maxSegmentDuration float64) ([]SpeechSegment, error) {
	totalDuration, err := s.audioDuration(ctx, inputFile)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения длительности аудио: %w", err)
	}

	silence, err := s.detectSilence(ctx, inputFile)
	if err != nil {
		return nil, fmt.Errorf("ошибка анализа тишины: %w", err)
	}

	segments := buildSpeechSegments(silence, totalDuration, maxSegmentDuration)

	outputDir := filepath.Dir(inputFile)
	baseName := strings.TrimSuffix(filepath.Base(inputFile), filepath.Ext(inputFile))

	for i := range segments {
		outputFile := filepath.Join(outputDir, fmt.Sprintf("%s_segment_%03d.wav", baseName, i))

		if err := s.extractSegment(ctx, inputFile, outputFile, segments[i].Start, segments[i].Duration); err != nil {
			s.logger.Error("ошибка извлечения сегмента",
				zap.Int("segment", i),
				zap.Error(err))
			continue
		}

		segments[i].FilePath = outputFile
	}

	s.logger.Info("аудио разделено на сегменты речи",
		zap.String("file", inputFile),
		zap.Int("count", len(segments)))

	return segments, nil
}

// detectSilence находит сегменты тишины через FFmpeg silencedetect.
// FFmpeg пишет результат анализа в stderr
func (s *Splitter) detectSilence(ctx context.Context, inputFile string) ([]SilenceSegment, error) {
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-i", inputFile,
		"-af", "silencedetect=noise=-30dB:d=0.5",
		"-f", "null",
		"-")

	var stderr strings.Builder
	cmd.Stderr = &stderr

	// silencedetect через -f null всегда «падает» на части входов, это нормально
	if err := cmd.Run(); err != nil {
		s.logger.Debug("ffmpeg silencedetect завершился с ошибкой", zap.Error(err))
	}

	return parseSilenceLog(strings.NewReader(stderr.String()))
}

var (
	silenceStartRe = regexp.MustCompile(`silence_start: ([\d.]+)`)
	silenceEndRe   = regexp.MustCompile(`silence_end: ([\d.]+) \| silence_duration: ([\d.]+)`)
)

// parseSilenceLog парсит вывод silencedetect
func parseSilenceLog(r io.Reader) ([]SilenceSegment, error) {
	var segments []SilenceSegment
	var currentStart *float64

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()

		if matches := silenceStartRe.FindStringSubmatch(line); matches != nil {
			start, err := strconv.ParseFloat(matches[1], 64)
			if err == nil {
				currentStart = &start
			}
		}

		if matches := silenceEndRe.FindStringSubmatch(line); matches != nil && currentStart != nil {
			duration, err := strconv.ParseFloat(matches[2], 64)
			if err == nil {
				segments = append(segments, SilenceSegment{
					Start:    *currentStart,
					Duration: duration,
				})
			}
			currentStart = nil
		}
	}

	return segments, scanner.Err()
}

// audioDuration получает длительность аудиофайла через ffprobe
func (s *Splitter) audioDuration(ctx context.Context, inputFile string) (float64, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "quiet",
		"-show_entries", "format=duration",
		"-of", "csv=p=0",
		inputFile)

	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ошибка выполнения ffprobe: %w", err)
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(string(output)), 64)
	if err != nil {
		return 0, fmt.Errorf("ошибка парсинга длительности: %w", err)
	}

	return duration, nil
}

// buildSpeechSegments строит сегменты речи между паузами
func buildSpeechSegments(silence []SilenceSegment, totalDuration, maxSegmentDuration float64) []SpeechSegment {
	var segments []SpeechSegment

	currentStart := 0.0

	appendSpeech := func(start, duration float64) {
		if duration > maxSegmentDuration {
			segments = append(segments, splitLongSegment(start, duration, maxSegmentDuration)...)
		} else if duration > 1.0 { // очень короткие сегменты не несут речи
			segments = append(segments, SpeechSegment{
				Start:    start,
				End:      start + duration,
				Duration: duration,
			})
		}
	}

	for _, sil := range silence {
		if sil.Start > currentStart {
			appendSpeech(currentStart, sil.Start-currentStart)
		}
		currentStart = sil.Start + sil.Duration
	}

	if currentStart < totalDuration {
		appendSpeech(currentStart, totalDuration-currentStart)
	}

	return segments
}

// splitLongSegment разбивает длинный сегмент на части не длиннее maxDuration
func splitLongSegment(start, duration, maxDuration float64) []SpeechSegment {
	var segments []SpeechSegment

	currentStart := start
	remaining := duration

	for remaining > 0 {
		segmentDuration := maxDuration
		if remaining < maxDuration {
			segmentDuration = remaining
		}

		segments = append(segments, SpeechSegment{
			Start:    currentStart,
			End:      currentStart + segmentDuration,
			Duration: segmentDuration,
		})

		currentStart += segmentDuration
		remaining -= segmentDuration
	}

	return segments
}

// extractSegment извлекает сегмент аудио с помощью FFmpeg
func (s *Splitter) extractSegment(ctx context.Context, inputFile, outputFile string, start, duration float64) error {
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-y",
		"-i", inputFile,
		"-ss", fmt.Sprintf("%.3f", start),
		"-t", fmt.Sprintf("%.3f", duration),
		"-c", "copy",
		outputFile)

	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ошибка извлечения сегмента: %w, вывод: %s", err, output)
	}

	return nil
}

// CleanupSegments удаляет файлы сегментов
func (s *Splitter) CleanupSegments(segments []SpeechSegment) {
	for _, segment := range segments {
		if segment.FilePath == "" {
			continue
		}
		if err := os.Remove(segment.FilePath); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("ошибка удаления файла сегмента",
				zap.String("file", segment.FilePath),
				zap.Error(err))
		}
	}
}
