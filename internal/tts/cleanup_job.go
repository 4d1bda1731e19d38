package tts

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// CleanupJob удаляет старые аудио файлы из рабочей директории.
// Сгенерированные файлы раздаются через /audio и копятся бесконечно
type CleanupJob struct {
	dir    string
	maxAge time.Duration
	logger *zap.Logger
}

// NewCleanupJob создает задачу очистки аудио директории
func NewCleanupJob(dir string, maxAge time.Duration, logger *zap.Logger) *CleanupJob {
	return &CleanupJob{
		dir:    dir,
		maxAge: maxAge,
		logger: logger,
	}
}

func (j *CleanupJob) Name() string {
	return "tts_audio_cleanup"
}

func (j *CleanupJob) Run(ctx context.Context) error {
	cutoff := time.Now().Add(-j.maxAge)
	removed := 0

	entries, err := os.ReadDir(j.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		if info.ModTime().Before(cutoff) {
			path := filepath.Join(j.dir, entry.Name())
			if err := os.Remove(path); err != nil {
				j.logger.Warn("ошибка удаления старого аудио файла",
					zap.String("file", path),
					zap.Error(err))
				continue
			}
			removed++
		}
	}

	if removed > 0 {
		j.logger.Info("очистка аудио директории завершена",
			zap.String("dir", j.dir),
			zap.Int("removed", removed))
	}

	return nil
}
