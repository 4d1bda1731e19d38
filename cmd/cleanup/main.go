package main

import (
	"context"
	"flag"
	"log"
	"time"

	"safira/internal/config"
	"safira/internal/store"

	"go.uber.org/zap"
)

func main() {
	var (
		maxAgeDays = flag.Int("max-age", 30, "Возраст записей в днях, старше которого они удаляются")
		dmLog      = flag.Bool("dm-log", true, "Чистить журнал отправленных сообщений")
		records    = flag.Bool("transcriptions", true, "Чистить журнал транскрибаций")
		dryRun     = flag.Bool("dry-run", false, "Показать что будет удалено без фактического удаления")
	)
	flag.Parse()

	// Инициализация логгера
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Ошибка инициализации логгера:", err)
	}
	defer logger.Sync()

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Ошибка загрузки конфигурации", zap.Error(err))
	}
	if !cfg.Database.Enabled {
		logger.Fatal("Журнал операций отключен, чистить нечего (AUDIT_LOG_ENABLED=false)")
	}

	// Подключение к базе данных
	dataStore, err := store.NewStore(cfg, logger)
	if err != nil {
		logger.Fatal("Ошибка подключения к базе данных", zap.Error(err))
	}
	defer dataStore.Close()

	ctx := context.Background()
	maxAge := time.Duration(*maxAgeDays) * 24 * time.Hour

	if *dryRun {
		logger.Info("DRY RUN: удаление выполняться не будет",
			zap.Int("max_age_days", *maxAgeDays),
			zap.Bool("dm_log", *dmLog),
			zap.Bool("transcriptions", *records))
		return
	}

	if *dmLog {
		deleted, err := dataStore.DMLog().DeleteOlderThan(ctx, maxAge)
		if err != nil {
			logger.Fatal("Ошибка очистки журнала сообщений", zap.Error(err))
		}
		logger.Info("Журнал сообщений очищен",
			zap.Int64("deleted_count", deleted),
			zap.Int("max_age_days", *maxAgeDays))
	}

	if *records {
		deleted, err := dataStore.Transcription().DeleteOlderThan(ctx, maxAge)
		if err != nil {
			logger.Fatal("Ошибка очистки журнала транскрибаций", zap.Error(err))
		}
		logger.Info("Журнал транскрибаций очищен",
			zap.Int64("deleted_count", deleted),
			zap.Int("max_age_days", *maxAgeDays))
	}

	logger.Info("Очистка завершена успешно")
}
