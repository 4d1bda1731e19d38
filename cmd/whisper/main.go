package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"safira/internal/audio"
	"safira/internal/config"
	"safira/internal/metrics"
	"safira/internal/migrations"
	"safira/internal/store"
	"safira/internal/whisper"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

func main() {
	// Инициализация логгера
	logger, err := initLogger()
	if err != nil {
		fmt.Printf("Ошибка инициализации логгера: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("запуск сервиса транскрибации")

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("ошибка загрузки конфигурации", zap.Error(err))
	}
	if err := cfg.ValidateWhisper(); err != nil {
		logger.Fatal("ошибка конфигурации", zap.Error(err))
	}

	// Инициализация движка распознавания
	logger.Info("конфигурация распознавания",
		zap.String("engine", cfg.Whisper.Engine),
		zap.String("model", cfg.Whisper.Model),
		zap.String("language", cfg.Whisper.Language),
		zap.String("device", cfg.Whisper.Device),
		zap.String("compute_type", cfg.Whisper.ComputeType),
		zap.Bool("vad", cfg.Whisper.UseVAD))

	engine, err := whisper.NewTranscriber(&cfg.Whisper, logger)
	if err != nil {
		logger.Fatal("ошибка создания движка распознавания", zap.Error(err))
	}

	// Инициализация метрик
	metricsSystem := metrics.New(logger)
	metricsHandler := metrics.NewHandler(metricsSystem, "safira-whisper", logger)

	converter := audio.NewConverter(logger)

	handler := whisper.NewHandler(engine, converter, logger).
		WithMetrics(metricsSystem)

	if cfg.Whisper.UseVAD {
		handler.WithVAD(audio.NewSplitter(logger))
	}

	// Журнал транскрибаций в PostgreSQL, если включен
	if cfg.Database.Enabled {
		dataStore, err := store.NewStore(cfg, logger)
		if err != nil {
			logger.Fatal("ошибка инициализации базы данных", zap.Error(err))
		}
		defer dataStore.Close()

		if err := migrations.RunMigrations(cfg, logger); err != nil {
			logger.Fatal("ошибка применения миграций", zap.Error(err))
		}

		handler.WithRecords(dataStore.Transcription())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	router := newRouter()
	handler.RegisterRoutes(router)
	router.Get("/healthz", handler.HealthHandler)
	router.Handle("/metrics", metricsHandler.MetricsHandler())

	runServer(ctx, cancel, cfg.Whisper.Port, router, logger)
}

// initLogger инициализирует логгер
func initLogger() (*zap.Logger, error) {
	config := zap.NewDevelopmentConfig()
	config.OutputPaths = []string{"stdout", "logs/app.log"}
	config.ErrorOutputPaths = []string{"stderr", "logs/error.log"}

	// Создаем директорию для логов если её нет
	if err := os.MkdirAll("logs", 0755); err != nil {
		return nil, fmt.Errorf("ошибка создания директории логов: %w", err)
	}

	return config.Build()
}

func newRouter() *chi.Mux {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	}))
	return r
}

// runServer запускает HTTP сервер и ждет сигнала завершения
func runServer(ctx context.Context, cancel context.CancelFunc, port int, router *chi.Mux, logger *zap.Logger) {
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: router,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("HTTP сервер запущен", zap.String("address", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("ошибка HTTP сервера", zap.Error(err))
			cancel()
		}
	}()

	select {
	case <-sigChan:
		logger.Info("получен сигнал завершения, начинаем graceful shutdown")
	case <-ctx.Done():
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("ошибка при остановке HTTP сервера", zap.Error(err))
	}

	logger.Info("приложение завершено")
}
