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
	"safira/internal/scheduler"
	"safira/internal/tts"

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

	logger.Info("запуск сервиса синтеза речи")

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("ошибка загрузки конфигурации", zap.Error(err))
	}
	if err := cfg.ValidateTTS(); err != nil {
		logger.Fatal("ошибка конфигурации", zap.Error(err))
	}

	if err := os.MkdirAll(cfg.TTS.AudioDir, 0755); err != nil {
		logger.Fatal("ошибка создания директории аудио", zap.Error(err))
	}

	// Инициализация движка синтеза
	logger.Info("конфигурация синтеза",
		zap.String("engine", cfg.TTS.Engine),
		zap.String("model", cfg.TTS.ModelName),
		zap.String("language", cfg.TTS.DefaultLanguage))

	engine, err := tts.NewTTSService(&cfg.TTS, logger)
	if err != nil {
		logger.Fatal("ошибка создания движка синтеза", zap.Error(err))
	}

	// Инициализация метрик
	metricsSystem := metrics.New(logger)
	metricsHandler := metrics.NewHandler(metricsSystem, "safira-tts", logger)

	// Конвертер wav в ogg/opus для JSON ответов
	converter := audio.NewConverter(logger)

	handler := tts.NewHandler(engine, converter, cfg.TTS.DefaultLanguage, cfg.TTS.AudioDir, logger).
		WithMetrics(metricsSystem)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Планировщик чистит старые аудио файлы
	taskScheduler := scheduler.NewScheduler(logger)
	taskScheduler.AddJob(tts.NewCleanupJob(cfg.TTS.AudioDir, 24*time.Hour, logger))
	go taskScheduler.Start(ctx, 6*time.Hour)

	router := newRouter()
	handler.RegisterRoutes(router)
	router.Get("/health", handler.HealthHandler)
	router.Handle("/metrics", metricsHandler.MetricsHandler())

	runServer(ctx, cancel, cfg.TTS.Port, router, logger)
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
