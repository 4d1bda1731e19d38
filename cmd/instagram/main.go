package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"safira/internal/cache"
	"safira/internal/config"
	"safira/internal/instagram"
	"safira/internal/metrics"
	"safira/internal/migrations"
	"safira/internal/scheduler"
	"safira/internal/store"

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

	logger.Info("запуск Instagram DM шлюза")

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("ошибка загрузки конфигурации", zap.Error(err))
	}
	if err := cfg.ValidateInstagram(); err != nil {
		logger.Fatal("ошибка конфигурации", zap.Error(err))
	}

	// Загружаем сессию с диска либо создаем новую
	session, err := instagram.LoadSession(cfg.Instagram.SessionFile)
	if err != nil {
		logger.Info("сессия не найдена, создаем новую",
			zap.String("file", cfg.Instagram.SessionFile),
			zap.Error(err))
		session = instagram.NewSession(cfg.Instagram.Username)
	}

	// Инициализация метрик
	metricsSystem := metrics.New(logger)
	metricsHandler := metrics.NewHandler(metricsSystem, "safira-instagram", logger)

	// Инициализация Instagram клиента
	client := instagram.NewClient(cfg.Instagram.BaseURL, session, logger).
		WithMetrics(metricsSystem)

	// Подключаем Redis кэш user_id, если настроен
	if cfg.Redis.Addr != "" {
		userIDCache, err := cache.NewUserIDCache(&cfg.Redis, logger)
		if err != nil {
			logger.Fatal("ошибка подключения к Redis", zap.Error(err))
		}
		defer userIDCache.Close()
		client.WithCache(userIDCache)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Логин при старте; при живой сессии пропускается
	if err := client.Login(ctx, cfg.Instagram.Username, cfg.Instagram.Password); err != nil {
		logger.Fatal("ошибка авторизации в Instagram", zap.Error(err))
	}
	if err := session.Save(cfg.Instagram.SessionFile); err != nil {
		logger.Error("ошибка сохранения сессии", zap.Error(err))
	}

	// Инициализация HTTP обработчика
	handler := instagram.NewHandler(client, cfg.Instagram.InboxLimit, logger).
		WithMetrics(metricsSystem)

	// Журнал отправок в PostgreSQL, если включен
	if cfg.Database.Enabled {
		dataStore, err := store.NewStore(cfg, logger)
		if err != nil {
			logger.Fatal("ошибка инициализации базы данных", zap.Error(err))
		}
		defer dataStore.Close()

		if err := migrations.RunMigrations(cfg, logger); err != nil {
			logger.Fatal("ошибка применения миграций", zap.Error(err))
		}

		handler.WithDMLog(dataStore.DMLog())
	}

	// Планировщик периодически сохраняет сессию на диск
	taskScheduler := scheduler.NewScheduler(logger)
	taskScheduler.AddJob(instagram.NewSessionJob(client, cfg.Instagram.SessionFile, logger))
	go taskScheduler.Start(ctx, 30*time.Minute)

	router := newRouter()
	handler.RegisterRoutes(router)
	router.Get("/health", handler.HealthHandler)
	router.Handle("/metrics", metricsHandler.MetricsHandler())

	runServer(ctx, cancel, cfg.Instagram.Port, router, logger)
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
