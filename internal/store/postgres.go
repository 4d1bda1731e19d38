package store

import (
	"context"
	"fmt"
	"time"

	"safira/internal/config"
	"safira/pkg/models"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Store представляет интерфейс для работы с базой данных
type Store interface {
	DMLog() DMLogRepository
	Transcription() TranscriptionRepository
	DB() *pgxpool.Pool
	Close() error
}

// store реализует интерфейс Store
type store struct {
	db            *pgxpool.Pool
	logger        *zap.Logger
	dmLog         DMLogRepository
	transcription TranscriptionRepository
}

// DMLogRepository интерфейс для журнала direct-сообщений
type DMLogRepository interface {
	Create(ctx context.Context, entry *models.DMLogEntry) error
	GetByUsername(ctx context.Context, username string, limit int) ([]models.DMLogEntry, error)
	DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error)
}

// TranscriptionRepository интерфейс для журнала транскрибаций
type TranscriptionRepository interface {
	Create(ctx context.Context, rec *models.TranscriptionRecord) error
	GetRecent(ctx context.Context, limit int) ([]models.TranscriptionRecord, error)
	DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error)
}

// NewStore создает новое подключение к базе данных
func NewStore(cfg *config.Config, logger *zap.Logger) (Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Создание пула подключений
	poolConfig, err := pgxpool.ParseConfig(cfg.Database.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга DSN: %w", err)
	}

	// Настройка пула
	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	db, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к базе данных: %w", err)
	}

	// Проверка подключения
	if err := db.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ошибка проверки подключения к базе данных: %w", err)
	}

	logger.Info("успешное подключение к базе данных PostgreSQL")

	s := &store{
		db:     db,
		logger: logger,
	}

	// Инициализация репозиториев
	s.dmLog = NewDMLogRepository(db, logger)
	s.transcription = NewTranscriptionRepository(db, logger)

	return s, nil
}

// DMLog возвращает репозиторий журнала direct-сообщений
func (s *store) DMLog() DMLogRepository {
	return s.dmLog
}

// Transcription возвращает репозиторий журнала транскрибаций
func (s *store) Transcription() TranscriptionRepository {
	return s.transcription
}

// DB возвращает подключение к базе данных
func (s *store) DB() *pgxpool.Pool {
	return s.db
}

// Close закрывает подключение к базе данных
func (s *store) Close() error {
	s.logger.Info("закрытие подключения к базе данных")
	s.db.Close()
	return nil
}
