package store

import (
	"context"
	"fmt"
	"time"

	"safira/pkg/models"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// dmLogRepository реализует DMLogRepository
type dmLogRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewDMLogRepository создает новый репозиторий журнала direct-сообщений
func NewDMLogRepository(db *pgxpool.Pool, logger *zap.Logger) DMLogRepository {
	return &dmLogRepository{
		db:     db,
		logger: logger,
	}
}

// Create создает запись о попытке отправки direct-сообщения
func (r *dmLogRepository) Create(ctx context.Context, entry *models.DMLogEntry) error {
	query := `
		INSERT INTO dm_log (username, user_id, thread_id, message, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	entry.CreatedAt = time.Now()
	if entry.Status == "" {
		entry.Status = models.DMStatusSent
	}

	err := r.db.QueryRow(ctx, query,
		entry.Username, entry.UserID, entry.ThreadID, entry.Message, entry.Status, entry.CreatedAt,
	).Scan(&entry.ID)

	if err != nil {
		return fmt.Errorf("ошибка создания записи журнала сообщений: %w", err)
	}

	r.logger.Info("запись журнала сообщений создана",
		zap.Int64("id", entry.ID),
		zap.String("username", entry.Username),
		zap.String("status", entry.Status))

	return nil
}

// GetByUsername получает последние записи журнала для получателя
func (r *dmLogRepository) GetByUsername(ctx context.Context, username string, limit int) ([]models.DMLogEntry, error) {
	query := `
		SELECT id, username, user_id, thread_id, message, status, created_at
		FROM dm_log
		WHERE username = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, username, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения журнала сообщений: %w", err)
	}
	defer rows.Close()

	var entries []models.DMLogEntry
	for rows.Next() {
		var e models.DMLogEntry
		err := rows.Scan(&e.ID, &e.Username, &e.UserID, &e.ThreadID, &e.Message, &e.Status, &e.CreatedAt)
		if err != nil {
			r.logger.Error("ошибка сканирования записи журнала сообщений", zap.Error(err))
			continue
		}
		entries = append(entries, e)
	}

	return entries, nil
}

// DeleteOlderThan удаляет записи журнала старше указанного возраста
func (r *dmLogRepository) DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	cutoff := time.Now().Add(-age)

	result, err := r.db.Exec(ctx, `DELETE FROM dm_log WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("ошибка очистки журнала сообщений: %w", err)
	}

	deleted := result.RowsAffected()
	r.logger.Info("журнал сообщений очищен",
		zap.Int64("deleted", deleted),
		zap.Time("cutoff", cutoff))

	return deleted, nil
}
