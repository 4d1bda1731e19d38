package store

import (
	"context"
	"fmt"
	"time"

	"safira/pkg/models"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// transcriptionRepository реализует TranscriptionRepository
type transcriptionRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewTranscriptionRepository создает новый репозиторий журнала транскрибаций
func NewTranscriptionRepository(db *pgxpool.Pool, logger *zap.Logger) TranscriptionRepository {
	return &transcriptionRepository{
		db:     db,
		logger: logger,
	}
}

// Create создает запись о выполненной транскрибации
func (r *transcriptionRepository) Create(ctx context.Context, rec *models.TranscriptionRecord) error {
	query := `
		INSERT INTO transcriptions (filename, text, language, language_probability, duration_sec, engine, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	rec.CreatedAt = time.Now()

	err := r.db.QueryRow(ctx, query,
		rec.Filename, rec.Text, rec.Language, rec.LanguageProb, rec.DurationSec, rec.EngineName, rec.CreatedAt,
	).Scan(&rec.ID)

	if err != nil {
		return fmt.Errorf("ошибка создания записи транскрибации: %w", err)
	}

	r.logger.Info("запись транскрибации создана",
		zap.Int64("id", rec.ID),
		zap.String("filename", rec.Filename),
		zap.String("language", rec.Language))

	return nil
}

// GetRecent получает последние записи транскрибаций
func (r *transcriptionRepository) GetRecent(ctx context.Context, limit int) ([]models.TranscriptionRecord, error) {
	query := `
		SELECT id, filename, text, language, language_probability, duration_sec, engine, created_at
		FROM transcriptions
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения записей транскрибаций: %w", err)
	}
	defer rows.Close()

	var records []models.TranscriptionRecord
	for rows.Next() {
		var rec models.TranscriptionRecord
		err := rows.Scan(&rec.ID, &rec.Filename, &rec.Text, &rec.Language, &rec.LanguageProb, &rec.DurationSec, &rec.EngineName, &rec.CreatedAt)
		if err != nil {
			r.logger.Error("ошибка сканирования записи транскрибации", zap.Error(err))
			continue
		}
		records = append(records, rec)
	}

	return records, nil
}

// DeleteOlderThan удаляет записи транскрибаций старше указанного возраста
func (r *transcriptionRepository) DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	cutoff := time.Now().Add(-age)

	result, err := r.db.Exec(ctx, `DELETE FROM transcriptions WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("ошибка очистки журнала транскрибаций: %w", err)
	}

	deleted := result.RowsAffected()
	r.logger.Info("журнал транскрибаций очищен",
		zap.Int64("deleted", deleted),
		zap.Time("cutoff", cutoff))

	return deleted, nil
}
