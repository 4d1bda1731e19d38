package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"safira/internal/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// Ключи Redis
	userIDKeyPrefix = "safira:instagram:user_id:"

	// Время жизни кэша user_id; числовые id аккаунтов не меняются,
	// но аккаунт может быть удален или переименован
	userIDTTL = 24 * time.Hour
)

// UserIDCache кэширует соответствие username -> числовой user_id Instagram
type UserIDCache struct {
	client *redis.Client
	logger *zap.Logger
}

// NewUserIDCache создает и проверяет новый Redis кэш
func NewUserIDCache(cfg *config.RedisConfig, logger *zap.Logger) (*UserIDCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Проверка подключения
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		return nil, fmt.Errorf("ошибка подключения к Redis: %w", err)
	}

	logger.Info("успешное подключение к Redis", zap.String("addr", cfg.Addr))

	return &UserIDCache{
		client: rdb,
		logger: logger,
	}, nil
}

// Get возвращает закэшированный user_id для username
func (c *UserIDCache) Get(ctx context.Context, username string) (int64, bool) {
	val, err := c.client.Get(ctx, userIDKeyPrefix+username).Result()
	if err == redis.Nil {
		return 0, false
	}
	if err != nil {
		c.logger.Warn("ошибка чтения из Redis", zap.Error(err), zap.String("username", username))
		return 0, false
	}

	id, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		c.logger.Warn("некорректное значение в кэше", zap.String("value", val))
		return 0, false
	}

	return id, true
}

// Set сохраняет user_id для username
func (c *UserIDCache) Set(ctx context.Context, username string, userID int64) {
	err := c.client.Set(ctx, userIDKeyPrefix+username, strconv.FormatInt(userID, 10), userIDTTL).Err()
	if err != nil {
		c.logger.Warn("ошибка записи в Redis", zap.Error(err), zap.String("username", username))
	}
}

// Close закрывает подключение к Redis
func (c *UserIDCache) Close() error {
	return c.client.Close()
}
