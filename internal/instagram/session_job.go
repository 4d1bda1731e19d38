package instagram

import (
	"context"

	"go.uber.org/zap"
)

// SessionJob периодически сохраняет сессию на диск.
// Instagram ротирует cookies в ответах, без пересохранения
// файл сессии устаревает и рестарт приводит к полному логину
type SessionJob struct {
	client      *Client
	sessionFile string
	logger      *zap.Logger
}

// NewSessionJob создает задачу сохранения сессии
func NewSessionJob(client *Client, sessionFile string, logger *zap.Logger) *SessionJob {
	return &SessionJob{
		client:      client,
		sessionFile: sessionFile,
		logger:      logger,
	}
}

func (j *SessionJob) Name() string {
	return "instagram_session_save"
}

func (j *SessionJob) Run(ctx context.Context) error {
	if err := j.client.Session().Save(j.sessionFile); err != nil {
		return err
	}

	j.logger.Debug("сессия Instagram сохранена", zap.String("file", j.sessionFile))
	return nil
}
