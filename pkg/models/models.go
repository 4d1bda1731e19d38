package models

import "time"

// DMLogEntry представляет запись журнала отправленных direct-сообщений
type DMLogEntry struct {
	ID        int64     `json:"id" db:"id"`
	Username  string    `json:"username" db:"username"`
	UserID    int64     `json:"user_id" db:"user_id"`
	ThreadID  string    `json:"thread_id" db:"thread_id"`
	Message   string    `json:"message" db:"message"`
	Status    string    `json:"status" db:"status"` // sent, failed
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Статусы записей журнала direct-сообщений
const (
	DMStatusSent   = "sent"
	DMStatusFailed = "failed"
)

// TranscriptionRecord представляет запись журнала транскрибаций
type TranscriptionRecord struct {
	ID           int64     `json:"id" db:"id"`
	Filename     string    `json:"filename" db:"filename"`
	Text         string    `json:"text" db:"text"`
	Language     string    `json:"language" db:"language"`
	LanguageProb float64   `json:"language_probability" db:"language_probability"`
	DurationSec  float64   `json:"duration_sec" db:"duration_sec"`
	EngineName   string    `json:"engine" db:"engine"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
