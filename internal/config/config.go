package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Config содержит все конфигурационные параметры приложения
type Config struct {
	Instagram InstagramConfig
	TTS       TTSConfig
	Whisper   WhisperConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	App       AppConfig
}

// InstagramConfig содержит настройки Instagram DM шлюза
type InstagramConfig struct {
	Username    string
	Password    string
	SessionFile string
	BaseURL     string
	InboxLimit  int
	Port        int
}

// TTSConfig содержит настройки сервиса синтеза речи
type TTSConfig struct {
	Engine          string // coqui, piper
	ModelName       string
	DefaultLanguage string
	AudioDir        string
	PiperURL        string
	Port            int
}

// WhisperConfig содержит настройки сервиса транскрибации
type WhisperConfig struct {
	Engine      string // whispercpp, remote
	Model       string
	ModelPath   string
	BinaryPath  string
	Language    string
	Device      string
	ComputeType string
	BeamSize    int
	Threads     int
	UseVAD      bool
	RemoteURL   string
	Port        int
}

// DatabaseConfig содержит настройки PostgreSQL для журнала операций
type DatabaseConfig struct {
	Enabled       bool
	Host          string
	Port          int
	User          string
	Password      string
	Name          string
	SSLMode       string
	MigrationPath string
}

// RedisConfig содержит настройки Redis кэша
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AppConfig struct {
	Env      string
	LogLevel string
}

// Load загружает конфигурацию из переменных окружения и .env
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	// Instagram
	cfg.Instagram.Username = os.Getenv("IG_USERNAME")
	cfg.Instagram.Password = os.Getenv("IG_PASSWORD")
	cfg.Instagram.SessionFile = getEnvDefault("IG_SESSION_FILE", "session/session.json")
	cfg.Instagram.BaseURL = getEnvDefault("IG_API_BASE_URL", "https://i.instagram.com/api/v1")
	cfg.Instagram.InboxLimit = getEnvIntDefault("IG_INBOX_LIMIT", 10)
	cfg.Instagram.Port = getEnvIntDefault("IG_PORT", 8000)

	// TTS
	cfg.TTS.Engine = getEnvDefault("TTS_ENGINE", "coqui")
	cfg.TTS.ModelName = getEnvDefault("TTS_MODEL_NAME", "tts_models/multilingual/multi-dataset/xtts_v2")
	cfg.TTS.DefaultLanguage = getEnvDefault("TTS_LANGUAGE", "pt")
	cfg.TTS.AudioDir = getEnvDefault("TTS_AUDIO_DIR", "/app/audio")
	cfg.TTS.PiperURL = getEnvDefault("PIPER_BASE_URL", "http://piper:5500")
	cfg.TTS.Port = getEnvIntDefault("PORT", 5000)

	// Whisper
	cfg.Whisper.Engine = getEnvDefault("WHISPER_ENGINE", "whispercpp")
	cfg.Whisper.Model = getEnvDefault("WHISPER_MODEL", "large-v3")
	cfg.Whisper.ModelPath = getEnvDefault("WHISPER_MODEL_PATH", "/models/ggml-large-v3.bin")
	cfg.Whisper.BinaryPath = getEnvDefault("WHISPER_BINARY", "whisper-cli")
	cfg.Whisper.Language = getEnvDefault("WHISPER_LANGUAGE", "pt")
	cfg.Whisper.Device = getEnvDefault("WHISPER_DEVICE", "cpu")
	cfg.Whisper.ComputeType = getEnvDefault("WHISPER_COMPUTE_TYPE", "int8")
	cfg.Whisper.BeamSize = getEnvIntDefault("WHISPER_BEAM_SIZE", 5)
	cfg.Whisper.Threads = getEnvIntDefault("WHISPER_THREADS", 4)
	cfg.Whisper.UseVAD = getEnvBoolDefault("WHISPER_USE_VAD", false)
	cfg.Whisper.RemoteURL = getEnvDefault("WHISPER_API_URL", "http://whisper:8080")
	cfg.Whisper.Port = getEnvIntDefault("WHISPER_PORT", 9000)

	// Database (журнал операций, опционально)
	cfg.Database.Enabled = getEnvBoolDefault("AUDIT_LOG_ENABLED", false)
	cfg.Database.Host = getEnvDefault("DB_HOST", "localhost")
	cfg.Database.Port = getEnvIntDefault("DB_PORT", 5432)
	cfg.Database.User = os.Getenv("DB_USER")
	cfg.Database.Password = os.Getenv("DB_PASSWORD")
	cfg.Database.Name = os.Getenv("DB_NAME")
	cfg.Database.SSLMode = getEnvDefault("DB_SSL_MODE", "disable")
	cfg.Database.MigrationPath = getEnvDefault("MIGRATION_PATH", "scripts/migrations")

	// Redis (кэш user_id, опционально; пустой адрес = выключен)
	cfg.Redis.Addr = os.Getenv("REDIS_ADDR")
	cfg.Redis.Password = os.Getenv("REDIS_PASSWORD")
	cfg.Redis.DB = getEnvIntDefault("REDIS_DB", 0)

	// App
	cfg.App.Env = getEnvDefault("APP_ENV", "development")
	cfg.App.LogLevel = getEnvDefault("LOG_LEVEL", "info")

	return cfg, nil
}

func getEnvDefault(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getEnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getEnvBoolDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// ValidateInstagram проверяет конфигурацию Instagram сервиса
func (c *Config) ValidateInstagram() error {
	if c.Instagram.Username == "" {
		return fmt.Errorf("IG_USERNAME не установлен")
	}
	if c.Instagram.Password == "" {
		return fmt.Errorf("IG_PASSWORD не установлен")
	}
	return c.validateAudit()
}

// ValidateTTS проверяет конфигурацию TTS сервиса
func (c *Config) ValidateTTS() error {
	if c.TTS.Engine != "coqui" && c.TTS.Engine != "piper" {
		return fmt.Errorf("поддерживаются только TTS_ENGINE: coqui, piper")
	}
	return nil
}

// ValidateWhisper проверяет конфигурацию сервиса транскрибации
func (c *Config) ValidateWhisper() error {
	if c.Whisper.Engine != "whispercpp" && c.Whisper.Engine != "remote" {
		return fmt.Errorf("поддерживаются только WHISPER_ENGINE: whispercpp, remote")
	}
	if c.Whisper.BeamSize <= 0 {
		return fmt.Errorf("WHISPER_BEAM_SIZE должен быть положительным")
	}
	return c.validateAudit()
}

// validateAudit проверяет настройки базы данных, если журнал операций включен
func (c *Config) validateAudit() error {
	if !c.Database.Enabled {
		return nil
	}
	if c.Database.User == "" {
		return fmt.Errorf("DB_USER не установлен")
	}
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD не установлен")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME не установлен")
	}
	return nil
}

// GetDSN возвращает строку подключения к базе данных
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// IsDevelopment проверяет, запущено ли приложение в режиме разработки
func (c *AppConfig) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction проверяет, запущено ли приложение в продакшн режиме
func (c *AppConfig) IsProduction() bool {
	return c.Env == "production"
}

// GetLogLevel возвращает уровень логирования в формате zap
func (c *AppConfig) GetLogLevel() zap.AtomicLevel {
	switch c.LogLevel {
	case "debug":
		return zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		return zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		return zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		return zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		return zap.NewAtomicLevelAt(zap.InfoLevel)
	}
}
