package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig(t *testing.T) {
	// Устанавливаем переменные окружения для теста
	os.Setenv("IG_USERNAME", "safira_bot")
	os.Setenv("IG_PASSWORD", "test_password")
	os.Setenv("WHISPER_MODEL", "small")
	os.Setenv("WHISPER_LANGUAGE", "en")
	defer func() {
		os.Unsetenv("IG_USERNAME")
		os.Unsetenv("IG_PASSWORD")
		os.Unsetenv("WHISPER_MODEL")
		os.Unsetenv("WHISPER_LANGUAGE")
	}()

	cfg, err := Load()

	assert.NoError(t, err)
	assert.NotNil(t, cfg)

	// Проверяем значения
	assert.Equal(t, "safira_bot", cfg.Instagram.Username)
	assert.Equal(t, "test_password", cfg.Instagram.Password)
	assert.Equal(t, "small", cfg.Whisper.Model)
	assert.Equal(t, "en", cfg.Whisper.Language)

	// Проверяем значения по умолчанию
	assert.Equal(t, "session/session.json", cfg.Instagram.SessionFile)
	assert.Equal(t, 10, cfg.Instagram.InboxLimit)
	assert.Equal(t, 8000, cfg.Instagram.Port)
	assert.Equal(t, "coqui", cfg.TTS.Engine)
	assert.Equal(t, "tts_models/multilingual/multi-dataset/xtts_v2", cfg.TTS.ModelName)
	assert.Equal(t, "pt", cfg.TTS.DefaultLanguage)
	assert.Equal(t, 5000, cfg.TTS.Port)
	assert.Equal(t, "whispercpp", cfg.Whisper.Engine)
	assert.Equal(t, 5, cfg.Whisper.BeamSize)
	assert.Equal(t, 9000, cfg.Whisper.Port)
	assert.False(t, cfg.Database.Enabled)
}

func TestValidateInstagram(t *testing.T) {
	cfg := &Config{}
	cfg.Instagram.Username = "safira_bot"

	err := cfg.ValidateInstagram()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "IG_PASSWORD")

	cfg.Instagram.Password = "secret"
	assert.NoError(t, cfg.ValidateInstagram())
}

func TestValidateTTS(t *testing.T) {
	cfg := &Config{}
	cfg.TTS.Engine = "espeak"

	err := cfg.ValidateTTS()
	assert.Error(t, err)

	cfg.TTS.Engine = "piper"
	assert.NoError(t, cfg.ValidateTTS())
}

func TestValidateWhisper(t *testing.T) {
	cfg := &Config{}
	cfg.Whisper.Engine = "remote"
	cfg.Whisper.BeamSize = 5
	assert.NoError(t, cfg.ValidateWhisper())

	cfg.Whisper.BeamSize = 0
	assert.Error(t, cfg.ValidateWhisper())

	// Журнал операций включен без настроек БД
	cfg.Whisper.BeamSize = 5
	cfg.Database.Enabled = true
	err := cfg.ValidateWhisper()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "DB_USER")
}

func TestGetDSN(t *testing.T) {
	cfg := &DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "safira",
		Password: "secret",
		Name:     "safira",
		SSLMode:  "disable",
	}

	dsn := cfg.GetDSN()
	assert.Equal(t, "host=localhost port=5432 user=safira password=secret dbname=safira sslmode=disable", dsn)
}
