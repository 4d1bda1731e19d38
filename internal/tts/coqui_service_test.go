package tts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestCleanText(t *testing.T) {
	s := NewCoquiService(zap.NewNop(), "tts_models/multilingual/multi-dataset/xtts_v2")

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"убирает html теги", "<b>Olá</b> <i>mundo</i>", "Olá mundo"},
		{"схлопывает пробелы", "um    dois   três", "um dois três"},
		{"обрезает края", "  texto  ", "texto"},
		{"пустая строка", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, s.cleanText(tt.input))
		})
	}
}

func TestCoquiServiceName(t *testing.T) {
	s := NewCoquiService(zap.NewNop(), "xtts_v2")
	assert.Equal(t, "coqui", s.Name())
}
