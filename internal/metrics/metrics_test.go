package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func TestMetrics(t *testing.T) {
	logger := zap.NewNop()
	m := New(logger)

	// Test DM gateway counters
	m.RecordDMRequest("send", true)
	m.RecordDMRequest("inbox", false)

	// Test synthesis metrics
	m.RecordSynthesis("wav", "coqui", true, 1.5)
	m.RecordSynthesis("json", "coqui", false, 0)

	// Test transcription metrics
	m.RecordTranscription("whispercpp", true, 4.2)

	// Test upstream and gauge
	m.RecordUpstream("usernameinfo", 0.3)
	m.SetSessionLoggedIn(true)
	m.SetSessionLoggedIn(false)
}

func TestHealthHandler(t *testing.T) {
	logger := zap.NewNop()
	h := NewHandler(nil, "safira-whisper", logger)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	h.HealthHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("ожидался статус 200, получен %d", rec.Code)
	}

	expected := `{"status":"ok","service":"safira-whisper"}`
	if rec.Body.String() != expected {
		t.Errorf("ожидалось тело '%s', получено '%s'", expected, rec.Body.String())
	}
}
