package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"safira/internal/audio"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeTranscriber struct {
	results map[string]*Result
	err     error
	calls   []string
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, wavPath string) (*Result, error) {
	f.calls = append(f.calls, wavPath)
	if f.err != nil {
		return nil, f.err
	}
	if r, ok := f.results[wavPath]; ok {
		return r, nil
	}
	return &Result{Text: "texto padrão", Language: "pt", LanguageProb: 0.98765, Duration: 3.0}, nil
}

func (f *fakeTranscriber) Name() string { return "fake" }

// fakeConverter возвращает копию входного файла, чтобы обработчик мог
// удалить оба пути независимо
type fakeConverter struct {
	err error
}

func (f *fakeConverter) ToWhisperWAV(ctx context.Context, inputFile string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	tmp, err := os.CreateTemp("", "converted_*.wav")
	if err != nil {
		return "", err
	}
	tmp.Close()
	return tmp.Name(), nil
}

type fakeSplitter struct {
	segments []audio.SpeechSegment
	cleaned  bool
}

func (f *fakeSplitter) SplitBySilence(ctx context.Context, inputFile string, maxSegmentDuration float64) ([]audio.SpeechSegment, error) {
	return f.segments, nil
}

func (f *fakeSplitter) CleanupSegments(segments []audio.SpeechSegment) {
	f.cleaned = true
}

func newUploadRequest(t *testing.T, fieldName string) *http.Request {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile(fieldName, "voice.ogg")
	require.NoError(t, err)
	_, err = part.Write([]byte("fake-audio-bytes"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/transcribe", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func newTestRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	r.Get("/healthz", h.HealthHandler)
	return r
}

func TestTranscribeSuccess(t *testing.T) {
	engine := &fakeTranscriber{}
	h := NewHandler(engine, &fakeConverter{}, zap.NewNop())
	router := newTestRouter(h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, newUploadRequest(t, "file"))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "texto padrão", resp["transcription"])
	assert.Equal(t, "pt", resp["language"])
	assert.Equal(t, 0.988, resp["language_probability"])
}

func TestTranscribeMissingFile(t *testing.T) {
	engine := &fakeTranscriber{}
	h := NewHandler(engine, &fakeConverter{}, zap.NewNop())
	router := newTestRouter(h)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/transcribe", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp["error"], "file")
	assert.Empty(t, engine.calls)
}

func TestTranscribeConverterError(t *testing.T) {
	engine := &fakeTranscriber{}
	h := NewHandler(engine, &fakeConverter{err: fmt.Errorf("ffmpeg недоступен")}, zap.NewNop())
	router := newTestRouter(h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, newUploadRequest(t, "file"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Empty(t, engine.calls)
}

func TestTranscribeEngineError(t *testing.T) {
	engine := &fakeTranscriber{err: fmt.Errorf("модель не найдена")}
	h := NewHandler(engine, &fakeConverter{}, zap.NewNop())
	router := newTestRouter(h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, newUploadRequest(t, "file"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestTranscribeWithVAD(t *testing.T) {
	seg1, err := os.CreateTemp("", "seg1_*.wav")
	require.NoError(t, err)
	seg1.Close()
	defer os.Remove(seg1.Name())

	seg2, err := os.CreateTemp("", "seg2_*.wav")
	require.NoError(t, err)
	seg2.Close()
	defer os.Remove(seg2.Name())

	engine := &fakeTranscriber{
		results: map[string]*Result{
			seg1.Name(): {Text: "primeira parte", Language: "pt", LanguageProb: 0.95, Duration: 10},
			seg2.Name(): {Text: "segunda parte", Language: "pt", LanguageProb: 0.9, Duration: 12},
		},
	}
	splitter := &fakeSplitter{
		segments: []audio.SpeechSegment{
			{FilePath: seg1.Name(), Start: 0, End: 10},
			{FilePath: seg2.Name(), Start: 11, End: 23},
		},
	}

	h := NewHandler(engine, &fakeConverter{}, zap.NewNop()).WithVAD(splitter)
	router := newTestRouter(h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, newUploadRequest(t, "file"))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "primeira parte segunda parte", resp["transcription"])
	assert.Equal(t, "pt", resp["language"])
	assert.Equal(t, 0.95, resp["language_probability"])

	assert.Equal(t, []string{seg1.Name(), seg2.Name()}, engine.calls)
	assert.True(t, splitter.cleaned)
}

func TestTranscribeVADNoSegmentsFallsBack(t *testing.T) {
	engine := &fakeTranscriber{}
	splitter := &fakeSplitter{segments: nil}

	h := NewHandler(engine, &fakeConverter{}, zap.NewNop()).WithVAD(splitter)
	router := newTestRouter(h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, newUploadRequest(t, "file"))

	require.Equal(t, http.StatusOK, rec.Code)
	// Без сегментов речи файл распознается целиком
	require.Len(t, engine.calls, 1)
}

func TestHealthz(t *testing.T) {
	h := NewHandler(&fakeTranscriber{}, &fakeConverter{}, zap.NewNop())
	router := newTestRouter(h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestRound3(t *testing.T) {
	assert.Equal(t, 0.988, round3(0.98765))
	assert.Equal(t, 1.0, round3(1.0))
	assert.Equal(t, 0.0, round3(0.0001))
}
