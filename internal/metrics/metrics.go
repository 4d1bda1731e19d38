package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Metrics содержит все метрики приложения
type Metrics struct {
	logger *zap.Logger

	// Счетчики
	dmRequests         *prometheus.CounterVec
	synthesisRequests  *prometheus.CounterVec
	transcribeRequests *prometheus.CounterVec

	// Гистограммы
	synthesisDuration  *prometheus.HistogramVec
	transcribeDuration *prometheus.HistogramVec
	upstreamDuration   *prometheus.HistogramVec

	// Gauge метрики
	sessionLoggedIn prometheus.Gauge

	// Мьютекс для thread-safety
	mu sync.RWMutex
}

// New создает новый экземпляр метрик
func New(logger *zap.Logger) *Metrics {
	m := &Metrics{
		logger: logger,

		// Счетчики операций DM шлюза
		dmRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dm_requests_total",
				Help: "Общее количество операций Instagram DM шлюза",
			},
			[]string{"operation", "status"}, // operation: send, inbox, thread; status: success, failed
		),

		// Счетчики запросов синтеза речи
		synthesisRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tts_requests_total",
				Help: "Общее количество запросов синтеза речи",
			},
			[]string{"endpoint", "status"}, // endpoint: wav, json; status: success, failed
		),

		// Счетчики запросов транскрибации
		transcribeRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "transcribe_requests_total",
				Help: "Общее количество запросов транскрибации",
			},
			[]string{"status"}, // success, failed
		),

		// Гистограмма времени синтеза
		synthesisDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tts_synthesis_duration_seconds",
				Help:    "Время синтеза речи в секундах",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"engine"},
		),

		// Гистограмма времени транскрибации
		transcribeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "transcribe_duration_seconds",
				Help:    "Время транскрибации в секундах",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120, 300},
			},
			[]string{"engine"},
		),

		// Гистограмма времени запросов к Instagram API
		upstreamDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "instagram_upstream_duration_seconds",
				Help:    "Время запросов к Instagram private API в секундах",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),

		// Gauge состояния сессии Instagram
		sessionLoggedIn: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "instagram_session_logged_in",
				Help: "Состояние сессии Instagram (1 = авторизован)",
			},
		),
	}

	// Регистрируем все метрики
	prometheus.MustRegister(
		m.dmRequests,
		m.synthesisRequests,
		m.transcribeRequests,
		m.synthesisDuration,
		m.transcribeDuration,
		m.upstreamDuration,
		m.sessionLoggedIn,
	)

	return m
}

// RecordDMRequest записывает операцию DM шлюза
func (m *Metrics) RecordDMRequest(operation string, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.dmRequests.WithLabelValues(operation, statusLabel(success)).Inc()
}

// RecordSynthesis записывает запрос синтеза речи
func (m *Metrics) RecordSynthesis(endpoint, engine string, success bool, seconds float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.synthesisRequests.WithLabelValues(endpoint, statusLabel(success)).Inc()
	if success {
		m.synthesisDuration.WithLabelValues(engine).Observe(seconds)
	}
}

// RecordTranscription записывает запрос транскрибации
func (m *Metrics) RecordTranscription(engine string, success bool, seconds float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.transcribeRequests.WithLabelValues(statusLabel(success)).Inc()
	if success {
		m.transcribeDuration.WithLabelValues(engine).Observe(seconds)
	}
}

// RecordUpstream записывает запрос к Instagram API
func (m *Metrics) RecordUpstream(endpoint string, seconds float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.upstreamDuration.WithLabelValues(endpoint).Observe(seconds)
}

// SetSessionLoggedIn устанавливает состояние сессии Instagram
func (m *Metrics) SetSessionLoggedIn(loggedIn bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if loggedIn {
		m.sessionLoggedIn.Set(1)
	} else {
		m.sessionLoggedIn.Set(0)
	}
}

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "failed"
}
