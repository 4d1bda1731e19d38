package instagram

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// Session содержит состояние авторизованной сессии Instagram.
// Формат файла совместим между перезапусками: устройство и cookies
// переиспользуются, чтобы не выглядеть новым логином для анти-спам систем.
// Cookies и CSRFToken ротируются в каждом ответе API и читаются из нескольких
// горутин (обработчики chi, SessionJob), поэтому доступ идет через мьютекс
type Session struct {
	mu sync.Mutex

	UUID      string            `json:"uuid"`
	PhoneID   string            `json:"phone_id"`
	DeviceID  string            `json:"device_id"`
	UserID    int64             `json:"user_id"`
	Username  string            `json:"username"`
	CSRFToken string            `json:"csrf_token"`
	Cookies   map[string]string `json:"cookies"`
	UserAgent string            `json:"user_agent"`
}

// Instagram принимает device_id вида android-<16 hex символов>
func newDeviceID() string {
	id := uuid.New()
	return "android-" + hex.EncodeToString(id[:8])
}

// NewSession создает новую сессию со свежими идентификаторами устройства
func NewSession(username string) *Session {
	return &Session{
		UUID:      uuid.New().String(),
		PhoneID:   uuid.New().String(),
		DeviceID:  newDeviceID(),
		Username:  username,
		Cookies:   make(map[string]string),
		UserAgent: defaultUserAgent,
	}
}

// LoadSession загружает сессию из JSON файла
func LoadSession(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения файла сессии: %w", err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("ошибка парсинга файла сессии: %w", err)
	}

	if s.Cookies == nil {
		s.Cookies = make(map[string]string)
	}
	if s.UserAgent == "" {
		s.UserAgent = defaultUserAgent
	}

	return &s, nil
}

// Save сохраняет сессию в JSON файл
func (s *Session) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("ошибка создания директории сессии: %w", err)
	}

	s.mu.Lock()
	data, err := json.MarshalIndent(s, "", "  ")
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("ошибка сериализации сессии: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("ошибка записи файла сессии: %w", err)
	}

	return nil
}

// LoggedIn проверяет, есть ли в сессии авторизационная cookie
func (s *Session) LoggedIn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Cookies["sessionid"] != ""
}

// cookieSnapshot возвращает копию cookies и CSRF токена для построения запроса
func (s *Session) cookieSnapshot() (map[string]string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cookies := make(map[string]string, len(s.Cookies))
	for name, value := range s.Cookies {
		cookies[name] = value
	}

	return cookies, s.CSRFToken
}

// storeCookies обновляет cookies сессии из ответа API
func (s *Session) storeCookies(cookies []*http.Cookie) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, cookie := range cookies {
		s.Cookies[cookie.Name] = cookie.Value
		if cookie.Name == "csrftoken" {
			s.CSRFToken = cookie.Value
		}
	}
}

// setUser фиксирует идентификацию пользователя после логина
func (s *Session) setUser(userID int64, username string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.UserID = userID
	s.Username = username
}
