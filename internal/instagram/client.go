package instagram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultUserAgent = "Instagram 269.0.0.18.75 Android (26/8.0.0; 480dpi; 1080x1920; Xiaomi; MI 5s; capricorn; qcom; pt_BR; 314665256)"

// UpstreamMetrics записывает метрики запросов к Instagram API
type UpstreamMetrics interface {
	RecordUpstream(endpoint string, seconds float64)
	SetSessionLoggedIn(loggedIn bool)
}

// UserIDCache кэширует соответствие username -> user_id
type UserIDCache interface {
	Get(ctx context.Context, username string) (int64, bool)
	Set(ctx context.Context, username string, userID int64)
}

// Client представляет клиент приватного Instagram API (i.instagram.com).
// Повторяет минимальное подмножество поведения мобильного приложения:
// постоянные идентификаторы устройства, cookies сессии, form-encoded запросы
type Client struct {
	baseURL    string
	session    *Session
	httpClient *http.Client
	logger     *zap.Logger
	cache      UserIDCache
	metrics    UpstreamMetrics
}

// NewClient создает новый клиент Instagram API
func NewClient(baseURL string, session *Session, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		session: session,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// WithCache подключает кэш user_id
func (c *Client) WithCache(cache UserIDCache) *Client {
	c.cache = cache
	return c
}

// WithMetrics подключает метрики запросов
func (c *Client) WithMetrics(m UpstreamMetrics) *Client {
	c.metrics = m
	return c
}

// Session возвращает текущую сессию клиента
func (c *Client) Session() *Session {
	return c.session
}

// apiError представляет тело ошибки Instagram API
type apiError struct {
	Message   string `json:"message"`
	Status    string `json:"status"`
	ErrorType string `json:"error_type"`
}

// UpstreamError ошибка, возвращенная Instagram API
type UpstreamError struct {
	StatusCode int
	Message    string
	ErrorType  string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("instagram api: статус %d, %s (%s)", e.StatusCode, e.Message, e.ErrorType)
}

// User представляет пользователя Instagram
type User struct {
	PK       int64  `json:"pk"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
}

// Thread представляет тред direct-сообщений
type Thread struct {
	ThreadID       string       `json:"thread_id"`
	ThreadTitle    string       `json:"thread_title"`
	Users          []User       `json:"users"`
	LastActivityAt int64        `json:"last_activity_at"`
	Items          []ThreadItem `json:"items"`
}

// ThreadItem представляет сообщение в треде
type ThreadItem struct {
	ItemID    string `json:"item_id"`
	UserID    int64  `json:"user_id"`
	Timestamp int64  `json:"timestamp"`
	ItemType  string `json:"item_type"`
	Text      string `json:"text,omitempty"`
}

// Login выполняет вход. При живой cookie сессии повторный логин не нужен:
// достаточно проверить ее запросом к inbox
func (c *Client) Login(ctx context.Context, username, password string) error {
	if c.session.LoggedIn() {
		if _, err := c.Inbox(ctx, 1); err == nil {
			c.logger.Info("сессия Instagram еще жива, повторный вход не требуется",
				zap.String("username", c.session.Username))
			c.setLoggedInMetric(true)
			return nil
		}
		c.logger.Warn("сохраненная сессия устарела, выполняем полный вход")
	}

	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)
	form.Set("guid", c.session.UUID)
	form.Set("phone_id", c.session.PhoneID)
	form.Set("device_id", c.session.DeviceID)
	form.Set("login_attempt_count", "0")

	body, err := c.do(ctx, http.MethodPost, "/accounts/login/", form)
	if err != nil {
		c.setLoggedInMetric(false)
		return fmt.Errorf("ошибка входа в Instagram: %w", err)
	}

	var resp struct {
		LoggedInUser User   `json:"logged_in_user"`
		Status       string `json:"status"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("ошибка парсинга ответа входа: %w", err)
	}

	c.session.setUser(resp.LoggedInUser.PK, resp.LoggedInUser.Username)

	c.logger.Info("вход в Instagram выполнен",
		zap.String("username", resp.LoggedInUser.Username),
		zap.Int64("user_id", resp.LoggedInUser.PK))
	c.setLoggedInMetric(true)

	return nil
}

// UserIDFromUsername возвращает числовой идентификатор пользователя
func (c *Client) UserIDFromUsername(ctx context.Context, username string) (int64, error) {
	if c.cache != nil {
		if id, ok := c.cache.Get(ctx, username); ok {
			c.logger.Debug("user_id найден в кэше",
				zap.String("username", username),
				zap.Int64("user_id", id))
			return id, nil
		}
	}

	body, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/users/%s/usernameinfo/", url.PathEscape(username)), nil)
	if err != nil {
		return 0, fmt.Errorf("ошибка получения user_id для %s: %w", username, err)
	}

	var resp struct {
		User   User   `json:"user"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("ошибка парсинга usernameinfo: %w", err)
	}

	if resp.User.PK == 0 {
		return 0, fmt.Errorf("пользователь %s не найден", username)
	}

	if c.cache != nil {
		c.cache.Set(ctx, username, resp.User.PK)
	}

	return resp.User.PK, nil
}

// SendDirectText отправляет текстовое direct-сообщение пользователю.
// Возвращает thread_id созданного или существующего треда
func (c *Client) SendDirectText(ctx context.Context, userID int64, text string) (string, error) {
	form := url.Values{}
	form.Set("recipient_users", fmt.Sprintf("[[%d]]", userID))
	form.Set("text", text)
	form.Set("client_context", uuid.New().String())
	form.Set("action", "send_item")

	body, err := c.do(ctx, http.MethodPost, "/direct_v2/threads/broadcast/text/", form)
	if err != nil {
		return "", fmt.Errorf("ошибка отправки direct-сообщения: %w", err)
	}

	var resp struct {
		Payload struct {
			ThreadID string `json:"thread_id"`
			ItemID   string `json:"item_id"`
		} `json:"payload"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("ошибка парсинга ответа отправки: %w", err)
	}

	c.logger.Info("direct-сообщение отправлено",
		zap.Int64("user_id", userID),
		zap.String("thread_id", resp.Payload.ThreadID),
		zap.Int("text_length", len(text)))

	return resp.Payload.ThreadID, nil
}

// Inbox возвращает последние треды входящих
func (c *Client) Inbox(ctx context.Context, limit int) ([]Thread, error) {
	body, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/direct_v2/inbox/?limit=%d", limit), nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения inbox: %w", err)
	}

	var resp struct {
		Inbox struct {
			Threads []Thread `json:"threads"`
		} `json:"inbox"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("ошибка парсинга inbox: %w", err)
	}

	return resp.Inbox.Threads, nil
}

// ThreadMessages возвращает сообщения треда
func (c *Client) ThreadMessages(ctx context.Context, threadID string) ([]ThreadItem, error) {
	body, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/direct_v2/threads/%s/", url.PathEscape(threadID)), nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения треда %s: %w", threadID, err)
	}

	var resp struct {
		Thread struct {
			Items []ThreadItem `json:"items"`
		} `json:"thread"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("ошибка парсинга треда: %w", err)
	}

	return resp.Thread.Items, nil
}

// do выполняет запрос к API с заголовками устройства и cookies сессии
func (c *Client) do(ctx context.Context, method, path string, form url.Values) ([]byte, error) {
	var reqBody io.Reader
	if form != nil {
		reqBody = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}

	req.Header.Set("User-Agent", c.session.UserAgent)
	req.Header.Set("X-IG-Device-ID", c.session.UUID)
	req.Header.Set("X-IG-Android-ID", c.session.DeviceID)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	}

	cookies, csrfToken := c.session.cookieSnapshot()
	if csrfToken != "" {
		req.Header.Set("X-CSRFToken", csrfToken)
	}
	for name, value := range cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка выполнения запроса: %w", err)
	}
	defer resp.Body.Close()

	if c.metrics != nil {
		c.metrics.RecordUpstream(endpointLabel(path), time.Since(start).Seconds())
	}

	// Обновляем cookies сессии из ответа
	c.session.storeCookies(resp.Cookies())

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения ответа: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
			return nil, &UpstreamError{
				StatusCode: resp.StatusCode,
				Message:    apiErr.Message,
				ErrorType:  apiErr.ErrorType,
			}
		}
		return nil, &UpstreamError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
		}
	}

	return body, nil
}

// endpointLabel обрезает путь до имени эндпоинта для метрик,
// чтобы не плодить кардинальность из-за username/thread_id в пути
func endpointLabel(path string) string {
	path = strings.SplitN(path, "?", 2)[0]
	switch {
	case strings.HasPrefix(path, "/accounts/login"):
		return "login"
	case strings.HasPrefix(path, "/users/"):
		return "usernameinfo"
	case strings.HasPrefix(path, "/direct_v2/threads/broadcast"):
		return "broadcast_text"
	case strings.HasPrefix(path, "/direct_v2/inbox"):
		return "inbox"
	case strings.HasPrefix(path, "/direct_v2/threads/"):
		return "thread"
	default:
		return "other"
	}
}

func (c *Client) setLoggedInMetric(loggedIn bool) {
	if c.metrics != nil {
		c.metrics.SetSessionLoggedIn(loggedIn)
	}
}
