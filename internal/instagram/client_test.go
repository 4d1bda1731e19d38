package instagram

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeInstagramAPI поднимает httptest сервер с минимальным подмножеством
// приватного API
func fakeInstagramAPI(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/accounts/login/", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil || r.PostFormValue("username") == "" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"message":"bad request","status":"fail"}`))
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "sessionid", Value: "server_session"})
		http.SetCookie(w, &http.Cookie{Name: "csrftoken", Value: "server_csrf"})
		w.Write([]byte(`{"logged_in_user":{"pk":42,"username":"safira_bot"},"status":"ok"}`))
	})

	mux.HandleFunc("/users/maria/usernameinfo/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"user":{"pk":777,"username":"maria","full_name":"Maria"},"status":"ok"}`))
	})

	mux.HandleFunc("/users/ghost/usernameinfo/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"User not found","status":"fail","error_type":"not_found"}`))
	})

	mux.HandleFunc("/direct_v2/threads/broadcast/text/", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "[[777]]", r.PostFormValue("recipient_users"))
		assert.Equal(t, "olá", r.PostFormValue("text"))
		assert.NotEmpty(t, r.PostFormValue("client_context"))
		w.Write([]byte(`{"payload":{"thread_id":"t_100","item_id":"i_1"},"status":"ok"}`))
	})

	mux.HandleFunc("/direct_v2/inbox/", func(w http.ResponseWriter, r *http.Request) {
		// Авторизованные запросы должны нести cookie сессии
		if c, err := r.Cookie("sessionid"); err != nil || c.Value == "" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"message":"login_required","status":"fail","error_type":"login_required"}`))
			return
		}
		w.Write([]byte(`{"inbox":{"threads":[{"thread_id":"t_100","thread_title":"maria","users":[{"pk":777,"username":"maria"}],"last_activity_at":1700000000}]},"status":"ok"}`))
	})

	mux.HandleFunc("/direct_v2/threads/t_100/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"thread":{"items":[{"item_id":"i_1","user_id":42,"timestamp":1700000000,"item_type":"text","text":"olá"}]},"status":"ok"}`))
	})

	return httptest.NewServer(mux)
}

func newTestClient(t *testing.T, serverURL string) *Client {
	return NewClient(serverURL, NewSession("safira_bot"), zap.NewNop())
}

func TestLoginStoresSessionCookies(t *testing.T) {
	server := fakeInstagramAPI(t)
	defer server.Close()

	client := newTestClient(t, server.URL)

	err := client.Login(context.Background(), "safira_bot", "secret")
	require.NoError(t, err)

	session := client.Session()
	assert.Equal(t, int64(42), session.UserID)
	assert.Equal(t, "server_session", session.Cookies["sessionid"])
	assert.Equal(t, "server_csrf", session.CSRFToken)
	assert.True(t, session.LoggedIn())
}

func TestLoginSkipsWhenSessionAlive(t *testing.T) {
	server := fakeInstagramAPI(t)
	defer server.Close()

	client := newTestClient(t, server.URL)
	client.Session().Cookies["sessionid"] = "still_alive"

	// Пароль заведомо не используется: inbox отвечает 200 по живой cookie
	err := client.Login(context.Background(), "safira_bot", "wrong_password")
	assert.NoError(t, err)
}

func TestUserIDFromUsername(t *testing.T) {
	server := fakeInstagramAPI(t)
	defer server.Close()

	client := newTestClient(t, server.URL)

	id, err := client.UserIDFromUsername(context.Background(), "maria")
	require.NoError(t, err)
	assert.Equal(t, int64(777), id)
}

func TestUserIDFromUsernameUpstreamError(t *testing.T) {
	server := fakeInstagramAPI(t)
	defer server.Close()

	client := newTestClient(t, server.URL)

	_, err := client.UserIDFromUsername(context.Background(), "ghost")
	require.Error(t, err)

	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusNotFound, upstream.StatusCode)
	assert.Equal(t, "User not found", upstream.Message)
}

type mapCache struct {
	values map[string]int64
	hits   int
}

func (c *mapCache) Get(ctx context.Context, username string) (int64, bool) {
	id, ok := c.values[username]
	if ok {
		c.hits++
	}
	return id, ok
}

func (c *mapCache) Set(ctx context.Context, username string, userID int64) {
	c.values[username] = userID
}

func TestUserIDFromUsernameUsesCache(t *testing.T) {
	server := fakeInstagramAPI(t)
	defer server.Close()

	cache := &mapCache{values: make(map[string]int64)}
	client := newTestClient(t, server.URL).WithCache(cache)

	ctx := context.Background()

	// Первый запрос идет в API и наполняет кэш
	id, err := client.UserIDFromUsername(ctx, "maria")
	require.NoError(t, err)
	assert.Equal(t, int64(777), id)
	assert.Equal(t, int64(777), cache.values["maria"])

	// Второй запрос обслуживается из кэша
	_, err = client.UserIDFromUsername(ctx, "maria")
	require.NoError(t, err)
	assert.Equal(t, 1, cache.hits)
}

func TestSendDirectText(t *testing.T) {
	server := fakeInstagramAPI(t)
	defer server.Close()

	client := newTestClient(t, server.URL)

	threadID, err := client.SendDirectText(context.Background(), 777, "olá")
	require.NoError(t, err)
	assert.Equal(t, "t_100", threadID)
}

func TestInboxAndThread(t *testing.T) {
	server := fakeInstagramAPI(t)
	defer server.Close()

	client := newTestClient(t, server.URL)
	client.Session().Cookies["sessionid"] = "still_alive"

	threads, err := client.Inbox(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, threads, 1)
	assert.Equal(t, "t_100", threads[0].ThreadID)
	assert.Equal(t, "maria", threads[0].Users[0].Username)

	items, err := client.ThreadMessages(context.Background(), "t_100")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "olá", items[0].Text)
}

func TestConcurrentRequestsRotateCookies(t *testing.T) {
	var counter atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Каждый ответ ротирует cookie сессии, как делает настоящий API
		http.SetCookie(w, &http.Cookie{Name: "sessionid", Value: fmt.Sprintf("rotated_%d", counter.Add(1))})
		http.SetCookie(w, &http.Cookie{Name: "csrftoken", Value: "csrf_rotated"})
		w.Write([]byte(`{"inbox":{"threads":[]},"status":"ok"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	client.Session().storeCookies([]*http.Cookie{{Name: "sessionid", Value: "initial"}})

	sessionFile := filepath.Join(t.TempDir(), "session.json")
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := client.Inbox(ctx, 1)
			assert.NoError(t, err)
		}()
	}

	// Параллельно сессию сохраняет SessionJob
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, client.Session().Save(sessionFile))
		}()
	}

	wg.Wait()

	assert.True(t, client.Session().LoggedIn())
	assert.Equal(t, "csrf_rotated", client.Session().CSRFToken)
}

func TestEndpointLabel(t *testing.T) {
	assert.Equal(t, "login", endpointLabel("/accounts/login/"))
	assert.Equal(t, "usernameinfo", endpointLabel("/users/maria/usernameinfo/"))
	assert.Equal(t, "broadcast_text", endpointLabel("/direct_v2/threads/broadcast/text/"))
	assert.Equal(t, "inbox", endpointLabel("/direct_v2/inbox/?limit=10"))
	assert.Equal(t, "thread", endpointLabel("/direct_v2/threads/t_100/"))
	assert.Equal(t, "other", endpointLabel("/feed/timeline/"))
}
