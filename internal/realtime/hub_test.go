package realtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, hub *Hub, userID uint) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.ServeWS(w, r, userID)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, origin string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	header := http.Header{}
	if origin != "" {
		header.Set("Origin", origin)
	}
	return websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), header)
}

func TestPublishReachesConnectedUser(t *testing.T) {
	hub := NewHub([]string{"http://localhost:3000"})
	srv := serve(t, hub, 7)

	conn, _, err := dial(t, srv, "http://localhost:3000")
	require.NoError(t, err)
	defer conn.Close()

	var hello Message
	require.NoError(t, conn.ReadJSON(&hello))
	assert.Equal(t, "connected", hello.Type)
	assert.Equal(t, 1, hub.OnlineUsers())
	assert.Equal(t, 1, hub.Connections())

	assert.Equal(t, 0, hub.Publish(8, Message{Type: "notification"}))
	assert.Equal(t, 1, hub.Publish(7, Message{Type: "notification", Data: map[string]string{"title": "hi"}}))

	var got struct {
		Type string            `json:"type"`
		Data map[string]string `json:"data"`
	}
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "notification", got.Type)
	assert.Equal(t, "hi", got.Data["title"])

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.Connections() == 0 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, hub.OnlineUsers())
}

func TestRejectsUnknownOrigin(t *testing.T) {
	hub := NewHub([]string{"http://localhost:3000"})
	srv := serve(t, hub, 7)

	_, resp, err := dial(t, srv, "http://evil.example")
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Zero(t, hub.Connections())
}

func TestWildcardOrigin(t *testing.T) {
	hub := NewHub([]string{"*"})
	srv := serve(t, hub, 1)

	conn, _, err := dial(t, srv, "http://anything.example")
	require.NoError(t, err)
	defer conn.Close()
	var hello Message
	require.NoError(t, conn.ReadJSON(&hello))
	assert.Equal(t, "connected", hello.Type)
}
