package api

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

func dialChat(t *testing.T, ts *httptest.Server, sessionID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/chat?session=" + sessionID
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestChatWebsocketRelaysReplies(t *testing.T) {
	s := newTestServer(t)
	session := s.agent.Sessions().Create("Ivan")

	ts := httptest.NewServer(s.Router())
	defer ts.Close()
	conn := dialChat(t, ts, session.ID)

	// Every processed message gets a reply; none may be dropped.
	for i := 0; i < 3; i++ {
		require.NoError(t, conn.WriteJSON(map[string]string{"content": "show me the menu"}))

		var reply chatReply
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		require.NoError(t, conn.ReadJSON(&reply))
		assert.Empty(t, reply.Error)
		assert.Equal(t, "assistant", reply.Role)
		assert.Contains(t, reply.Content, "complete menu")
	}
}

func TestChatWebsocketRejectsUnknownSession(t *testing.T) {
	s := newTestServer(t)
	ts := httptest.NewServer(s.Router())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/chat?session=no-such-session"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	if conn != nil {
		conn.Close()
	}
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestReplyDeliversUnderBackpressure(t *testing.T) {
	// An unbuffered channel models a write pump that is momentarily busy:
	// the reply must wait for it, not vanish.
	c := &chatConnection{send: make(chan []byte)}

	received := make(chan []byte, 1)
	go func() {
		received <- <-c.send
	}()

	c.reply(chatReply{Role: "assistant", Content: "Order created successfully with ID: 1"})

	select {
	case data := <-received:
		assert.Contains(t, string(data), "Order created successfully")
	case <-time.After(time.Second):
		t.Fatal("reply was dropped instead of delivered")
	}
}
