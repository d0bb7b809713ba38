package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
)

// newTestConn 建一条真实的 websocket 连接，返回客户端侧与清理函数
func newTestConn(t *testing.T) (*websocket.Conn, func()) {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}))

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		srv.Close()
		t.Fatalf("dial: %v", err)
	}
	return conn, func() {
		conn.Close()
		srv.Close()
	}
}

func TestClientCloseIsSafeAgainstConcurrentPush(t *testing.T) {
	conn, cleanup := newTestConn(t)
	defer cleanup()

	c := &Client{
		id:     "test",
		userID: 1,
		ns:     "status",
		conn:   conn,
		send:   make(chan []byte, 4),
		done:   make(chan struct{}),
		hub:    NewHub(),
	}
	go c.writePump()

	// 广播路径在连接关闭的同时仍在推送，不得 panic
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			c.push([]byte(`{"event":"friend-status","data":{}}`))
		}
	}()

	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	wg.Wait()

	if err := c.push([]byte(`{}`)); err == nil {
		t.Error("push after Close must report the connection as closed")
	}
	if err := c.Close(); err != nil {
		t.Errorf("second Close must be a no-op, got %v", err)
	}
}
