package ws

import (
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// 写超时
	writeWait = 10 * time.Second
	// Pong等待时间
	pongWait = 60 * time.Second
	// Ping周期（必须小于pongWait）
	pingPeriod = 30 * time.Second
	// 最大消息大小
	maxMessageSize = 4 * 1024
)

// frame 下发给客户端的统一帧格式
type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Client 一条已认证的长连接
type Client struct {
	id     string
	userID int64
	ns     string
	conn   *websocket.Conn
	send   chan []byte
	done   chan struct{}
	closed int32
	hub    *Hub

	// onClose 连接销毁时触发（status 命名空间在这里发布下线事件）
	onClose func()
}

func (c *Client) UserID() int64 {
	return c.userID
}

// EmitSelf 只向该连接本身发送事件
func (c *Client) EmitSelf(eventName string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload failed: %w", err)
	}
	msg, err := json.Marshal(frame{Event: eventName, Data: data})
	if err != nil {
		return fmt.Errorf("marshal frame failed: %w", err)
	}
	return c.push(msg)
}

func (c *Client) push(message []byte) error {
	if atomic.LoadInt32(&c.closed) == 1 {
		return fmt.Errorf("connection closed")
	}
	select {
	case c.send <- message:
		return nil
	default:
		return fmt.Errorf("send buffer full")
	}
}

// Close 幂等关闭
// send 永远不关闭：并发的 push 可能正要入队，关 done 让 writePump 退出即可
func (c *Client) Close() error {
	if !atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		return nil
	}
	close(c.done)
	return c.conn.Close()
}

// readPump 客户端不上行业务消息，这里只维持心跳并感知断开
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.Close()
		if c.onClose != nil {
			c.onClose()
		}
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				zap.L().Warn("websocket error", zap.Int64("userID", c.userID), zap.Error(err))
			}
			return
		}
	}
}

// writePump 串行写出，定期 ping
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				zap.L().Warn("write error", zap.Int64("userID", c.userID), zap.Error(err))
				return
			}

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
