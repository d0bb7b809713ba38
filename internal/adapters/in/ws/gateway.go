package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/EthanQC/presence-gateway/internal/domain/room"
	"github.com/EthanQC/presence-gateway/internal/ports/in"
)

const (
	sendBufferSize = 64
	// 握手阶段（鉴权 + 房间播种）的总超时
	handshakeTimeout = 10 * time.Second
)

// Gateway WebSocket 入口，握手失败的请求不会升级成长连接
type Gateway struct {
	hub      *Hub
	session  in.SessionUseCase
	upgrader websocket.Upgrader
}

func NewGateway(hub *Hub, session in.SessionUseCase) *Gateway {
	return &Gateway{
		hub:     hub,
		session: session,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// 跨域由前置网关控制
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// RegisterRoutes 两个命名空间各一条升级路由
func (g *Gateway) RegisterRoutes(r *gin.Engine) {
	r.GET("/ws/status", g.handleStatus)
	r.GET("/ws/friend", g.handleFriend)
}

func (g *Gateway) handleStatus(c *gin.Context) {
	g.serve(c, room.NamespaceStatus)
}

func (g *Gateway) handleFriend(c *gin.Context) {
	g.serve(c, room.NamespaceFriend)
}

func (g *Gateway) serve(c *gin.Context, ns string) {
	// token 必须是恰好一个非空的查询参数，数组或缺失直接拒绝
	tokens := c.Request.URL.Query()["token"]
	if len(tokens) != 1 || tokens[0] == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token is required"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), handshakeTimeout)
	defer cancel()

	userID, err := g.session.Authenticate(ctx, tokens[0])
	if err != nil {
		zap.L().Warn("handshake rejected",
			zap.String("ns", ns),
			zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conn, err := g.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		zap.L().Warn("upgrade failed", zap.Int64("userID", userID), zap.Error(err))
		return
	}

	client := &Client{
		id:     uuid.NewString(),
		userID: userID,
		ns:     ns,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		done:   make(chan struct{}),
		hub:    g.hub,
	}
	if ns == room.NamespaceStatus {
		client.onClose = func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := g.session.CloseStatusSession(ctx, userID); err != nil {
				zap.L().Error("close status session failed",
					zap.Int64("userID", userID),
					zap.Error(err))
			}
		}
	}

	g.hub.Register(client)
	go client.writePump()

	var openErr error
	switch ns {
	case room.NamespaceStatus:
		openErr = g.session.OpenStatusSession(ctx, client)
	case room.NamespaceFriend:
		openErr = g.session.OpenFriendSession(ctx, client)
	}
	if openErr != nil {
		// 播种失败整条连接作废，避免半初始化的视图
		zap.L().Error("open session failed",
			zap.String("ns", ns),
			zap.Int64("userID", userID),
			zap.Error(openErr))
		g.hub.Unregister(client)
		client.onClose = nil
		client.Close()
		return
	}

	go client.readPump()
}
