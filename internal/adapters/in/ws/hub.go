package ws

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/EthanQC/presence-gateway/internal/metrics"
)

// Hub 本实例的连接与房间索引
// 正向索引 房间→连接 用于广播，反向索引 连接→房间 用于注销时 O(1) 清理，
// 用户索引 用户→连接 用于把按用户寻址的操作映射到具体连接
//
// 房间成员关系只描述本实例持有的连接；跨实例由 Redis 中继把同一操作
// 广播给所有实例，各自作用于本地索引
type Hub struct {
	mu sync.RWMutex

	// ns → room → clients
	rooms map[string]map[string]map[*Client]struct{}
	// client → 它加入的房间（房间都在该 client 自己的 ns 下）
	clientRooms map[*Client]map[string]struct{}
	// ns → userID → clients
	byUser map[string]map[int64]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		rooms:       make(map[string]map[string]map[*Client]struct{}),
		clientRooms: make(map[*Client]map[string]struct{}),
		byUser:      make(map[string]map[int64]map[*Client]struct{}),
	}
}

// Register 连接完成认证后登记
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.byUser[c.ns] == nil {
		h.byUser[c.ns] = make(map[int64]map[*Client]struct{})
	}
	if h.byUser[c.ns][c.userID] == nil {
		h.byUser[c.ns][c.userID] = make(map[*Client]struct{})
	}
	h.byUser[c.ns][c.userID][c] = struct{}{}
	h.clientRooms[c] = make(map[string]struct{})

	metrics.Connections.WithLabelValues(c.ns).Inc()
	zap.L().Info("connection registered",
		zap.String("ns", c.ns),
		zap.String("socketID", c.id),
		zap.Int64("userID", c.userID))
}

// Unregister 把连接从所有房间和索引中移除
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	joined, ok := h.clientRooms[c]
	if !ok {
		return
	}
	for roomName := range joined {
		h.removeFromRoom(c, roomName)
	}
	delete(h.clientRooms, c)

	if users := h.byUser[c.ns]; users != nil {
		if conns := users[c.userID]; conns != nil {
			delete(conns, c)
			if len(conns) == 0 {
				delete(users, c.userID)
			}
		}
	}

	metrics.Connections.WithLabelValues(c.ns).Dec()
	zap.L().Info("connection unregistered",
		zap.String("ns", c.ns),
		zap.String("socketID", c.id),
		zap.Int64("userID", c.userID))
}

// Join 把某用户在 ns 下的所有本地连接加入房间
func (h *Hub) Join(ns, roomName string, userID int64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.byUser[ns][userID] {
		h.addToRoom(c, roomName)
	}
}

// Leave 把某用户的本地连接移出房间
func (h *Hub) Leave(ns, roomName string, userID int64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.byUser[ns][userID] {
		h.removeFromRoom(c, roomName)
		delete(h.clientRooms[c], roomName)
	}
}

// Emit 向房间内所有本地连接发送事件
func (h *Hub) Emit(ns, roomName, eventName string, data []byte) {
	msg, err := json.Marshal(frame{Event: eventName, Data: data})
	if err != nil {
		zap.L().Warn("marshal frame failed", zap.Error(err))
		return
	}

	h.mu.RLock()
	members := h.rooms[ns][roomName]
	targets := make([]*Client, 0, len(members))
	for c := range members {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if err := c.push(msg); err != nil {
			zap.L().Warn("drop message for slow connection",
				zap.String("room", roomName),
				zap.Int64("userID", c.userID),
				zap.Error(err))
		}
	}
	metrics.RoomEmits.WithLabelValues(ns).Inc()
}

// DisconnectRoom 强制断开房间内的所有本地连接
func (h *Hub) DisconnectRoom(ns, roomName string) {
	h.mu.RLock()
	members := h.rooms[ns][roomName]
	targets := make([]*Client, 0, len(members))
	for c := range members {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	// Close 触发 readPump 退出，清理走统一的 Unregister 路径
	for _, c := range targets {
		c.Close()
	}
}

// RoomMembers 返回房间内连接对应的用户（测试与诊断用）
func (h *Hub) RoomMembers(ns, roomName string) []int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()

	members := h.rooms[ns][roomName]
	if len(members) == 0 {
		return nil
	}
	out := make([]int64, 0, len(members))
	for c := range members {
		out = append(out, c.userID)
	}
	return out
}

// addToRoom 调用方必须已持有写锁
func (h *Hub) addToRoom(c *Client, roomName string) {
	if h.rooms[c.ns] == nil {
		h.rooms[c.ns] = make(map[string]map[*Client]struct{})
	}
	if h.rooms[c.ns][roomName] == nil {
		h.rooms[c.ns][roomName] = make(map[*Client]struct{})
	}
	h.rooms[c.ns][roomName][c] = struct{}{}
	if h.clientRooms[c] == nil {
		h.clientRooms[c] = make(map[string]struct{})
	}
	h.clientRooms[c][roomName] = struct{}{}
}

// removeFromRoom 调用方必须已持有写锁
func (h *Hub) removeFromRoom(c *Client, roomName string) {
	if members, ok := h.rooms[c.ns][roomName]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms[c.ns], roomName)
		}
	}
}
