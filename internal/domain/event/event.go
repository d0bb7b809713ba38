package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/EthanQC/presence-gateway/internal/domain/entity"
)

// Kafka Topic 定义
const (
	TopicUserStatus = "user-status"
	TopicFriend     = "friend"
	TopicAuth       = "auth"
	TopicImage      = "image"
)

// eventType 标签
const (
	TypeStatusChanged  = "CHANGED"
	TypeFriendRequest  = "REQUESTED"
	TypeFriendAccepted = "ACCEPTED"
	TypeFriendRejected = "REJECTED"
	TypeFriendAdded    = "ADDED"
	TypeFriendBlock    = "BLOCK"
	TypeFriendUnblock  = "UNBLOCK"
	TypeAuthLogout     = "LOGOUT"
	TypeImageUploaded  = "UPLOADED"
)

// Kind 解码后的事件变体，topic + eventType 在解码时一次性归一到这里，
// 后续处理只对 Kind 做分支，不再比较字符串
type Kind int

const (
	// KindIgnored 表示已知 topic 上的未知或显式忽略的 eventType，
	// 处理器对其保持无副作用（向前兼容）
	KindIgnored Kind = iota
	KindStatusChanged
	KindFriendRequested
	KindFriendAccepted
	KindFriendAdded
	KindFriendBlocked
	KindFriendUnblocked
	KindAuthLogout
	KindAvatarUploaded
)

// StatusChanged user-status topic 的 CHANGED 事件
type StatusChanged struct {
	UserID    int64
	Status    entity.UserStatus
	EventTime time.Time
}

// FriendPair friend topic 上有方向的两人事件（REQUESTED/ACCEPTED/BLOCK/UNBLOCK）
type FriendPair struct {
	FromUserID int64
	ToUserID   int64
	Timestamp  string
}

// FriendAdded 双方互相接受后触发一次的 ADDED 事件
type FriendAdded struct {
	UserAID   int64
	UserBID   int64
	Timestamp string
}

// Logout auth topic 的 LOGOUT 事件
type Logout struct {
	UserID int64
}

// AvatarUploaded image topic 的 UPLOADED 事件
type AvatarUploaded struct {
	UserID    int64
	AvatarURL string
}

// Envelope 解码结果，Kind 指示哪一个字段有效
type Envelope struct {
	Kind          Kind
	StatusChanged *StatusChanged
	FriendPair    *FriendPair
	FriendAdded   *FriendAdded
	Logout        *Logout
	Avatar        *AvatarUploaded
}

// Decode 把某个 topic 上的原始消息解析成类型化事件
// 未知 eventType 返回 KindIgnored 且无错误（调用方静默消费）；
// 已知 eventType 但字段非法则返回错误，由调用方记录后当作已消费
func Decode(topic string, raw []byte) (Envelope, error) {
	var probe struct {
		EventType string `json:"eventType"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return Envelope{}, fmt.Errorf("解析事件失败: %w", err)
	}

	switch topic {
	case TopicUserStatus:
		if probe.EventType == TypeStatusChanged {
			return decodeStatusChanged(raw)
		}
	case TopicFriend:
		switch probe.EventType {
		case TypeFriendAdded:
			return decodeFriendAdded(raw)
		case TypeFriendRequest:
			return decodeFriendPair(raw, KindFriendRequested)
		case TypeFriendAccepted:
			return decodeFriendPair(raw, KindFriendAccepted)
		case TypeFriendBlock:
			return decodeFriendPair(raw, KindFriendBlocked)
		case TypeFriendUnblock:
			return decodeFriendPair(raw, KindFriendUnblocked)
		case TypeFriendRejected:
			// REJECTED 不触发任何房间或状态变更
			return Envelope{Kind: KindIgnored}, nil
		}
	case TopicAuth:
		if probe.EventType == TypeAuthLogout {
			return decodeLogout(raw)
		}
	case TopicImage:
		if probe.EventType == TypeImageUploaded {
			return decodeAvatar(raw)
		}
	}

	return Envelope{Kind: KindIgnored}, nil
}

func decodeStatusChanged(raw []byte) (Envelope, error) {
	var m struct {
		UserID    int64  `json:"userId"`
		Status    string `json:"status"`
		Timestamp string `json:"timestamp"`
	}
	if err := json.Unmarshal(raw, &m); err != nil {
		return Envelope{}, fmt.Errorf("解析状态事件失败: %w", err)
	}
	if m.UserID <= 0 {
		return Envelope{}, fmt.Errorf("状态事件 userId 非法: %d", m.UserID)
	}
	status := entity.UserStatus(m.Status)
	if !status.Valid() {
		return Envelope{}, fmt.Errorf("未知的用户状态: %q", m.Status)
	}
	ts, err := parseEventTime(m.Timestamp)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		Kind:          KindStatusChanged,
		StatusChanged: &StatusChanged{UserID: m.UserID, Status: status, EventTime: ts},
	}, nil
}

func decodeFriendAdded(raw []byte) (Envelope, error) {
	var m struct {
		UserAID   int64  `json:"userAId"`
		UserBID   int64  `json:"userBId"`
		Timestamp string `json:"timestamp"`
	}
	if err := json.Unmarshal(raw, &m); err != nil {
		return Envelope{}, fmt.Errorf("解析好友添加事件失败: %w", err)
	}
	if m.UserAID <= 0 || m.UserBID <= 0 {
		return Envelope{}, fmt.Errorf("好友添加事件用户 ID 非法: %d, %d", m.UserAID, m.UserBID)
	}
	return Envelope{
		Kind:        KindFriendAdded,
		FriendAdded: &FriendAdded{UserAID: m.UserAID, UserBID: m.UserBID, Timestamp: m.Timestamp},
	}, nil
}

func decodeFriendPair(raw []byte, kind Kind) (Envelope, error) {
	var m struct {
		FromUserID int64  `json:"fromUserId"`
		ToUserID   int64  `json:"toUserId"`
		Timestamp  string `json:"timestamp"`
	}
	if err := json.Unmarshal(raw, &m); err != nil {
		return Envelope{}, fmt.Errorf("解析好友事件失败: %w", err)
	}
	if m.FromUserID <= 0 || m.ToUserID <= 0 {
		return Envelope{}, fmt.Errorf("好友事件用户 ID 非法: %d, %d", m.FromUserID, m.ToUserID)
	}
	return Envelope{
		Kind:       kind,
		FriendPair: &FriendPair{FromUserID: m.FromUserID, ToUserID: m.ToUserID, Timestamp: m.Timestamp},
	}, nil
}

func decodeLogout(raw []byte) (Envelope, error) {
	var m struct {
		UserID int64 `json:"userId"`
	}
	if err := json.Unmarshal(raw, &m); err != nil {
		return Envelope{}, fmt.Errorf("解析登出事件失败: %w", err)
	}
	if m.UserID <= 0 {
		return Envelope{}, fmt.Errorf("登出事件 userId 非法: %d", m.UserID)
	}
	return Envelope{Kind: KindAuthLogout, Logout: &Logout{UserID: m.UserID}}, nil
}

func decodeAvatar(raw []byte) (Envelope, error) {
	var m struct {
		UserID    int64  `json:"userId"`
		AvatarURL string `json:"avatarUrl"`
	}
	if err := json.Unmarshal(raw, &m); err != nil {
		return Envelope{}, fmt.Errorf("解析头像事件失败: %w", err)
	}
	if m.UserID <= 0 || m.AvatarURL == "" {
		return Envelope{}, fmt.Errorf("头像事件字段非法: userId=%d", m.UserID)
	}
	return Envelope{Kind: KindAvatarUploaded, Avatar: &AvatarUploaded{UserID: m.UserID, AvatarURL: m.AvatarURL}}, nil
}

// parseEventTime 事件时间为 ISO-8601 字符串
func parseEventTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("事件缺少 timestamp")
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("解析事件时间失败: %w", err)
	}
	return t, nil
}
