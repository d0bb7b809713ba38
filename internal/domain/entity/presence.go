package entity

import "time"

// UserStatus 用户在线状态枚举
type UserStatus string

const (
	StatusOnline  UserStatus = "ONLINE"
	StatusOffline UserStatus = "OFFLINE"
	StatusAway    UserStatus = "AWAY"
	StatusGame    UserStatus = "GAME"
	StatusLobby   UserStatus = "LOBBY"
)

// Valid 校验是否为已知状态
func (s UserStatus) Valid() bool {
	switch s {
	case StatusOnline, StatusOffline, StatusAway, StatusGame, StatusLobby:
		return true
	}
	return false
}

// PresenceRecord 某个用户当前的状态及产生该状态的事件时间
// 存储中的记录永远对应观测到的 EventTime 最大的那条事件，
// 时间不更新的写入会被 SetIfNewer 丢弃
type PresenceRecord struct {
	UserID    int64      `json:"user_id"`
	Status    UserStatus `json:"status"`
	EventTime time.Time  `json:"event_time"`
}
