package entity

// RelationshipStatus 好友关系状态（由外部持久化层维护，这里只读）
type RelationshipStatus string

const (
	RelationPending  RelationshipStatus = "PENDING"
	RelationAccepted RelationshipStatus = "ACCEPTED"
	RelationRejected RelationshipStatus = "REJECTED"
	RelationBlocked  RelationshipStatus = "BLOCKED"
)

// Friend 关系查询返回的好友视图
type Friend struct {
	FriendID int64 `json:"friendId"`
}

// UserProfile 用户目录查询返回的展示信息
type UserProfile struct {
	Nickname  string `json:"nickname"`
	AvatarURL string `json:"avatarUrl"`
}
