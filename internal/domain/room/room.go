package room

import "fmt"

// 命名空间：status 承载在线状态订阅，friend 只作为点对点通知的信箱
const (
	NamespaceStatus = "status"
	NamespaceFriend = "friend"
)

// Personal 个人房间，每个已认证连接都会加入自己的个人房间
func Personal(userID int64) string {
	return fmt.Sprintf("user:%d", userID)
}

// Watch 状态观察房间，房间成员是「有权看到该用户状态」的连接
func Watch(userID int64) string {
	return fmt.Sprintf("user-status-%d", userID)
}
