package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/EthanQC/presence-gateway/internal/domain/entity"
	"github.com/EthanQC/presence-gateway/internal/ports/out"
)

// FriendClient 调用好友服务查询关系图（只读）
type FriendClient struct {
	httpJSONClient
}

var _ out.FriendGraph = (*FriendClient)(nil)

func NewFriendClient(baseURL string, timeout time.Duration) *FriendClient {
	return &FriendClient{newHTTPJSONClient(baseURL, timeout)}
}

// AcceptedFriends 返回已接受且未把本用户拉黑的好友，过滤在服务端完成
func (c *FriendClient) AcceptedFriends(ctx context.Context, userID int64) ([]entity.Friend, error) {
	var friends []entity.Friend
	status, err := c.doJSON(ctx, http.MethodGet,
		fmt.Sprintf("/api/friend/v1/users/%d/friends?status=ACCEPTED", userID), nil, &friends)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("list friends for user %d failed: status %d", userID, status)
	}
	return friends, nil
}
