package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/EthanQC/presence-gateway/internal/domain/entity"
	"github.com/EthanQC/presence-gateway/internal/ports/out"
)

// UserClient 调用用户服务查询展示信息、回写头像
type UserClient struct {
	httpJSONClient
}

var _ out.UserDirectory = (*UserClient)(nil)

func NewUserClient(baseURL string, timeout time.Duration) *UserClient {
	return &UserClient{newHTTPJSONClient(baseURL, timeout)}
}

// Lookup 查询用户展示信息，用户不存在视为错误（调用方 fail closed）
func (c *UserClient) Lookup(ctx context.Context, userID int64) (*entity.UserProfile, error) {
	var profile entity.UserProfile
	status, err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/api/user/v1/users/%d", userID), nil, &profile)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("lookup user %d failed: status %d", userID, status)
	}
	return &profile, nil
}

// UpdateAvatar 更新用户头像地址
func (c *UserClient) UpdateAvatar(ctx context.Context, userID int64, avatarURL string) error {
	status, err := c.doJSON(ctx, http.MethodPut, fmt.Sprintf("/api/user/v1/users/%d/avatar", userID),
		map[string]string{"avatarUrl": avatarURL}, nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("update avatar for user %d failed: status %d", userID, status)
	}
	return nil
}
