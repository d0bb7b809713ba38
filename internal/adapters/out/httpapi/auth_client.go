package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/EthanQC/presence-gateway/internal/ports/out"
)

// ErrTokenRejected 令牌未通过远端校验
var ErrTokenRejected = errors.New("token rejected by auth service")

// AuthClient 调用认证服务校验握手令牌
type AuthClient struct {
	httpJSONClient
}

var _ out.TokenVerifier = (*AuthClient)(nil)

func NewAuthClient(baseURL string, timeout time.Duration) *AuthClient {
	return &AuthClient{newHTTPJSONClient(baseURL, timeout)}
}

// Verify 远端校验令牌有效性，valid 为 false 时一律拒绝；
// 用户 ID 优先取响应字段，响应未携带时退回到本地解析 JWT payload
// （此时有效性已由远端确认，本地只取声明不验签名）
func (c *AuthClient) Verify(ctx context.Context, token string) (int64, error) {
	var resp struct {
		Valid  bool  `json:"valid"`
		UserID int64 `json:"userId"`
	}

	status, err := c.doJSON(ctx, http.MethodPost, "/api/auth/v1/token/verify",
		map[string]string{"access_token": token}, &resp)
	if err != nil {
		return 0, err
	}
	if status != http.StatusOK {
		return 0, fmt.Errorf("%w: status %d", ErrTokenRejected, status)
	}
	if !resp.Valid {
		return 0, ErrTokenRejected
	}

	if resp.UserID > 0 {
		return resp.UserID, nil
	}
	return userIDFromClaims(token)
}

// userIDFromClaims 从 JWT payload 中取出 id 声明，不做签名验证
func userIDFromClaims(token string) (int64, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return 0, fmt.Errorf("parse token claims failed: %w", err)
	}
	id, ok := claims["id"].(float64)
	if !ok || id <= 0 {
		return 0, fmt.Errorf("token has no usable id claim")
	}
	return int64(id), nil
}
