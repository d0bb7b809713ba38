package out

import (
	"context"
	"time"

	"github.com/EthanQC/presence-gateway/internal/domain/entity"
)

// StatusPublisher 向事件总线发布 STATUS.CHANGED 事件
// 网关只经由事件路径触发状态变化，自己不直接写存储
type StatusPublisher interface {
	PublishStatus(ctx context.Context, userID int64, status entity.UserStatus, at time.Time) error
}
