package out

import (
	"context"
	"time"

	"github.com/EthanQC/presence-gateway/internal/domain/entity"
)

// PresenceStore 共享在线状态存储
// 多实例并发写同一用户，所有写入必须走 SetIfNewer，不允许盲写
type PresenceStore interface {
	// Get 查询用户当前状态，不存在返回 nil
	Get(ctx context.Context, userID int64) (*entity.PresenceRecord, error)
	// SetIfNewer 仅当 eventTime 严格新于已存记录时写入
	// 整个读比较写必须是原子的，返回是否实际生效
	SetIfNewer(ctx context.Context, userID int64, status entity.UserStatus, eventTime time.Time) (bool, error)
}
