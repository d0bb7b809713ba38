package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/EthanQC/presence-gateway/internal/domain/entity"
	"github.com/EthanQC/presence-gateway/internal/ports/out"
)

const (
	// 在线状态Key前缀
	presenceKeyPrefix = "presence:user:"
)

// PresenceStoreRedis Redis在线状态存储实现
// 每个用户一个 hash：status 字段存状态，ts 字段存事件时间（毫秒）
// 写入用 Lua 脚本做比较写，多实例并发下只有事件时间最大的写入生效
type PresenceStoreRedis struct {
	client *redis.Client
}

var _ out.PresenceStore = (*PresenceStoreRedis)(nil)

// Lua脚本：仅当事件时间严格更新时写入，返回 1 表示生效
var setIfNewerScript = redis.NewScript(`
local ts = redis.call('HGET', KEYS[1], 'ts')
if ts and tonumber(ts) >= tonumber(ARGV[2]) then
    return 0
end
redis.call('HSET', KEYS[1], 'status', ARGV[1], 'ts', ARGV[2])
return 1
`)

func NewPresenceStoreRedis(client *redis.Client) *PresenceStoreRedis {
	return &PresenceStoreRedis{client: client}
}

func (r *PresenceStoreRedis) getKey(userID int64) string {
	return fmt.Sprintf("%s%d", presenceKeyPrefix, userID)
}

// Get 查询用户状态，记录不存在时返回 nil
func (r *PresenceStoreRedis) Get(ctx context.Context, userID int64) (*entity.PresenceRecord, error) {
	vals, err := r.client.HGetAll(ctx, r.getKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("get presence failed: %w", err)
	}
	if len(vals) == 0 {
		return nil, nil
	}

	status := entity.UserStatus(vals["status"])
	if !status.Valid() {
		return nil, fmt.Errorf("invalid stored status: %q", vals["status"])
	}

	ms, err := strconv.ParseInt(vals["ts"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse presence timestamp failed: %w", err)
	}

	return &entity.PresenceRecord{
		UserID:    userID,
		Status:    status,
		EventTime: time.UnixMilli(ms),
	}, nil
}

// SetIfNewer 原子比较写，事件时间不严格更新则丢弃
func (r *PresenceStoreRedis) SetIfNewer(ctx context.Context, userID int64, status entity.UserStatus, eventTime time.Time) (bool, error) {
	key := r.getKey(userID)

	result, err := setIfNewerScript.Run(ctx, r.client, []string{key},
		string(status), eventTime.UnixMilli()).Result()
	if err != nil {
		return false, fmt.Errorf("set presence failed: %w", err)
	}

	applied, ok := result.(int64)
	if !ok {
		return false, fmt.Errorf("invalid script result type")
	}
	return applied == 1, nil
}
